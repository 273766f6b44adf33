package ecs

import "github.com/kitu-show/kitu/internal/core/clock"

// RecordingSystem counts how many times it ran on each tick.
type RecordingSystem struct {
	Runs map[uint64]int
}

func NewRecordingSystem() *RecordingSystem {
	return &RecordingSystem{Runs: make(map[uint64]int)}
}

func (s *RecordingSystem) Run(_ *World, tick clock.Tick) error {
	if s.Runs == nil {
		s.Runs = make(map[uint64]int)
	}
	s.Runs[tick.Get()]++
	return nil
}

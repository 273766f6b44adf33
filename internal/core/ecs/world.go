package ecs

import (
	"github.com/kitu-show/kitu/internal/core/clock"
	"github.com/kitu-show/kitu/internal/core/errs"
)

// System is a unit of per-tick behavior run by World.Dispatch.
type System interface {
	Run(w *World, tick clock.Tick) error
}

// SystemFunc adapts a function to System.
type SystemFunc func(w *World, tick clock.Tick) error

func (f SystemFunc) Run(w *World, tick clock.Tick) error { return f(w, tick) }

// World is the component schema registry plus the FIFO queue of systems
// waiting to run. Component names are schema metadata only; storage lives with
// the caller. A World is not safe for concurrent use.
type World struct {
	components []string
	known      map[string]struct{}
	scheduled  []System
}

func NewWorld() *World {
	return &World{
		known:     make(map[string]struct{}, 16),
		scheduled: make([]System, 0, 16),
	}
}

// RegisterComponent records a component type name. Names are matched exactly
// (case-sensitive); a duplicate fails with InvalidInput and changes nothing.
func (w *World) RegisterComponent(name string) error {
	if _, ok := w.known[name]; ok {
		return errs.InvalidInput("component already registered: " + name)
	}
	w.known[name] = struct{}{}
	w.components = append(w.components, name)
	return nil
}

// HasComponent reports whether name has been registered.
func (w *World) HasComponent(name string) bool {
	_, ok := w.known[name]
	return ok
}

// RegisteredComponents returns a copy of the names in registration order.
func (w *World) RegisteredComponents() []string {
	out := make([]string, len(w.components))
	copy(out, w.components)
	return out
}

// ScheduleSystem appends s to the dispatch queue. The queue owns s from here
// on; it runs once and is dropped unless scheduled again.
func (w *World) ScheduleSystem(s System) {
	w.scheduled = append(w.scheduled, s)
}

// Dispatch runs queued systems in FIFO order until the queue is empty. Systems
// scheduled by a running system join the tail and run in the same call.
//
// On the first failure Dispatch stops and returns that error. The failing
// system has already been dequeued; the systems behind it stay queued so the
// caller can retry them or call DropScheduled.
func (w *World) Dispatch(tick clock.Tick) error {
	for len(w.scheduled) > 0 {
		s := w.scheduled[0]
		w.scheduled[0] = nil
		w.scheduled = w.scheduled[1:]
		if err := s.Run(w, tick); err != nil {
			return err
		}
	}
	// Reuse the backing array once drained.
	w.scheduled = w.scheduled[:0]
	return nil
}

// Scheduled returns the number of queued systems.
func (w *World) Scheduled() int {
	return len(w.scheduled)
}

// DropScheduled clears the queue and returns how many systems were dropped.
func (w *World) DropScheduled() int {
	n := len(w.scheduled)
	for i := range w.scheduled {
		w.scheduled[i] = nil
	}
	w.scheduled = w.scheduled[:0]
	return n
}

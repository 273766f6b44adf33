package system

import (
	"sort"

	"github.com/kitu-show/kitu/internal/core/ecs"
)

type entry struct {
	phase Phase
	sys   ecs.System
}

// Runner holds recurring systems and enqueues them into a World once per
// tick, in phase order. Systems registered in the same phase keep their
// registration order.
type Runner struct {
	systems []entry
	sorted  bool
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]entry, 0, 16),
	}
}

// Register adds a recurring system to the given phase.
func (r *Runner) Register(phase Phase, s ecs.System) {
	r.systems = append(r.systems, entry{phase: phase, sys: s})
	r.sorted = false
}

// RegisterPhased adds a system under its own Phase().
func (r *Runner) RegisterPhased(s Phased) {
	r.Register(s.Phase(), s)
}

// Len returns the number of recurring systems.
func (r *Runner) Len() int {
	return len(r.systems)
}

// Schedule enqueues every recurring system into w for the coming dispatch.
func (r *Runner) Schedule(w *ecs.World) {
	r.ensureSorted()
	for _, e := range r.systems {
		w.ScheduleSystem(e.sys)
	}
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].phase < r.systems[j].phase
		})
		r.sorted = true
	}
}

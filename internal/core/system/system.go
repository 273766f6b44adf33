package system

import (
	"fmt"

	"github.com/kitu-show/kitu/internal/core/ecs"
)

// Phase orders recurring systems within a single tick.
type Phase int

const (
	PhaseInput    Phase = iota // 0: apply inbound state from the previous drain
	PhaseUpdate                // 1: show logic, scripts
	PhaseTimeline              // 2: timeline stepping and emission
	PhaseOutput                // 3: outbound sends
	PhasePersist               // 4: snapshots
	PhaseCleanup               // 5: end-of-tick housekeeping
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "Input"
	case PhaseUpdate:
		return "Update"
	case PhaseTimeline:
		return "Timeline"
	case PhaseOutput:
		return "Output"
	case PhasePersist:
		return "Persist"
	case PhaseCleanup:
		return "Cleanup"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Phased is implemented by systems that know their own phase.
type Phased interface {
	ecs.System
	Phase() Phase
}

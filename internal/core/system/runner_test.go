package system

import (
	"testing"

	"github.com/kitu-show/kitu/internal/core/clock"
	"github.com/kitu-show/kitu/internal/core/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type named struct {
	name  string
	phase Phase
	log   *[]string
}

func (n *named) Phase() Phase { return n.phase }

func (n *named) Run(*ecs.World, clock.Tick) error {
	*n.log = append(*n.log, n.name)
	return nil
}

func TestRunnerSchedulesInPhaseOrder(t *testing.T) {
	var log []string
	r := NewRunner()
	r.RegisterPhased(&named{name: "persist", phase: PhasePersist, log: &log})
	r.RegisterPhased(&named{name: "update-1", phase: PhaseUpdate, log: &log})
	r.RegisterPhased(&named{name: "input", phase: PhaseInput, log: &log})
	r.RegisterPhased(&named{name: "update-2", phase: PhaseUpdate, log: &log})
	require.Equal(t, 4, r.Len())

	w := ecs.NewWorld()
	for tick := clock.Start(); tick < 2; tick = tick.Next() {
		r.Schedule(w)
		require.NoError(t, w.Dispatch(tick))
	}
	want := []string{"input", "update-1", "update-2", "persist"}
	assert.Equal(t, append(append([]string{}, want...), want...), log)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "Timeline", PhaseTimeline.String())
	assert.Equal(t, "Phase(42)", Phase(42).String())
}

package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/kitu-show/kitu/internal/core/clock"
	"github.com/kitu-show/kitu/internal/core/ecs"
	coresys "github.com/kitu-show/kitu/internal/core/system"
	"github.com/kitu-show/kitu/internal/osc"
	"github.com/kitu-show/kitu/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuntimeAdvancesTicks(t *testing.T) {
	rt := Build(transport.NewLocalChannel())
	assert.Equal(t, uint64(0), rt.CurrentTick().Get())
	require.NoError(t, rt.TickOnce())
	assert.Equal(t, uint64(1), rt.CurrentTick().Get())

	for n := uint64(0); n < 5; n++ {
		rt := Build(transport.NewLocalChannel())
		require.NoError(t, rt.RunForTicks(n))
		assert.Equal(t, n, rt.CurrentTick().Get())
	}
}

func TestFrameTimeMatchesTickRate(t *testing.T) {
	cfg := Config{TickRateHz: 120}
	assert.InDelta(t, 1.0/120.0, cfg.FrameTime().Seconds(), 1e-6)
	assert.Equal(t, time.Duration(0), Config{}.FrameTime())

	rt := New(cfg, transport.NewLocalChannel(), nil)
	require.NoError(t, rt.RunForTicks(120))
	assert.InDelta(t, 1.0, rt.Now().Elapsed().Seconds(), 1e-6)
	assert.Equal(t, cfg, rt.Config())
}

func TestFailedDispatchLeavesTickUnchanged(t *testing.T) {
	rt := Build(transport.NewLocalChannel())
	boom := errors.New("boom")
	var ran []string
	w := rt.WorldMut()
	w.ScheduleSystem(ecs.SystemFunc(func(*ecs.World, clock.Tick) error {
		ran = append(ran, "A")
		return nil
	}))
	w.ScheduleSystem(ecs.SystemFunc(func(*ecs.World, clock.Tick) error { return boom }))
	w.ScheduleSystem(ecs.SystemFunc(func(*ecs.World, clock.Tick) error {
		ran = append(ran, "C")
		return nil
	}))

	err := rt.TickOnce()
	require.ErrorIs(t, err, boom)
	assert.Equal(t, clock.Start(), rt.CurrentTick())
	assert.Equal(t, []string{"A"}, ran)
	assert.Equal(t, 1, w.Scheduled())
	assert.Equal(t, uint64(1), rt.Stats().DispatchFailures)

	require.NoError(t, rt.TickOnce())
	assert.Equal(t, []string{"A", "C"}, ran)
	assert.Equal(t, uint64(1), rt.CurrentTick().Get())
}

func TestFailedDispatchDoesNotDrain(t *testing.T) {
	ch := transport.NewConnectedLocalChannel()
	rt := Build(ch)
	rt.WorldMut().ScheduleSystem(ecs.SystemFunc(func(*ecs.World, clock.Tick) error {
		return errors.New("nope")
	}))
	require.Error(t, rt.TickOnce())
	assert.Equal(t, 1, ch.Pending())
}

func TestRunForTicksStopsAtFirstFailure(t *testing.T) {
	rt := Build(transport.NewLocalChannel())
	calls := 0
	rt.Runner().Register(coresys.PhaseUpdate, ecs.SystemFunc(func(_ *ecs.World, tick clock.Tick) error {
		calls++
		if tick.Get() == 2 {
			return errors.New("tick two")
		}
		return nil
	}))

	err := rt.RunForTicks(10)
	require.Error(t, err)
	assert.Equal(t, uint64(2), rt.CurrentTick().Get())
	assert.Equal(t, 3, calls)
}

func countRuns(runs map[uint64]int) ecs.System {
	return ecs.SystemFunc(func(_ *ecs.World, tick clock.Tick) error {
		runs[tick.Get()]++
		return nil
	})
}

func failOnce(err error) ecs.System {
	failed := false
	return ecs.SystemFunc(func(*ecs.World, clock.Tick) error {
		if !failed {
			failed = true
			return err
		}
		return nil
	})
}

func TestRetryAfterFailureRunsRecurringSystemsOncePerTick(t *testing.T) {
	rt := Build(transport.NewLocalChannel())
	before := map[uint64]int{}
	after := map[uint64]int{}
	rt.Runner().Register(coresys.PhaseInput, countRuns(before))
	rt.Runner().Register(coresys.PhaseUpdate, failOnce(errors.New("transient")))
	rt.Runner().Register(coresys.PhaseTimeline, countRuns(after))

	require.Error(t, rt.TickOnce())
	assert.Equal(t, map[uint64]int{0: 1}, before)
	assert.Empty(t, after)

	require.NoError(t, rt.TickOnce())
	assert.Equal(t, uint64(1), rt.CurrentTick().Get())
	assert.Equal(t, map[uint64]int{0: 1}, before, "systems ahead of the failure are not rerun")
	assert.Equal(t, map[uint64]int{0: 1}, after, "systems behind the failure finish the tick")
	assert.Equal(t, 0, rt.WorldMut().Scheduled())

	require.NoError(t, rt.TickOnce())
	assert.Equal(t, map[uint64]int{0: 1, 1: 1}, before)
	assert.Equal(t, map[uint64]int{0: 1, 1: 1}, after)
}

func TestRetryWhenLastSystemFailedCompletesTick(t *testing.T) {
	rt := Build(transport.NewLocalChannel())
	runs := map[uint64]int{}
	rt.Runner().Register(coresys.PhaseInput, countRuns(runs))
	rt.Runner().Register(coresys.PhaseCleanup, failOnce(errors.New("transient")))

	require.Error(t, rt.TickOnce())
	require.NoError(t, rt.TickOnce())
	require.NoError(t, rt.TickOnce())
	assert.Equal(t, map[uint64]int{0: 1, 1: 1}, runs)
}

type failingTransport struct{}

func (failingTransport) Send(osc.Message) error { return errors.New("link down") }

func (failingTransport) PollEvent() (transport.Event, bool) { return transport.Event{}, false }

func TestSendFailurePropagatesWithoutBreakingTicks(t *testing.T) {
	rt := Build(failingTransport{})
	assert.Error(t, rt.Send(osc.NewMessage("/x")))
	require.NoError(t, rt.TickOnce())
	assert.Zero(t, rt.Stats().MessagesSent)
}

func TestDrainRoutesEventsInArrivalOrderOnCurrentTick(t *testing.T) {
	ch := transport.NewConnectedLocalChannel()
	rt := Build(ch)
	require.NoError(t, rt.RunForTicks(3))

	type seen struct {
		tick uint64
		addr string
	}
	var got []seen
	rt.Router().Handle("*", func(tick clock.Tick, m osc.Message) error {
		got = append(got, seen{tick.Get(), m.Address})
		return nil
	})
	require.NoError(t, ch.Inject(osc.NewBundle(osc.NewMessage("/a"), osc.NewMessage("/b"))))
	require.NoError(t, ch.Send(osc.NewMessage("/c")))

	require.NoError(t, rt.TickOnce())
	assert.Equal(t, []seen{{3, "/a"}, {3, "/b"}, {3, "/c"}}, got)
	assert.Zero(t, ch.Pending())

	st := rt.Stats()
	assert.True(t, st.Connected)
	assert.Equal(t, uint64(3), st.EventsDrained)
	assert.Equal(t, uint64(2), st.BundlesRouted)
}

func TestRoutingFailuresDoNotAbortTheTick(t *testing.T) {
	ch := transport.NewLocalChannel()
	rt := Build(ch)
	rt.Router().Handle("/bad", func(clock.Tick, osc.Message) error { return errors.New("bad") })
	var after int
	rt.Router().Handle("/good", func(clock.Tick, osc.Message) error { after++; return nil })
	require.NoError(t, ch.Send(osc.NewMessage("/bad")))
	require.NoError(t, ch.Send(osc.NewMessage("/good")))

	require.NoError(t, rt.TickOnce())
	assert.Equal(t, 1, after)
	assert.Equal(t, uint64(1), rt.Stats().RouteErrors)
	assert.Equal(t, uint64(1), rt.CurrentTick().Get())
}

func TestOutboxSendsDuringDispatchAreDrainedSameTick(t *testing.T) {
	ch := transport.NewLocalChannel()
	rt := Build(ch)
	out := rt.Outbox()
	rt.WorldMut().ScheduleSystem(ecs.SystemFunc(func(*ecs.World, clock.Tick) error {
		return out.Send(osc.NewMessage("/echo"))
	}))
	var echoed []uint64
	rt.Router().Handle("/echo", func(tick clock.Tick, _ osc.Message) error {
		echoed = append(echoed, tick.Get())
		return nil
	})

	require.NoError(t, rt.TickOnce())
	assert.Equal(t, []uint64{0}, echoed)
	assert.Equal(t, uint64(1), rt.Stats().MessagesSent)
}

func TestDisconnectUsesTransportPolicy(t *testing.T) {
	ch := transport.NewConnectedLocalChannel()
	rt := Build(ch)
	require.NoError(t, rt.TickOnce())
	require.NoError(t, rt.Disconnect())
	require.NoError(t, rt.TickOnce())
	assert.False(t, rt.Stats().Connected)
	assert.ErrorIs(t, rt.Send(osc.NewMessage("/x")), transport.ErrNotConnected)
}

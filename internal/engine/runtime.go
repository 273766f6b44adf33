// Package engine is the tick orchestrator: it owns the world, the transport
// and the tick counter, and advances them one cycle at a time.
//
// A Runtime is not safe for concurrent use. Hosts that tick from one
// goroutine and inspect or mutate from another must guard the whole Runtime
// with one lock (see package embed); locking the world and the transport
// separately could interleave a dispatch with a drain.
package engine

import (
	"fmt"

	"github.com/kitu-show/kitu/internal/core/clock"
	"github.com/kitu-show/kitu/internal/core/ecs"
	"github.com/kitu-show/kitu/internal/core/event"
	coresys "github.com/kitu-show/kitu/internal/core/system"
	"github.com/kitu-show/kitu/internal/osc"
	"github.com/kitu-show/kitu/internal/transport"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Stats are counters observed across ticks.
type Stats struct {
	Ticks            uint64
	DispatchFailures uint64
	EventsDrained    uint64
	BundlesRouted    uint64
	RouteErrors      uint64
	MessagesSent     uint64
	Connected        bool
}

type Runtime struct {
	cfg       Config
	tick      clock.Tick
	transport transport.Transport
	world     *ecs.World
	runner    *coresys.Runner
	router    *event.Router
	stats     Stats
	resume    bool // last dispatch failed; finish its queue before rescheduling
	log       *zap.Logger
}

// New builds a runtime around tr. The runtime takes exclusive ownership of
// tr; nothing else may send on or poll it afterwards.
func New(cfg Config, tr transport.Transport, log *zap.Logger) *Runtime {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runtime{
		cfg:       cfg,
		tick:      clock.Start(),
		transport: tr,
		world:     ecs.NewWorld(),
		runner:    coresys.NewRunner(),
		router:    event.NewRouter(log.Named("router")),
		log:       log,
	}
}

// Build returns a 60Hz runtime without logging.
func Build(tr transport.Transport) *Runtime {
	return New(Default60Hz(), tr, nil)
}

// TickOnce runs one cycle:
//
//  1. recurring systems from the runner are enqueued, then the world is
//     dispatched for the current tick;
//  2. the transport is drained until PollEvent reports nothing, each Message
//     bundle routed in arrival order;
//  3. the tick advances by one.
//
// A dispatch failure is returned before step 2 and leaves the tick unchanged.
// Systems queued behind the failing one stay in the world, and the next call
// resumes that tick: it dispatches the leftovers without enqueuing the
// runner again, so no recurring system runs twice on one tick. The failing
// system itself is not retried. Calling WorldMut().DropScheduled() before
// the retry abandons the rest of the interrupted tick. Routing failures are
// logged and counted but never stop the drain, so every queued event is
// consumed exactly once on this tick.
func (rt *Runtime) TickOnce() error {
	if !rt.resume {
		rt.runner.Schedule(rt.world)
	}
	if err := rt.world.Dispatch(rt.tick); err != nil {
		rt.resume = true
		rt.stats.DispatchFailures++
		rt.log.Warn("dispatch failed",
			zap.Uint64("tick", rt.tick.Get()),
			zap.Int("still_queued", rt.world.Scheduled()),
			zap.Error(err),
		)
		return fmt.Errorf("dispatch %s: %w", rt.tick, err)
	}
	rt.resume = false
	rt.drain()
	rt.tick = rt.tick.Next()
	rt.stats.Ticks++
	return nil
}

func (rt *Runtime) drain() {
	for {
		ev, ok := rt.transport.PollEvent()
		if !ok {
			return
		}
		rt.stats.EventsDrained++
		switch ev.Kind {
		case transport.Connected:
			rt.stats.Connected = true
			rt.log.Info("transport connected", zap.Uint64("tick", rt.tick.Get()))
		case transport.Disconnected:
			rt.stats.Connected = false
			rt.log.Info("transport disconnected", zap.Uint64("tick", rt.tick.Get()))
		case transport.Message:
			rt.stats.BundlesRouted++
			if err := rt.router.Route(rt.tick, ev.Bundle); err != nil {
				failures := multierr.Errors(err)
				rt.stats.RouteErrors += uint64(len(failures))
				rt.log.Warn("message routing failed",
					zap.Uint64("tick", rt.tick.Get()),
					zap.Int("failures", len(failures)),
					zap.Error(err),
				)
			}
		default:
			rt.log.Warn("unknown transport event", zap.Stringer("kind", ev.Kind))
		}
	}
}

// RunForTicks calls TickOnce n times, stopping at the first failure. Compare
// CurrentTick before and after to see how many ticks completed.
func (rt *Runtime) RunForTicks(n uint64) error {
	for i := uint64(0); i < n; i++ {
		if err := rt.TickOnce(); err != nil {
			return err
		}
	}
	return nil
}

// Send hands msg to the owned transport. Failures are returned, never dropped.
func (rt *Runtime) Send(msg osc.Message) error {
	if err := rt.transport.Send(msg); err != nil {
		return fmt.Errorf("send %s: %w", msg.Address, err)
	}
	rt.stats.MessagesSent++
	return nil
}

// Outbox returns a Sender onto the owned transport for systems that emit
// during dispatch. It must only be used on the goroutine that ticks.
func (rt *Runtime) Outbox() transport.Sender {
	return outbox{rt: rt}
}

type outbox struct {
	rt *Runtime
}

func (o outbox) Send(msg osc.Message) error { return o.rt.Send(msg) }

// Disconnect closes the owned transport using its own buffered-event policy.
func (rt *Runtime) Disconnect() error {
	return transport.Disconnect(rt.transport)
}

func (rt *Runtime) CurrentTick() clock.Tick { return rt.tick }

// Now is the current tick as a timestamp under the configured frame time.
func (rt *Runtime) Now() clock.Timestamp {
	return clock.NewTimestamp(rt.tick, rt.cfg.FrameTime())
}

// WorldMut exposes the world to setup code between ticks.
func (rt *Runtime) WorldMut() *ecs.World { return rt.world }

func (rt *Runtime) Config() Config { return rt.cfg }

// Runner holds recurring systems enqueued before every dispatch.
func (rt *Runtime) Runner() *coresys.Runner { return rt.runner }

// Router receives every drained Message bundle.
func (rt *Runtime) Router() *event.Router { return rt.router }

func (rt *Runtime) Stats() Stats { return rt.stats }

// Package event routes drained transport bundles to address handlers.
package event

import (
	"fmt"
	"strings"

	"github.com/kitu-show/kitu/internal/core/clock"
	"github.com/kitu-show/kitu/internal/osc"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// HandlerFunc handles one message drained on the given tick.
type HandlerFunc func(tick clock.Tick, msg osc.Message) error

type route struct {
	pattern string
	fn      HandlerFunc
}

// Router maps address patterns to handlers. Patterns are an exact address,
// a prefix ending in "/*" (matching the prefix and everything below it), or
// "*" for every message. Registration happens between ticks; Route runs on
// the tick goroutine.
type Router struct {
	routes    []route
	unrouted  uint64
	delivered uint64
	log       *zap.Logger
}

func NewRouter(log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{log: log}
}

// Handle registers fn for messages whose address matches pattern.
func (r *Router) Handle(pattern string, fn HandlerFunc) {
	r.routes = append(r.routes, route{pattern: pattern, fn: fn})
}

// Route delivers every message of b, in bundle order, to each matching
// handler in registration order. A failing handler does not stop delivery of
// the rest of the bundle; all failures are returned combined.
func (r *Router) Route(tick clock.Tick, b osc.Bundle) error {
	var err error
	for _, msg := range b.Messages {
		matched := false
		for _, rt := range r.routes {
			if !match(rt.pattern, msg.Address) {
				continue
			}
			matched = true
			r.delivered++
			err = multierr.Append(err, r.safeCall(rt.fn, tick, msg))
		}
		if !matched {
			r.unrouted++
			r.log.Debug("unrouted message",
				zap.String("msg", msg.DebugString()),
				zap.Uint64("tick", tick.Get()),
			)
		}
	}
	return err
}

// Delivered returns the number of handler invocations so far.
func (r *Router) Delivered() uint64 { return r.delivered }

// Unrouted returns the number of messages no handler matched.
func (r *Router) Unrouted() uint64 { return r.unrouted }

// safeCall recovers handler panics so one malformed message cannot take down
// the tick loop.
func (r *Router) safeCall(fn HandlerFunc, tick clock.Tick, msg osc.Message) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("handler panic recovered",
				zap.String("address", msg.Address),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("handler panic for %s: %v", msg.Address, rec)
		}
	}()
	if err := fn(tick, msg); err != nil {
		return fmt.Errorf("handle %s: %w", msg.Address, err)
	}
	return nil
}

func match(pattern, address string) bool {
	switch {
	case pattern == "*":
		return true
	case strings.HasSuffix(pattern, "/*"):
		prefix := strings.TrimSuffix(pattern, "/*")
		return address == prefix || strings.HasPrefix(address, prefix+"/")
	default:
		return pattern == address
	}
}

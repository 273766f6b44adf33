// Package embed exposes a Runtime to host applications that drive it from
// outside the process's own goroutines, such as a native caller through cgo.
//
// A Handle serializes every access to its Runtime with one mutex. The handle
// table gives C-style integer handles with status-code results so an export
// layer needs no Go types at the boundary: a cgo package in package main
// wraps Create, Advance and Destroy one-to-one as //export functions.
// cmd/kitu drives its own runtime through the same table via Adopt.
package embed

import (
	"errors"
	"fmt"
	"sync"

	"github.com/kitu-show/kitu/internal/core/errs"
	"github.com/kitu-show/kitu/internal/engine"
	"github.com/kitu-show/kitu/internal/osc"
	"github.com/kitu-show/kitu/internal/transport"
)

// ErrReleased is returned by every Handle method after Release.
var ErrReleased = errs.InvalidInput("handle released")

// Handle guards a Runtime. All methods are safe for concurrent use; ticks
// and mutations are applied one at a time in lock order.
type Handle struct {
	mu       sync.Mutex
	rt       *engine.Runtime
	released bool
}

func NewHandle(rt *engine.Runtime) *Handle {
	return &Handle{rt: rt}
}

// Tick advances the runtime by one tick.
func (h *Handle) Tick() error {
	return h.Do(func(rt *engine.Runtime) error {
		return rt.TickOnce()
	})
}

// Send decodes an encoded message and sends it on the runtime's transport.
func (h *Handle) Send(payload []byte) error {
	msg, err := osc.Decode(payload)
	if err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return h.Do(func(rt *engine.Runtime) error {
		return rt.Send(msg)
	})
}

// Do runs fn with exclusive access to the runtime. fn must not keep the
// runtime after returning.
func (h *Handle) Do(fn func(rt *engine.Runtime) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return ErrReleased
	}
	return fn(h.rt)
}

// Release disconnects the transport and invalidates the handle. Only the
// first call succeeds. An already closed transport is not an error.
func (h *Handle) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return ErrReleased
	}
	h.released = true
	err := h.rt.Disconnect()
	h.rt = nil
	if errors.Is(err, errs.ErrNotImplemented) || errors.Is(err, transport.ErrNotConnected) {
		return nil
	}
	return err
}

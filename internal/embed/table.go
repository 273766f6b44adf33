package embed

import (
	"errors"
	"sync"

	"github.com/kitu-show/kitu/internal/engine"
	"github.com/kitu-show/kitu/internal/transport"
	"go.uber.org/zap"
)

// Status codes returned across the handle boundary.
const (
	StatusOK            int32 = 0
	StatusError         int32 = 1
	StatusInvalidHandle int32 = -1
)

// handle 0 is never issued, so callers can use it as "none".
var table = struct {
	sync.Mutex
	next    uint64
	handles map[uint64]*Handle
	log     *zap.Logger
}{
	handles: make(map[uint64]*Handle),
	log:     zap.NewNop(),
}

// SetLogger sets the logger for runtimes created by Create.
func SetLogger(log *zap.Logger) {
	table.Lock()
	defer table.Unlock()
	table.log = log
}

func logger() *zap.Logger {
	table.Lock()
	defer table.Unlock()
	return table.log
}

// Create builds a runtime on a connected local channel and returns its
// handle id.
func Create(cfg engine.Config) uint64 {
	rt := engine.New(cfg, transport.NewConnectedLocalChannel(), logger().Named("embed"))
	return Adopt(rt)
}

// Adopt registers an already built runtime and returns its handle id. The
// table owns rt from here on; release it with Destroy.
func Adopt(rt *engine.Runtime) uint64 {
	table.Lock()
	defer table.Unlock()
	table.next++
	table.handles[table.next] = NewHandle(rt)
	return table.next
}

// Lookup returns the live handle for id.
func Lookup(id uint64) (*Handle, bool) {
	table.Lock()
	defer table.Unlock()
	h, ok := table.handles[id]
	return h, ok
}

// Advance ticks the runtime behind id once.
func Advance(id uint64) int32 {
	h, ok := Lookup(id)
	if !ok {
		return StatusInvalidHandle
	}
	if err := h.Tick(); err != nil {
		if errors.Is(err, ErrReleased) {
			return StatusInvalidHandle
		}
		logger().Warn("embed tick failed", zap.Uint64("handle", id), zap.Error(err))
		return StatusError
	}
	return StatusOK
}

// Destroy releases the runtime behind id. A second Destroy of the same id
// returns StatusInvalidHandle.
func Destroy(id uint64) int32 {
	table.Lock()
	h, ok := table.handles[id]
	delete(table.handles, id)
	table.Unlock()
	if !ok {
		return StatusInvalidHandle
	}
	if err := h.Release(); err != nil {
		logger().Warn("embed release failed", zap.Uint64("handle", id), zap.Error(err))
		return StatusError
	}
	return StatusOK
}

package transport

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/kitu-show/kitu/internal/osc"
	"go.uber.org/zap"
)

// Queue is a channel-backed transport for hosts whose producers block on I/O.
// Producer goroutines hand bundles over with Deliver/TryDeliver; the tick loop
// polls them without blocking. Outbound messages are buffered for a host
// writer goroutine reading Outbound().
type Queue struct {
	in  chan Event
	out chan osc.Message

	closeCh      chan struct{}
	closeOnce    sync.Once
	closed       atomic.Bool
	inflight     atomic.Int64
	disconnected bool // tick goroutine only

	log *zap.Logger
}

// NewQueue creates a queue transport. When connected is true the first polled
// event is Connected.
func NewQueue(inSize, outSize int, connected bool, log *zap.Logger) *Queue {
	if log == nil {
		log = zap.NewNop()
	}
	q := &Queue{
		in:      make(chan Event, inSize+1),
		out:     make(chan osc.Message, outSize),
		closeCh: make(chan struct{}),
		log:     log,
	}
	if connected {
		q.in <- ConnectedEvent()
	}
	return q
}

// Deliver queues a bundle, blocking until there is room, ctx is done or the
// queue is disconnected. Blocking here only stalls the producer goroutine.
func (q *Queue) Deliver(ctx context.Context, b osc.Bundle) error {
	q.inflight.Add(1)
	defer q.inflight.Add(-1)
	if q.closed.Load() {
		return ErrNotConnected
	}
	select {
	case q.in <- MessageEvent(b):
		return nil
	case <-q.closeCh:
		return ErrNotConnected
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryDeliver queues a bundle without blocking.
func (q *Queue) TryDeliver(b osc.Bundle) error {
	q.inflight.Add(1)
	defer q.inflight.Add(-1)
	if q.closed.Load() {
		return ErrNotConnected
	}
	select {
	case q.in <- MessageEvent(b):
		return nil
	default:
		q.log.Warn("inbound queue full", zap.Int("messages", b.Len()))
		return ErrBufferFull
	}
}

// Send buffers msg for the host writer. It never blocks; a full buffer is
// reported as ErrBufferFull.
func (q *Queue) Send(msg osc.Message) error {
	if q.closed.Load() {
		return ErrNotConnected
	}
	select {
	case q.out <- msg:
		return nil
	default:
		q.log.Warn("outbound queue full", zap.String("address", msg.Address))
		return ErrBufferFull
	}
}

// Outbound is drained by the host writer goroutine.
func (q *Queue) Outbound() <-chan osc.Message {
	return q.out
}

// Done is closed once Disconnect has been called.
func (q *Queue) Done() <-chan struct{} {
	return q.closeCh
}

func (q *Queue) PollEvent() (Event, bool) {
	select {
	case ev := <-q.in:
		return ev, true
	default:
	}
	if q.disconnected || !q.closed.Load() || q.inflight.Load() != 0 {
		return Event{}, false
	}
	// No producer can enqueue any more; take whatever raced in before
	// reporting the disconnect.
	select {
	case ev := <-q.in:
		return ev, true
	default:
	}
	q.disconnected = true
	return DisconnectedEvent(), true
}

// Disconnect drains then closes: bundles already delivered remain pollable and
// are followed by a single Disconnected event. Safe to call from any goroutine.
func (q *Queue) Disconnect() error {
	err := ErrNotConnected
	q.closeOnce.Do(func() {
		q.closed.Store(true)
		close(q.closeCh)
		err = nil
	})
	return err
}

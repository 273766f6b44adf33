// Package transport defines the send/poll boundary between the runtime and
// whatever delivers messages to it.
//
// Implementations must never block in PollEvent: the tick loop drains events
// until PollEvent reports none, and a blocking call would stall every system.
// Transports backed by blocking I/O buffer internally (see Queue).
package transport

import (
	"errors"
	"fmt"

	"github.com/kitu-show/kitu/internal/core/errs"
	"github.com/kitu-show/kitu/internal/osc"
)

var (
	ErrNotConnected = errors.New("transport: not connected")
	ErrBufferFull   = errors.New("transport: buffer full")
)

// EventKind tags an Event.
type EventKind int

const (
	Connected EventKind = iota + 1
	Disconnected
	Message
)

func (k EventKind) String() string {
	switch k {
	case Connected:
		return "Connected"
	case Disconnected:
		return "Disconnected"
	case Message:
		return "Message"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Event is produced by a transport and consumed exactly once by the poller.
// Bundle is set only for Message events and is never split.
type Event struct {
	Kind   EventKind
	Bundle osc.Bundle
}

func ConnectedEvent() Event    { return Event{Kind: Connected} }
func DisconnectedEvent() Event { return Event{Kind: Disconnected} }

func MessageEvent(b osc.Bundle) Event {
	return Event{Kind: Message, Bundle: b}
}

// Sender accepts outbound messages. A failed Send never drops silently: the
// error is returned to the caller.
type Sender interface {
	Send(msg osc.Message) error
}

// Transport is the contract consumed by the runtime.
type Transport interface {
	Sender
	// PollEvent returns the next queued event, or false when none is queued.
	PollEvent() (Event, bool)
}

// Disconnector is implemented by transports that define what disconnection
// means for events still buffered.
type Disconnector interface {
	Disconnect() error
}

// Disconnect closes t if it implements Disconnector. Transports that do not
// define their buffered-event policy report NotImplemented.
func Disconnect(t Transport) error {
	d, ok := t.(Disconnector)
	if !ok {
		return errs.NotImplemented("disconnect")
	}
	return d.Disconnect()
}

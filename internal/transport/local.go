package transport

import "github.com/kitu-show/kitu/internal/osc"

// LocalChannel is an in-process loopback: every Send is turned into a
// single-message bundle event on its own inbox. Used for local echo and
// deterministic tests.
type LocalChannel struct {
	inbox  []Event
	closed bool
}

// NewLocalChannel returns a channel with an empty inbox.
func NewLocalChannel() *LocalChannel {
	return &LocalChannel{}
}

// NewConnectedLocalChannel returns a channel whose first polled event is Connected.
func NewConnectedLocalChannel() *LocalChannel {
	c := NewLocalChannel()
	c.inbox = append(c.inbox, ConnectedEvent())
	return c
}

func (c *LocalChannel) Send(msg osc.Message) error {
	if c.closed {
		return ErrNotConnected
	}
	c.inbox = append(c.inbox, MessageEvent(osc.NewBundle(msg)))
	return nil
}

// Inject queues a whole bundle as one event, as a remote peer would.
func (c *LocalChannel) Inject(b osc.Bundle) error {
	if c.closed {
		return ErrNotConnected
	}
	c.inbox = append(c.inbox, MessageEvent(b))
	return nil
}

func (c *LocalChannel) PollEvent() (Event, bool) {
	if len(c.inbox) == 0 {
		return Event{}, false
	}
	ev := c.inbox[0]
	c.inbox[0] = Event{}
	c.inbox = c.inbox[1:]
	return ev, true
}

// Pending returns the number of queued events.
func (c *LocalChannel) Pending() int {
	return len(c.inbox)
}

// Disconnect drains then closes: events already queued stay pollable, a
// Disconnected event is queued after them, and later sends fail.
func (c *LocalChannel) Disconnect() error {
	if c.closed {
		return ErrNotConnected
	}
	c.closed = true
	c.inbox = append(c.inbox, DisconnectedEvent())
	return nil
}

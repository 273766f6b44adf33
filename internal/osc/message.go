// Package osc models address-tagged messages and the bundles that carry them
// through a transport.
package osc

import (
	"strconv"
	"strings"
)

// ArgType tags the value held by an Arg.
type ArgType byte

const (
	TypeInt    ArgType = 'i'
	TypeFloat  ArgType = 'f'
	TypeString ArgType = 's'
	TypeBool   ArgType = 'b'
)

// Arg is one typed message argument. Only the field selected by Type is meaningful.
type Arg struct {
	Type ArgType
	I    int32
	F    float32
	S    string
	B    bool
}

func Int(v int32) Arg     { return Arg{Type: TypeInt, I: v} }
func Float(v float32) Arg { return Arg{Type: TypeFloat, F: v} }
func String(v string) Arg { return Arg{Type: TypeString, S: v} }
func Bool(v bool) Arg     { return Arg{Type: TypeBool, B: v} }

// Text renders the argument in its natural form, quoting strings.
func (a Arg) Text() string {
	switch a.Type {
	case TypeInt:
		return strconv.FormatInt(int64(a.I), 10)
	case TypeFloat:
		return strconv.FormatFloat(float64(a.F), 'f', -1, 32)
	case TypeString:
		return `"` + a.S + `"`
	case TypeBool:
		return strconv.FormatBool(a.B)
	default:
		return "?"
	}
}

// Message is an address (e.g. /player/move) and its ordered arguments.
type Message struct {
	Address string
	Args    []Arg
}

func NewMessage(address string) Message {
	return Message{Address: address}
}

// PushArg appends an argument, preserving order.
func (m *Message) PushArg(arg Arg) {
	m.Args = append(m.Args, arg)
}

// DebugString renders address(arg1, arg2, ...) for logs. It is not a wire format.
func (m Message) DebugString() string {
	var b strings.Builder
	b.WriteString(m.Address)
	b.WriteByte('(')
	for i, a := range m.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.Text())
	}
	b.WriteByte(')')
	return b.String()
}

// Clone returns a copy that shares no argument storage with m.
func (m Message) Clone() Message {
	c := Message{Address: m.Address}
	if len(m.Args) > 0 {
		c.Args = append([]Arg(nil), m.Args...)
	}
	return c
}

// Bundle is an ordered group of messages delivered as one unit.
type Bundle struct {
	Messages []Message
}

func NewBundle(msgs ...Message) Bundle {
	b := Bundle{}
	for _, m := range msgs {
		b.Push(m)
	}
	return b
}

func (b *Bundle) Push(m Message) { b.Messages = append(b.Messages, m) }
func (b Bundle) Len() int        { return len(b.Messages) }
func (b Bundle) IsEmpty() bool   { return len(b.Messages) == 0 }

package osc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/kitu-show/kitu/internal/core/errs"
)

// Wire layout used at the embedding boundary (little-endian, every section
// padded to a 4-byte boundary):
//
//	[address\0 pad][,tags\0 pad][args...]
//
// Tags: i=int32, f=float32, s=string (\0-terminated, padded), T/F=bool with no
// payload. The layout borrows OSC's shape but is not OSC 1.0 compatible.

const maxEncodedSize = 64 * 1024

// Encode serializes msg for the embedding boundary.
func Encode(msg Message) []byte {
	w := newWriter()
	w.writeS(msg.Address)
	tags := make([]byte, 0, len(msg.Args)+1)
	tags = append(tags, ',')
	for _, a := range msg.Args {
		switch a.Type {
		case TypeBool:
			if a.B {
				tags = append(tags, 'T')
			} else {
				tags = append(tags, 'F')
			}
		default:
			tags = append(tags, byte(a.Type))
		}
	}
	w.writeS(string(tags))
	for _, a := range msg.Args {
		switch a.Type {
		case TypeInt:
			w.writeD(uint32(a.I))
		case TypeFloat:
			w.writeD(math.Float32bits(a.F))
		case TypeString:
			w.writeS(a.S)
		}
	}
	return w.bytes()
}

// Decode parses a payload produced by Encode. Malformed input fails with
// InvalidInput and never yields a partial message.
func Decode(data []byte) (Message, error) {
	if len(data) > maxEncodedSize {
		return Message{}, errs.InvalidInput(fmt.Sprintf("payload too large: %d bytes", len(data)))
	}
	r := &reader{data: data}
	addr := r.readS()
	tags := r.readS()
	if r.err != nil {
		return Message{}, r.err
	}
	if addr == "" || addr[0] != '/' {
		return Message{}, errs.InvalidInput("address must start with '/'")
	}
	if len(tags) == 0 || tags[0] != ',' {
		return Message{}, errs.InvalidInput("missing type tag string")
	}
	msg := NewMessage(addr)
	for _, tag := range []byte(tags[1:]) {
		switch tag {
		case 'i':
			msg.PushArg(Int(int32(r.readD())))
		case 'f':
			msg.PushArg(Float(math.Float32frombits(r.readD())))
		case 's':
			msg.PushArg(String(r.readS()))
		case 'T':
			msg.PushArg(Bool(true))
		case 'F':
			msg.PushArg(Bool(false))
		default:
			return Message{}, errs.InvalidInput(fmt.Sprintf("unknown type tag %q", tag))
		}
		if r.err != nil {
			return Message{}, r.err
		}
	}
	return msg, nil
}

type writer struct {
	buf []byte
}

func newWriter() *writer {
	return &writer{buf: make([]byte, 0, 64)}
}

func (w *writer) writeD(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// writeS writes a \0-terminated string padded to a 4-byte boundary.
func (w *writer) writeS(s string) {
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
	w.pad()
}

func (w *writer) pad() {
	for len(w.buf)%4 != 0 {
		w.buf = append(w.buf, 0)
	}
}

func (w *writer) bytes() []byte {
	return w.buf
}

// reader keeps the first error and returns zero values afterwards.
type reader struct {
	data []byte
	off  int
	err  error
}

func (r *reader) fail(what string) {
	if r.err == nil {
		r.err = errs.InvalidInput(fmt.Sprintf("truncated payload reading %s at offset %d", what, r.off))
	}
}

func (r *reader) readD() uint32 {
	if r.err != nil {
		return 0
	}
	if r.off+4 > len(r.data) {
		r.fail("int32")
		return 0
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v
}

func (r *reader) readS() string {
	if r.err != nil {
		return ""
	}
	end := bytes.IndexByte(r.data[r.off:], 0)
	if end < 0 {
		r.fail("string")
		return ""
	}
	s := string(r.data[r.off : r.off+end])
	r.off += end + 1
	for r.off%4 != 0 {
		r.off++
	}
	if r.off > len(r.data) {
		r.fail("string padding")
		return ""
	}
	return s
}

package osc

import (
	"testing"

	"github.com/kitu-show/kitu/internal/core/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	msg := NewMessage("/cue/go")
	msg.PushArg(Int(-7))
	msg.PushArg(Float(1.25))
	msg.PushArg(String("spot"))
	msg.PushArg(Bool(false))
	msg.PushArg(Bool(true))

	raw := Encode(msg)
	assert.Zero(t, len(raw)%4, "encoded payload is 4-byte aligned")

	got, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}

func TestDecodeRejectsMalformedPayloads(t *testing.T) {
	valid := NewMessage("/a")
	valid.PushArg(Int(1))
	raw := Encode(valid)

	cases := map[string][]byte{
		"empty":        nil,
		"no slash":     Encode(NewMessage("a")),
		"truncated":    raw[:len(raw)-2],
		"unterminated": []byte("/abc"),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(data)
			assert.ErrorIs(t, err, errs.ErrInvalidInput)
		})
	}

	bad := append(Encode(NewMessage("/a"))[:4:4], []byte(",x\x00\x00")...)
	_, err := Decode(bad)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

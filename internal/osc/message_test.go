package osc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageBuildingAndDebugging(t *testing.T) {
	msg := NewMessage("/player/move")
	msg.PushArg(Int(1))
	msg.PushArg(Bool(true))
	msg.PushArg(String("north"))
	msg.PushArg(Float(0.5))

	require.Len(t, msg.Args, 4)
	assert.Equal(t, `/player/move(1, true, "north", 0.5)`, msg.DebugString())
	assert.Equal(t, "/ping()", NewMessage("/ping").DebugString())
}

func TestBundlePreservesOrder(t *testing.T) {
	b := NewBundle()
	assert.True(t, b.IsEmpty())
	b.Push(NewMessage("/a"))
	b.Push(NewMessage("/b"))
	require.Equal(t, 2, b.Len())
	assert.Equal(t, "/a", b.Messages[0].Address)
	assert.Equal(t, "/b", b.Messages[1].Address)
}

func TestCloneDoesNotShareArgs(t *testing.T) {
	msg := NewMessage("/x")
	msg.PushArg(Int(1))
	c := msg.Clone()
	c.Args[0] = Int(2)
	assert.Equal(t, int32(1), msg.Args[0].I)
}

func TestFloatTextIsPlainDecimal(t *testing.T) {
	assert.Equal(t, "100000000000000000000", Float(1e20).Text())
	assert.Equal(t, "0.000001", Float(1e-6).Text())
	assert.Equal(t, "-2.5", Float(-2.5).Text())
	assert.Equal(t, "3", Float(3).Text())
}

package shell

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kitu-show/kitu/internal/core/clock"
	"github.com/kitu-show/kitu/internal/core/ecs"
	"github.com/kitu-show/kitu/internal/core/errs"
	coresys "github.com/kitu-show/kitu/internal/core/system"
	"github.com/kitu-show/kitu/internal/embed"
	"github.com/kitu-show/kitu/internal/engine"
	"github.com/kitu-show/kitu/internal/osc"
	"github.com/kitu-show/kitu/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunUnknownCommand(t *testing.T) {
	s := New(nil)
	_, err := s.Run("nope", nil)
	require.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestEchoAndCustomCommands(t *testing.T) {
	s := New(nil)
	out, err := s.Exec("  echo hello   world ")
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)

	s.RegisterCommand("count", func(args []string) (string, error) {
		return strings.Repeat("x", len(args)), nil
	})
	out, err = s.Run("count", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "xx", out)

	out, err = s.Exec("")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestHelpListsCommandsSorted(t *testing.T) {
	s := New(nil)
	out, err := s.Exec("help")
	require.NoError(t, err)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "echo"))
	assert.True(t, strings.HasPrefix(lines[1], "help"))
}

func bound(t *testing.T) (*Shell, *embed.Handle) {
	t.Helper()
	h := embed.NewHandle(engine.Build(transport.NewConnectedLocalChannel()))
	t.Cleanup(func() { _ = h.Release() })
	s := New(nil)
	s.BindRuntime(h)
	return s, h
}

func TestRuntimeCommands(t *testing.T) {
	s, _ := bound(t)

	out, err := s.Exec("tick")
	require.NoError(t, err)
	assert.Equal(t, "tick 1", out)

	out, err = s.Exec("tick 4")
	require.NoError(t, err)
	assert.Equal(t, "tick 5", out)

	_, err = s.Exec("tick many")
	require.ErrorIs(t, err, errs.ErrInvalidInput)

	out, err = s.Exec("register Light")
	require.NoError(t, err)
	assert.Equal(t, "registered Light", out)
	_, err = s.Exec("register Light")
	require.ErrorIs(t, err, errs.ErrInvalidInput)
	_, err = s.Exec("register")
	require.ErrorIs(t, err, errs.ErrInvalidInput)

	out, err = s.Exec("components")
	require.NoError(t, err)
	assert.Equal(t, "Light", out)

	out, err = s.Exec("status")
	require.NoError(t, err)
	assert.Contains(t, out, "tick=5")
	assert.Contains(t, out, "connected=true")
}

func TestSendCommandRoutesOnNextTick(t *testing.T) {
	s, h := bound(t)
	var got []osc.Message
	require.NoError(t, h.Do(func(rt *engine.Runtime) error {
		rt.Router().Handle("/cue", func(_ clock.Tick, msg osc.Message) error {
			got = append(got, msg)
			return nil
		})
		return nil
	}))

	out, err := s.Exec("send /cue 1 2.5 true go")
	require.NoError(t, err)
	assert.Equal(t, `sent /cue(1, 2.5, true, "go")`, out)

	_, err = s.Exec("send cue")
	require.ErrorIs(t, err, errs.ErrInvalidInput, "addresses must start with a slash")

	_, err = s.Exec("tick")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []osc.Arg{osc.Int(1), osc.Float(2.5), osc.Bool(true), osc.String("go")}, got[0].Args)
}

func TestParseArg(t *testing.T) {
	assert.Equal(t, osc.Int(-7), ParseArg("-7"))
	assert.Equal(t, osc.Float(0.25), ParseArg("0.25"))
	assert.Equal(t, osc.Float(4294967296), ParseArg("4294967296"), "out of int32 range falls back to float")
	assert.Equal(t, osc.Bool(false), ParseArg("false"))
	assert.Equal(t, osc.String("True"), ParseArg("True"))
}

func TestServe(t *testing.T) {
	s := New(nil)
	in := strings.NewReader("echo a\nbogus\n\necho b\nquit\necho never\n")
	var out bytes.Buffer
	require.NoError(t, s.Serve(context.Background(), in, &out))
	assert.Equal(t, "a\nerror: invalid input: unknown command: bogus\nb\n", out.String())
}

func TestTickRetryResumesFailedTick(t *testing.T) {
	rt := engine.Build(transport.NewLocalChannel())
	failed := false
	rt.Runner().Register(coresys.PhaseUpdate, ecs.SystemFunc(func(*ecs.World, clock.Tick) error {
		if !failed {
			failed = true
			return errors.New("transient")
		}
		return nil
	}))
	runs := map[uint64]int{}
	rt.Runner().Register(coresys.PhaseTimeline, ecs.SystemFunc(func(_ *ecs.World, tick clock.Tick) error {
		runs[tick.Get()]++
		return nil
	}))
	h := embed.NewHandle(rt)
	s := New(nil)
	s.BindRuntime(h)

	_, err := s.Exec("tick")
	require.Error(t, err)

	out, err := s.Exec("tick")
	require.NoError(t, err)
	assert.Equal(t, "tick 1", out)
	assert.Equal(t, map[uint64]int{0: 1}, runs)

	out, err = s.Exec("tick 2")
	require.NoError(t, err)
	assert.Equal(t, "tick 3", out)
	assert.Equal(t, map[uint64]int{0: 1, 1: 1, 2: 1}, runs)
}

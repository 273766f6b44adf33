package shell

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kitu-show/kitu/internal/core/errs"
	"github.com/kitu-show/kitu/internal/embed"
	"github.com/kitu-show/kitu/internal/engine"
	"github.com/kitu-show/kitu/internal/osc"
)

// BindRuntime registers the runtime commands against h.
func (s *Shell) BindRuntime(h *embed.Handle) {
	s.Register("tick", "tick [n]: advance n ticks (default 1)", func(args []string) (string, error) {
		n := uint64(1)
		if len(args) > 0 {
			v, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return "", errs.InvalidInput("tick count: " + args[0])
			}
			n = v
		}
		var now uint64
		err := h.Do(func(rt *engine.Runtime) error {
			defer func() { now = rt.CurrentTick().Get() }()
			return rt.RunForTicks(n)
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("tick %d", now), nil
	})

	s.Register("status", "status: print tick and counters", func([]string) (string, error) {
		var out string
		err := h.Do(func(rt *engine.Runtime) error {
			st := rt.Stats()
			out = fmt.Sprintf("tick=%d elapsed=%s connected=%t sent=%d bundles=%d route_errors=%d dispatch_failures=%d",
				rt.CurrentTick().Get(), rt.Now().Elapsed(), st.Connected, st.MessagesSent, st.BundlesRouted, st.RouteErrors, st.DispatchFailures)
			return nil
		})
		return out, err
	})

	s.Register("components", "components: list registered components", func([]string) (string, error) {
		var out string
		err := h.Do(func(rt *engine.Runtime) error {
			out = strings.Join(rt.WorldMut().RegisteredComponents(), "\n")
			return nil
		})
		return out, err
	})

	s.Register("register", "register <name>: register a component", func(args []string) (string, error) {
		if len(args) != 1 {
			return "", errs.InvalidInput("register expects one component name")
		}
		err := h.Do(func(rt *engine.Runtime) error {
			return rt.WorldMut().RegisterComponent(args[0])
		})
		if err != nil {
			return "", err
		}
		return "registered " + args[0], nil
	})

	s.Register("send", "send <address> [args...]: send a message", func(args []string) (string, error) {
		if len(args) == 0 {
			return "", errs.InvalidInput("send expects an address")
		}
		msg := osc.NewMessage(args[0])
		for _, a := range args[1:] {
			msg.PushArg(ParseArg(a))
		}
		if err := h.Send(osc.Encode(msg)); err != nil {
			return "", err
		}
		return "sent " + msg.DebugString(), nil
	})
}

// ParseArg reads an int32, then a float, then true/false, falling back to
// a string.
func ParseArg(s string) osc.Arg {
	if v, err := strconv.ParseInt(s, 10, 32); err == nil {
		return osc.Int(int32(v))
	}
	if v, err := strconv.ParseFloat(s, 32); err == nil {
		return osc.Float(float32(v))
	}
	switch s {
	case "true":
		return osc.Bool(true)
	case "false":
		return osc.Bool(false)
	}
	return osc.String(s)
}

package admin

import (
	"encoding/json"

	"github.com/kitu-show/kitu/internal/embed"
	"github.com/kitu-show/kitu/internal/engine"
)

// Status is the /status document.
type Status struct {
	Tick             uint64 `json:"tick"`
	ElapsedMs        int64  `json:"elapsed_ms"`
	TickRateHz       uint32 `json:"tick_rate_hz"`
	Connected        bool   `json:"connected"`
	MessagesSent     uint64 `json:"messages_sent"`
	BundlesRouted    uint64 `json:"bundles_routed"`
	RouteErrors      uint64 `json:"route_errors"`
	DispatchFailures uint64 `json:"dispatch_failures"`
}

// RegisterDefaultRoutes installs /health (public), /status and /components
// reading from h.
func RegisterDefaultRoutes(s *WebAdminServer, h *embed.Handle) {
	s.RegisterPublicRoute("/health", func(Request) (Response, error) {
		return Response{ContentType: "text/plain", Body: "ok"}, nil
	})

	s.RegisterRoute("/status", func(Request) (Response, error) {
		var st Status
		err := h.Do(func(rt *engine.Runtime) error {
			stats := rt.Stats()
			st = Status{
				Tick:             rt.CurrentTick().Get(),
				ElapsedMs:        rt.Now().Elapsed().Milliseconds(),
				TickRateHz:       rt.Config().TickRateHz,
				Connected:        stats.Connected,
				MessagesSent:     stats.MessagesSent,
				BundlesRouted:    stats.BundlesRouted,
				RouteErrors:      stats.RouteErrors,
				DispatchFailures: stats.DispatchFailures,
			}
			return nil
		})
		if err != nil {
			return Response{}, err
		}
		return jsonResponse(st)
	})

	s.RegisterRoute("/components", func(Request) (Response, error) {
		var names []string
		err := h.Do(func(rt *engine.Runtime) error {
			names = rt.WorldMut().RegisteredComponents()
			return nil
		})
		if err != nil {
			return Response{}, err
		}
		return jsonResponse(names)
	})
}

func jsonResponse(v any) (Response, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Response{}, err
	}
	return Response{ContentType: "application/json", Body: string(b)}, nil
}

// Package admin is the web administration backend: a small route table that
// reports runtime state, served over net/http when enabled.
package admin

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/kitu-show/kitu/internal/core/errs"
	"github.com/kitu-show/kitu/internal/embed"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrUnauthorized is returned when a token check fails.
var ErrUnauthorized = errors.New("unauthorized")

type Request struct {
	Path  string
	Token string
}

type Response struct {
	Status      int
	ContentType string
	Body        string
}

// RouteFunc builds the response for one path.
type RouteFunc func(Request) (Response, error)

type route struct {
	fn     RouteFunc
	public bool
}

// WebAdminServer holds the routes. When a bcrypt token hash is set, every
// non-public route requires a matching token.
type WebAdminServer struct {
	mu        sync.RWMutex
	routes    map[string]route
	running   bool
	tokenHash []byte
	log       *zap.Logger
}

func NewWebAdminServer(tokenHash string, log *zap.Logger) *WebAdminServer {
	if log == nil {
		log = zap.NewNop()
	}
	s := &WebAdminServer{
		routes: make(map[string]route),
		log:    log,
	}
	if tokenHash != "" {
		s.tokenHash = []byte(tokenHash)
	}
	return s
}

// HashToken returns the bcrypt hash to put in the admin config.
func HashToken(token string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// RegisterRoute adds or replaces a token-protected route.
func (s *WebAdminServer) RegisterRoute(path string, fn RouteFunc) {
	s.register(path, fn, false)
}

// RegisterPublicRoute adds or replaces a route that skips the token check.
func (s *WebAdminServer) RegisterPublicRoute(path string, fn RouteFunc) {
	s.register(path, fn, true)
}

func (s *WebAdminServer) register(path string, fn RouteFunc, public bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[path] = route{fn: fn, public: public}
}

func (s *WebAdminServer) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	s.log.Info("admin backend started", zap.Int("routes", len(s.routes)))
}

func (s *WebAdminServer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.log.Info("admin backend stopped")
}

func (s *WebAdminServer) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Handle dispatches req. A stopped server is NotImplemented and an unknown
// path is InvalidInput.
func (s *WebAdminServer) Handle(req Request) (Response, error) {
	s.mu.RLock()
	running := s.running
	rt, ok := s.routes[req.Path]
	hash := s.tokenHash
	s.mu.RUnlock()

	if !running {
		return Response{}, errs.NotImplemented("admin server not running")
	}
	if !ok {
		return Response{}, errs.InvalidInput("no route for " + req.Path)
	}
	if !rt.public && hash != nil {
		if err := bcrypt.CompareHashAndPassword(hash, []byte(req.Token)); err != nil {
			return Response{}, ErrUnauthorized
		}
	}
	resp, err := rt.fn(req)
	if err != nil {
		return Response{}, err
	}
	if resp.Status == 0 {
		resp.Status = http.StatusOK
	}
	return resp, nil
}

// HTTPHandler adapts Handle to net/http. The token is read from an
// "Authorization: Bearer <token>" header.
func (s *WebAdminServer) HTTPHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		resp, err := s.Handle(Request{Path: r.URL.Path, Token: token})
		if err != nil {
			status := statusFor(err)
			if status == http.StatusInternalServerError {
				s.log.Warn("admin route failed", zap.String("path", r.URL.Path), zap.Error(err))
			}
			http.Error(w, err.Error(), status)
			return
		}
		if resp.ContentType != "" {
			w.Header().Set("Content-Type", resp.ContentType)
		}
		w.WriteHeader(resp.Status)
		_, _ = w.Write([]byte(resp.Body))
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, embed.ErrReleased):
		return http.StatusServiceUnavailable
	}
	switch errs.KindOf(err) {
	case errs.KindNotImplemented:
		return http.StatusServiceUnavailable
	case errs.KindInvalidInput:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

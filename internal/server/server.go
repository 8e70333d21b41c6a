// Package server exposes a rendered site over HTTP for the serve and daemon
// modes: the site file server plus /healthz and, when wired, /metrics. It
// also provides the source watcher that drives debounced rebuilds.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/fieldpress/pressroom/internal/logfields"
)

// BuildStatus tracks the latest build result for health reporting. Safe for
// concurrent use by the rebuild worker and request handlers.
type BuildStatus struct {
	mu           sync.RWMutex
	lastError    error
	lastBuildAt  time.Time
	hasGoodBuild bool
}

// SetSuccess records a completed build.
func (b *BuildStatus) SetSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastError = nil
	b.lastBuildAt = time.Now()
	b.hasGoodBuild = true
}

// SetError records a failed build. An earlier good build keeps being served.
func (b *BuildStatus) SetError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastError = err
	b.lastBuildAt = time.Now()
}

func (b *BuildStatus) snapshot() (err error, at time.Time, good bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastError, b.lastBuildAt, b.hasGoodBuild
}

// Server serves the rendered site directory.
type Server struct {
	addr      string
	siteDir   string
	status    *BuildStatus
	metrics   http.Handler // nil leaves /metrics unregistered
	srv       *http.Server
	ln        net.Listener
	startTime time.Time
}

// New creates a Server for the site at siteDir. status may be shared with a
// rebuild worker; metricsHandler is typically the Prometheus handler.
func New(addr, siteDir string, status *BuildStatus, metricsHandler http.Handler) *Server {
	if status == nil {
		status = &BuildStatus{}
	}
	return &Server{
		addr:    addr,
		siteDir: siteDir,
		status:  status,
		metrics: metricsHandler,
	}
}

// Start binds the listener and begins serving. The bind happens eagerly so
// an occupied port fails the command instead of surfacing later from a
// background goroutine.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", s.addr, err)
	}
	s.ln = ln
	s.startTime = time.Now()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}
	mux.Handle("/", http.FileServer(http.Dir(s.siteDir)))

	s.srv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server failed", logfields.Error(err))
		}
	}()

	slog.Info("Server listening",
		slog.String("addr", ln.Addr().String()),
		logfields.Path(s.siteDir))
	return nil
}

// Addr returns the bound address, useful when listening on port 0.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.addr
	}
	return s.ln.Addr().String()
}

// Stop shuts the server down gracefully, honoring ctx for the drain.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}

type healthPayload struct {
	Status        string `json:"status"` // ok | degraded | starting
	UptimeSeconds int64  `json:"uptime_seconds"`
	LastBuildAt   string `json:"last_build_at,omitempty"`
	LastError     string `json:"last_error,omitempty"`
}

// handleHealthz reports readiness: 200 once at least one build succeeded,
// 503 before that. A failed rebuild after a good build degrades the status
// but keeps returning 200 since the previous site is still being served.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	lastErr, at, good := s.status.snapshot()

	payload := healthPayload{
		Status:        "starting",
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	}
	if !at.IsZero() {
		payload.LastBuildAt = at.UTC().Format(time.RFC3339)
	}
	if lastErr != nil {
		payload.LastError = lastErr.Error()
	}

	code := http.StatusServiceUnavailable
	switch {
	case good && lastErr == nil:
		payload.Status = "ok"
		code = http.StatusOK
	case good:
		payload.Status = "degraded"
		code = http.StatusOK
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

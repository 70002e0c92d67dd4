package daemon

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/net/netutil"

	"git.home.luguber.info/inful/moondial/internal/config"
	derrors "git.home.luguber.info/inful/moondial/internal/foundation/errors"
	"git.home.luguber.info/inful/moondial/internal/journal"
	"git.home.luguber.info/inful/moondial/internal/logfields"
	"git.home.luguber.info/inful/moondial/internal/metrics"
	"git.home.luguber.info/inful/moondial/internal/server/middleware"
)

// HTTPServer serves the dial's status, health and metrics endpoints.
type HTTPServer struct {
	config       *config.Config
	daemon       *Daemon
	errorAdapter *derrors.HTTPErrorAdapter

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// NewHTTPServer creates a server for d using cfg's HTTP and monitoring sections.
func NewHTTPServer(cfg *config.Config, d *Daemon) *HTTPServer {
	return &HTTPServer{
		config:       cfg,
		daemon:       d,
		errorAdapter: derrors.NewHTTPErrorAdapter(d.logger.Logger),
	}
}

// Handler returns the routed handler.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+s.config.Monitoring.Health.Path, s.handleHealth)
	mux.HandleFunc("GET /api/dial", s.handleDial)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /api/status", s.handleStatusJSON)
	if s.config.Monitoring.Metrics.Enabled {
		mux.Handle("GET "+s.config.Monitoring.Metrics.Path, metrics.HTTPHandler(s.daemon.Registry()))
	}
	return middleware.Chain(s.daemon.logger.Logger, s.errorAdapter)(mux)
}

// Start binds the configured address and serves in the background.
func (s *HTTPServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.HTTP.Addr, err)
	}
	if limit := s.config.HTTP.MaxConnections; limit > 0 {
		ln = netutil.LimitListener(ln, limit)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.mu.Lock()
	s.server = srv
	s.listener = ln
	s.mu.Unlock()

	logger := s.daemon.logger
	go func() {
		if err := srv.Serve(ln); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "HTTP server error", logfields.Error(err))
		}
	}()

	logger.InfoContext(ctx, "HTTP server started",
		"addr", ln.Addr().String(),
		"max_connections", s.config.HTTP.MaxConnections)
	return nil
}

// Addr returns the bound address, empty before Start.
func (s *HTTPServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts the server down.
func (s *HTTPServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := s.daemon.PerformHealthChecks(r.Context())
	status := http.StatusOK
	if resp.Status == HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (s *HTTPServer) handleDial(w http.ResponseWriter, r *http.Request) {
	reading, ok := s.daemon.Latest()
	if !ok {
		s.errorAdapter.WriteErrorResponse(w, r,
			derrors.DaemonError("dial has not been updated yet").Warning().Retryable().Build())
		return
	}
	writeJSON(w, http.StatusOK, reading)
}

func (s *HTTPServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	j := s.daemon.Journal()
	if j == nil {
		s.errorAdapter.WriteErrorResponse(w, r,
			derrors.NewError(derrors.CategoryNotFound, "update journal is not configured").Build())
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			s.errorAdapter.WriteErrorResponse(w, r,
				derrors.ValidationError("limit must be a non-negative integer").
					WithContext("limit", raw).
					Build())
			return
		}
		limit = v
	}

	entries, err := j.Recent(r.Context(), limit)
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *HTTPServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	page, err := RenderStatusHTML(s.daemon.GetStatusInfo(r.Context()))
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r,
			derrors.WrapError(err, derrors.CategoryInternal, "failed to render status page").Build())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

func (s *HTTPServer) handleStatusJSON(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.daemon.GetStatusInfo(r.Context()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

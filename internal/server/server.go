// Package server serves the built site locally with optional live reload.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/dist/internal/foundation/errors"
	"git.home.luguber.info/inful/dist/internal/logfields"
	"git.home.luguber.info/inful/dist/internal/metrics"
	smw "git.home.luguber.info/inful/dist/internal/server/middleware"
	"git.home.luguber.info/inful/dist/internal/version"
)

// HealthPath reports server liveness.
const HealthPath = "/__dist/health"

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	Host string
	Port int
	// Root is the directory served, normally the destination base directory.
	Root string
	// BasePath is the URL prefix the site is mounted under.
	BasePath   string
	LiveReload bool
	// MetricsHandler is mounted at MetricsPath when non-nil.
	MetricsHandler http.Handler
	MetricsPath    string
	Recorder       metrics.Recorder
}

// Server is the local preview HTTP server.
type Server struct {
	opts    Options
	hub     *Hub
	started time.Time

	mu  sync.Mutex
	srv *http.Server
	ln  net.Listener
}

// New builds a Server. Nothing listens until Start.
func New(opts Options) *Server {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	opts.BasePath = normalizeBasePath(opts.BasePath)
	s := &Server{opts: opts}
	if opts.LiveReload {
		s.hub = NewHub(opts.Recorder)
	}
	return s
}

// normalizeBasePath returns p with exactly one leading and one trailing slash.
func normalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return "/"
	}
	return "/" + p + "/"
}

// Handler returns the full routing tree, including middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(HealthPath, s.handleHealth)

	if s.hub != nil {
		mux.Handle(LiveReloadPath, s.hub)
		mux.HandleFunc(LiveReloadScriptPath, handleScript)
	}
	if s.opts.MetricsHandler != nil {
		path := s.opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle(path, s.opts.MetricsHandler)
	}

	var site http.Handler = http.FileServer(http.Dir(s.opts.Root))
	if s.opts.BasePath != "/" {
		site = http.StripPrefix(strings.TrimSuffix(s.opts.BasePath, "/"), site)
	}
	if s.hub != nil {
		site = injectLiveReload(site)
	}
	mux.Handle(s.opts.BasePath, site)

	return smw.Chain(slog.Default())(mux)
}

// Hub returns the live-reload hub, or nil when live reload is off.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Reload notifies connected browsers. It is a no-op without live reload.
func (s *Server) Reload() {
	if s.hub != nil {
		s.hub.Broadcast()
	}
}

// Start binds the listener and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return errors.NetworkError("failed to bind HTTP listener").
			WithCause(err).WithContext("addr", addr).Build()
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.mu.Lock()
	s.srv = srv
	s.ln = ln
	s.started = time.Now()
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", logfields.Error(err))
		}
	}()
	slog.Info("Serving site", logfields.URL(s.URL()), logfields.Path(s.opts.Root),
		slog.Bool("live_reload", s.hub != nil))
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
}

// URL is the browsable address of the site root.
func (s *Server) URL() string {
	host, port, err := net.SplitHostPort(s.Addr())
	if err != nil {
		return "http://" + s.Addr() + s.opts.BasePath
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + s.opts.BasePath
}

// Shutdown disconnects live-reload clients and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.hub != nil {
		s.hub.Shutdown()
	}
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return errors.RuntimeError("HTTP server shutdown failed").WithCause(err).Build()
	}
	slog.Info("HTTP server stopped")
	return nil
}

type healthResponse struct {
	Status    string  `json:"status"`
	Version   string  `json:"version"`
	Uptime    float64 `json:"uptime_seconds"`
	Clients   int     `json:"livereload_clients"`
	Timestamp string  `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	resp := healthResponse{
		Status:    "healthy",
		Version:   version.Version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if !started.IsZero() {
		resp.Uptime = time.Since(started).Seconds()
	}
	if s.hub != nil {
		resp.Clients = s.hub.Clients()
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Debug("health response write failed", logfields.Error(err))
	}
}

func handleScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write([]byte(LiveReloadScript))
}

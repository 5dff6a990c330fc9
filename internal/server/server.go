// Package server provides the HTTP surface shared by the medtriage agents.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/medtriage/internal/keyword"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// DefaultRequestTimeout bounds a single REST request. It must exceed the recommendation timeout
// plus two LLM calls.
const DefaultRequestTimeout = 3 * time.Minute

// Server is the HTTP server of one agent role.
type Server struct {
	name       string
	addr       string
	router     *chi.Mux
	logger     *zap.Logger
	submit     http.Handler
	gatherer   prometheus.Gatherer
	index      keyword.Index
	diskPaths  []string
	reqTimeout time.Duration
	server     *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithSubmit mounts the agent envelope endpoint at POST /submit.
func WithSubmit(h http.Handler) Option {
	return func(s *Server) { s.submit = h }
}

// WithMetrics exposes g at GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithStatus reports the document count of index and the disk usage of paths at GET /status.
func WithStatus(index keyword.Index, paths ...string) Option {
	return func(s *Server) {
		s.index = index
		s.diskPaths = paths
	}
}

// WithRequestTimeout overrides DefaultRequestTimeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.reqTimeout = d
		}
	}
}

// New creates the server for the agent role name listening on host:port and registers the common
// routes. Role routes are added with the Mount* methods before Start.
func New(name, host string, port int, opts ...Option) *Server {
	s := &Server{
		name:       name,
		addr:       fmt.Sprintf("%s:%d", host, port),
		logger:     zap.NewNop(),
		reqTimeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.reqTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	if s.submit != nil {
		r.Method(http.MethodPost, "/submit", s.submit)
	}
	s.router = r
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router exposes the router so other packages can register their routes.
func (s *Server) Router() chi.Router {
	return s.router
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info("Starting server", zap.String("agent", s.name), zap.String("addr", s.addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

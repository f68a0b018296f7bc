// package server exposes the progress pipeline over HTTP
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/soundslope/vibedj/internal/repositories"
	"github.com/soundslope/vibedj/internal/shared"
	"github.com/soundslope/vibedj/internal/stream"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Server hosts the streaming and aggregate DJ endpoints.
//
// Routes:
//
//	GET  /health           → liveness
//	GET  /api/dj/stream    → bearer-authed SSE progress channel
//	POST /api/dj/generate  → bearer-authed aggregated sibling response
type Server struct {
	config   *shared.Config
	logger   *log.Logger
	sessions *repositories.SessionRepository // nil disables archiving
	http     *http.Server
}

// Opts contains dependencies for a [Server].
type Opts struct {
	Config   *shared.Config
	Logger   *log.Logger
	Sessions *repositories.SessionRepository
}

// New creates a server with its routes registered.
func New(opts Opts) *Server {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	s := &Server{
		config:   opts.Config,
		logger:   opts.Logger,
		sessions: opts.Sessions,
	}

	s.http = &http.Server{
		Addr:              opts.Config.Addr(),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Routes builds the handler tree. Exposed for httptest.
func (s *Server) Routes() http.Handler {
	router := NewBasicRouter()
	router.Use(RequestLogger(s.logger))

	router.Handle("GET", "/health", http.HandlerFunc(s.handleHealth))

	auth := RequireBearer(s.config.Server.Token, s.logger)
	router.Handle("GET", "/api/dj/stream", auth(http.HandlerFunc(s.handleStream)))
	router.Handle("POST", "/api/dj/generate", auth(http.HandlerFunc(s.handleGenerate)))

	return router
}

// Start runs the HTTP server until it fails or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight streams and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// flushOpts translates the stream configuration.
func (s *Server) flushOpts() stream.FlushOpts {
	return stream.FlushOpts{
		EveryN:   s.config.Stream.FlushEveryN,
		Interval: s.config.Stream.FlushInterval(),
	}
}

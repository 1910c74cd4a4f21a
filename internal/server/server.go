// Package server exposes the layout and timeline engines over HTTP for
// browser renderers.
//
// Routes:
//
//	GET  /health             liveness and version
//	POST /api/v1/layout      graph (+ direction) → positioned layout
//	POST /api/v1/visibility  graph + scrub position (+ now) → visible IDs
//	POST /api/v1/render      graph (+ options) → one rendered artifact
//
// Request bodies are validated strictly: node IDs must be unique and
// non-empty, edges must reference known nodes, and the graph must be acyclic.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/branchview/pkg/config"
	"github.com/matzehuels/branchview/pkg/pipeline"
)

// Server serves the HTTP API.
type Server struct {
	cfg    config.Config
	runner *pipeline.Runner
	logger *log.Logger

	// layouts collapses concurrent identical layout requests.
	layouts singleflight.Group
}

// New creates a server. A nil runner uses an uncached one.
func New(cfg config.Config, runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	return &Server{cfg: cfg, runner: runner, logger: logger}
}

// Handler returns the routed handler with all middleware installed.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", headerRequestID},
		ExposedHeaders: []string{headerRequestID, headerCache},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(limitBody(s.cfg.Server.MaxBodyBytes))
		r.Post("/layout", s.layout)
		r.Post("/visibility", s.visibility)
		r.Post("/render", s.render)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
// within the configured shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Package httpserver provides the HTTP REST API server for the review synthesis service.
package httpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/helixir/review-synthesis-service/internal/domain"
	"github.com/helixir/review-synthesis-service/internal/pipeline"
)

// SummaryService is the pipeline surface used by the handlers. Satisfied by
// *pipeline.Service.
type SummaryService interface {
	Summarize(ctx context.Context, req domain.SummarizeRequest) (*domain.SummarizeResult, error)
	Evaluate(doc domain.SummaryDocument, papers []domain.Paper) domain.EvaluationScore
}

// Server is the HTTP REST API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	service    SummaryService
	validate   *validator.Validate
	logger     zerolog.Logger
	timeout    time.Duration
	ready      atomic.Bool
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	// RequestTimeout cancels a request's context after this long. Zero
	// disables the timeout.
	RequestTimeout time.Duration
}

// NewServer creates a new HTTP server. The server reports ready until
// SetReady(false) is called.
func NewServer(cfg Config, service SummaryService, logger zerolog.Logger) *Server {
	s := &Server{
		service:  service,
		validate: pipeline.NewValidator(),
		logger:   logger.With().Str("component", "http-server").Logger(),
		timeout:  cfg.RequestTimeout,
	}
	s.ready.Store(true)

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLoggerMiddleware(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(correlationIDMiddleware)
	r.Use(jsonContentTypeMiddleware)

	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	r.Group(func(r chi.Router) {
		if s.timeout > 0 {
			r.Use(middleware.Timeout(s.timeout))
		}
		r.Post("/summarize", s.summarize)

		r.Route("/api/v1", func(r chi.Router) {
			r.Post("/summarize", s.summarize)
			r.Post("/evaluate", s.evaluate)
			r.Post("/report", s.renderReport)
		})
	})

	return r
}

// Handler returns the root handler, for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// SetReady toggles the readiness probe.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.SetReady(false)
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// readinessHandler reports whether the server accepts new work.
func (s *Server) readinessHandler(w http.ResponseWriter, _ *http.Request) {
	if s.service == nil || !s.ready.Load() {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "not_ready"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ready"})
}

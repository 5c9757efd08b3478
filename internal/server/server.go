// Package server exposes the aggregation engine over HTTP: the aggregate
// stats view, its spreadsheet export, and the per-agent drill-down.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tjfontaine/support-insights/internal/domain"
	"github.com/tjfontaine/support-insights/internal/report"
)

// Config holds the server's listen and timeout settings.
type Config struct {
	Port           int
	RequestTimeout time.Duration
}

// Engine is the computation surface the server fronts.
type Engine interface {
	ComputeAgentStats(ctx context.Context, filters domain.Filters) ([]domain.AgentStatRow, error)
	ComputeAgentChanges(ctx context.Context, agentID string, filters domain.Filters, changeType domain.ChangeType, page, pageSize int) (*domain.ComparisonPage, error)
}

var _ Engine = (*report.Service)(nil)

type Server struct {
	Router *chi.Mux

	cfg    Config
	engine Engine
	logger *slog.Logger
	http   *http.Server
}

// New wires the middleware chain and routes. The engine handles all
// computation; handlers only translate HTTP to engine calls and back.
func New(cfg Config, engine Engine, logger *slog.Logger) *Server {
	if cfg.Port == 0 {
		cfg.Port = 8085
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	r := chi.NewRouter()

	// Apply middleware in order
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(TimeoutMiddleware(cfg.RequestTimeout))
	r.Use(middleware.Recoverer)

	// Wrap with OpenTelemetry HTTP instrumentation
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "support-insights")
	})

	s := &Server{
		Router: r,
		cfg:    cfg,
		engine: engine,
		logger: logger,
	}

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/agent-stats", s.handleAgentStats)
		r.Get("/agent-stats/export", s.handleAgentStatsExport)
		r.Get("/agents/{agentID}/changes", s.handleAgentChanges)
	})

	return s
}

// Start launches the HTTP listener in the background. Call Shutdown to stop
// it.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: s.Router,
		// WriteTimeout must outlast the per-request budget or slow
		// computations get cut off mid-response.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: s.cfg.RequestTimeout + 15*time.Second,
	}

	go func() {
		s.logger.Info("HTTP server listening", slog.Int("port", s.cfg.Port))
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Shutdown stops the listener, letting in-flight requests finish within ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Package server exposes graph runs over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"newsgraph/internal/config"
	"newsgraph/internal/formatter"
	"newsgraph/internal/logger"
	"newsgraph/internal/metrics"
	"newsgraph/internal/pipeline"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Runner executes one graph run.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// Server serves the HTTP API.
type Server struct {
	runner     Runner
	cfg        *config.Config
	metrics    *metrics.Collector
	log        *logger.Logger
	validate   *validator.Validate
	reportOpts formatter.ReportOptions
}

// New creates a server.
func New(cfg *config.Config, runner Runner, m *metrics.Collector, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return &Server{
		runner:     runner,
		cfg:        cfg,
		metrics:    m,
		log:        log,
		validate:   validate,
		reportOpts: formatter.DefaultReportOptions(),
	}
}

// Routes configures all routes and middleware.
func (s *Server) Routes() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger(s.log.Zap()))
	router.Use(recordMetrics(s.metrics))

	router.Get("/health", s.health)
	router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/sources", s.listSources)
		r.Get("/sources/{name}", s.getSource)
		r.Post("/graph", s.buildGraph)
		r.Post("/graph/html", s.buildGraphHTML)
		r.Post("/graph/report", s.buildReport)
	})

	return router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Routes(),
		ReadTimeout:       time.Duration(s.cfg.Server.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Server.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		s.log.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}

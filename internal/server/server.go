// Package server provides the HTTP API for the matcher, the career tools and the
// job-market dashboard.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/dashboard"
	"github.com/spigell/resume-matcher/internal/filtering"
	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/matching"
	"github.com/spigell/resume-matcher/internal/tools"
)

const (
	defaultAddr            = ":8080"
	defaultMaxUploadBytes  = 10 << 20
	defaultShutdownTimeout = 30 * time.Second
)

// ToolRunner is implemented by tools.Runner.
type ToolRunner interface {
	Match(ctx context.Context, in tools.Input) (*matching.Result, error)
	Run(ctx context.Context, tool ai.Tool, in tools.Input) (any, error)
}

// Dashboard is implemented by dashboard.Service.
type Dashboard interface {
	Options(ctx context.Context) (*dashboard.Options, error)
	View(ctx context.Context, cfg *filtering.Config, listing dashboard.Listing) (*dashboard.View, error)
	Refresh()
}

// Config holds server configuration
type Config struct {
	Addr           string
	MaxUploadBytes int64
	// RequestsPerMinute is the per-client budget. Zero disables rate limiting.
	RequestsPerMinute int
	Burst             int
	AllowedOrigins    []string
	ShutdownTimeout   time.Duration
}

type Server struct {
	cfg        Config
	httpServer *http.Server
	runner     ToolRunner
	dashboard  Dashboard
	limiter    *clientLimiter
	logger     *zap.Logger
}

// New wires the routes. dash may be nil when no jobs source is configured; the
// dashboard routes then answer 503.
func New(cfg Config, runner ToolRunner, dash Dashboard, log *zap.Logger) (*Server, error) {
	if runner == nil {
		return nil, errors.New("tool runner is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		cfg:       cfg,
		runner:    runner,
		dashboard: dash,
		limiter:   newClientLimiter(cfg.RequestsPerMinute, cfg.Burst),
		logger:    logger.Named(log, "server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/match", s.handleMatch)
	mux.HandleFunc("POST /api/tools/{tool}", s.handleTool)
	mux.HandleFunc("GET /api/dashboard/options", s.handleDashboardOptions)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("POST /api/dashboard/refresh", s.handleDashboardRefresh)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.withRequestID(s.withLogging(s.withCORS(s.withRateLimit(mux)))),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		// Tool calls wait on the model, sometimes with retries.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server", zap.Duration("timeout", s.cfg.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/twin-registry/internal/infrastructure/config"
	"github.com/nerrad567/twin-registry/internal/infrastructure/logging"
	"github.com/nerrad567/twin-registry/internal/registry"
	"github.com/nerrad567/twin-registry/internal/telemetry"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// HealthChecker is implemented by components reported on /api/v3/health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Metrics  config.MetricsConfig
	Logger   *logging.Logger
	Registry *registry.Registry

	// Telemetry is optional; without it /metrics is not mounted and HTTP
	// requests are not counted.
	Telemetry *telemetry.Metrics

	// HealthChecks are reported next to the storage backend, keyed by name.
	HealthChecks map[string]HealthChecker

	Version string
}

// Server is the HTTP API server for the twin registry.
//
// It is created with New() and started with Start().
type Server struct {
	cfg          config.APIConfig
	metricsCfg   config.MetricsConfig
	logger       *logging.Logger
	registry     *registry.Registry
	telemetry    *telemetry.Metrics
	healthChecks map[string]HealthChecker
	version      string
	server       *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("shell registry is required")
	}

	return &Server{
		cfg:          deps.Config,
		metricsCfg:   deps.Metrics,
		logger:       deps.Logger,
		registry:     deps.Registry,
		telemetry:    deps.Telemetry,
		healthChecks: deps.HealthChecks,
		version:      deps.Version,
	}, nil
}

// Start begins listening for HTTP connections in a background goroutine.
// The server can be stopped with Close().
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}

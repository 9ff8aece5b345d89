// Package core provides the HTTP chassis for the messenger relay.
// It creates a chi router that serves both a standard HTTP listener (local and
// container deployments) and AWS Lambda Function URL / API Gateway v2 events.
// It enforces cross-cutting concerns (panic recovery, request IDs, logging,
// metrics, error envelopes) before requests reach the webhook handler.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"messengerbot/internal/config"
)

// MetricsCollector defines the interface for recording API telemetry.
type MetricsCollector interface {
	// RecordRequest records API request metrics including latency and count.
	// Uses metric constants MetricAPILatency and MetricAPIRequestCount
	// from the types package.
	RecordRequest(method, endpoint, status string, duration time.Duration)
}

// RouteRegistrar mounts a group of handlers on the router. Handler packages
// expose one so core never imports them.
type RouteRegistrar func(r chi.Router)

// Server encapsulates all dependencies of the relay's HTTP surface.
type Server struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics MetricsCollector

	// HealthProbes are executed by GET /health.
	HealthProbes []HealthProbe
	// RouteRegistrars are applied in order by MountRoutes.
	RouteRegistrars []RouteRegistrar

	router *chi.Mux
}

// NewServer validates the critical dependencies and prepares an empty router.
// The caller populates probes and registrars, then calls MountRoutes.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config: cfg,
		Logger: logger,
		router: chi.NewRouter(),
	}, nil
}

// Handler returns the http.Handler interface for the router.
// Used by http.Server (local) and the Lambda event adapter.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown releases server resources. The relay holds no pools or buffers, so
// it only records the event; the HTTP listener is drained by the caller.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.InfoContext(ctx, "server shutdown complete")
	return nil
}

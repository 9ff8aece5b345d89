// Package main is the entry point for the messenger relay webhook API.
//
// It loads the configuration (resolving *_SSM_PARAM secrets outside the local
// environment), wires the Send API client, the broadcaster and the dispatcher
// behind the core chassis, and serves GET/POST /webhook and GET /health.
//
// Outside Lambda it runs a standard HTTP server on the configured port. Inside
// the Lambda runtime the same router is served through the API Gateway v2 /
// Function URL event adapter.
//
// Graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"

	"messengerbot/internal/api/handlers"
	"messengerbot/internal/config"
	"messengerbot/internal/core"
	"messengerbot/internal/external"
	"messengerbot/internal/messaging"
	"messengerbot/internal/telemetry"
	"messengerbot/internal/types"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	provider := config.NewSSMProvider(os.Getenv("AWS_REGION"), os.Getenv("AWS_ENDPOINT_URL"))
	cfg, err := config.LoadConfig(provider)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("messenger relay API starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
		"bot_id", cfg.Bot.BotID,
		"signature_verification", cfg.Bot.AppSecret.IsSet(),
	)

	metrics, err := newMetrics(context.Background(), cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}

	srv, err := buildServer(cfg, logger, &http.Client{Timeout: cfg.Messenger.Timeout}, metrics)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	if isLambdaEnvironment() {
		logger.Info("running in Lambda mode")
		lambda.Start(srv.LambdaHandler())
		return nil
	}

	return runHTTPServer(srv, cfg, logger)
}

// deliveryMetrics is implemented by telemetry.CloudWatchMetrics: delivery
// metrics for the broadcaster plus request metrics for the chassis.
type deliveryMetrics interface {
	types.DeliveryMetrics
	core.MetricsCollector
}

// nopMetrics discards both kinds of metrics when METRICS_ENABLED is false.
type nopMetrics struct {
	types.NopMetrics
}

func (nopMetrics) RecordRequest(string, string, string, time.Duration) {}

func newMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (deliveryMetrics, error) {
	if !cfg.Observability.MetricsEnabled {
		return nopMetrics{}, nil
	}

	client, err := telemetry.NewCloudWatchClient(ctx, cfg.AWS.Region, cfg.AWS.EndpointURL)
	if err != nil {
		return nil, err
	}

	return telemetry.NewCloudWatchMetrics(
		client,
		cfg.Observability.MetricNamespace,
		core.NewSlogAdapter(logger),
	), nil
}

// errVerifyTokenMissing fails startup of the API when the handshake secret
// is absent.
var errVerifyTokenMissing = errors.New("VERIFY_TOKEN is required to serve the webhook handshake")

// buildServer wires the relay's components onto a mounted core.Server.
func buildServer(cfg *config.Config, logger *slog.Logger, httpClient *http.Client, metrics deliveryMetrics) (*core.Server, error) {
	if !cfg.Bot.VerifyToken.IsSet() {
		return nil, errVerifyTokenMissing
	}

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return nil, err
	}

	typedLogger := core.NewSlogAdapter(logger)

	client := external.NewMessengerClient(httpClient, external.MessengerClientConfig{
		Endpoint:  cfg.Messenger.GraphAPIURL,
		UserAgent: cfg.Messenger.UserAgent,
		Breaker:   external.DefaultBreakerSettings(),
	})

	opts := []messaging.Option{
		messaging.WithLogger(typedLogger),
		messaging.WithMetrics(metrics),
	}
	broadcaster := messaging.NewBroadcaster(client, messaging.BroadcasterConfig{
		CardImageURL: cfg.Messenger.CardImageURL,
		Concurrency:  cfg.Messenger.BroadcastConcurrency,
	}, opts...)
	dispatcher := messaging.NewDispatcher(client, broadcaster, opts...)

	webhook := handlers.NewWebhookHandler(cfg.Bot, dispatcher, logger)

	srv.Metrics = metrics
	srv.HealthProbes = append(srv.HealthProbes, core.BreakerProbe{Breaker: client.Base()})
	srv.RouteRegistrars = append(srv.RouteRegistrars, webhook.RegisterRoutes)
	srv.MountRoutes()

	return srv, nil
}

// isLambdaEnvironment returns true if the process is running inside AWS Lambda.
func isLambdaEnvironment() bool {
	_, hasRuntimeAPI := os.LookupEnv("AWS_LAMBDA_RUNTIME_API")
	_, hasServerPort := os.LookupEnv("_LAMBDA_SERVER_PORT")
	return hasRuntimeAPI || hasServerPort
}

// runHTTPServer starts the server in standard HTTP mode with graceful shutdown.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)

	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with a 10-second deadline; in-flight broadcasts finish.
	logger.Info("initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server resource shutdown error", "error", err)
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a structured slog.Logger configured for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: false,
	})
	return slog.New(handler)
}

var (
	_ deliveryMetrics = nopMetrics{}
	_ deliveryMetrics = (*telemetry.CloudWatchMetrics)(nil)
)

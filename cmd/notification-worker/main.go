// Package main implements the notification worker Lambda.
//
// The worker consumes SQS records whose body is a {"notification":{...}}
// document and broadcasts each one through the same Dispatcher the webhook
// API uses.
//
// Every record is acknowledged. A broadcast that fails for some recipients
// has already delivered to the others, so redelivering the record would
// repeat those sends; failures are logged with every recipient cause instead.
//
// Startup sequence (cold start):
//  1. Load configuration (SSM pointers resolved outside local) and build the
//     logger at LOG_LEVEL.
//  2. Create the Send API client with its circuit breaker.
//  3. Create CloudWatch metrics when enabled.
//  4. Build the Broadcaster and Dispatcher.
//  5. Register the handler and call lambda.Start.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"messengerbot/internal/config"
	"messengerbot/internal/core"
	"messengerbot/internal/external"
	"messengerbot/internal/messaging"
	"messengerbot/internal/telemetry"
	"messengerbot/internal/types"
)

// EnvelopeDispatcher is the subset of messaging.Dispatcher the worker needs.
type EnvelopeDispatcher interface {
	DispatchEnvelope(ctx context.Context, identity types.BotIdentity, env types.WebhookEnvelope) (messaging.Outcome, error)
}

// Handler holds the dependencies of the notification worker.
type Handler struct {
	dispatcher EnvelopeDispatcher
	identity   types.BotIdentity
	logger     types.Logger
}

// Handle processes an SQS batch. Records are handled sequentially; each
// broadcast fans out concurrently on its own.
func (h *Handler) Handle(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	for _, record := range sqsEvent.Records {
		h.processRecord(ctx, record)
	}
	return events.SQSEventResponse{}, nil
}

func (h *Handler) processRecord(ctx context.Context, record events.SQSMessage) {
	logger := h.logger.With("message_id", record.MessageId)
	ctx = types.WithLogger(types.WithRequestID(ctx, record.MessageId), logger)

	env := messaging.Classify([]byte(record.Body))
	if env.Kind != types.KindNotificationRequest {
		logger.Warn("skipping non-notification record", "payload_kind", string(env.Kind))
		return
	}

	outcome, err := h.dispatcher.DispatchEnvelope(ctx, h.identity, env)
	if err != nil {
		var agg *messaging.AggregateBroadcastError
		if errors.As(err, &agg) {
			failures := make([]any, 0, len(agg.Failures))
			for _, f := range agg.Failures {
				failures = append(failures, slog.Group(f.Recipient, slog.String("error", f.Err.Error())))
			}
			logger.Error("broadcast partially failed",
				"attempted", agg.Attempted,
				"failed", len(agg.Failures),
				slog.Group("failures", failures...),
			)
			return
		}
		logger.Error("notification dispatch failed", "error", err.Error())
		return
	}

	logger.Info("notification processed", "outcome", outcome.String())
}

func main() {
	provider := config.NewSSMProvider(os.Getenv("AWS_REGION"), os.Getenv("AWS_ENDPOINT_URL"))
	cfg, err := config.LoadConfig(provider)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("notification worker initializing (cold start)")

	handler, err := newHandler(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to initialize notification worker", "error", err)
		os.Exit(1)
	}

	lambda.Start(handler.Handle)
}

// newLogger returns a JSON logger on stdout at the LOG_LEVEL threshold.
// Unknown levels fall back to info.
func newLogger(level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func newHandler(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Handler, error) {
	typedLogger := core.NewSlogAdapter(logger)

	var metrics types.DeliveryMetrics = types.NopMetrics{}
	if cfg.Observability.MetricsEnabled {
		client, err := telemetry.NewCloudWatchClient(ctx, cfg.AWS.Region, cfg.AWS.EndpointURL)
		if err != nil {
			return nil, err
		}
		metrics = telemetry.NewCloudWatchMetrics(client, cfg.Observability.MetricNamespace, typedLogger)
	}

	client := external.NewMessengerClient(&http.Client{Timeout: cfg.Messenger.Timeout}, external.MessengerClientConfig{
		Endpoint:  cfg.Messenger.GraphAPIURL,
		UserAgent: cfg.Messenger.UserAgent,
		Breaker:   external.DefaultBreakerSettings(),
	})

	opts := []messaging.Option{
		messaging.WithLogger(typedLogger),
		messaging.WithMetrics(metrics),
		messaging.WithClock(types.RealClock{}),
	}
	broadcaster := messaging.NewBroadcaster(client, messaging.BroadcasterConfig{
		CardImageURL: cfg.Messenger.CardImageURL,
		Concurrency:  cfg.Messenger.BroadcastConcurrency,
	}, opts...)

	logger.Info("notification worker initialized",
		"environment", cfg.Environment,
		"bot_id", cfg.Bot.BotID,
		"broadcast_concurrency", cfg.Messenger.BroadcastConcurrency,
		"messenger_timeout", cfg.Messenger.Timeout.String(),
		"metrics_enabled", cfg.Observability.MetricsEnabled,
	)

	return &Handler{
		dispatcher: messaging.NewDispatcher(client, broadcaster, opts...),
		identity:   cfg.Bot.Identity(),
		logger:     typedLogger,
	}, nil
}

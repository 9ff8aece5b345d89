package types

import (
	"context"
	"time"
)

// Logger defines the structured logging interface used throughout the relay.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	With(args ...any) Logger
}

// NopLogger discards every log line. Used when a component is constructed
// without a logger (tests, one-off tools).
type NopLogger struct{}

func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}
func (NopLogger) Warn(string, ...any)  {}
func (n NopLogger) With(...any) Logger { return n }

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real system time (always UTC).
type RealClock struct{}

// Now returns the current time in UTC.
func (RealClock) Now() time.Time { return time.Now().UTC() }

// DeliveryResult categorizes a single recipient delivery for metrics reporting.
type DeliveryResult string

const (
	DeliveryDelivered DeliveryResult = "delivered"
	DeliveryFailed    DeliveryResult = "failed"
)

// DeliveryMetrics abstracts telemetry for outbound message delivery.
type DeliveryMetrics interface {
	// RecordDelivery records the outcome of one Send API call.
	RecordDelivery(ctx context.Context, kind MessageKind, result DeliveryResult, duration time.Duration)
	// RecordBroadcast records the fan-out size and failure count of one broadcast.
	RecordBroadcast(ctx context.Context, recipients, failed int)
}

// NopMetrics is a DeliveryMetrics that records nothing.
type NopMetrics struct{}

func (NopMetrics) RecordDelivery(context.Context, MessageKind, DeliveryResult, time.Duration) {}
func (NopMetrics) RecordBroadcast(context.Context, int, int)                                  {}

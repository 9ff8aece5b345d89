package messaging

import (
	"context"

	"messengerbot/internal/types"
)

// deps are the ambient collaborators shared by Broadcaster and Dispatcher.
type deps struct {
	logger  types.Logger
	metrics types.DeliveryMetrics
	clock   types.Clock
}

// Option configures a Broadcaster or Dispatcher.
type Option func(*deps)

// WithLogger sets the fallback logger. A request-scoped logger stored in the
// context takes precedence.
func WithLogger(l types.Logger) Option {
	return func(d *deps) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithMetrics sets the delivery metrics sink.
func WithMetrics(m types.DeliveryMetrics) Option {
	return func(d *deps) {
		if m != nil {
			d.metrics = m
		}
	}
}

// WithClock overrides the clock used to time deliveries.
func WithClock(c types.Clock) Option {
	return func(d *deps) {
		if c != nil {
			d.clock = c
		}
	}
}

func newDeps(opts []Option) deps {
	d := deps{
		logger:  types.NopLogger{},
		metrics: types.NopMetrics{},
		clock:   types.RealClock{},
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func (d deps) loggerFor(ctx context.Context) types.Logger {
	if l := types.LoggerFromContext(ctx); l != nil {
		return l
	}
	return d.logger
}

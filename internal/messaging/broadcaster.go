package messaging

import (
	"context"

	"golang.org/x/sync/errgroup"

	"messengerbot/internal/types"
)

// DefaultBroadcastConcurrency is the fan-out limit when none is configured.
const DefaultBroadcastConcurrency = 8

// Sender delivers one message to one recipient. *external.MessengerClient is
// the production implementation; it must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, identity types.BotIdentity, recipientID string, msg types.OutboundMessage) error
}

// BroadcastResult holds one outcome per recipient, in the order recipients
// were listed in the request.
type BroadcastResult struct {
	Outcomes []types.BroadcastOutcome
}

// Failures returns the failed recipients in order.
func (r BroadcastResult) Failures() []RecipientFailure {
	var failures []RecipientFailure
	for _, o := range r.Outcomes {
		if !o.Delivered() {
			failures = append(failures, RecipientFailure{Recipient: o.Recipient, Err: o.Err})
		}
	}
	return failures
}

// Err returns an *AggregateBroadcastError naming every failed recipient, or
// nil when all deliveries succeeded.
func (r BroadcastResult) Err() error {
	failures := r.Failures()
	if len(failures) == 0 {
		return nil
	}
	return &AggregateBroadcastError{Attempted: len(r.Outcomes), Failures: failures}
}

// BroadcasterConfig configures a Broadcaster.
type BroadcasterConfig struct {
	// CardImageURL is the image shown on every card.
	CardImageURL string
	// Concurrency bounds in-flight deliveries. Values below 1 use the default.
	Concurrency int
}

// Broadcaster fans one notification card out to every recipient.
type Broadcaster struct {
	sender      Sender
	imageURL    string
	concurrency int
	deps
}

// NewBroadcaster creates a Broadcaster delivering through sender.
func NewBroadcaster(sender Sender, cfg BroadcasterConfig, opts ...Option) *Broadcaster {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = DefaultBroadcastConcurrency
	}
	return &Broadcaster{
		sender:      sender,
		imageURL:    cfg.CardImageURL,
		concurrency: concurrency,
		deps:        newDeps(opts),
	}
}

// Broadcast builds the card once and attempts delivery to every recipient,
// including duplicates. Attempts are independent: one failure never cancels
// or skips another, and Broadcast returns only after every attempt finished.
func (b *Broadcaster) Broadcast(ctx context.Context, identity types.BotIdentity, req types.NotificationRequest) BroadcastResult {
	card := BuildCard(req, b.imageURL)
	outcomes := make([]types.BroadcastOutcome, len(req.Recipients))

	var g errgroup.Group
	g.SetLimit(b.concurrency)

	for i, recipient := range req.Recipients {
		g.Go(func() error {
			start := b.clock.Now()
			err := b.sender.Send(ctx, identity, recipient, card)
			b.metrics.RecordDelivery(ctx, types.MessageKindBroadcast, deliveryResult(err), b.clock.Now().Sub(start))

			// Each goroutine owns exactly one slot.
			outcomes[i] = types.BroadcastOutcome{Recipient: recipient, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	result := BroadcastResult{Outcomes: outcomes}
	failed := len(result.Failures())
	b.metrics.RecordBroadcast(ctx, len(outcomes), failed)

	logger := b.loggerFor(ctx)
	if failed > 0 {
		logger.Warn("broadcast partially failed",
			"title", req.Title,
			"recipients", len(outcomes),
			"failed", failed,
		)
	} else {
		logger.Info("broadcast delivered",
			"title", req.Title,
			"recipients", len(outcomes),
		)
	}

	return result
}

func deliveryResult(err error) types.DeliveryResult {
	if err != nil {
		return types.DeliveryFailed
	}
	return types.DeliveryDelivered
}

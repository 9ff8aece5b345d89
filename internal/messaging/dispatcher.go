package messaging

import (
	"context"
	"fmt"

	"messengerbot/internal/types"
)

// Outcome describes what the Dispatcher did with one body.
type Outcome struct {
	Kind types.PayloadKind

	// Dropped is set when the body was classified but failed its schema.
	// Reason wraps ErrMalformedPayload.
	Dropped bool
	Reason  error

	// Set for message events that produced a reply.
	ReplyTo string
	Reply   string

	// Set for notification requests that were broadcast.
	Broadcast *BroadcastResult
}

// Dispatcher runs classify, validate, then route or broadcast for one body.
type Dispatcher struct {
	sender      Sender
	broadcaster *Broadcaster
	deps
}

// NewDispatcher creates a Dispatcher. Replies go out through sender;
// notifications go through broadcaster.
func NewDispatcher(sender Sender, broadcaster *Broadcaster, opts ...Option) *Dispatcher {
	return &Dispatcher{
		sender:      sender,
		broadcaster: broadcaster,
		deps:        newDeps(opts),
	}
}

// Dispatch classifies raw and handles it on behalf of identity.
//
// Unrecognized and malformed bodies return a nil error: they are dropped, not
// failed. A failed reply returns the Sender's error unchanged. A broadcast
// with at least one failed recipient returns *AggregateBroadcastError.
func (d *Dispatcher) Dispatch(ctx context.Context, identity types.BotIdentity, raw []byte) (Outcome, error) {
	return d.DispatchEnvelope(ctx, identity, Classify(raw))
}

// DispatchEnvelope handles a body that was already classified, for callers
// that need the kind before dispatching (signature checks).
func (d *Dispatcher) DispatchEnvelope(ctx context.Context, identity types.BotIdentity, env types.WebhookEnvelope) (Outcome, error) {
	logger := d.loggerFor(ctx).With("payload_kind", string(env.Kind))
	out := Outcome{Kind: env.Kind}

	switch env.Kind {
	case types.KindMessageEvent:
		event, err := ParseMessageEvent(env.Raw, identity.BotID)
		if err != nil {
			logger.Info("payload dropped", "reason", err.Error())
			out.Dropped, out.Reason = true, err
			return out, nil
		}
		return d.reply(ctx, logger, identity, event, out)

	case types.KindNotificationRequest:
		req, err := ParseNotificationRequest(env.Raw, identity.BotID)
		if err != nil {
			logger.Info("payload dropped", "reason", err.Error())
			out.Dropped, out.Reason = true, err
			return out, nil
		}
		result := d.broadcaster.Broadcast(ctx, identity, req)
		out.Broadcast = &result
		return out, result.Err()

	default:
		return out, nil
	}
}

func (d *Dispatcher) reply(ctx context.Context, logger types.Logger, identity types.BotIdentity, event types.MessageEvent, out Outcome) (Outcome, error) {
	out.ReplyTo = event.SenderID
	out.Reply = Route(event.Text, event.SenderID)

	start := d.clock.Now()
	err := d.sender.Send(ctx, identity, event.SenderID, types.OutboundMessage{Text: out.Reply})
	d.metrics.RecordDelivery(ctx, types.MessageKindReply, deliveryResult(err), d.clock.Now().Sub(start))
	if err != nil {
		logger.Error("reply delivery failed",
			"sender_id", event.SenderID,
			"message_id", event.MessageID,
			"error", err,
		)
		return out, err
	}

	logger.Info("reply delivered",
		"sender_id", event.SenderID,
		"message_id", event.MessageID,
	)
	return out, nil
}

// String renders the outcome for logs.
func (o Outcome) String() string {
	switch {
	case o.Dropped:
		return fmt.Sprintf("%s dropped: %v", o.Kind, o.Reason)
	case o.Broadcast != nil:
		return fmt.Sprintf("%s broadcast to %d recipients", o.Kind, len(o.Broadcast.Outcomes))
	case o.ReplyTo != "":
		return fmt.Sprintf("%s replied to %s", o.Kind, o.ReplyTo)
	default:
		return fmt.Sprintf("%s ignored", o.Kind)
	}
}

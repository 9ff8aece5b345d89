// Package handlers contains the HTTP handlers of the messenger relay.
//
// The webhook endpoint is unauthenticated. The GET subscription handshake is
// guarded by the shared verify token and POST page events by the optional
// X-Hub-Signature-256 app-secret signature.
package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"messengerbot/internal/config"
	"messengerbot/internal/core"
	"messengerbot/internal/external"
	"messengerbot/internal/messaging"
	"messengerbot/internal/types"
)

// EnvelopeDispatcher is the subset of messaging.Dispatcher the handler needs.
type EnvelopeDispatcher interface {
	DispatchEnvelope(ctx context.Context, identity types.BotIdentity, env types.WebhookEnvelope) (messaging.Outcome, error)
}

// WebhookHandler serves the platform webhook: the subscription handshake on
// GET and event delivery on POST.
type WebhookHandler struct {
	bot        config.BotConfig
	dispatcher EnvelopeDispatcher
	logger     *slog.Logger
}

// NewWebhookHandler creates a WebhookHandler for the configured bot.
func NewWebhookHandler(bot config.BotConfig, dispatcher EnvelopeDispatcher, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{
		bot:        bot,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// RegisterRoutes mounts GET and POST /webhook.
func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Get("/webhook", h.Verify)
	r.Post("/webhook", h.Receive)
}

// Verify answers the subscription handshake. The platform sends
// hub.verify_token and hub.challenge; the underscore spellings are accepted
// for callers built against form-decoding frameworks.
func (h *WebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	token := firstNonEmpty(q.Get("hub.verify_token"), q.Get("hub_verify_token"))
	challenge := firstNonEmpty(q.Get("hub.challenge"), q.Get("hub_challenge"))

	expected := h.bot.VerifyToken.Unmask()
	if token == "" || expected == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
		h.logger.WarnContext(r.Context(), "webhook verification rejected",
			"token_present", token != "",
		)
		w.WriteHeader(http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(challenge))
}

// Receive handles one webhook delivery.
//
//  1. Reads the body (1 MB, single valid JSON value) or answers 400.
//  2. Classifies it. Page events must carry a valid signature when an app
//     secret is configured; a bad signature drops the body.
//  3. Dispatches it. Dropped and ignored bodies are acknowledged with 200 so
//     the platform does not redeliver them.
//  4. Maps delivery failures onto upstream_* error responses.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := core.ReadJSONBody(w, r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "webhook body rejected", "error", err)
		core.Error(w, r, err)
		return
	}

	env := messaging.Classify(body)

	if env.Kind == types.KindMessageEvent && h.bot.AppSecret.IsSet() {
		if !messaging.VerifySignature(body, r.Header.Get(messaging.SignatureHeader), h.bot.AppSecret.Unmask()) {
			h.logger.InfoContext(r.Context(), "payload dropped",
				"payload_kind", string(env.Kind),
				"reason", "signature mismatch",
			)
			w.WriteHeader(http.StatusOK)
			return
		}
	}

	outcome, err := h.dispatcher.DispatchEnvelope(r.Context(), h.bot.Identity(), env)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "webhook dispatch failed",
			"payload_kind", string(env.Kind),
			"error", err,
		)
		core.Error(w, r, dispatchError(err))
		return
	}

	h.logger.DebugContext(r.Context(), "webhook handled", "outcome", outcome.String())
	w.WriteHeader(http.StatusOK)
}

// dispatchError maps a Dispatcher failure onto the API error taxonomy.
func dispatchError(err error) *types.AppError {
	var agg *messaging.AggregateBroadcastError
	if errors.As(err, &agg) {
		failures := make([]map[string]string, 0, len(agg.Failures))
		for _, f := range agg.Failures {
			failures = append(failures, map[string]string{
				"recipient": f.Recipient,
				"error":     f.Err.Error(),
			})
		}
		return types.NewAppErrorWithDetails(
			types.ErrCodeBroadcastPartialFail,
			"notification could not be delivered to every recipient",
			err,
			map[string]any{
				"attempted": agg.Attempted,
				"failures":  failures,
			},
		)
	}

	if external.IsRateLimited(err) {
		return types.NewAppError(types.ErrCodeUpstreamRateLimited, "messaging platform rate limit reached", err)
	}
	return types.NewAppError(types.ErrCodeUpstreamMessenger, "reply could not be delivered", err)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

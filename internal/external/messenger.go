package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"messengerbot/internal/types"
)

// maxResponseBytes caps how much of a Send API response is read.
const maxResponseBytes = 1 << 20

// MessengerClientConfig holds the configuration for creating a MessengerClient.
type MessengerClientConfig struct {
	// Endpoint is the full Send API URL, e.g.
	// https://graph.facebook.com/v3.2/me/messages.
	Endpoint  string
	UserAgent string
	Breaker   BreakerSettings
}

// MessengerClient delivers messages through the Send API. It holds no
// per-recipient or per-bot state: every call carries its identity and target
// explicitly, so one client is shared by all concurrent deliveries.
type MessengerClient struct {
	base     *BaseClient
	endpoint string
}

// NewMessengerClient creates a MessengerClient. The httpClient timeout bounds
// each individual delivery.
func NewMessengerClient(httpClient *http.Client, cfg MessengerClientConfig) *MessengerClient {
	base := NewBaseClient(httpClient, "messenger", cfg.Breaker, cfg.UserAgent)
	return NewMessengerClientWithBase(base, cfg)
}

// NewMessengerClientWithBase creates a MessengerClient over a pre-configured
// BaseClient.
func NewMessengerClientWithBase(base *BaseClient, cfg MessengerClientConfig) *MessengerClient {
	return &MessengerClient{
		base:     base,
		endpoint: cfg.Endpoint,
	}
}

// Base exposes the underlying BaseClient so the health probe can read the
// breaker state.
func (c *MessengerClient) Base() *BaseClient {
	return c.base
}

type sendRequest struct {
	Recipient sendRecipient         `json:"recipient"`
	Message   types.OutboundMessage `json:"message"`
}

type sendRecipient struct {
	ID string `json:"id"`
}

// sendResponse is decoded loosely: success is any JSON object without an
// "error" key.
type sendResponse struct {
	RecipientID string          `json:"recipient_id"`
	MessageID   string          `json:"message_id"`
	Error       *RemoteAPIError `json:"error"`
}

// Send posts one message to one recipient on behalf of identity.
//
// Failure mapping:
//   - connection failure, timeout -> *TransportError
//   - response with an "error" envelope -> *RemoteAPIError
//   - response that is not a JSON object -> *TransportError with the status
func (c *MessengerClient) Send(ctx context.Context, identity types.BotIdentity, recipientID string, msg types.OutboundMessage) error {
	body, err := json.Marshal(sendRequest{
		Recipient: sendRecipient{ID: recipientID},
		Message:   msg,
	})
	if err != nil {
		return types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to marshal Send API payload",
			err,
		)
	}

	reqURL, err := c.requestURL(identity.AccessToken.Unmask())
	if err != nil {
		return &TransportError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return &TransportError{Err: redactURLError(err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.base.Do(req)
	if err != nil {
		return &TransportError{Err: redactURLError(err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}

	var decoded sendResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}

	if decoded.Error != nil {
		decoded.Error.StatusCode = resp.StatusCode
		return decoded.Error
	}
	if resp.StatusCode >= 400 {
		return &TransportError{
			StatusCode: resp.StatusCode,
			Err:        errors.New("error status without error envelope"),
		}
	}

	return nil
}

func (c *MessengerClient) requestURL(token string) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid Send API endpoint: %w", err)
	}
	q := u.Query()
	q.Set("access_token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

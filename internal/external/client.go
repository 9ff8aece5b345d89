// Package external provides the boundary between the relay's domain logic and
// the messaging platform's HTTP API. All outbound HTTP calls are routed through
// the BaseClient, which applies request ID propagation and header injection
// and tracks upstream health on a circuit breaker.
package external

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"messengerbot/internal/types"

	"github.com/sony/gobreaker/v2"
)

// BreakerSettings tunes the circuit breaker wrapped around outbound calls.
type BreakerSettings struct {
	// ConsecutiveFailures trips the breaker once exceeded.
	ConsecutiveFailures uint32
	// Interval is the closed-state window after which counts are cleared.
	Interval time.Duration
	// OpenTimeout is how long the breaker stays open before a half-open probe.
	OpenTimeout time.Duration
}

// DefaultBreakerSettings returns the settings used by the Send API client.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		ConsecutiveFailures: 5,
		Interval:            60 * time.Second,
		OpenTimeout:         30 * time.Second,
	}
}

// BaseClient wraps an *http.Client and a circuit breaker. Provider clients
// embed it to inherit the same behavior. There is no retry: a failed call is
// reported to the caller exactly once.
//
// The breaker observes outcomes but never blocks a call. Every Send reaches
// the platform; the breaker state only feeds the health endpoint.
type BaseClient struct {
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[struct{}]
	userAgent string
}

// NewBaseClient creates a BaseClient with a breaker named breakerName.
func NewBaseClient(
	httpClient *http.Client,
	breakerName string,
	settings BreakerSettings,
	userAgent string,
) *BaseClient {
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    settings.Interval,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > settings.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
	})

	return NewBaseClientWithBreaker(httpClient, cb, userAgent)
}

// NewBaseClientWithBreaker creates a BaseClient with a caller-provided circuit
// breaker. Useful in tests or when sharing a breaker across clients.
func NewBaseClientWithBreaker(
	httpClient *http.Client,
	breaker *gobreaker.CircuitBreaker[struct{}],
	userAgent string,
) *BaseClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &BaseClient{
		client:    httpClient,
		breaker:   breaker,
		userAgent: userAgent,
	}
}

// errUpstreamStatus marks a 5xx response so the breaker counts it as a
// failure.
var errUpstreamStatus = errors.New("upstream server error")

// Do executes the HTTP request with:
//  1. Request ID injection (X-Request-Id from context)
//  2. User-Agent header injection
//  3. Outcome recording on the circuit breaker
//
// Any response that arrives, including 4xx and 5xx, is returned as-is with a
// nil error and the caller must close its body. A transport failure returns a
// nil response and the underlying error. The request is sent whatever the
// breaker state.
func (c *BaseClient) Do(req *http.Request) (*http.Response, error) {
	if requestID := types.GetRequestID(req.Context()); requestID != "" {
		req.Header.Set("X-Request-Id", requestID)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	c.observe(resp, err)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// observe feeds one outcome to the breaker. While the breaker is open, or
// half-open with its probe slot taken, the observation is rejected and
// dropped; the call itself has already been made.
func (c *BaseClient) observe(resp *http.Response, err error) {
	_, _ = c.breaker.Execute(func() (struct{}, error) {
		if err != nil {
			return struct{}{}, err
		}
		if resp.StatusCode >= 500 {
			return struct{}{}, fmt.Errorf("%w: status %d", errUpstreamStatus, resp.StatusCode)
		}
		return struct{}{}, nil
	})
}

// State reports the current breaker state.
func (c *BaseClient) State() gobreaker.State {
	return c.breaker.State()
}

// Name returns the breaker name, used as the health probe label.
func (c *BaseClient) Name() string {
	return c.breaker.Name()
}

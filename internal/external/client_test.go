package external

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"messengerbot/internal/types"

	"github.com/sony/gobreaker/v2"
)

// newTestClient creates a BaseClient with test defaults.
func newTestClient(t *testing.T) *BaseClient {
	t.Helper()
	return NewBaseClient(
		&http.Client{Timeout: 5 * time.Second},
		"test-breaker",
		DefaultBreakerSettings(),
		"MessengerRelay-Test/1.0",
	)
}

// newTripBreaker creates a breaker that opens after the given number of
// consecutive failures and stays open for the whole test.
func newTripBreaker(failures uint32) *gobreaker.CircuitBreaker[struct{}] {
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "test-trip",
		MaxRequests: 1,
		Timeout:     time.Hour,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
	})
}

func TestDo_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := newTestClient(t)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"status":"ok"}` {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestDo_InjectsHeaders(t *testing.T) {
	var gotRequestID, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestID = r.Header.Get("X-Request-Id")
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(t)

	ctx := types.WithRequestID(context.Background(), "req-abc-123")
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if gotRequestID != "req-abc-123" {
		t.Errorf("X-Request-Id = %q, want %q", gotRequestID, "req-abc-123")
	}
	if gotUA != "MessengerRelay-Test/1.0" {
		t.Errorf("User-Agent = %q, want %q", gotUA, "MessengerRelay-Test/1.0")
	}
}

func TestDo_ServerErrorReturnsResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"boom","code":2}}`))
	}))
	defer server.Close()

	client := newTestClient(t)
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, server.URL, nil)

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("5xx should come back as a response, got error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestDo_NoRetry(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t)
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, server.URL, nil)

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if got := hits.Load(); got != 1 {
		t.Errorf("server hit %d times, want exactly 1", got)
	}
}

func TestDo_BreakerOpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewBaseClientWithBreaker(&http.Client{Timeout: 5 * time.Second}, newTripBreaker(2), "")

	for range 2 {
		req, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, server.URL, nil)
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("unexpected error before trip: %v", err)
		}
		resp.Body.Close()
	}

	if client.State() != gobreaker.StateOpen {
		t.Fatalf("breaker state = %v, want open", client.State())
	}
}

func TestDo_OpenBreakerStillSends(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewBaseClientWithBreaker(&http.Client{Timeout: 5 * time.Second}, newTripBreaker(1), "")

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, server.URL+"/fail", nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if client.State() != gobreaker.StateOpen {
		t.Fatalf("breaker state = %v, want open", client.State())
	}

	for range 3 {
		req, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, server.URL+"/ok", nil)
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("call with open breaker returned error: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
		resp.Body.Close()
	}

	if got := hits.Load(); got != 4 {
		t.Errorf("server hit %d times, want 4 (open breaker must not short-circuit)", got)
	}
}

func TestDo_ClientErrorsDoNotTripBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewBaseClientWithBreaker(&http.Client{Timeout: 5 * time.Second}, newTripBreaker(1), "")

	for range 3 {
		req, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, server.URL, nil)
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp.Body.Close()
	}

	if client.State() != gobreaker.StateClosed {
		t.Errorf("breaker state = %v, want closed", client.State())
	}
}

func TestDo_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := newTestClient(t)
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, url, nil)

	resp, err := client.Do(req)
	if err == nil {
		resp.Body.Close()
		t.Fatal("expected transport error, got nil")
	}
	if resp != nil {
		t.Error("expected nil response on transport failure")
	}
}

func TestBaseClientName(t *testing.T) {
	client := newTestClient(t)
	if client.Name() != "test-breaker" {
		t.Errorf("Name() = %q, want %q", client.Name(), "test-breaker")
	}
}

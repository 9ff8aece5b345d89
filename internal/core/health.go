package core

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// healthCheckTimeout is the maximum time allowed for all health probes to complete.
const healthCheckTimeout = 2 * time.Second

// HealthProbe is a subsystem health check.
type HealthProbe interface {
	// Name returns a human-readable identifier for the probe.
	Name() string

	// Check returns an error if the subsystem is unhealthy. It must respect
	// the context deadline.
	Check(ctx context.Context) error
}

// BreakerStater reports the state of a circuit breaker. external.BaseClient
// satisfies it.
type BreakerStater interface {
	Name() string
	State() gobreaker.State
}

// BreakerProbe reports unhealthy while the wrapped circuit breaker is open,
// i.e. while outbound calls to the Send API are being short-circuited.
type BreakerProbe struct {
	Breaker BreakerStater
}

// Name implements HealthProbe.
func (p BreakerProbe) Name() string {
	return "breaker_" + p.Breaker.Name()
}

// Check implements HealthProbe.
func (p BreakerProbe) Check(context.Context) error {
	if state := p.Breaker.State(); state == gobreaker.StateOpen {
		return fmt.Errorf("circuit breaker %s", state)
	}
	return nil
}

type componentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]componentStatus `json:"components,omitempty"`
}

// HandleHealth executes all registered health probes concurrently with a
// short timeout. Returns 200 if every probe reports healthy and 503 if any
// probe fails or does not finish before the deadline.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	version := ""
	if s.Config != nil {
		version = s.Config.Build.Version
	}

	probes := s.HealthProbes
	if len(probes) == 0 {
		JSON(w, r, http.StatusOK, healthResponse{Status: "healthy", Version: version})
		return
	}

	var (
		mu      sync.Mutex
		results = make(map[string]error, len(probes))
		wg      sync.WaitGroup
	)

	for _, probe := range probes {
		wg.Add(1)
		go func(p HealthProbe) {
			defer wg.Done()

			var err error
			func() {
				defer func() {
					if rvr := recover(); rvr != nil {
						err = fmt.Errorf("probe panicked: %v", rvr)
					}
				}()
				err = p.Check(ctx)
			}()

			mu.Lock()
			results[p.Name()] = err
			mu.Unlock()
		}(probe)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// Probes still running are reported as timed out below.
	}

	mu.Lock()
	defer mu.Unlock()

	resp := healthResponse{
		Status:     "healthy",
		Version:    version,
		Components: make(map[string]componentStatus, len(probes)),
	}
	status := http.StatusOK

	for _, probe := range probes {
		name := probe.Name()
		err, finished := results[name]
		switch {
		case !finished:
			resp.Components[name] = componentStatus{Status: "unhealthy", Message: "health check timed out"}
		case err != nil:
			resp.Components[name] = componentStatus{Status: "unhealthy", Message: err.Error()}
		default:
			resp.Components[name] = componentStatus{Status: "healthy"}
			continue
		}
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	JSON(w, r, status, resp)
}

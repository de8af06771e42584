// Package health provides Kubernetes-style liveness and readiness probes.
//
// Checks are registered into a single registry tagged with the probe they
// serve. Each check runs on its own background ticker and keeps
// consecutive-failure/success counters so a single transient error does not
// flip the probe: a check must fail failureThreshold times in a row to go
// unhealthy and succeed successThreshold times to recover.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Probe selects which endpoint a check contributes to.
type Probe string

const (
	// Liveness checks detect a broken process (goroutine leaks, deadlocks).
	Liveness Probe = "liveness"
	// Readiness checks detect a process that should not receive traffic
	// (database down, caches cold).
	Readiness Probe = "readiness"
)

// CheckFunc reports nil when the checked component is healthy.
type CheckFunc func(ctx context.Context) error

const (
	defaultFailureThreshold = 3
	defaultSuccessThreshold = 1
)

// check holds configuration and runtime state for one registered check.
//
// Concurrency: run() executes on a single ticker goroutine, so the
// consecutive counters need no synchronization. healthy and lastErr are read
// by HTTP handlers from arbitrary goroutines and use atomics.
type check struct {
	name    string
	probe   Probe
	timeout time.Duration
	fn      CheckFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	consecutiveFails int
	consecutiveOK    int
}

func (c *check) run(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.fn(checkCtx)
	c.lastErr.Store(&err)

	if err != nil {
		c.consecutiveOK = 0
		c.consecutiveFails++
		if c.consecutiveFails >= defaultFailureThreshold {
			c.healthy.Store(false)
		}
		return
	}
	c.consecutiveFails = 0
	c.consecutiveOK++
	if c.consecutiveOK >= defaultSuccessThreshold {
		c.healthy.Store(true)
	}
}

func (c *check) failure() (string, bool) {
	if c.healthy.Load() {
		return "", false
	}
	if p := c.lastErr.Load(); p != nil && *p != nil {
		return (*p).Error(), true
	}
	return "check is unhealthy", true
}

// Registry manages all probe checks for a service.
type Registry struct {
	ready atomic.Bool

	// mu protects checks and cancel. Registration happens before Start;
	// HTTP handlers snapshot under RLock.
	mu     sync.RWMutex
	checks []*check
	cancel context.CancelFunc
}

// New creates an empty Registry. The service starts not-ready; call
// SetReady(true) once initialization completes.
func New() *Registry {
	return &Registry{}
}

// Add registers a check under the given probe.
func (reg *Registry) Add(probe Probe, name string, timeout time.Duration, fn CheckFunc) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	c := &check{name: name, probe: probe, timeout: timeout, fn: fn}
	c.healthy.Store(true) // assume healthy until proven otherwise
	reg.checks = append(reg.checks, c)
}

// Start launches one background goroutine per registered check, each running
// at the given interval until the context is cancelled or Stop is called.
func (reg *Registry) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	reg.mu.Lock()
	reg.cancel = cancel
	checks := make([]*check, len(reg.checks))
	copy(checks, reg.checks)
	reg.mu.Unlock()

	for _, c := range checks {
		go func(c *check) {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			c.run(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					c.run(ctx)
				}
			}
		}(c)
	}
}

// Stop cancels all background check goroutines. Safe to call repeatedly.
func (reg *Registry) Stop() {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if reg.cancel != nil {
		reg.cancel()
		reg.cancel = nil
	}
}

// SetReady flips the manual readiness gate. Set to false during graceful
// shutdown to stop receiving traffic before the listener closes.
func (reg *Registry) SetReady(ready bool) {
	reg.ready.Store(ready)
}

// IsReady reports whether the service has been marked ready and every
// readiness check is passing.
func (reg *Registry) IsReady() bool {
	if !reg.ready.Load() {
		return false
	}
	for _, c := range reg.snapshot(Readiness) {
		if !c.healthy.Load() {
			return false
		}
	}
	return true
}

func (reg *Registry) snapshot(probe Probe) []*check {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	out := make([]*check, 0, len(reg.checks))
	for _, c := range reg.checks {
		if c.probe == probe {
			out = append(out, c)
		}
	}
	return out
}

// Handler returns an http.HandlerFunc serving the given probe. It responds
// 200 with {"status":"ok"} while healthy, or 503 listing the failing checks.
// The readiness probe additionally requires the manual ready gate.
func (reg *Registry) Handler(probe Probe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		failures := make(map[string]string)
		for _, c := range reg.snapshot(probe) {
			if msg, failed := c.failure(); failed {
				failures[c.name] = msg
			}
		}
		if probe == Readiness && !reg.ready.Load() {
			failures["_readiness"] = "service is not ready"
		}
		writeStatus(w, failures)
	}
}

type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func writeStatus(w http.ResponseWriter, failures map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	resp := statusResponse{Status: "ok"}
	status := http.StatusOK
	if len(failures) > 0 {
		resp.Status = "unhealthy"
		resp.Checks = failures
		status = http.StatusServiceUnavailable
	}

	w.WriteHeader(status)
	// Best effort: the status code is already written.
	_ = json.NewEncoder(w).Encode(resp)
}

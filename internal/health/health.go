// Package health provides liveness and readiness checks for the service.
package health

import (
	"context"
	"sync"
	"time"
)

// Status represents the outcome of a single health check.
type Status struct {
	Healthy bool          `json:"healthy"`
	Detail  string        `json:"detail,omitempty"`
	Latency time.Duration `json:"latency_ns"`
}

// Check is a single named health probe.
type Check func(ctx context.Context) error

// Checker runs registered health checks.
type Checker struct {
	mu     sync.RWMutex
	checks map[string]Check
}

// NewChecker creates an empty health checker.
func NewChecker() *Checker {
	return &Checker{checks: make(map[string]Check)}
}

// Register adds a named check. Registering the same name twice replaces it.
func (c *Checker) Register(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Run executes all checks with a per-check timeout and returns results keyed
// by check name, plus an overall healthy flag.
func (c *Checker) Run(ctx context.Context) (map[string]Status, bool) {
	c.mu.RLock()
	checks := make(map[string]Check, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	results := make(map[string]Status, len(checks))
	healthy := true
	for name, check := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		start := time.Now()
		err := check(checkCtx)
		cancel()

		st := Status{Healthy: err == nil, Latency: time.Since(start)}
		if err != nil {
			st.Detail = err.Error()
			healthy = false
		}
		results[name] = st
	}
	return results, healthy
}

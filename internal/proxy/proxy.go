// Package proxy manages the outbound proxy pool for platform calls.
//
// Rotation is round-robin over healthy proxies. A proxy is sidelined after 3
// consecutive failures and re-admitted when the background health loop sees
// it respond again. The health loop runs on its own cadence and never blocks
// the action pipeline.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// maxFailures is the consecutive-failure count that sidelines a proxy.
const maxFailures = 3

// ErrNoHealthyProxies is returned when every proxy in the pool is sidelined.
var ErrNoHealthyProxies = errors.New("no healthy proxies available")

// Proxy is one upstream proxy endpoint.
type Proxy struct {
	URL      string `json:"url"`
	Provider string `json:"provider"`

	Healthy      bool      `json:"healthy"`
	FailureCount int       `json:"failureCount"`
	LastChecked  time.Time `json:"lastChecked"`
}

// CheckFunc probes one proxy endpoint.
type CheckFunc func(ctx context.Context, proxyURL string) error

// Pool rotates requests over a set of proxies.
type Pool struct {
	mu      sync.Mutex
	proxies []*Proxy
	next    int

	check    CheckFunc
	interval time.Duration
	logger   *slog.Logger
	stop     chan struct{}
	running  atomic.Bool
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the pool's logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pool) { p.logger = l }
}

// WithCheck overrides the health probe (tests).
func WithCheck(fn CheckFunc) Option {
	return func(p *Pool) { p.check = fn }
}

// WithInterval sets the health loop cadence.
func WithInterval(d time.Duration) Option {
	return func(p *Pool) { p.interval = d }
}

// NewPool creates a proxy pool from the given endpoints.
func NewPool(provider string, urls []string, opts ...Option) *Pool {
	p := &Pool{
		check:    defaultCheck,
		interval: 5 * time.Minute,
		logger:   slog.Default(),
		stop:     make(chan struct{}),
	}
	for _, url := range urls {
		p.proxies = append(p.proxies, &Proxy{URL: url, Provider: provider, Healthy: true})
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Next returns the next healthy proxy in rotation.
func (p *Pool) Next() (*Proxy, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.proxies) == 0 {
		return nil, ErrNoHealthyProxies
	}
	for i := 0; i < len(p.proxies); i++ {
		candidate := p.proxies[p.next%len(p.proxies)]
		p.next++
		if candidate.Healthy {
			cp := *candidate
			return &cp, nil
		}
	}
	return nil, ErrNoHealthyProxies
}

// MarkResult records the outcome of using a proxy. Success resets the
// failure streak; the third consecutive failure sidelines the proxy.
func (p *Pool) MarkResult(proxyURL string, success bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, proxy := range p.proxies {
		if proxy.URL != proxyURL {
			continue
		}
		if success {
			proxy.FailureCount = 0
			proxy.Healthy = true
			return
		}
		proxy.FailureCount++
		if proxy.FailureCount >= maxFailures && proxy.Healthy {
			proxy.Healthy = false
			p.logger.Warn("proxy sidelined after repeated failures",
				"proxy", proxy.URL, "failures", proxy.FailureCount)
		}
		return
	}
}

// Snapshot returns the current pool state.
func (p *Pool) Snapshot() []*Proxy {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Proxy, 0, len(p.proxies))
	for _, proxy := range p.proxies {
		cp := *proxy
		out = append(out, &cp)
	}
	return out
}

// Running reports whether the health loop is active.
func (p *Pool) Running() bool {
	return p.running.Load()
}

// StartHealthLoop probes every proxy on a fixed cadence, re-admitting ones
// that recover. Call in a goroutine.
func (p *Pool) StartHealthLoop(ctx context.Context) {
	p.running.Store(true)
	defer p.running.Store(false)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case <-ticker.C:
			p.safeCheckAll(ctx)
		}
	}
}

// Stop signals the health loop to stop.
func (p *Pool) Stop() {
	select {
	case p.stop <- struct{}{}:
	default:
	}
}

func (p *Pool) safeCheckAll(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("panic in proxy health loop", "panic", fmt.Sprint(r))
		}
	}()

	for _, proxy := range p.Snapshot() {
		checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := p.check(checkCtx, proxy.URL)
		cancel()

		p.mu.Lock()
		for _, live := range p.proxies {
			if live.URL != proxy.URL {
				continue
			}
			live.LastChecked = time.Now()
			if err == nil {
				if !live.Healthy {
					p.logger.Info("proxy recovered", "proxy", live.URL)
				}
				live.Healthy = true
				live.FailureCount = 0
			} else {
				live.FailureCount++
				if live.FailureCount >= maxFailures {
					live.Healthy = false
				}
			}
		}
		p.mu.Unlock()
	}
}

// defaultCheck issues a HEAD request through the proxy target itself.
func defaultCheck(ctx context.Context, proxyURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, proxyURL, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("proxy returned status %d", resp.StatusCode)
	}
	return nil
}

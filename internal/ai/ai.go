// Package ai provides the LLM provider chain used for risk and authenticity
// judgments.
//
// Providers implement one capability, Generate(prompt) → text. The Chain
// holds an ordered list and iterates with first-success-wins semantics,
// keeping per-provider success/failure counters. Order encodes preference:
// DeepSeek first (cost), then Groq (speed), Anthropic, OpenAI, Google.
package ai

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/socialseed/socialseed/internal/config"
	"github.com/socialseed/socialseed/internal/metrics"
)

// ErrNoProviders is returned when the chain is empty.
var ErrNoProviders = errors.New("no ai providers configured")

// ErrAllProvidersFailed is returned when every provider in the chain failed.
var ErrAllProvidersFailed = errors.New("all ai providers failed")

// Provider is a single LLM backend.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Stats tracks per-provider call outcomes.
type Stats struct {
	Successes int64 `json:"successes"`
	Failures  int64 `json:"failures"`
}

// Chain tries providers in order until one succeeds.
type Chain struct {
	providers []Provider
	timeout   time.Duration
	logger    *slog.Logger

	mu    sync.Mutex
	stats map[string]*Stats
}

// Option configures a Chain.
type Option func(*Chain)

// WithLogger sets the chain's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Chain) { c.logger = l }
}

// WithTimeout sets the per-provider call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Chain) { c.timeout = d }
}

// NewChain creates a provider chain. Order is preserved.
func NewChain(providers []Provider, opts ...Option) *Chain {
	c := &Chain{
		providers: providers,
		timeout:   30 * time.Second,
		logger:    slog.Default(),
		stats:     make(map[string]*Stats),
	}
	for _, opt := range opts {
		opt(c)
	}
	for _, p := range providers {
		c.stats[p.Name()] = &Stats{}
	}
	return c
}

// NewChainFromConfig builds the default chain from configured API keys.
// Providers with no key are skipped.
func NewChainFromConfig(cfg *config.Config, opts ...Option) *Chain {
	var providers []Provider
	if cfg.DeepSeekAPIKey != "" {
		providers = append(providers, NewDeepSeek(cfg.DeepSeekAPIKey))
	}
	if cfg.GroqAPIKey != "" {
		providers = append(providers, NewGroq(cfg.GroqAPIKey))
	}
	if cfg.AnthropicAPIKey != "" {
		providers = append(providers, NewAnthropic(cfg.AnthropicAPIKey))
	}
	if cfg.OpenAIAPIKey != "" {
		providers = append(providers, NewOpenAI(cfg.OpenAIAPIKey))
	}
	if cfg.GeminiAPIKey != "" {
		providers = append(providers, NewGoogle(cfg.GeminiAPIKey))
	}
	opts = append(opts, WithTimeout(cfg.AITimeout))
	return NewChain(providers, opts...)
}

// Generate runs the prompt through the chain, returning the first successful
// response. Each provider gets its own timeout slice of ctx.
func (c *Chain) Generate(ctx context.Context, prompt string) (string, error) {
	if len(c.providers) == 0 {
		return "", ErrNoProviders
	}

	var lastErr error
	for _, p := range c.providers {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		text, err := p.Generate(callCtx, prompt)
		cancel()

		if err == nil && text != "" {
			c.record(p.Name(), true)
			metrics.AIProviderCallsTotal.WithLabelValues(p.Name(), "success").Inc()
			return text, nil
		}
		if err == nil {
			err = errors.New("empty response")
		}
		c.record(p.Name(), false)
		metrics.AIProviderCallsTotal.WithLabelValues(p.Name(), "failure").Inc()
		c.logger.Warn("ai provider failed, trying next", "provider", p.Name(), "error", err)
		lastErr = err

		// Don't burn the remaining providers on a dead parent context.
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", errors.Join(ErrAllProvidersFailed, lastErr)
}

// ProviderStats returns a copy of the per-provider counters.
func (c *Chain) ProviderStats() map[string]Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]Stats, len(c.stats))
	for name, s := range c.stats {
		out[name] = *s
	}
	return out
}

// Available reports whether the chain has at least one provider.
func (c *Chain) Available() bool {
	return len(c.providers) > 0
}

func (c *Chain) record(name string, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.stats[name]
	if !ok {
		s = &Stats{}
		c.stats[name] = s
	}
	if success {
		s.Successes++
	} else {
		s.Failures++
	}
}

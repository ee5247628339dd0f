package platform

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/socialseed/socialseed/internal/behavior"
)

// MockExecutor emulates a platform API with configurable success rate and
// latency. Failures come back tagged with a weighted mix of failure kinds
// so degradation handling stays exercised.
type MockExecutor struct {
	name        string
	successRate float64
	minLatency  time.Duration
	maxLatency  time.Duration
	randFloat   func() float64
	sleep       func(ctx context.Context, d time.Duration) error
}

// MockOption configures a MockExecutor.
type MockOption func(*MockExecutor)

// WithSuccessRate overrides the default success rate.
func WithSuccessRate(rate float64) MockOption {
	return func(m *MockExecutor) { m.successRate = rate }
}

// WithMockRand overrides the randomness source (tests).
func WithMockRand(fn func() float64) MockOption {
	return func(m *MockExecutor) { m.randFloat = fn }
}

// WithoutLatency disables the simulated latency sleep (tests).
func WithoutLatency() MockOption {
	return func(m *MockExecutor) {
		m.sleep = func(context.Context, time.Duration) error { return nil }
	}
}

// NewMock creates a mock executor for the named platform.
func NewMock(name string, opts ...MockOption) *MockExecutor {
	m := &MockExecutor{
		name:        name,
		successRate: 0.9,
		minLatency:  200 * time.Millisecond,
		maxLatency:  1500 * time.Millisecond,
		randFloat:   rand.Float64,
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewTikTok creates the TikTok mock (primary platform, most reliable).
func NewTikTok(opts ...MockOption) *MockExecutor {
	return NewMock("tiktok", append([]MockOption{WithSuccessRate(0.92)}, opts...)...)
}

// NewInstagram creates the Instagram mock.
func NewInstagram(opts ...MockOption) *MockExecutor {
	return NewMock("instagram", append([]MockOption{WithSuccessRate(0.88)}, opts...)...)
}

// NewTwitter creates the Twitter mock (rate limits most often).
func NewTwitter(opts ...MockOption) *MockExecutor {
	return NewMock("twitter", append([]MockOption{WithSuccessRate(0.85)}, opts...)...)
}

func (m *MockExecutor) Name() string { return m.name }

// Execute emulates one platform call.
func (m *MockExecutor) Execute(ctx context.Context, action *Action) (*Result, error) {
	if !action.Type.Valid() {
		return nil, NewError(behavior.FailureUnknown, fmt.Sprintf("unsupported action type %q", action.Type))
	}

	latency := m.minLatency + time.Duration(m.randFloat()*float64(m.maxLatency-m.minLatency))
	if err := m.sleep(ctx, latency); err != nil {
		return nil, NewError(behavior.FailureNetwork, "request cancelled")
	}

	if m.randFloat() < m.successRate {
		return &Result{
			Success:      true,
			ResponseTime: latency,
			Detail:       fmt.Sprintf("%s executed on %s", action.Type, m.name),
		}, nil
	}
	return &Result{ResponseTime: latency}, m.failure()
}

// failure picks a tagged failure kind with a fixed weighting: rate limits
// dominate, auth and API-change failures are rare.
func (m *MockExecutor) failure() error {
	r := m.randFloat()
	switch {
	case r < 0.50:
		return NewError(behavior.FailureRateLimit, "rate limit exceeded")
	case r < 0.80:
		return NewError(behavior.FailureNetwork, "upstream connection reset")
	case r < 0.90:
		return NewError(behavior.FailureAuthentication, "session token rejected")
	case r < 0.95:
		return NewError(behavior.FailureAPIChange, "endpoint returned unexpected schema")
	default:
		return NewError(behavior.FailureUnknown, "unclassified platform failure")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

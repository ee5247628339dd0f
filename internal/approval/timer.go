package approval

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// Timer periodically expires stale pending approvals. Only started when
// APPROVAL_EXPIRY is configured; by default pending requests live forever.
type Timer struct {
	workflow *Workflow
	maxAge   time.Duration
	interval time.Duration
	logger   *slog.Logger
	stop     chan struct{}
	running  atomic.Bool
}

// NewTimer creates an approval expiry timer.
func NewTimer(workflow *Workflow, maxAge time.Duration, logger *slog.Logger) *Timer {
	return &Timer{
		workflow: workflow,
		maxAge:   maxAge,
		interval: time.Minute,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

// Running reports whether the timer loop is actively running.
func (t *Timer) Running() bool {
	return t.running.Load()
}

// Start begins the expiry loop. Call in a goroutine.
func (t *Timer) Start(ctx context.Context) {
	if t.maxAge <= 0 {
		return
	}
	t.running.Store(true)
	defer t.running.Store(false)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stop:
			return
		case <-ticker.C:
			t.safeExpire(ctx)
		}
	}
}

// Stop signals the timer to stop.
func (t *Timer) Stop() {
	select {
	case t.stop <- struct{}{}:
	default:
	}
}

func (t *Timer) safeExpire(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("panic in approval expiry timer", "panic", fmt.Sprint(r))
		}
	}()

	count, err := t.workflow.ExpireOlderThan(ctx, t.maxAge)
	if err != nil {
		t.logger.Warn("approval expiry sweep failed", "error", err)
		return
	}
	if count > 0 {
		t.logger.Info("expired stale approvals", "count", count, "max_age", t.maxAge)
	}
}

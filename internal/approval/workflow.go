package approval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/socialseed/socialseed/internal/idgen"
	"github.com/socialseed/socialseed/internal/metrics"
)

// Workflow drives the approval state machine over a Store.
type Workflow struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time

	// notify, when set, receives every state change for the realtime feed.
	notify func(event string, r *Request)
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithLogger sets the workflow's logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Workflow) { w.logger = l }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

// WithNotifier registers a callback invoked on every request state change.
func WithNotifier(fn func(event string, r *Request)) Option {
	return func(w *Workflow) { w.notify = fn }
}

// NewWorkflow creates an approval workflow over the given store.
func NewWorkflow(store Store, opts ...Option) *Workflow {
	w := &Workflow{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// RequestApproval parks an action and returns its opaque id immediately.
// The caller does not block on the human decision.
func (w *Workflow) RequestApproval(ctx context.Context, accountID, actionType, riskLevel, reasoning string, actionData map[string]string) (string, error) {
	r := &Request{
		ID:          idgen.WithPrefix("apr_"),
		AccountID:   accountID,
		ActionType:  actionType,
		RiskLevel:   riskLevel,
		Reasoning:   reasoning,
		ActionData:  actionData,
		Status:      StatusPending,
		RequestedAt: w.now(),
	}
	if err := w.store.Create(ctx, r); err != nil {
		return "", fmt.Errorf("failed to create approval request: %w", err)
	}

	metrics.PendingApprovals.Inc()
	w.logger.Info("approval requested",
		"approval_id", r.ID,
		"account_id", accountID,
		"action_type", actionType,
		"risk_level", riskLevel,
	)
	w.emit("approval_requested", r)
	return r.ID, nil
}

// Approve resolves a pending request as APPROVED. Returns false without
// mutating anything when the id is unknown or already resolved.
func (w *Workflow) Approve(ctx context.Context, id, approver, notes string) (bool, error) {
	return w.resolve(ctx, id, StatusApproved, approver, notes)
}

// Reject resolves a pending request as REJECTED. Same idempotency guard as
// Approve.
func (w *Workflow) Reject(ctx context.Context, id, approver, reason string) (bool, error) {
	return w.resolve(ctx, id, StatusRejected, approver, reason)
}

func (w *Workflow) resolve(ctx context.Context, id string, status Status, resolvedBy, notes string) (bool, error) {
	ok, err := w.store.Resolve(ctx, id, status, resolvedBy, notes, w.now())
	if err != nil {
		return false, fmt.Errorf("failed to resolve approval: %w", err)
	}
	if !ok {
		return false, nil
	}

	metrics.PendingApprovals.Dec()
	metrics.ApprovalsTotal.WithLabelValues(string(status)).Inc()
	w.logger.Info("approval resolved",
		"approval_id", id,
		"status", string(status),
		"resolved_by", resolvedBy,
	)
	if r, err := w.store.Get(ctx, id); err == nil {
		w.emit("approval_resolved", r)
	}
	return true, nil
}

// GetPendingApprovals lists pending requests, optionally filtered by account.
func (w *Workflow) GetPendingApprovals(ctx context.Context, accountID string) ([]*Request, error) {
	return w.store.ListPending(ctx, accountID)
}

// Get returns a single request by id.
func (w *Workflow) Get(ctx context.Context, id string) (*Request, error) {
	return w.store.Get(ctx, id)
}

// ExpireOlderThan rejects pending requests older than maxAge on behalf of
// the system. Used by the expiry timer; a zero maxAge disables expiry.
func (w *Workflow) ExpireOlderThan(ctx context.Context, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	cutoff := w.now().Add(-maxAge)
	expired, err := w.store.ListExpired(ctx, cutoff, 100)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired approvals: %w", err)
	}

	count := 0
	for _, r := range expired {
		ok, err := w.Reject(ctx, r.ID, "system:expiry", "approval request expired without a decision")
		if err != nil {
			w.logger.Warn("failed to expire approval", "approval_id", r.ID, "error", err)
			continue
		}
		if ok {
			count++
		}
	}
	return count, nil
}

func (w *Workflow) emit(event string, r *Request) {
	if w.notify != nil {
		w.notify(event, r)
	}
}

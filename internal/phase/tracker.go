package phase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/socialseed/socialseed/internal/account"
	"github.com/socialseed/socialseed/internal/idgen"
	"github.com/socialseed/socialseed/internal/metrics"
)

// Tracker drives phase initialization and promotion for accounts.
type Tracker struct {
	accounts account.Store
	store    Store
	logger   *slog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the tracker's logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// NewTracker creates a phase tracker backed by the given stores.
func NewTracker(accounts account.Store, store Store, opts ...Option) *Tracker {
	t := &Tracker{
		accounts: accounts,
		store:    store,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Initialize ensures an account has a phase, defaulting new accounts to
// phase_1. Returns the account's phase.
func (t *Tracker) Initialize(ctx context.Context, accountID string) (Phase, error) {
	a, err := t.accounts.Get(ctx, accountID)
	if err != nil {
		return "", fmt.Errorf("failed to load account: %w", err)
	}
	if Phase(a.Phase).Valid() {
		return Phase(a.Phase), nil
	}
	if err := t.accounts.SetPhase(ctx, accountID, string(Phase1)); err != nil {
		return "", fmt.Errorf("failed to initialize phase: %w", err)
	}
	t.logger.Info("account initialized to phase_1", "account_id", accountID)
	return Phase1, nil
}

// Current returns an account's phase, initializing it when unset.
func (t *Tracker) Current(ctx context.Context, accountID string) (Phase, error) {
	return t.Initialize(ctx, accountID)
}

// CheckProgression promotes the account when its health clears the next
// gate. Idempotent: when the gate is unmet (or the account is already at
// phase_3) it is a no-op returning the current phase. Every promotion is
// recorded as an immutable transition entry.
func (t *Tracker) CheckProgression(ctx context.Context, h *account.Health) (bool, Phase, error) {
	current := Phase(h.Phase)
	if !current.Valid() {
		current = Phase1
	}

	ok, next := ShouldProgress(current, h.AgeDays, h.RiskScore, h.ConsecutiveErrors, h.EngagementRate)
	if !ok {
		return false, current, nil
	}

	if err := t.accounts.SetPhase(ctx, h.AccountID, string(next)); err != nil {
		return false, current, fmt.Errorf("failed to promote account: %w", err)
	}

	tr := &Transition{
		ID:        idgen.WithPrefix("pht_"),
		AccountID: h.AccountID,
		FromPhase: current,
		ToPhase:   next,
		Reason: fmt.Sprintf("age=%dd risk=%.2f errors=%d engagement=%.3f",
			h.AgeDays, h.RiskScore, h.ConsecutiveErrors, h.EngagementRate),
		CreatedAt: time.Now(),
	}
	if err := t.store.Record(ctx, tr); err != nil {
		// Promotion already happened; audit failure is logged, not fatal.
		t.logger.Error("failed to record phase transition", "account_id", h.AccountID, "error", err)
	}

	metrics.PhaseTransitionsTotal.WithLabelValues(string(next)).Inc()
	t.logger.Info("account promoted",
		"account_id", h.AccountID,
		"from_phase", string(current),
		"to_phase", string(next),
		"reason", tr.Reason,
	)
	return true, next, nil
}

// History returns the most recent transitions for an account.
func (t *Tracker) History(ctx context.Context, accountID string, limit int) ([]*Transition, error) {
	if limit <= 0 {
		limit = 20
	}
	return t.store.ListByAccount(ctx, accountID, limit)
}

package risk

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/socialseed/socialseed/internal/account"
	"github.com/socialseed/socialseed/internal/ai"
	"github.com/socialseed/socialseed/internal/idgen"
	"github.com/socialseed/socialseed/internal/metrics"
	"github.com/socialseed/socialseed/internal/phase"
	"github.com/socialseed/socialseed/internal/traces"
)

// Generator is the LLM capability the assessor consumes. Satisfied by
// *ai.Chain; tests substitute a stub.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Assessor combines the composite score, the LLM verdict, and phase policy
// into a final traffic-light assessment.
type Assessor struct {
	accounts account.Store
	tracker  *phase.Tracker
	llm      Generator
	store    Store
	logger   *slog.Logger
	now      func() time.Time
}

// AssessorOption configures an Assessor.
type AssessorOption func(*Assessor)

// WithLogger sets the assessor's logger.
func WithLogger(l *slog.Logger) AssessorOption {
	return func(a *Assessor) { a.logger = l }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) AssessorOption {
	return func(a *Assessor) { a.now = now }
}

// NewAssessor creates a risk assessor.
func NewAssessor(accounts account.Store, tracker *phase.Tracker, llm Generator, store Store, opts ...AssessorOption) *Assessor {
	a := &Assessor{
		accounts: accounts,
		tracker:  tracker,
		llm:      llm,
		store:    store,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assess evaluates one action request. It returns an error only for fatal
// conditions (unknown account); AI failures degrade to the fail-safe verdict
// instead of surfacing.
func (a *Assessor) Assess(ctx context.Context, accountID, actionType string, targetData map[string]string) (*Assessment, error) {
	ctx, span := traces.StartSpan(ctx, "risk.assess",
		traces.AccountID(accountID), traces.ActionType(actionType))
	defer span.End()

	acct, err := a.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	ph, err := a.tracker.Current(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve phase: %w", err)
	}
	acct.Phase = string(ph)

	now := a.now()
	health := acct.Health(now, 0)
	score, factors := Score(health, now)
	health.RiskScore = score

	verdict, degraded := a.judge(ctx, health, actionType, targetData)
	level := Reconcile(ph, Level(verdict.RiskLevel), score)

	flags := verdict.Flags
	if degraded {
		flags = append(flags, "ai_degraded")
	}

	assessment := &Assessment{
		ID:                    idgen.WithPrefix("risk_"),
		AccountID:             accountID,
		ActionType:            actionType,
		Level:                 level,
		Confidence:            verdict.Confidence,
		Reasoning:             verdict.Reasoning,
		RecommendedAction:     verdict.Recommendation,
		RequiresHumanApproval: level != LevelGreen,
		Flags:                 flags,
		Score:                 score,
		Factors:               factors,
		Phase:                 string(ph),
		Degraded:              degraded,
		EvaluatedAt:           now,
	}

	// Audit trail is best-effort; a storage hiccup must not block the verdict.
	if err := a.store.Record(ctx, assessment); err != nil {
		a.logger.Error("failed to record risk assessment", "account_id", accountID, "error", err)
	}

	metrics.RiskAssessmentsTotal.WithLabelValues(string(level)).Inc()
	span.SetAttributes(traces.RiskLevel(string(level)))
	a.logger.Info("risk assessed",
		"account_id", accountID,
		"action_type", actionType,
		"score", score,
		"llm_level", verdict.RiskLevel,
		"final_level", string(level),
		"degraded", degraded,
	)
	return assessment, nil
}

// judge runs the LLM call and parses the verdict. Any failure returns the
// fail-safe verdict (yellow, confidence 0) with degraded=true. Never green
// by default.
func (a *Assessor) judge(ctx context.Context, h *account.Health, actionType string, targetData map[string]string) (*ai.RiskVerdict, bool) {
	failSafe := &ai.RiskVerdict{
		RiskLevel:      string(LevelYellow),
		Confidence:     0,
		Reasoning:      "automated analysis unavailable, defaulting to caution",
		Recommendation: "manual_review",
	}

	raw, err := a.llm.Generate(ctx, buildPrompt(h, actionType, targetData))
	if err != nil {
		a.logger.Warn("ai judgment unavailable", "account_id", h.AccountID, "error", err)
		return failSafe, true
	}

	verdict, err := ai.ParseRiskVerdict(raw)
	if err != nil {
		a.logger.Warn("ai verdict unparseable", "account_id", h.AccountID, "error", err)
		return failSafe, true
	}
	return verdict, false
}

// History returns the most recent assessments for an account.
func (a *Assessor) History(ctx context.Context, accountID string, limit int) ([]*Assessment, error) {
	if limit <= 0 {
		limit = 20
	}
	return a.store.ListByAccount(ctx, accountID, limit)
}

// buildPrompt renders the structured assessment context sent to the model.
func buildPrompt(h *account.Health, actionType string, targetData map[string]string) string {
	var b strings.Builder
	b.WriteString("You are a social media risk analyst. Assess the risk of performing an automated action.\n\n")
	fmt.Fprintf(&b, "Account health:\n")
	fmt.Fprintf(&b, "- platform: %s\n", h.Platform)
	fmt.Fprintf(&b, "- followers: %d, following: %d (ratio %.2f)\n", h.FollowerCount, h.FollowingCount, h.FollowRatio)
	fmt.Fprintf(&b, "- engagement rate: %.4f\n", h.EngagementRate)
	fmt.Fprintf(&b, "- consecutive errors: %d\n", h.ConsecutiveErrors)
	fmt.Fprintf(&b, "- account age: %d days, phase: %s\n", h.AgeDays, h.Phase)
	fmt.Fprintf(&b, "- composite risk score: %.2f\n\n", h.RiskScore)
	fmt.Fprintf(&b, "Proposed action: %s\n", actionType)

	if len(targetData) > 0 {
		b.WriteString("Target:\n")
		keys := make([]string, 0, len(targetData))
		for k := range targetData {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, targetData[k])
		}
	}

	b.WriteString("\nRespond with only a JSON object: ")
	b.WriteString(`{"risk_level": "green|yellow|red", "confidence": 0.0-1.0, "reasoning": "...", "recommendation": "...", "flags": ["..."]}`)
	return b.String()
}

// Package orchestrator runs the end-to-end action pipeline.
//
// An action request goes through risk assessment, the approval gate, break
// and delay scheduling, platform execution, and the phase-progression check.
// ExecuteAction blocks through the whole pipeline; Schedule answers as soon
// as the gates clear and finishes the delay and execution in the background,
// which is what the HTTP layer uses since delays run to minutes. Evaluations
// for the same account are serialized by a per-account lock so counters and
// phase state never race.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/socialseed/socialseed/internal/account"
	"github.com/socialseed/socialseed/internal/approval"
	"github.com/socialseed/socialseed/internal/behavior"
	"github.com/socialseed/socialseed/internal/idgen"
	"github.com/socialseed/socialseed/internal/metrics"
	"github.com/socialseed/socialseed/internal/phase"
	"github.com/socialseed/socialseed/internal/platform"
	"github.com/socialseed/socialseed/internal/realtime"
	"github.com/socialseed/socialseed/internal/risk"
	"github.com/socialseed/socialseed/internal/syncutil"
	"github.com/socialseed/socialseed/internal/traces"
)

// Outcome statuses. The pipeline always returns one of these; policy blocks
// are normal control flow, not errors.
const (
	StatusSuccess          = "success"
	StatusScheduled        = "scheduled"
	StatusApprovalRequired = "approval_required"
	StatusBreakRequired    = "break_required"
	StatusRejected         = "rejected"
	StatusError            = "error"
)

// Request is one action to evaluate and (possibly) execute.
type Request struct {
	AccountID  string            `json:"accountId"`
	ActionType string            `json:"actionType"`
	Target     map[string]string `json:"target,omitempty"`

	// Force bypasses the approval gate only; risk is still assessed and
	// recorded. Used when a human has already approved the action.
	Force bool `json:"force,omitempty"`
}

// Outcome is the structured result of one pipeline run.
type Outcome struct {
	Status       string           `json:"status"`
	ActionID     string           `json:"actionId,omitempty"`
	ApprovalID   string           `json:"approvalId,omitempty"`
	BreakSeconds int              `json:"breakSeconds,omitempty"`
	DelaySeconds int              `json:"delaySeconds,omitempty"`
	Reasoning    string           `json:"reasoning,omitempty"`
	Detail       string           `json:"detail,omitempty"`
	Assessment   *risk.Assessment `json:"assessment,omitempty"`
	Plan         *behavior.Plan   `json:"degradationPlan,omitempty"`
}

// Orchestrator wires the pipeline components together.
type Orchestrator struct {
	accounts  account.Store
	tracker   *phase.Tracker
	assessor  *risk.Assessor
	workflow  *approval.Workflow
	simulator *behavior.Simulator
	monitor   *behavior.Monitor
	registry  *platform.Registry
	log       ActionLog
	locks     *syncutil.AccountMutex
	hub       *realtime.Hub

	logger *slog.Logger
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the orchestrator's logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithHub attaches the realtime hub for event broadcasting.
func WithHub(h *realtime.Hub) Option {
	return func(o *Orchestrator) { o.hub = h }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithSleep overrides the delay wait (tests).
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) { o.sleep = fn }
}

// New creates an orchestrator.
func New(
	accounts account.Store,
	tracker *phase.Tracker,
	assessor *risk.Assessor,
	workflow *approval.Workflow,
	simulator *behavior.Simulator,
	monitor *behavior.Monitor,
	registry *platform.Registry,
	log ActionLog,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		accounts:  accounts,
		tracker:   tracker,
		assessor:  assessor,
		workflow:  workflow,
		simulator: simulator,
		monitor:   monitor,
		registry:  registry,
		log:       log,
		locks:     syncutil.NewAccountMutex(),
		logger:    slog.Default(),
		now:       time.Now,
		sleep:     sleepCtx,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// pipelineState carries an action that cleared every gate from the decision
// half of the pipeline to the timed execution half.
type pipelineState struct {
	req          *Request
	acct         *account.Account
	executor     platform.Executor
	assessment   *risk.Assessment
	delaySeconds int
	reasoning    string
	actionID     string
	unlock       func()
}

// ExecuteAction runs one action through the full pipeline, blocking through
// the human-like delay. It returns an error only for fatal conditions
// (unknown account, unregistered platform, cancelled context); every policy
// or platform failure comes back as a structured Outcome.
func (o *Orchestrator) ExecuteAction(ctx context.Context, req *Request) (*Outcome, error) {
	ctx, span := traces.StartSpan(ctx, "orchestrator.execute_action",
		traces.AccountID(req.AccountID), traces.ActionType(req.ActionType))
	defer span.End()

	st, blocked, err := o.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	if blocked != nil {
		return blocked, nil
	}
	defer st.unlock()
	return o.run(ctx, st)
}

// Schedule runs the decision half synchronously and, when the action clears
// every gate, hands the delay and platform execution to a background
// goroutine. The returned scheduled Outcome carries the action id under
// which the eventual result lands in the action log, so HTTP callers can
// answer inside their write deadline and poll for completion.
func (o *Orchestrator) Schedule(ctx context.Context, req *Request) (*Outcome, error) {
	ctx, span := traces.StartSpan(ctx, "orchestrator.schedule_action",
		traces.AccountID(req.AccountID), traces.ActionType(req.ActionType))
	defer span.End()

	st, blocked, err := o.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	if blocked != nil {
		return blocked, nil
	}

	st.actionID = idgen.WithPrefix("act_")

	// The caller's context dies with its HTTP request; the scheduled work
	// must not. The per-account lock stays held until the run completes so
	// delayed actions keep their per-account ordering.
	bg := context.WithoutCancel(ctx)
	go func() {
		defer st.unlock()
		if _, err := o.run(bg, st); err != nil {
			o.logger.Error("scheduled action failed",
				"account_id", st.req.AccountID, "action_id", st.actionID, "error", err)
		}
	}()

	return &Outcome{
		Status:       StatusScheduled,
		ActionID:     st.actionID,
		DelaySeconds: st.delaySeconds,
		Reasoning:    st.reasoning,
		Assessment:   st.assessment,
	}, nil
}

// prepare serializes on the per-account lock and runs every gate up to the
// delay decision. Exactly one of the three results is set: a state ready to
// run (still holding the lock), a blocking Outcome (already recorded, lock
// released), or an error (lock released).
func (o *Orchestrator) prepare(ctx context.Context, req *Request) (*pipelineState, *Outcome, error) {
	unlock, err := o.locks.Lock(ctx, req.AccountID)
	if err != nil {
		return nil, nil, err
	}
	fail := func(err error) (*pipelineState, *Outcome, error) {
		unlock()
		return nil, nil, err
	}
	block := func(acct *account.Account, out *Outcome) (*pipelineState, *Outcome, error) {
		out = o.finish(ctx, acct, req, out, nil)
		unlock()
		return nil, out, nil
	}

	acct, err := o.accounts.Get(ctx, req.AccountID)
	if err != nil {
		return fail(fmt.Errorf("failed to load account: %w", err))
	}
	if acct.Status != account.StatusActive {
		return block(acct, &Outcome{
			Status: StatusRejected,
			Detail: fmt.Sprintf("account is %s", acct.Status),
		})
	}

	executor, err := o.registry.Get(acct.Platform)
	if err != nil {
		return fail(err)
	}

	// 1. Risk assessment
	assessment, err := o.assessor.Assess(ctx, req.AccountID, req.ActionType, req.Target)
	if err != nil {
		return fail(err)
	}

	// 2. Approval gate. The phase comes from the assessment: the assessor
	// initializes phase_1 for accounts that never had one, and the copy
	// loaded above predates that.
	if assessment.RequiresHumanApproval && !req.Force {
		if assessment.Level == risk.LevelRed && assessment.Phase == string(phase.Phase1) {
			// Phase 1 reds are outright rejections; parking them would
			// just accumulate requests no reviewer should approve.
			return block(acct, &Outcome{
				Status:     StatusRejected,
				Reasoning:  assessment.Reasoning,
				Assessment: assessment,
			})
		}

		approvalID, err := o.workflow.RequestApproval(ctx, req.AccountID, req.ActionType,
			string(assessment.Level), assessment.Reasoning, req.Target)
		if err != nil {
			return fail(err)
		}
		return block(acct, &Outcome{
			Status:     StatusApprovalRequired,
			ApprovalID: approvalID,
			Reasoning:  assessment.Reasoning,
			Assessment: assessment,
		})
	}

	// 3. Break check
	if needBreak, breakSeconds := o.simulator.ShouldTakeBreak(req.AccountID, o.sessionActions(ctx, req.AccountID)); needBreak {
		return block(acct, &Outcome{
			Status:       StatusBreakRequired,
			BreakSeconds: breakSeconds,
			Reasoning:    "human-like break scheduled",
			Assessment:   assessment,
		})
	}

	// 4. Delay, stretched by platform backoff when rate limits are live
	delaySeconds, reasoning := o.simulator.Delay(req.AccountID, req.ActionType,
		phase.Phase(assessment.Phase), acct.LastActionAt)
	if backoff := o.monitor.Backoff(acct.Platform); backoff > time.Minute {
		delaySeconds += int(backoff.Seconds())
		reasoning += fmt.Sprintf(", platform backoff %s added", backoff)
	}

	return &pipelineState{
		req:          req,
		acct:         acct,
		executor:     executor,
		assessment:   assessment,
		delaySeconds: delaySeconds,
		reasoning:    reasoning,
		unlock:       unlock,
	}, nil, nil
}

// run sleeps through the decided delay and executes against the platform.
func (o *Orchestrator) run(ctx context.Context, st *pipelineState) (*Outcome, error) {
	if err := o.sleep(ctx, time.Duration(st.delaySeconds)*time.Second); err != nil {
		return nil, err
	}

	start := o.now()
	result, execErr := st.executor.Execute(ctx, &platform.Action{
		AccountID: st.req.AccountID,
		Type:      platform.ActionType(st.req.ActionType),
		Target:    st.req.Target,
	})
	elapsed := o.now().Sub(start)

	o.monitor.Observe(st.acct.Platform, execErr, elapsed)
	if err := o.accounts.RecordActionResult(ctx, st.req.AccountID, execErr == nil, o.now()); err != nil {
		o.logger.Error("failed to record action result", "account_id", st.req.AccountID, "error", err)
	}

	if execErr != nil {
		plan := behavior.PlanFor(behavior.KindOf(execErr))
		return o.finish(ctx, st.acct, st.req, &Outcome{
			Status:       StatusError,
			ActionID:     st.actionID,
			DelaySeconds: st.delaySeconds,
			Detail:       execErr.Error(),
			Assessment:   st.assessment,
			Plan:         &plan,
		}, nil), nil
	}

	o.simulator.RecordAction(st.req.AccountID)

	outcome := &Outcome{
		Status:       StatusSuccess,
		ActionID:     st.actionID,
		DelaySeconds: st.delaySeconds,
		Reasoning:    st.reasoning,
		Detail:       result.Detail,
		Assessment:   st.assessment,
	}
	return o.finish(ctx, st.acct, st.req, outcome, st.assessment), nil
}

// finish records the outcome, broadcasts it, updates metrics, and runs the
// idempotent phase-progression check after successful executions.
func (o *Orchestrator) finish(ctx context.Context, acct *account.Account, req *Request, outcome *Outcome, assessment *risk.Assessment) *Outcome {
	record := &ActionRecord{
		ID:           outcome.ActionID,
		AccountID:    req.AccountID,
		Platform:     acct.Platform,
		ActionType:   req.ActionType,
		Status:       outcome.Status,
		DelaySeconds: outcome.DelaySeconds,
		Detail:       outcome.Detail,
		CreatedAt:    o.now(),
	}
	if record.ID == "" {
		record.ID = idgen.WithPrefix("act_")
		outcome.ActionID = record.ID
	}
	if outcome.Assessment != nil {
		record.RiskLevel = string(outcome.Assessment.Level)
	}
	if err := o.log.Record(ctx, record); err != nil {
		o.logger.Error("failed to record action", "account_id", req.AccountID, "error", err)
	}

	metrics.ActionsTotal.WithLabelValues(acct.Platform, outcome.Status).Inc()
	if o.hub != nil {
		o.hub.BroadcastAction(map[string]interface{}{
			"accountId":  req.AccountID,
			"platform":   acct.Platform,
			"actionType": req.ActionType,
			"status":     outcome.Status,
			"riskLevel":  record.RiskLevel,
		})
	}

	o.logger.Info("action pipeline completed",
		"account_id", req.AccountID,
		"platform", acct.Platform,
		"action_type", req.ActionType,
		"status", outcome.Status,
	)

	if outcome.Status == StatusSuccess && assessment != nil {
		o.checkProgression(ctx, req.AccountID, assessment.Score)
	}
	return outcome
}

// checkProgression re-derives health with the latest score and promotes the
// account when the gate clears.
func (o *Orchestrator) checkProgression(ctx context.Context, accountID string, score float64) {
	acct, err := o.accounts.Get(ctx, accountID)
	if err != nil {
		o.logger.Warn("progression check skipped", "account_id", accountID, "error", err)
		return
	}

	health := acct.Health(o.now(), score)
	promoted, newPhase, err := o.tracker.CheckProgression(ctx, health)
	if err != nil {
		o.logger.Warn("progression check failed", "account_id", accountID, "error", err)
		return
	}
	if promoted && o.hub != nil {
		o.hub.BroadcastPhasePromotion(map[string]interface{}{
			"accountId": accountID,
			"platform":  acct.Platform,
			"toPhase":   string(newPhase),
		})
	}
}

// sessionActions counts today's executed actions for the periodic break
// trigger. Log failures count as zero rather than blocking the pipeline.
func (o *Orchestrator) sessionActions(ctx context.Context, accountID string) int {
	records, err := o.log.ListByAccount(ctx, accountID, 200)
	if err != nil {
		return 0
	}
	cutoff := o.now().Add(-24 * time.Hour)
	count := 0
	for _, r := range records {
		if r.Status == StatusSuccess && r.CreatedAt.After(cutoff) {
			count++
		}
	}
	return count
}

// AccountHealth derives the current health snapshot, including a fresh risk
// score, for the dashboard and health endpoints.
func (o *Orchestrator) AccountHealth(ctx context.Context, accountID string) (*account.Health, error) {
	acct, err := o.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	now := o.now()
	health := acct.Health(now, 0)
	score, _ := risk.Score(health, now)
	health.RiskScore = score
	return health, nil
}

// ActionHistory lists the most recent pipeline outcomes for an account.
func (o *Orchestrator) ActionHistory(ctx context.Context, accountID string, limit int) ([]*ActionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	return o.log.ListByAccount(ctx, accountID, limit)
}

// PlatformHealth exposes the monitor's per-platform snapshots.
func (o *Orchestrator) PlatformHealth() map[string]*behavior.PlatformHealth {
	return o.monitor.AllHealth()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

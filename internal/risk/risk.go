// Package risk implements the traffic-light risk pipeline for growth actions.
//
// Every action is evaluated against 4 weighted factors: follow ratio,
// engagement rate, error streak, and action recency. The composite score
// feeds a phase-aware reconciliation with an LLM verdict, producing a
// green/yellow/red level. Anything above green requires human approval
// before the action executes.
package risk

import (
	"context"
	"time"
)

// Level is the traffic-light verdict on an action.
type Level string

const (
	LevelGreen  Level = "green"
	LevelYellow Level = "yellow"
	LevelRed    Level = "red"
)

// Assessment is the result of evaluating a single action request.
// Created fresh per evaluation; immutable once returned.
type Assessment struct {
	ID         string `json:"id"`
	AccountID  string `json:"accountId"`
	ActionType string `json:"actionType"`

	Level                 Level    `json:"riskLevel"`
	Confidence            float64  `json:"confidence"`
	Reasoning             string   `json:"reasoning"`
	RecommendedAction     string   `json:"recommendedAction"`
	RequiresHumanApproval bool     `json:"requiresHumanApproval"`
	Flags                 []string `json:"flags"`

	Score   float64            `json:"score"`
	Factors map[string]float64 `json:"factors"`
	Phase   string             `json:"phase"`

	// Degraded marks assessments produced on the fail-safe path after
	// the AI chain failed or returned unusable output.
	Degraded bool `json:"degraded"`

	EvaluatedAt time.Time `json:"evaluatedAt"`
}

// Store persists risk assessments for audit trail.
type Store interface {
	Record(ctx context.Context, assessment *Assessment) error
	ListByAccount(ctx context.Context, accountID string, limit int) ([]*Assessment, error)
}

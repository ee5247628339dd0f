// Package phase implements the account lifecycle state machine.
//
// Accounts move phase_1 → phase_2 → phase_3, one way only. Each transition
// requires BOTH an age threshold and health gates (risk ceiling, error
// ceiling, engagement floor). A phase maps to fixed AggressionSettings that
// bound everything the behavior scheduler is allowed to do for the account.
package phase

import (
	"context"
	"time"
)

// Phase is an account's lifecycle stage.
type Phase string

const (
	Phase1 Phase = "phase_1"
	Phase2 Phase = "phase_2"
	Phase3 Phase = "phase_3"
)

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	return p == Phase1 || p == Phase2 || p == Phase3
}

// Next returns the following phase, or p itself when already at phase_3.
func (p Phase) Next() Phase {
	switch p {
	case Phase1:
		return Phase2
	case Phase2:
		return Phase3
	default:
		return p
	}
}

// AggressionSettings bound an account's allowed action rates and pacing.
// Static lookup tables, never computed.
type AggressionSettings struct {
	FollowsPerHour  int                `json:"followsPerHour"`
	LikesPerHour    int                `json:"likesPerHour"`
	CommentsPerHour int                `json:"commentsPerHour"`
	MinDelaySeconds int                `json:"minDelaySeconds"`
	MaxDelaySeconds int                `json:"maxDelaySeconds"`
	BatchSize       int                `json:"batchSize"`
	PlatformWeights map[string]float64 `json:"platformWeights"`
}

var settings = map[Phase]AggressionSettings{
	Phase1: {
		FollowsPerHour:  5,
		LikesPerHour:    10,
		CommentsPerHour: 0,
		MinDelaySeconds: 120,
		MaxDelaySeconds: 480,
		BatchSize:       3,
		PlatformWeights: map[string]float64{"tiktok": 1.0},
	},
	Phase2: {
		FollowsPerHour:  15,
		LikesPerHour:    25,
		CommentsPerHour: 5,
		MinDelaySeconds: 60,
		MaxDelaySeconds: 300,
		BatchSize:       5,
		PlatformWeights: map[string]float64{"tiktok": 0.6, "instagram": 0.4},
	},
	Phase3: {
		FollowsPerHour:  25,
		LikesPerHour:    40,
		CommentsPerHour: 10,
		MinDelaySeconds: 30,
		MaxDelaySeconds: 180,
		BatchSize:       8,
		PlatformWeights: map[string]float64{"tiktok": 0.5, "instagram": 0.35, "twitter": 0.15},
	},
}

// Settings returns the aggression settings for a phase. Unknown phases get
// the phase_1 settings (most conservative).
func Settings(p Phase) AggressionSettings {
	s, ok := settings[p]
	if !ok {
		return settings[Phase1]
	}
	cp := s
	cp.PlatformWeights = make(map[string]float64, len(s.PlatformWeights))
	for k, v := range s.PlatformWeights {
		cp.PlatformWeights[k] = v
	}
	return cp
}

// gate holds the health thresholds a transition must clear.
type gate struct {
	minAgeDays    int
	maxRiskScore  float64
	maxErrors     int
	minEngagement float64
}

var gates = map[Phase]gate{
	Phase1: {minAgeDays: 30, maxRiskScore: 0.3, maxErrors: 3, minEngagement: 0.01},
	Phase2: {minAgeDays: 60, maxRiskScore: 0.4, maxErrors: 5, minEngagement: 0.02},
}

// ShouldProgress is a pure function of the current phase and health signals.
// It reports whether the account clears the gate to the next phase, and
// which phase that is. Phase_3 accounts never progress.
func ShouldProgress(current Phase, ageDays int, riskScore float64, consecutiveErrors int, engagementRate float64) (bool, Phase) {
	g, ok := gates[current]
	if !ok {
		return false, current
	}
	if ageDays >= g.minAgeDays &&
		riskScore < g.maxRiskScore &&
		consecutiveErrors < g.maxErrors &&
		engagementRate > g.minEngagement {
		return true, current.Next()
	}
	return false, current
}

// Transition is an immutable audit entry for a completed promotion.
type Transition struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	FromPhase Phase     `json:"fromPhase"`
	ToPhase   Phase     `json:"toPhase"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store persists phase transitions for audit trail.
type Store interface {
	Record(ctx context.Context, t *Transition) error
	ListByAccount(ctx context.Context, accountID string, limit int) ([]*Transition, error)
}

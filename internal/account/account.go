// Package account manages managed social accounts and their health metrics.
//
// An Account is the persisted record (follower counts, engagement, error
// streak, lifecycle phase). Health is the derived per-assessment snapshot
// consumed by the risk pipeline; it is recomputed on demand and never stored.
package account

import (
	"context"
	"errors"
	"time"
)

// Status describes whether an account participates in the action pipeline.
type Status string

const (
	StatusActive   Status = "active"
	StatusPaused   Status = "paused"
	StatusDisabled Status = "disabled"
)

// ErrNotFound is returned when an account id does not exist.
var ErrNotFound = errors.New("account not found")

// Account is a managed social-media account.
type Account struct {
	ID       string `json:"id"`
	Platform string `json:"platform"`
	Username string `json:"username"`

	FollowerCount     int     `json:"followerCount"`
	FollowingCount    int     `json:"followingCount"`
	PostCount         int     `json:"postCount"`
	EngagementRate    float64 `json:"engagementRate"`
	ConsecutiveErrors int     `json:"consecutiveErrors"`

	Phase  string `json:"phase"`
	Status Status `json:"status"`

	// AccountCreatedAt is when the account was created on the platform,
	// not when it was registered here. Drives phase-age guards.
	AccountCreatedAt time.Time  `json:"accountCreatedAt"`
	LastActionAt     *time.Time `json:"lastActionAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Health is the derived snapshot fed into risk scoring and phase checks.
// Recomputed from the Account record on every assessment; never mutated.
type Health struct {
	AccountID         string     `json:"accountId"`
	Platform          string     `json:"platform"`
	FollowerCount     int        `json:"followerCount"`
	FollowingCount    int        `json:"followingCount"`
	PostCount         int        `json:"postCount"`
	EngagementRate    float64    `json:"engagementRate"`
	FollowRatio       float64    `json:"followRatio"`
	ConsecutiveErrors int        `json:"consecutiveErrors"`
	LastActionAt      *time.Time `json:"lastActionAt,omitempty"`
	AgeDays           int        `json:"ageDays"`
	RiskScore         float64    `json:"riskScore"`
	Phase             string     `json:"phase"`
	Status            Status     `json:"status"`
}

// Health derives the current health snapshot. The risk score is supplied by
// the caller (the scorer needs the other fields first). Follower denominator
// floors at 1 so the ratio is always defined.
func (a *Account) Health(now time.Time, riskScore float64) *Health {
	followers := a.FollowerCount
	if followers < 1 {
		followers = 1
	}

	ageDays := 0
	if !a.AccountCreatedAt.IsZero() {
		ageDays = int(now.Sub(a.AccountCreatedAt).Hours() / 24)
	}

	return &Health{
		AccountID:         a.ID,
		Platform:          a.Platform,
		FollowerCount:     a.FollowerCount,
		FollowingCount:    a.FollowingCount,
		PostCount:         a.PostCount,
		EngagementRate:    a.EngagementRate,
		FollowRatio:       float64(a.FollowingCount) / float64(followers),
		ConsecutiveErrors: a.ConsecutiveErrors,
		LastActionAt:      a.LastActionAt,
		AgeDays:           ageDays,
		RiskScore:         riskScore,
		Phase:             a.Phase,
		Status:            a.Status,
	}
}

// Store persists account records.
type Store interface {
	Create(ctx context.Context, a *Account) error
	Get(ctx context.Context, id string) (*Account, error)
	List(ctx context.Context) ([]*Account, error)
	Update(ctx context.Context, a *Account) error

	// SetPhase updates only the lifecycle phase.
	SetPhase(ctx context.Context, id, phase string) error

	// RecordActionResult stamps LastActionAt and updates the error streak:
	// reset on success, incremented on failure.
	RecordActionResult(ctx context.Context, id string, success bool, at time.Time) error
}

// Package approval implements the human-in-the-loop approval queue.
//
// Actions whose risk level is not green are parked here as PENDING requests.
// A human (via the REST API or the MCP operator tools) resolves each request
// exactly once: PENDING → APPROVED or PENDING → REJECTED, both terminal.
// Requests are never deleted; the queue doubles as an audit trail.
package approval

import (
	"context"
	"time"
)

// Status is the lifecycle state of an approval request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Request is a parked action awaiting a human decision.
type Request struct {
	ID         string            `json:"id"`
	AccountID  string            `json:"accountId"`
	ActionType string            `json:"actionType"`
	RiskLevel  string            `json:"riskLevel"`
	Reasoning  string            `json:"reasoning"`
	ActionData map[string]string `json:"actionData,omitempty"`

	Status          Status     `json:"status"`
	RequestedAt     time.Time  `json:"requestedAt"`
	ResolvedAt      *time.Time `json:"resolvedAt,omitempty"`
	ResolvedBy      string     `json:"resolvedBy,omitempty"`
	ResolutionNotes string     `json:"resolutionNotes,omitempty"`
}

// Store persists approval requests.
type Store interface {
	Create(ctx context.Context, r *Request) error
	Get(ctx context.Context, id string) (*Request, error)

	// ListPending returns pending requests, oldest first. accountID filters
	// when non-empty.
	ListPending(ctx context.Context, accountID string) ([]*Request, error)

	// Resolve transitions a PENDING request to a terminal status. Returns
	// false (and leaves state untouched) when the id is unknown or the
	// request is already resolved.
	Resolve(ctx context.Context, id string, status Status, resolvedBy, notes string, at time.Time) (bool, error)

	// ListExpired returns pending requests requested before the cutoff.
	ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]*Request, error)

	CountPending(ctx context.Context) (int, error)
}

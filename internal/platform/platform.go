// Package platform defines the executor boundary for social platforms.
//
// Executors are intentionally mocked: they emulate latency, success rates,
// and tagged failure kinds so the decision pipeline above them is exercised
// realistically without real platform credentials.
package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/socialseed/socialseed/internal/behavior"
)

// ActionType enumerates the growth actions the pipeline can issue.
type ActionType string

const (
	ActionFollow   ActionType = "follow"
	ActionUnfollow ActionType = "unfollow"
	ActionLike     ActionType = "like"
	ActionComment  ActionType = "comment"
	ActionShare    ActionType = "share"
	ActionView     ActionType = "view"
)

// Valid reports whether t is a known action type.
func (t ActionType) Valid() bool {
	switch t {
	case ActionFollow, ActionUnfollow, ActionLike, ActionComment, ActionShare, ActionView:
		return true
	}
	return false
}

// Action is one platform operation to perform.
type Action struct {
	AccountID string            `json:"accountId"`
	Type      ActionType        `json:"type"`
	Target    map[string]string `json:"target,omitempty"`
}

// Result describes a completed platform call.
type Result struct {
	Success      bool          `json:"success"`
	ResponseTime time.Duration `json:"responseTime"`
	Detail       string        `json:"detail,omitempty"`
}

// Executor performs actions against one platform.
type Executor interface {
	Name() string
	Execute(ctx context.Context, action *Action) (*Result, error)
}

// Error is a platform failure tagged with its kind, so the pipeline routes
// degradation plans without inspecting messages.
type Error struct {
	Kind    behavior.FailureKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("platform %s failure: %s", e.Kind, e.Message)
}

// FailureKind implements behavior.Kinder.
func (e *Error) FailureKind() behavior.FailureKind {
	return e.Kind
}

// NewError creates a tagged platform error.
func NewError(kind behavior.FailureKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

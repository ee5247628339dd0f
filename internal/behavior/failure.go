package behavior

import (
	"errors"
	"strings"
	"time"
)

// FailureKind tags a platform failure with its class. The platform
// collaborator attaches the tag at the boundary so the pipeline never
// string-matches error messages.
type FailureKind string

const (
	FailureRateLimit      FailureKind = "rate_limit"
	FailureAuthentication FailureKind = "authentication"
	FailureAPIChange      FailureKind = "api_change"
	FailureNetwork        FailureKind = "network"
	FailureUnknown        FailureKind = "unknown"
)

// Kinder is implemented by errors that carry a failure kind.
type Kinder interface {
	FailureKind() FailureKind
}

// KindOf extracts the failure kind from an error chain. Untagged errors
// classify as unknown, which maps to the most conservative plan.
func KindOf(err error) FailureKind {
	if err == nil {
		return ""
	}
	var k Kinder
	if errors.As(err, &k) {
		return k.FailureKind()
	}
	return FailureUnknown
}

// ClassifyMessage maps a raw error message to a failure kind. Only for use
// at the platform boundary when wrapping errors from clients that don't tag
// them; the pipeline itself consumes tagged kinds.
func ClassifyMessage(msg string) FailureKind {
	m := strings.ToLower(msg)
	switch {
	case strings.Contains(m, "rate limit") || strings.Contains(m, "too many requests") || strings.Contains(m, "429"):
		return FailureRateLimit
	case strings.Contains(m, "auth") || strings.Contains(m, "unauthorized") || strings.Contains(m, "forbidden") || strings.Contains(m, "token"):
		return FailureAuthentication
	case strings.Contains(m, "not found") || strings.Contains(m, "endpoint") || strings.Contains(m, "deprecated"):
		return FailureAPIChange
	case strings.Contains(m, "network") || strings.Contains(m, "connection") || strings.Contains(m, "timeout"):
		return FailureNetwork
	default:
		return FailureUnknown
	}
}

// Plan is the fixed degradation response for a failure class.
type Plan struct {
	Action            string        `json:"action"`
	PauseFor          time.Duration `json:"pauseFor,omitempty"`
	MaxRetries        int           `json:"maxRetries,omitempty"`
	BackoffMultiplier int           `json:"backoffMultiplier,omitempty"`
	RequiresHuman     bool          `json:"requiresHuman"`
	Investigation     bool          `json:"investigation"`
}

var plans = map[FailureKind]Plan{
	FailureRateLimit: {
		Action:   "pause_and_retry",
		PauseFor: 15 * time.Minute,
	},
	FailureAuthentication: {
		Action:        "pause_service",
		RequiresHuman: true,
	},
	FailureAPIChange: {
		Action:        "disable_service",
		RequiresHuman: true,
	},
	FailureNetwork: {
		Action:            "retry_with_backoff",
		MaxRetries:        3,
		BackoffMultiplier: 2,
	},
	FailureUnknown: {
		Action:        "pause_and_alert",
		PauseFor:      5 * time.Minute,
		RequiresHuman: true,
		Investigation: true,
	},
}

// PlanFor returns the degradation plan for a failure kind. Unknown kinds get
// the most conservative response.
func PlanFor(kind FailureKind) Plan {
	p, ok := plans[kind]
	if !ok {
		return plans[FailureUnknown]
	}
	return p
}

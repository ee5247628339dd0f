package risk

import (
	"time"

	"github.com/socialseed/socialseed/internal/account"
)

// Factor contributions. Additive and independently capped, then the sum is
// clamped to 1.0 without renormalization, so no single factor forces
// maximum risk on its own.
const (
	followRatioHigh     = 0.4 // following/followers > 5
	followRatioElevated = 0.2 // > 2

	engagementVeryLow = 0.3 // rate < 0.01
	engagementLow     = 0.1 // rate < 0.02

	errorStreakLong  = 0.3 // > 5 consecutive errors
	errorStreakShort = 0.1 // > 2

	recencyRecent = 0.2 // last action < 30 minutes ago
)

// recencyWindow is how recently an action must have run to count as a
// velocity signal.
const recencyWindow = 30 * time.Minute

// Score computes the composite risk score for an account health snapshot at
// the given instant. Always returns a value in [0,1] and the per-factor
// breakdown; there is no error path. Monotone non-decreasing in every
// individual factor.
func Score(h *account.Health, now time.Time) (float64, map[string]float64) {
	factors := map[string]float64{
		"follow_ratio": followRatioFactor(h.FollowRatio),
		"engagement":   engagementFactor(h.EngagementRate),
		"error_streak": errorStreakFactor(h.ConsecutiveErrors),
		"recency":      recencyFactor(h.LastActionAt, now),
	}

	total := 0.0
	for _, f := range factors {
		total += f
	}
	if total > 1.0 {
		total = 1.0
	}
	return total, factors
}

func followRatioFactor(ratio float64) float64 {
	switch {
	case ratio > 5:
		return followRatioHigh
	case ratio > 2:
		return followRatioElevated
	default:
		return 0
	}
}

func engagementFactor(rate float64) float64 {
	switch {
	case rate < 0.01:
		return engagementVeryLow
	case rate < 0.02:
		return engagementLow
	default:
		return 0
	}
}

func errorStreakFactor(consecutive int) float64 {
	switch {
	case consecutive > 5:
		return errorStreakLong
	case consecutive > 2:
		return errorStreakShort
	default:
		return 0
	}
}

func recencyFactor(lastAction *time.Time, now time.Time) float64 {
	if lastAction == nil {
		return 0
	}
	if now.Sub(*lastAction) < recencyWindow {
		return recencyRecent
	}
	return 0
}

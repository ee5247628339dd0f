// Package behavior implements human-like action pacing and platform health
// monitoring.
//
// The Simulator computes randomized delays and break decisions so action
// streams look organic; the Monitor watches per-platform error and rate-limit
// signals and derives exponential backoff. Both feed the orchestrator's
// go/no-go pipeline.
package behavior

import (
	"time"

	"github.com/socialseed/socialseed/internal/phase"
)

// hourRange is an inclusive-exclusive [start, end) hour window.
type hourRange struct {
	start int
	end   int
}

// Pattern describes the daily rhythm a simulated human follows.
type Pattern struct {
	Name string

	// ActiveHours is the window in which actions run at normal pace;
	// outside it delays stretch 2-5x.
	ActiveHours hourRange

	// PeakHours are windows with elevated activity (shorter delays).
	PeakHours []hourRange

	// Burst delay bounds in seconds; the base delay is drawn uniformly
	// from this range.
	MinBurstDelay int
	MaxBurstDelay int

	// DailyVariance v widens every delay by a uniform factor in [1-v, 1+v].
	DailyVariance float64

	// WeeklyPattern multiplies delays per weekday (lower = more active).
	WeeklyPattern map[time.Weekday]float64
}

var patterns = map[string]Pattern{
	"conservative": {
		Name:          "conservative",
		ActiveHours:   hourRange{8, 22},
		PeakHours:     []hourRange{{12, 14}, {19, 21}},
		MinBurstDelay: 120,
		MaxBurstDelay: 600,
		DailyVariance: 0.3,
		WeeklyPattern: map[time.Weekday]float64{
			time.Monday: 0.8, time.Tuesday: 1.0, time.Wednesday: 1.0,
			time.Thursday: 0.9, time.Friday: 0.7, time.Saturday: 0.4,
			time.Sunday: 0.3,
		},
	},
	"moderate": {
		Name:          "moderate",
		ActiveHours:   hourRange{7, 23},
		PeakHours:     []hourRange{{9, 11}, {14, 16}, {20, 22}},
		MinBurstDelay: 60,
		MaxBurstDelay: 300,
		DailyVariance: 0.4,
		WeeklyPattern: map[time.Weekday]float64{
			time.Monday: 0.9, time.Tuesday: 1.0, time.Wednesday: 1.1,
			time.Thursday: 1.0, time.Friday: 0.8, time.Saturday: 0.6,
			time.Sunday: 0.4,
		},
	},
	"aggressive": {
		Name:          "aggressive",
		ActiveHours:   hourRange{6, 24},
		PeakHours:     []hourRange{{8, 10}, {12, 14}, {16, 18}, {20, 23}},
		MinBurstDelay: 30,
		MaxBurstDelay: 180,
		DailyVariance: 0.5,
		WeeklyPattern: map[time.Weekday]float64{
			time.Monday: 1.0, time.Tuesday: 1.1, time.Wednesday: 1.2,
			time.Thursday: 1.1, time.Friday: 1.0, time.Saturday: 0.8,
			time.Sunday: 0.6,
		},
	},
}

// patternForPhase maps an account phase to its behavior pattern. Unknown
// phases fall back to conservative.
func patternForPhase(p phase.Phase) Pattern {
	switch p {
	case phase.Phase2:
		return patterns["moderate"]
	case phase.Phase3:
		return patterns["aggressive"]
	default:
		return patterns["conservative"]
	}
}

func (r hourRange) contains(hour int) bool {
	return hour >= r.start && hour < r.end
}

package behavior

import (
	"strings"
	"testing"
	"time"

	"github.com/socialseed/socialseed/internal/phase"
)

// fixedClock returns a Monday 09:00, inside conservative active hours and
// aggressive peak hours.
func fixedClock() time.Time {
	return time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)
}

func TestDelay_Deterministic(t *testing.T) {
	s := NewSimulator(
		WithClock(fixedClock),
		WithRand(func() float64 { return 0.5 }),
	)

	// conservative: base 360, active-hour mod 1.1, Monday 0.8, variance 1.0.
	seconds, reasoning := s.Delay("acc_1", "follow", phase.Phase1, nil)
	if seconds != 316 {
		t.Errorf("delay = %d, want 316", seconds)
	}
	for _, want := range []string{"conservative", "active", "Monday"} {
		if !strings.Contains(reasoning, want) {
			t.Errorf("reasoning %q missing %q", reasoning, want)
		}
	}
}

func TestDelay_BurstShortens(t *testing.T) {
	s := NewSimulator(
		WithClock(fixedClock),
		WithRand(func() float64 { return 0.5 }),
	)

	last := fixedClock().Add(-60 * time.Second)
	seconds, reasoning := s.Delay("acc_1", "like", phase.Phase1, &last)
	if seconds != 158 {
		t.Errorf("burst delay = %d, want 158", seconds)
	}
	if !strings.Contains(reasoning, "burst shortened") {
		t.Errorf("reasoning %q missing burst note", reasoning)
	}

	// An action outside the burst window does not shorten.
	old := fixedClock().Add(-10 * time.Minute)
	seconds, _ = s.Delay("acc_1", "like", phase.Phase1, &old)
	if seconds != 316 {
		t.Errorf("non-burst delay = %d, want 316", seconds)
	}
}

func TestDelay_InactiveHoursStretch(t *testing.T) {
	night := func() time.Time {
		return time.Date(2026, time.January, 5, 3, 0, 0, 0, time.UTC)
	}
	s := NewSimulator(WithClock(night), WithRand(func() float64 { return 0.5 }))

	seconds, reasoning := s.Delay("acc_1", "follow", phase.Phase1, nil)
	if seconds < 1007 || seconds > 1008 {
		t.Errorf("night delay = %d, want ~1008", seconds)
	}
	if !strings.Contains(reasoning, "inactive") {
		t.Errorf("reasoning %q should mention inactive hours", reasoning)
	}
}

func TestDelay_NeverBelowFloor(t *testing.T) {
	// Aggressive pattern at a peak hour with all draws at their minimum
	// produces a raw delay of ~10s, which must clamp to the floor.
	s := NewSimulator(WithClock(fixedClock), WithRand(func() float64 { return 0 }))

	seconds, _ := s.Delay("acc_1", "like", phase.Phase3, nil)
	if seconds != MinDelaySeconds {
		t.Errorf("delay = %d, want floor %d", seconds, MinDelaySeconds)
	}
}

func TestDelay_UnknownPhaseUsesConservative(t *testing.T) {
	s := NewSimulator(WithClock(fixedClock), WithRand(func() float64 { return 0.5 }))

	known, _ := s.Delay("acc_1", "follow", phase.Phase1, nil)
	unknown, _ := s.Delay("acc_1", "follow", phase.Phase("bogus"), nil)
	if known != unknown {
		t.Errorf("unknown phase delay %d != conservative delay %d", unknown, known)
	}
}

func TestShouldTakeBreak_ConsecutiveStreak(t *testing.T) {
	s := NewSimulator(
		WithClock(fixedClock),
		WithRand(func() float64 { return 0.99 }),
	)

	for i := 0; i <= maxConsecutiveActions; i++ {
		s.RecordAction("acc_1")
	}
	ok, seconds := s.ShouldTakeBreak("acc_1", 1)
	if !ok {
		t.Fatal("21 consecutive actions must trigger a break")
	}
	if seconds < 600 || seconds > 1800 {
		t.Errorf("streak break = %ds, want 10-30 minutes", seconds)
	}

	// The break resets the streak, so the next check passes.
	if ok, _ := s.ShouldTakeBreak("acc_1", 1); ok {
		t.Error("streak should be reset after a break")
	}
}

func TestShouldTakeBreak_TimeSinceLastBreak(t *testing.T) {
	clock := fixedClock()
	s := NewSimulator(
		WithClock(func() time.Time { return clock }),
		WithRand(func() float64 { return 0.99 }),
	)

	// First call creates the session with lastBreak = now.
	if ok, _ := s.ShouldTakeBreak("acc_1", 1); ok {
		t.Fatal("fresh session should not need a break")
	}

	clock = clock.Add(91 * time.Minute)
	ok, seconds := s.ShouldTakeBreak("acc_1", 1)
	if !ok {
		t.Fatal("91 minutes without a break must trigger one")
	}
	if seconds < 300 || seconds > 900 {
		t.Errorf("interval break = %ds, want 5-15 minutes", seconds)
	}
}

func TestShouldTakeBreak_RandomChance(t *testing.T) {
	s := NewSimulator(
		WithClock(fixedClock),
		WithRand(func() float64 { return 0 }),
	)

	ok, seconds := s.ShouldTakeBreak("acc_1", 1)
	if !ok {
		t.Fatal("rand below chance threshold must trigger a break")
	}
	if seconds != 120 {
		t.Errorf("random break = %ds, want 120", seconds)
	}
}

func TestShouldTakeBreak_PeriodicCount(t *testing.T) {
	s := NewSimulator(
		WithClock(fixedClock),
		WithRand(func() float64 { return 0.99 }),
	)

	if ok, _ := s.ShouldTakeBreak("acc_1", 14); ok {
		t.Error("14 actions in session should not break")
	}
	ok, seconds := s.ShouldTakeBreak("acc_1", 15)
	if !ok {
		t.Fatal("every 15th action in a session must break")
	}
	if seconds < 180 || seconds > 720 {
		t.Errorf("periodic break = %ds, want 3-12 minutes", seconds)
	}
}

func TestShouldTakeBreak_StreakWinsOverRandom(t *testing.T) {
	// rand 0 would trigger the random break (2-8 min), but the streak check
	// runs first and draws from the 10-30 minute range.
	s := NewSimulator(
		WithClock(fixedClock),
		WithRand(func() float64 { return 0 }),
	)
	for i := 0; i <= maxConsecutiveActions; i++ {
		s.RecordAction("acc_1")
	}

	ok, seconds := s.ShouldTakeBreak("acc_1", 1)
	if !ok {
		t.Fatal("streak must trigger")
	}
	if seconds != 600 {
		t.Errorf("break = %ds, want 600 from the streak range", seconds)
	}
}

func TestTypingDelay(t *testing.T) {
	s := NewSimulator(WithRand(func() float64 { return 0.5 }))

	if d := s.TypingDelay(0); d != 0 {
		t.Errorf("empty text delay = %v, want 0", d)
	}
	if d := s.TypingDelay(-5); d != 0 {
		t.Errorf("negative length delay = %v, want 0", d)
	}

	// 200 chars at ~200 cpm is 60s base, variance 1.1, thinking 6s.
	if d := s.TypingDelay(200); d < 71.9 || d > 72.1 {
		t.Errorf("TypingDelay(200) = %v, want ~72", d)
	}

	// Longer text takes longer.
	short := s.TypingDelay(50)
	long := s.TypingDelay(500)
	if long <= short {
		t.Errorf("TypingDelay(500)=%v should exceed TypingDelay(50)=%v", long, short)
	}
}

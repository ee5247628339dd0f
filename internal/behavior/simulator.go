package behavior

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/socialseed/socialseed/internal/metrics"
	"github.com/socialseed/socialseed/internal/phase"
)

// MinDelaySeconds is the hard floor on any computed delay.
const MinDelaySeconds = 15

// burstWindow: actions closer together than this count as a burst and get
// shortened follow-up delays.
const burstWindow = 120 * time.Second

// Break triggers, checked in order. First match wins.
const (
	maxConsecutiveActions = 20
	breakInterval         = 90 * time.Minute
	randomBreakChance     = 0.05
	periodicBreakEvery    = 15
)

// session is the per-account pacing state. Guarded by the Simulator mutex,
// never shared bare.
type session struct {
	consecutiveActions int
	lastBreak          time.Time
	lastAction         time.Time
}

// Simulator computes human-like delays and break decisions per account.
type Simulator struct {
	mu       sync.Mutex
	sessions map[string]*session

	now       func() time.Time
	randFloat func() float64
	logger    *slog.Logger
}

// SimulatorOption configures a Simulator.
type SimulatorOption func(*Simulator)

// WithLogger sets the simulator's logger.
func WithLogger(l *slog.Logger) SimulatorOption {
	return func(s *Simulator) { s.logger = l }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) SimulatorOption {
	return func(s *Simulator) { s.now = now }
}

// WithRand overrides the randomness source with a uniform [0,1) function
// (tests).
func WithRand(fn func() float64) SimulatorOption {
	return func(s *Simulator) { s.randFloat = fn }
}

// NewSimulator creates a behavior simulator.
func NewSimulator(opts ...SimulatorOption) *Simulator {
	s := &Simulator{
		sessions:  make(map[string]*session),
		now:       time.Now,
		randFloat: rand.Float64,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Delay computes the wait before the next action for an account. The result
// is intentionally non-deterministic: a base draw from the phase pattern's
// burst-delay range, stretched or squeezed by hour-of-day, day-of-week,
// daily variance, and burst modifiers. Never below MinDelaySeconds.
func (s *Simulator) Delay(accountID, actionType string, p phase.Phase, lastAction *time.Time) (int, string) {
	pattern := patternForPhase(p)
	now := s.now()

	base := s.uniform(float64(pattern.MinBurstDelay), float64(pattern.MaxBurstDelay))

	hourMod, hourLabel := s.hourModifier(pattern, now.Hour())
	weekMod := pattern.WeeklyPattern[now.Weekday()]
	if weekMod == 0 {
		weekMod = 1.0
	}
	varianceMod := s.uniform(1-pattern.DailyVariance, 1+pattern.DailyVariance)

	delay := base * hourMod * weekMod * varianceMod

	inBurst := lastAction != nil && now.Sub(*lastAction) < burstWindow
	if inBurst {
		delay *= s.uniform(0.3, 0.7)
	}

	seconds := int(delay)
	if seconds < MinDelaySeconds {
		seconds = MinDelaySeconds
	}

	reasoning := fmt.Sprintf("%s pattern, %s hours, %s weekday factor %.2f",
		pattern.Name, hourLabel, now.Weekday(), weekMod)
	if inBurst {
		reasoning += ", burst shortened"
	}

	metrics.ActionDelaySeconds.Observe(float64(seconds))
	s.logger.Debug("computed action delay",
		"account_id", accountID,
		"action_type", actionType,
		"delay_seconds", seconds,
		"reasoning", reasoning,
	)
	return seconds, reasoning
}

// hourModifier returns the multiplier for the current hour: shortest in peak
// windows, normal in active hours, 2-5x outside them.
func (s *Simulator) hourModifier(p Pattern, hour int) (float64, string) {
	for _, peak := range p.PeakHours {
		if peak.contains(hour) {
			return s.uniform(0.7, 1.0), "peak"
		}
	}
	if p.ActiveHours.contains(hour) {
		return s.uniform(0.9, 1.3), "active"
	}
	return s.uniform(2.0, 5.0), "inactive"
}

// RecordAction updates the account's session after an executed action.
func (s *Simulator) RecordAction(accountID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(accountID)
	sess.consecutiveActions++
	sess.lastAction = s.now()
}

// ShouldTakeBreak decides whether the account needs a rest before the next
// action. Triggers are checked in a fixed order (consecutive streak, time
// since last break, random chance, periodic count); the first match wins and
// resets the streak. Returns the break length in seconds.
func (s *Simulator) ShouldTakeBreak(accountID string, actionsInSession int) (bool, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(accountID)
	now := s.now()

	if sess.consecutiveActions > maxConsecutiveActions {
		return true, s.takeBreak(sess, now, 10, 30)
	}
	if now.Sub(sess.lastBreak) > breakInterval {
		return true, s.takeBreak(sess, now, 5, 15)
	}
	if s.randFloat() < randomBreakChance {
		return true, s.takeBreak(sess, now, 2, 8)
	}
	if actionsInSession > 0 && actionsInSession%periodicBreakEvery == 0 {
		return true, s.takeBreak(sess, now, 3, 12)
	}
	return false, 0
}

// takeBreak resets the session streak and returns a uniform draw from
// [minMinutes, maxMinutes] in seconds.
func (s *Simulator) takeBreak(sess *session, now time.Time, minMinutes, maxMinutes float64) int {
	sess.consecutiveActions = 0
	sess.lastBreak = now
	return int(s.uniform(minMinutes, maxMinutes) * 60)
}

// TypingDelay simulates how long a human would take to type text of the
// given length: 40 WPM base speed with speed variance plus a thinking pause.
func (s *Simulator) TypingDelay(textLength int) float64 {
	if textLength <= 0 {
		return 0
	}
	// 40 WPM is roughly 200 characters per minute.
	base := float64(textLength) / 200 * 60
	variance := s.uniform(0.7, 1.5)

	thinkingMax := float64(textLength) / 10
	if thinkingMax > 10 {
		thinkingMax = 10
	}
	if thinkingMax < 2 {
		thinkingMax = 2
	}
	thinking := s.uniform(2, thinkingMax)

	return base*variance + thinking
}

// session must be called with the mutex held.
func (s *Simulator) session(accountID string) *session {
	sess, ok := s.sessions[accountID]
	if !ok {
		sess = &session{lastBreak: s.now()}
		s.sessions[accountID] = sess
	}
	return sess
}

// uniform draws from [min, max).
func (s *Simulator) uniform(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + s.randFloat()*(max-min)
}

package behavior

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/socialseed/socialseed/internal/metrics"
)

// Backoff bounds: 60s base doubling per rate-limit event in the last hour,
// capped at one hour.
const (
	backoffBase = 60 * time.Second
	backoffCap  = time.Hour

	rateLimitBackoffWindow = time.Hour
	rateLimitLogRetention  = 24 * time.Hour
)

// PlatformHealth is a snapshot of one platform's observed state.
type PlatformHealth struct {
	Platform            string    `json:"platform"`
	Status              string    `json:"status"` // healthy, degraded, unhealthy
	ConsecutiveErrors   int       `json:"consecutiveErrors"`
	AvgResponseTime     float64   `json:"avgResponseTimeMs"`
	RateLimitsLastHour  int       `json:"rateLimitsLastHour"`
	RateLimitsLast24h   int       `json:"rateLimitsLast24h"`
	CurrentBackoff      float64   `json:"currentBackoffSeconds"`
	LastObserved        time.Time `json:"lastObserved"`
	LastFailureKind     string    `json:"lastFailureKind,omitempty"`
}

// platformState is the mutable per-platform record behind the mutex.
type platformState struct {
	consecutiveErrors int
	avgResponseTime   float64 // milliseconds
	rateLimitEvents   []time.Time
	lastObserved      time.Time
	lastFailureKind   FailureKind
}

// Monitor tracks per-platform health signals and derives backoff.
type Monitor struct {
	mu    sync.Mutex
	state map[string]*platformState

	now    func() time.Time
	logger *slog.Logger
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithMonitorLogger sets the monitor's logger.
func WithMonitorLogger(l *slog.Logger) MonitorOption {
	return func(m *Monitor) { m.logger = l }
}

// WithMonitorClock overrides the time source (tests).
func WithMonitorClock(now func() time.Time) MonitorOption {
	return func(m *Monitor) { m.now = now }
}

// NewMonitor creates a platform health monitor.
func NewMonitor(opts ...MonitorOption) *Monitor {
	m := &Monitor{
		state:  make(map[string]*platformState),
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Observe records the outcome of one platform call. A nil err resets the
// error streak; rate-limit failures additionally enter the sliding 24h log
// that drives Backoff.
func (m *Monitor) Observe(platform string, err error, responseTime time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	st := m.platform(platform)
	st.lastObserved = now

	// Running average, weighted half toward the newest sample.
	ms := float64(responseTime.Milliseconds())
	if st.avgResponseTime == 0 {
		st.avgResponseTime = ms
	} else {
		st.avgResponseTime = (st.avgResponseTime + ms) / 2
	}

	if err == nil {
		st.consecutiveErrors = 0
		st.lastFailureKind = ""
		return
	}

	st.consecutiveErrors++
	kind := KindOf(err)
	st.lastFailureKind = kind

	if kind == FailureRateLimit {
		st.rateLimitEvents = append(st.rateLimitEvents, now)
		m.prune(st, now)
		metrics.RateLimitEventsTotal.WithLabelValues(platform).Inc()
	}

	m.logger.Warn("platform error observed",
		"platform", platform,
		"kind", string(kind),
		"consecutive_errors", st.consecutiveErrors,
	)
}

// Backoff computes the current exponential backoff for a platform:
// min(60s * 2^rateLimitsInLastHour, 1h).
func (m *Monitor) Backoff(platform string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	st := m.platform(platform)
	m.prune(st, now)

	recent := 0
	cutoff := now.Add(-rateLimitBackoffWindow)
	for _, t := range st.rateLimitEvents {
		if t.After(cutoff) {
			recent++
		}
	}

	backoff := time.Duration(float64(backoffBase) * math.Pow(2, float64(recent)))
	if backoff > backoffCap {
		backoff = backoffCap
	}

	metrics.PlatformBackoffSeconds.WithLabelValues(platform).Set(backoff.Seconds())
	return backoff
}

// Health returns a snapshot for one platform.
func (m *Monitor) Health(platform string) *PlatformHealth {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot(platform, m.platform(platform))
}

// AllHealth returns snapshots for every observed platform.
func (m *Monitor) AllHealth() map[string]*PlatformHealth {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]*PlatformHealth, len(m.state))
	for name, st := range m.state {
		out[name] = m.snapshot(name, st)
	}
	return out
}

// snapshot must be called with the mutex held.
func (m *Monitor) snapshot(platform string, st *platformState) *PlatformHealth {
	now := m.now()
	m.prune(st, now)

	hourCutoff := now.Add(-rateLimitBackoffWindow)
	lastHour := 0
	for _, t := range st.rateLimitEvents {
		if t.After(hourCutoff) {
			lastHour++
		}
	}

	backoff := time.Duration(float64(backoffBase) * math.Pow(2, float64(lastHour)))
	if backoff > backoffCap {
		backoff = backoffCap
	}

	status := "healthy"
	switch {
	case st.consecutiveErrors >= 5:
		status = "unhealthy"
	case st.consecutiveErrors >= 2 || lastHour > 0:
		status = "degraded"
	}

	return &PlatformHealth{
		Platform:           platform,
		Status:             status,
		ConsecutiveErrors:  st.consecutiveErrors,
		AvgResponseTime:    st.avgResponseTime,
		RateLimitsLastHour: lastHour,
		RateLimitsLast24h:  len(st.rateLimitEvents),
		CurrentBackoff:     backoff.Seconds(),
		LastObserved:       st.lastObserved,
		LastFailureKind:    string(st.lastFailureKind),
	}
}

// prune drops rate-limit events older than the 24h retention window.
// Must be called with the mutex held.
func (m *Monitor) prune(st *platformState, now time.Time) {
	cutoff := now.Add(-rateLimitLogRetention)
	kept := st.rateLimitEvents[:0]
	for _, t := range st.rateLimitEvents {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	st.rateLimitEvents = kept
}

// platform must be called with the mutex held.
func (m *Monitor) platform(name string) *platformState {
	st, ok := m.state[name]
	if !ok {
		st = &platformState{}
		m.state[name] = st
	}
	return st
}

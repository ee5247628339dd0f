// Package metrics provides Prometheus instrumentation for the SocialSeed platform.
package metrics

import (
	"context"
	"database/sql"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "socialseed",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "socialseed",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// ActionsTotal counts pipeline action evaluations by platform and outcome
	// (executed, approval_required, break_required, rejected, error).
	ActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "socialseed",
			Name:      "actions_total",
			Help:      "Total action evaluations by platform and outcome.",
		},
		[]string{"platform", "outcome"},
	)

	// RiskAssessmentsTotal counts risk assessments by final level.
	RiskAssessmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "socialseed",
			Name:      "risk_assessments_total",
			Help:      "Total risk assessments by final traffic-light level.",
		},
		[]string{"level"},
	)

	// ApprovalsTotal counts approval resolutions by result.
	ApprovalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "socialseed",
			Name:      "approvals_total",
			Help:      "Total approval requests resolved by result.",
		},
		[]string{"result"},
	)

	// PendingApprovals tracks the current size of the approval queue.
	PendingApprovals = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "socialseed",
			Name:      "pending_approvals",
			Help:      "Number of approval requests currently pending.",
		},
	)

	// ActionDelaySeconds observes computed human-like delays.
	ActionDelaySeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "socialseed",
			Name:      "action_delay_seconds",
			Help:      "Computed human-like delay before each executed action.",
			Buckets:   []float64{15, 30, 60, 120, 300, 600, 1200, 3600},
		},
	)

	// PlatformBackoffSeconds tracks the current backoff per platform.
	PlatformBackoffSeconds = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "socialseed",
			Name:      "platform_backoff_seconds",
			Help:      "Current exponential backoff per platform.",
		},
		[]string{"platform"},
	)

	// RateLimitEventsTotal counts observed platform rate-limit responses.
	RateLimitEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "socialseed",
			Name:      "rate_limit_events_total",
			Help:      "Total platform rate-limit responses observed.",
		},
		[]string{"platform"},
	)

	// AIProviderCallsTotal counts AI provider calls by provider and result.
	AIProviderCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "socialseed",
			Name:      "ai_provider_calls_total",
			Help:      "Total AI provider calls by provider and result.",
		},
		[]string{"provider", "result"},
	)

	// PhaseTransitionsTotal counts phase promotions by target phase.
	PhaseTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "socialseed",
			Name:      "phase_transitions_total",
			Help:      "Total account phase promotions by target phase.",
		},
		[]string{"to_phase"},
	)

	// ActiveWebSocketClients tracks connected WebSocket clients.
	ActiveWebSocketClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "socialseed",
			Name:      "active_websocket_clients",
			Help:      "Number of currently connected WebSocket clients.",
		},
	)

	// DBOpenConnections tracks open database connections.
	DBOpenConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "socialseed", Name: "db_open_connections",
		Help: "Number of open database connections.",
	})
	// DBIdleConnections tracks idle database connections.
	DBIdleConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "socialseed", Name: "db_idle_connections",
		Help: "Number of idle database connections.",
	})
	// DBInUseConnections tracks in-use database connections.
	DBInUseConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "socialseed", Name: "db_in_use_connections",
		Help: "Number of in-use database connections.",
	})
	// GoroutineCount tracks the current number of goroutines.
	GoroutineCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "socialseed", Name: "goroutines",
		Help: "Current number of goroutines.",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ActionsTotal,
		RiskAssessmentsTotal,
		ApprovalsTotal,
		PendingApprovals,
		ActionDelaySeconds,
		PlatformBackoffSeconds,
		RateLimitEventsTotal,
		AIProviderCallsTotal,
		PhaseTransitionsTotal,
		ActiveWebSocketClients,
		DBOpenConnections,
		DBIdleConnections,
		DBInUseConnections,
		GoroutineCount,
	)
}

// StartDBStatsCollector periodically samples sql.DBStats and runtime goroutine
// count into Prometheus gauges. Call in a goroutine; exits when ctx is done.
func StartDBStatsCollector(ctx context.Context, db *sql.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := db.Stats()
			DBOpenConnections.Set(float64(stats.OpenConnections))
			DBIdleConnections.Set(float64(stats.Idle))
			DBInUseConnections.Set(float64(stats.InUse))
			GoroutineCount.Set(float64(runtime.NumGoroutine()))
		}
	}
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(), // Uses route pattern, not actual path (avoids cardinality explosion)
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus metrics HTTP handler for /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// statusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

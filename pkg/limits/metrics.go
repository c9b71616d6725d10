package limits

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for the limits package.
type Metrics struct {
	// Rate limit checks
	rateLimitChecks *prometheus.CounterVec
	failClosed      *prometheus.CounterVec
	memoryEntries   *prometheus.GaugeVec
	checkDuration   *prometheus.HistogramVec

	// Usage quotas
	quotaChecks *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance and registers its collectors
// with reg. A nil reg uses the default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		rateLimitChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waypoint_limits_rate_limit_checks_total",
				Help: "Total number of rate limit checks performed",
			},
			[]string{"limiter", "result"},
		),

		failClosed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waypoint_limits_fail_closed_total",
				Help: "Total number of requests denied because the rate limit store was unavailable",
			},
			[]string{"limiter"},
		),

		memoryEntries: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "waypoint_limits_memory_entries",
				Help: "Current number of identifiers tracked by the in-process limiter",
			},
			[]string{"limiter"},
		),

		checkDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "waypoint_limits_check_duration_seconds",
				Help:    "Duration of rate limit checks in seconds",
				Buckets: prometheus.ExponentialBuckets(0.000001, 4, 12), // 1µs to ~4s
			},
			[]string{"limiter"},
		),

		quotaChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waypoint_limits_quota_checks_total",
				Help: "Total number of daily usage quota checks performed",
			},
			[]string{"endpoint", "result"},
		),
	}
}

// RecordRateLimitCheck records a rate limit check outcome.
func (m *Metrics) RecordRateLimitCheck(limiter string, allowed, degraded bool, seconds float64) {
	result := "allowed"
	switch {
	case degraded:
		result = "degraded"
		m.failClosed.WithLabelValues(limiter).Inc()
	case !allowed:
		result = "blocked"
	}
	m.rateLimitChecks.WithLabelValues(limiter, result).Inc()
	m.checkDuration.WithLabelValues(limiter).Observe(seconds)
}

// UpdateMemoryEntries sets the tracked identifier count of an in-process limiter.
func (m *Metrics) UpdateMemoryEntries(limiter string, n int) {
	m.memoryEntries.WithLabelValues(limiter).Set(float64(n))
}

// RecordQuotaCheck records a usage quota check outcome.
func (m *Metrics) RecordQuotaCheck(endpoint string, allowed bool) {
	result := "allowed"
	if !allowed {
		result = "blocked"
	}
	m.quotaChecks.WithLabelValues(endpoint, result).Inc()
}

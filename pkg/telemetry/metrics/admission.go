package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AdmissionMetrics tracks the admission pipeline run before each LLM call.
//
// Metrics:
//   - waypoint_admission_rejections_total: Refused requests by endpoint and error code
//   - waypoint_admission_stage_duration_seconds: Time spent in each stage
//   - waypoint_admission_trims_total: Conversations shortened before the LLM call
//   - waypoint_admission_trimmed_messages: Messages dropped per trimmed conversation
type AdmissionMetrics struct {
	rejections      *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	trims           *prometheus.CounterVec
	trimmedMessages *prometheus.HistogramVec
}

// NewAdmissionMetrics creates and registers admission metrics with the provided registry.
func NewAdmissionMetrics(registry *prometheus.Registry) *AdmissionMetrics {
	am := &AdmissionMetrics{
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "admission",
				Name:      "rejections_total",
				Help:      "Total number of requests refused before the LLM call",
			},
			[]string{"endpoint", "code"},
		),

		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "admission",
				Name:      "stage_duration_seconds",
				Help:      "Duration of each admission stage in seconds",
				// Stages other than the LLM call should be sub-millisecond
				// in memory and a few milliseconds against Redis.
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10µs to 2.6s
			},
			[]string{"stage"},
		),

		trims: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "admission",
				Name:      "trims_total",
				Help:      "Total number of conversations trimmed before the LLM call",
			},
			[]string{"endpoint"},
		),

		trimmedMessages: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "admission",
				Name:      "trimmed_messages",
				Help:      "Number of messages dropped from each trimmed conversation",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 8), // 1 to 128
			},
			[]string{"endpoint"},
		),
	}

	registry.MustRegister(
		am.rejections,
		am.stageDuration,
		am.trims,
		am.trimmedMessages,
	)

	return am
}

// RecordRejection records a refused request.
func (am *AdmissionMetrics) RecordRejection(endpoint, code string) {
	am.rejections.WithLabelValues(endpoint, code).Inc()
}

// RecordStage records the duration of a stage.
func (am *AdmissionMetrics) RecordStage(stage string, duration time.Duration) {
	am.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordTrim records a trimmed conversation. dropped is the number of
// messages removed.
func (am *AdmissionMetrics) RecordTrim(endpoint string, dropped int) {
	am.trims.WithLabelValues(endpoint).Inc()
	if dropped > 0 {
		am.trimmedMessages.WithLabelValues(endpoint).Observe(float64(dropped))
	}
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics tracks HTTP requests served by the API.
//
// Metrics:
//   - waypoint_http_requests_total: Request count by endpoint and status code
//   - waypoint_http_request_duration_seconds: Request duration histogram
//   - waypoint_http_tokens_total: Tokens by endpoint and direction
//   - waypoint_http_conversation_tokens: Estimated tokens per admitted conversation
type RequestMetrics struct {
	requestsTotal      *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	tokensTotal        *prometheus.CounterVec
	costTotal          *prometheus.CounterVec
	conversationTokens *prometheus.HistogramVec
}

// NewRequestMetrics creates and registers request metrics with the provided registry.
func NewRequestMetrics(registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of API requests by endpoint and status code",
			},
			[]string{"endpoint", "code"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of API requests in seconds",
				Buckets:   durationBuckets,
			},
			[]string{"endpoint"},
		),

		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "http",
				Name:      "tokens_total",
				Help:      "Total tokens by endpoint and direction (input is estimated)",
			},
			[]string{"endpoint", "direction"},
		),

		costTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "http",
				Name:      "cost_usd_total",
				Help:      "Priced cost of completed requests in USD",
			},
			[]string{"endpoint", "model"},
		),

		conversationTokens: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "http",
				Name:      "conversation_tokens",
				Help:      "Estimated tokens per admitted conversation",
				Buckets:   tokenBuckets,
			},
			[]string{"endpoint"},
		),
	}

	registry.MustRegister(
		rm.requestsTotal,
		rm.requestDuration,
		rm.tokensTotal,
		rm.costTotal,
		rm.conversationTokens,
	)

	return rm
}

// RecordRequest records a completed request.
func (rm *RequestMetrics) RecordRequest(endpoint, code string, duration time.Duration) {
	rm.requestsTotal.WithLabelValues(endpoint, code).Inc()
	rm.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordTokens records input and output token counts.
func (rm *RequestMetrics) RecordTokens(endpoint string, input, output int) {
	if input > 0 {
		rm.tokensTotal.WithLabelValues(endpoint, "input").Add(float64(input))
		rm.conversationTokens.WithLabelValues(endpoint).Observe(float64(input))
	}
	if output > 0 {
		rm.tokensTotal.WithLabelValues(endpoint, "output").Add(float64(output))
	}
}

// RecordCost adds the USD cost of a completed request.
func (rm *RequestMetrics) RecordCost(endpoint, model string, usd float64) {
	if usd > 0 {
		rm.costTotal.WithLabelValues(endpoint, model).Add(usd)
	}
}

// Package metrics provides Prometheus metrics for the API.
//
// # Metrics Categories
//
//   - Request Metrics: request count and duration by endpoint, token totals
//   - Provider Metrics: provider health, latency and error rates
//   - Admission Metrics: rejections by error code, per-stage timing, trims
//
// Rate limiter and quota metrics live in pkg/limits and are registered on
// the same registry:
//
//	collector := metrics.NewCollector(nil)
//	limitMetrics := limits.NewMetrics(collector.Registry())
//	mux.Handle("/metrics", collector.Handler())
//
// # Custom Histogram Buckets
//
//	Request Duration: 50ms, 100ms, 250ms, 500ms, 1s, 2s, 5s, 10s, 30s, 60s
//	Conversation Tokens: 100, 500, 1K, 2.5K, 5K, 10K, 15K, 25K
//
// # Cardinality
//
// Labels are bounded: endpoint is one of the fixed routes, code is one of
// the admission error codes, and provider and model come from
// configuration. User identifiers are never used as labels.
package metrics

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric exported by the service.
const Namespace = "waypoint"

var (
	// durationBuckets covers LLM-backed request latencies (50ms - 60s).
	durationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60}

	// tokenBuckets covers conversation sizes up to the context budget.
	tokenBuckets = []float64{100, 500, 1000, 2500, 5000, 10000, 15000, 25000}
)

// Collector owns the service's Prometheus registry and the request,
// provider and admission metrics recorded on it.
type Collector struct {
	registry *prometheus.Registry

	requestMetrics   *RequestMetrics
	providerMetrics  *ProviderMetrics
	admissionMetrics *AdmissionMetrics
}

// NewCollector creates a collector on registry. If registry is nil a new
// one is created; pass the same registry to other packages' metrics so a
// single /metrics endpoint exposes everything.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	return &Collector{
		registry:         registry,
		requestMetrics:   NewRequestMetrics(registry),
		providerMetrics:  NewProviderMetrics(registry),
		admissionMetrics: NewAdmissionMetrics(registry),
	}
}

// RecordRequest records a completed HTTP request.
//
//	collector.RecordRequest("chat", 200, 1200*time.Millisecond)
func (c *Collector) RecordRequest(endpoint string, status int, duration time.Duration) {
	c.requestMetrics.RecordRequest(endpoint, strconv.Itoa(status), duration)
}

// RecordTokens records the estimated input and provider-reported output
// tokens of an admitted request.
func (c *Collector) RecordTokens(endpoint string, input, output int) {
	c.requestMetrics.RecordTokens(endpoint, input, output)
}

// RecordCost records the priced cost of an admitted request.
func (c *Collector) RecordCost(endpoint, model string, usd float64) {
	c.requestMetrics.RecordCost(endpoint, model, usd)
}

// RecordRejection records a request refused by the admission pipeline.
//
// code is the machine-readable error code (e.g. "RATE_LIMITED").
func (c *Collector) RecordRejection(endpoint, code string) {
	c.admissionMetrics.RecordRejection(endpoint, code)
}

// RecordStage records the duration of one admission stage.
func (c *Collector) RecordStage(stage string, duration time.Duration) {
	c.admissionMetrics.RecordStage(stage, duration)
}

// RecordTrim records that a conversation was shortened before the LLM call.
func (c *Collector) RecordTrim(endpoint string, dropped int) {
	c.admissionMetrics.RecordTrim(endpoint, dropped)
}

// RecordProviderCall records one LLM provider call. errorType is empty on
// success.
func (c *Collector) RecordProviderCall(provider, model string, latency time.Duration, errorType string) {
	c.providerMetrics.RecordRequest(provider, model)
	c.providerMetrics.RecordLatency(provider, model, latency.Seconds())
	if errorType != "" {
		c.providerMetrics.RecordError(provider, errorType)
	}
}

// UpdateProviderHealth sets the provider health gauge.
func (c *Collector) UpdateProviderHealth(provider string, healthy bool) {
	c.providerMetrics.UpdateHealth(provider, healthy)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

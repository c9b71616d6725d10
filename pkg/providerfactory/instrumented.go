package providerfactory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"pathfinder-hq/waypoint/pkg/providers"
	"pathfinder-hq/waypoint/pkg/telemetry/tracing"
)

// UnhealthyAfter is the number of consecutive failures after which a
// provider is reported unhealthy.
const UnhealthyAfter = 3

// Recorder receives per-call provider measurements.
// *metrics.Collector satisfies it.
type Recorder interface {
	RecordProviderCall(provider, model string, latency time.Duration, errorType string)
	UpdateProviderHealth(provider string, healthy bool)
}

// Health is a point-in-time view of a provider's recent results.
type Health struct {
	Healthy               bool
	ConsecutiveFailures   int
	TotalRequests         int64
	FailedRequests        int64
	LastError             string
	LastSuccessfulRequest time.Time
}

// Instrumented wraps a Completer with a span per call, provider metrics and
// consecutive-failure health tracking. Busy signals (rate limit, overload)
// do not count against health.
type Instrumented struct {
	next     providers.Completer
	model    string
	tracer   *tracing.Tracer
	recorder Recorder
	logger   *slog.Logger

	mu     sync.RWMutex
	health Health
}

// Instrument wraps next. model labels metrics when responses omit it.
// tracer and recorder may be nil.
func Instrument(next providers.Completer, model string, tracer *tracing.Tracer, recorder Recorder, logger *slog.Logger) *Instrumented {
	if tracer == nil {
		tracer = tracing.Noop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if recorder != nil {
		recorder.UpdateProviderHealth(next.Name(), true)
	}
	return &Instrumented{
		next:     next,
		model:    model,
		tracer:   tracer,
		recorder: recorder,
		logger:   logger.With("component", "providers.instrumented", "provider", next.Name()),
		health:   Health{Healthy: true},
	}
}

// Name returns the wrapped provider's name.
func (i *Instrumented) Name() string {
	return i.next.Name()
}

// Complete calls the wrapped Completer.
func (i *Instrumented) Complete(ctx context.Context, req *providers.CompletionRequest) (*providers.Completion, error) {
	ctx, span := i.tracer.Start(ctx, "waypoint.provider.complete", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	start := time.Now()
	completion, err := i.next.Complete(ctx, req)
	latency := time.Since(start)

	model := i.model
	if req.Model != "" {
		model = req.Model
	}
	outputTokens := 0
	if completion != nil {
		if completion.Model != "" {
			model = completion.Model
		}
		outputTokens = completion.Usage.OutputTokens
	}
	tracing.SetProviderAttributes(span, i.next.Name(), model, outputTokens)

	errorType := providers.ClassifyError(err)
	if err != nil {
		tracing.SetError(span, err)
	}
	if i.recorder != nil {
		i.recorder.RecordProviderCall(i.next.Name(), model, latency, errorType)
	}
	i.update(ctx, err)

	return completion, err
}

// Health returns the current health view.
func (i *Instrumented) Health() Health {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.health
}

func (i *Instrumented) update(ctx context.Context, err error) {
	if _, busy := providers.IsBusy(err); busy || providers.ClassifyError(err) == providers.ErrorTypeCanceled {
		return
	}

	i.mu.Lock()
	i.health.TotalRequests++
	wasHealthy := i.health.Healthy
	if err == nil {
		i.health.Healthy = true
		i.health.ConsecutiveFailures = 0
		i.health.LastError = ""
		i.health.LastSuccessfulRequest = time.Now()
	} else {
		i.health.FailedRequests++
		i.health.ConsecutiveFailures++
		i.health.LastError = err.Error()
		if i.health.ConsecutiveFailures >= UnhealthyAfter {
			i.health.Healthy = false
		}
	}
	healthy := i.health.Healthy
	failures := i.health.ConsecutiveFailures
	i.mu.Unlock()

	if wasHealthy == healthy {
		return
	}
	if i.recorder != nil {
		i.recorder.UpdateProviderHealth(i.next.Name(), healthy)
	}
	if healthy {
		i.logger.InfoContext(ctx, "provider recovered")
	} else {
		i.logger.WarnContext(ctx, "provider marked unhealthy", "consecutive_failures", failures, "error", err)
	}
}

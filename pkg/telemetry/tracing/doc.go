// Package tracing provides OpenTelemetry tracing for the API.
//
// Spans are exported over OTLP gRPC. When tracing is disabled every
// operation uses a noop tracer.
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	handler = tracer.Middleware(handler)
//
// # Span Hierarchy
//
//	waypoint.http.request
//	└── waypoint.admission
//	    ├── waypoint.admission.identify
//	    ├── waypoint.admission.quota
//	    ├── waypoint.admission.rate_limit
//	    ├── waypoint.admission.validate
//	    ├── waypoint.admission.budget
//	    ├── waypoint.admission.trim
//	    └── waypoint.provider.complete
//
// # Trace Context Propagation
//
// Incoming W3C traceparent headers are honored by Middleware, and the
// provider client injects the current context into its outgoing calls.
// Sampling is parent-based with a configurable ratio for root spans.
package tracing

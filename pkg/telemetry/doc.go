// Package telemetry groups the observability packages of the Waypoint
// gateway.
//
// # Components
//
//   - logging: slog construction from configuration, request-scoped
//     attributes and redaction of credentials in log output
//   - metrics: the Prometheus collector for HTTP, admission, cost and
//     provider metrics, served on /metrics
//   - tracing: OpenTelemetry spans for each request and admission stage,
//     exported over OTLP gRPC when enabled
//   - health: liveness, readiness and version endpoints
//
// # Usage
//
//	logger, err := logging.FromConfig(cfg.Telemetry.Logging, os.Stderr)
//	collector := metrics.NewCollector(nil)
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	defer tracer.Shutdown(ctx)
//
// pkg/server builds all four from configuration; other packages depend on
// narrow recorder interfaces instead of these types.
package telemetry

// Package logging builds the structured logger used across the service.
//
// Loggers are plain *slog.Logger values backed by a Handler that adds the
// request ID, user and endpoint stored in the context, and that masks PII
// (email addresses, IP addresses, API keys, bearer tokens) when redaction
// is enabled:
//
//	logger, err := logging.FromConfig(cfg.Telemetry.Logging, os.Stdout)
//	ctx = logging.WithRequestID(ctx, id)
//	logger.InfoContext(ctx, "request admitted", "endpoint", "chat")
//
// Conversation content is never logged; callers log sizes and counts only.
package logging

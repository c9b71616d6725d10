package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys. Custom keys use the "waypoint.*" namespace. User
// identifiers are hashed fingerprints or opaque IDs, never message content.
const (
	AttrHTTPMethod = "http.method"
	AttrHTTPRoute  = "http.route"
	AttrHTTPStatus = "http.status_code"

	AttrRequestID = "waypoint.request_id"
	AttrEndpoint  = "waypoint.endpoint"
	AttrUser      = "waypoint.user"

	AttrMessages        = "waypoint.conversation.messages"
	AttrEstimatedTokens = "waypoint.conversation.estimated_tokens"
	AttrTrimmed         = "waypoint.conversation.trimmed"
	AttrDropped         = "waypoint.conversation.dropped"

	AttrRateLimitRemaining = "waypoint.rate_limit.remaining"
	AttrRateLimitDegraded  = "waypoint.rate_limit.degraded"
	AttrQuotaUsed          = "waypoint.quota.used"

	AttrProvider     = "waypoint.provider"
	AttrModel        = "waypoint.model"
	AttrOutputTokens = "waypoint.tokens.output"

	AttrRejected  = "waypoint.rejected"
	AttrErrorCode = "waypoint.error.code"
)

// HTTPAttributes returns the attributes of an incoming request.
func HTTPAttributes(method, route string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrHTTPMethod, method),
		attribute.String(AttrHTTPRoute, route),
	}
}

// SetRequestAttributes sets the request identity attributes on a span.
func SetRequestAttributes(span trace.Span, requestID, endpoint, user string) {
	span.SetAttributes(
		attribute.String(AttrRequestID, requestID),
		attribute.String(AttrEndpoint, endpoint),
		attribute.String(AttrUser, user),
	)
}

// SetConversationAttributes records the size of the conversation sent to
// the model.
func SetConversationAttributes(span trace.Span, messages, estimatedTokens, dropped int) {
	span.SetAttributes(
		attribute.Int(AttrMessages, messages),
		attribute.Int(AttrEstimatedTokens, estimatedTokens),
		attribute.Bool(AttrTrimmed, dropped > 0),
		attribute.Int(AttrDropped, dropped),
	)
}

// SetProviderAttributes sets provider-related attributes on a span.
func SetProviderAttributes(span trace.Span, provider, model string, outputTokens int) {
	span.SetAttributes(
		attribute.String(AttrProvider, provider),
		attribute.String(AttrModel, model),
		attribute.Int(AttrOutputTokens, outputTokens),
	)
}

package admission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"pathfinder-hq/waypoint/pkg/limits/budget"
	"pathfinder-hq/waypoint/pkg/limits/ratelimit"
	"pathfinder-hq/waypoint/pkg/limits/usage"
	"pathfinder-hq/waypoint/pkg/processing/conversation"
	"pathfinder-hq/waypoint/pkg/processing/costs"
	"pathfinder-hq/waypoint/pkg/providers"
	"pathfinder-hq/waypoint/pkg/proxy"
	"pathfinder-hq/waypoint/pkg/proxy/types"
	"pathfinder-hq/waypoint/pkg/security/auth"
	"pathfinder-hq/waypoint/pkg/telemetry/logging"
	"pathfinder-hq/waypoint/pkg/telemetry/tracing"
)

// DefaultOverloadRetryAfter is reported when the provider is busy and gives
// no hint.
const DefaultOverloadRetryAfter = 30 * time.Second

// Stage names used for spans and the stage duration histogram.
const (
	StageIdentify  = "identify"
	StageQuota     = "quota"
	StageRateLimit = "rate_limit"
	StageValidate  = "validate"
	StageBudget    = "budget"
	StageTrim      = "trim"
	StageComplete  = "complete"
)

// QuotaTracker is the usage-tracking collaborator.
type QuotaTracker interface {
	CheckQuota(ctx context.Context, userID string, endpoint types.Endpoint) (*usage.QuotaResult, error)
	RecordUsage(ctx context.Context, rec usage.Record) error
}

// LimiterSet returns the rate limiter of an endpoint class.
type LimiterSet interface {
	For(endpoint types.Endpoint) ratelimit.Limiter
}

// Fingerprinter derives the client identifier of a request.
type Fingerprinter interface {
	Identify(r *http.Request) string
}

// PromptSource resolves the system prompt of a request.
type PromptSource interface {
	SystemPrompt(endpoint types.Endpoint, phase string) (string, error)
}

// Recorder receives admission measurements. *metrics.Collector satisfies it.
type Recorder interface {
	RecordRejection(endpoint, code string)
	RecordStage(stage string, duration time.Duration)
	RecordTrim(endpoint string, dropped int)
	RecordTokens(endpoint string, input, output int)
	RecordCost(endpoint, model string, usd float64)
}

// Pricer prices the usage of a completion.
type Pricer interface {
	Cost(model string, usage types.Usage) costs.Cost
}

// Dependencies are the collaborators of a Pipeline. Costs, Tracer, Metrics
// and Logger are optional.
type Dependencies struct {
	Identity      auth.Resolver
	Usage         QuotaTracker
	Limits        LimiterSet
	Fingerprinter Fingerprinter
	Validator     *proxy.Validator
	Prompts       PromptSource
	Budget        *budget.Checker
	Trimmer       *conversation.Trimmer
	Completer     providers.Completer
	Costs         Pricer

	Tracer  *tracing.Tracer
	Metrics Recorder
	Logger  *slog.Logger

	// OverloadRetryAfter is reported when the provider is busy without a
	// hint. Zero means DefaultOverloadRetryAfter.
	OverloadRetryAfter time.Duration
}

// Request is one inbound request to an LLM-backed endpoint.
type Request struct {
	// Endpoint is the endpoint class.
	Endpoint types.Endpoint

	// HTTP is the inbound request, used for identity and fingerprinting.
	HTTP *http.Request

	// Body is the raw JSON body.
	Body []byte

	// BodyErr is the error from reading the body, if any. It is reported at
	// the validation stage so cheaper checks still run first.
	BodyErr error
}

// Response is the outcome of an admitted request.
type Response struct {
	// Content is the model's reply.
	Content string

	// Model is the model that produced the reply.
	Model string

	// Usage is the provider-reported token usage.
	Usage types.Usage

	// Trimmed is the number of older messages not forwarded.
	Trimmed int

	// UserID is the resolved caller.
	UserID string

	// RateLimit is the limiter decision, for response headers.
	RateLimit *ratelimit.CheckResult
}

// Pipeline runs the admission sequence in front of the LLM:
// identity, quota, rate limit, validation, budget, trim, completion and
// usage recording. Cheap checks run first so abusive or malformed traffic
// costs as little as possible.
type Pipeline struct {
	deps   Dependencies
	tracer *tracing.Tracer
	logger *slog.Logger
}

// NewPipeline checks that every required collaborator is set.
func NewPipeline(deps Dependencies) (*Pipeline, error) {
	var missing []string
	if deps.Identity == nil {
		missing = append(missing, "Identity")
	}
	if deps.Usage == nil {
		missing = append(missing, "Usage")
	}
	if deps.Limits == nil {
		missing = append(missing, "Limits")
	}
	if deps.Fingerprinter == nil {
		missing = append(missing, "Fingerprinter")
	}
	if deps.Validator == nil {
		missing = append(missing, "Validator")
	}
	if deps.Prompts == nil {
		missing = append(missing, "Prompts")
	}
	if deps.Budget == nil {
		missing = append(missing, "Budget")
	}
	if deps.Trimmer == nil {
		missing = append(missing, "Trimmer")
	}
	if deps.Completer == nil {
		missing = append(missing, "Completer")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("admission: missing dependencies: %v", missing)
	}

	if deps.OverloadRetryAfter <= 0 {
		deps.OverloadRetryAfter = DefaultOverloadRetryAfter
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = tracing.Noop()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		deps:   deps,
		tracer: tracer,
		logger: logger.With("component", "admission"),
	}, nil
}

// Admit runs the pipeline for req. Exactly one of the results is non-nil.
func (p *Pipeline) Admit(ctx context.Context, req *Request) (*Response, *Error) {
	endpoint := string(req.Endpoint)
	ctx = logging.WithEndpoint(ctx, endpoint)

	ctx, span := p.tracer.Start(ctx, "waypoint.admission")
	defer span.End()

	resp, admErr := p.admit(ctx, span, req)
	if admErr != nil {
		tracing.SetRejected(span, string(admErr.Code), admErr.Status)
		if admErr.Status >= http.StatusInternalServerError {
			tracing.SetError(span, admErr)
		}
		p.record(func(m Recorder) { m.RecordRejection(endpoint, string(admErr.Code)) })
		p.logRejection(ctx, admErr)
		return nil, admErr
	}
	return resp, nil
}

func (p *Pipeline) admit(ctx context.Context, root trace.Span, req *Request) (*Response, *Error) {
	if !req.Endpoint.Valid() {
		return nil, internal(fmt.Errorf("unknown endpoint %q", req.Endpoint))
	}

	// 1. Identity.
	var identity *auth.Identity
	err := p.stage(ctx, StageIdentify, func(ctx context.Context, span trace.Span) error {
		var err error
		identity, err = p.deps.Identity.Resolve(req.HTTP)
		if err == nil && (identity == nil || identity.UserID == "") {
			err = auth.ErrUnauthenticated
		}
		return err
	})
	if err != nil {
		return nil, unauthorized(err)
	}
	userID := identity.UserID
	ctx = logging.WithUser(ctx, userID)
	tracing.SetRequestAttributes(root, logging.GetRequestID(ctx), string(req.Endpoint), userID)

	// 2. Quota.
	var quota *usage.QuotaResult
	err = p.stage(ctx, StageQuota, func(ctx context.Context, span trace.Span) error {
		var err error
		quota, err = p.deps.Usage.CheckQuota(ctx, userID, req.Endpoint)
		if err == nil {
			span.SetAttributes(attribute.Int64(tracing.AttrQuotaUsed, quota.Used))
		}
		return err
	})
	if err != nil {
		return nil, internal(err)
	}
	if !quota.Allowed {
		return nil, usageLimit(fmt.Sprintf("You have used all %d %s requests for today. The limit resets at %s.",
			quota.Limit, req.Endpoint, quota.ResetAt.UTC().Format(time.RFC3339)))
	}

	// 3. Rate limit, keyed by user and client fingerprint.
	var limit *ratelimit.CheckResult
	p.run(ctx, StageRateLimit, func(ctx context.Context, span trace.Span) {
		key := userID + ":" + p.deps.Fingerprinter.Identify(req.HTTP)
		limit = p.deps.Limits.For(req.Endpoint).Check(ctx, key)
		span.SetAttributes(
			attribute.Int64(tracing.AttrRateLimitRemaining, limit.Remaining),
			attribute.Bool(tracing.AttrRateLimitDegraded, limit.Degraded),
		)
	})
	if !limit.Allowed {
		return nil, rateLimited(limit)
	}

	withLimit := func(e *Error) (*Response, *Error) {
		e.RateLimit = limit
		return nil, e
	}

	// 4. Validation.
	var (
		messages []types.Message
		phase    string
	)
	err = p.stage(ctx, StageValidate, func(ctx context.Context, span trace.Span) error {
		var err error
		messages, phase, err = p.parse(req)
		if err == nil {
			span.SetAttributes(attribute.Int(tracing.AttrMessages, len(messages)))
		}
		return err
	})
	if err != nil {
		return withLimit(p.validationError(err))
	}

	// 5. System prompt and context budget.
	var systemPrompt string
	var verdict budget.Result
	err = p.stage(ctx, StageBudget, func(ctx context.Context, span trace.Span) error {
		var err error
		systemPrompt, err = p.deps.Prompts.SystemPrompt(req.Endpoint, phase)
		if err != nil {
			return err
		}
		verdict = p.deps.Budget.Check(messages, systemPrompt)
		span.SetAttributes(attribute.Int(tracing.AttrEstimatedTokens, verdict.Tokens))
		return nil
	})
	if err != nil {
		return withLimit(internal(err))
	}
	if !verdict.Allowed {
		return withLimit(contextTooLarge(verdict.Reason))
	}

	// 6. Trim.
	var trimmed conversation.TrimResult
	p.run(ctx, StageTrim, func(ctx context.Context, span trace.Span) {
		trimmed = p.deps.Trimmer.Trim(messages)
		tracing.SetConversationAttributes(span, len(trimmed.Messages), trimmed.Tokens, trimmed.Dropped)
	})
	if trimmed.Dropped > 0 {
		p.record(func(m Recorder) { m.RecordTrim(string(req.Endpoint), trimmed.Dropped) })
	}

	// 7. Completion.
	outbound := trimmed.Messages
	if req.Endpoint == types.EndpointReport {
		outbound = []types.Message{Transcript(trimmed.Messages)}
	}
	start := time.Now()
	completion, err := p.deps.Completer.Complete(ctx, &providers.CompletionRequest{
		System:   systemPrompt,
		Messages: outbound,
	})
	p.record(func(m Recorder) { m.RecordStage(StageComplete, time.Since(start)) })
	if err != nil {
		if wait, busy := providers.IsBusy(err); busy {
			if wait <= 0 {
				wait = p.deps.OverloadRetryAfter
			}
			return withLimit(providerBusy(wait, err))
		}
		return withLimit(internal(err))
	}

	p.record(func(m Recorder) {
		m.RecordTokens(string(req.Endpoint), completion.Usage.InputTokens, completion.Usage.OutputTokens)
	})

	var cost costs.Cost
	if p.deps.Costs != nil {
		cost = p.deps.Costs.Cost(completion.Model, completion.Usage)
		if cost.Priced {
			p.record(func(m Recorder) { m.RecordCost(string(req.Endpoint), completion.Model, cost.Total) })
		}
	}

	// 8. Usage accounting never fails an answered request.
	rec := usage.Record{
		RequestID:    logging.GetRequestID(ctx),
		UserID:       userID,
		Endpoint:     req.Endpoint,
		Model:        completion.Model,
		InputTokens:  completion.Usage.InputTokens,
		OutputTokens: completion.Usage.OutputTokens,
		Trimmed:      trimmed.Dropped,
		CostUSD:      cost.Total,
	}
	if err := p.deps.Usage.RecordUsage(ctx, rec); err != nil {
		p.logger.ErrorContext(ctx, "failed to record usage", "error", err)
	}

	p.logger.InfoContext(ctx, "request admitted",
		"messages", len(messages),
		"trimmed", trimmed.Dropped,
		"input_tokens", completion.Usage.InputTokens,
		"output_tokens", completion.Usage.OutputTokens,
		"cost_usd", cost.Total,
		"remaining", limit.Remaining,
	)

	return &Response{
		Content:   completion.Content,
		Model:     completion.Model,
		Usage:     completion.Usage,
		Trimmed:   trimmed.Dropped,
		UserID:    userID,
		RateLimit: limit,
	}, nil
}

// parse validates the body for the request's endpoint class.
func (p *Pipeline) parse(req *Request) ([]types.Message, string, error) {
	if req.BodyErr != nil {
		return nil, "", req.BodyErr
	}
	switch req.Endpoint {
	case types.EndpointChat:
		chat, err := p.deps.Validator.ParseChatRequest(req.Body)
		if err != nil {
			return nil, "", err
		}
		return chat.Messages, chat.Phase, nil
	default:
		report, err := p.deps.Validator.ParseReportRequest(req.Body)
		if err != nil {
			return nil, "", err
		}
		return report.Messages, "", nil
	}
}

func (p *Pipeline) validationError(err error) *Error {
	if errors.Is(err, proxy.ErrBodyTooLarge) {
		return contextTooLarge("The request body is too large. Please start a new conversation.")
	}
	var valErr *proxy.ValidationError
	if errors.As(err, &valErr) {
		return invalidRequest(valErr.Message, valErr.Details, err)
	}
	return invalidRequest("invalid request", nil, err)
}

// stage runs fn inside a child span and records its duration.
func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context, trace.Span) error) error {
	ctx, span := p.tracer.Start(ctx, "waypoint.admission."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx, span)
	p.record(func(m Recorder) { m.RecordStage(name, time.Since(start)) })

	if err != nil {
		tracing.SetError(span, err)
	}
	return err
}

// run is stage for steps that cannot fail.
func (p *Pipeline) run(ctx context.Context, name string, fn func(context.Context, trace.Span)) {
	_ = p.stage(ctx, name, func(ctx context.Context, span trace.Span) error {
		fn(ctx, span)
		return nil
	})
}

func (p *Pipeline) record(fn func(Recorder)) {
	if p.deps.Metrics != nil {
		fn(p.deps.Metrics)
	}
}

func (p *Pipeline) logRejection(ctx context.Context, e *Error) {
	attrs := []any{"code", e.Code, "status", e.Status}
	if e.RetryAfter > 0 {
		attrs = append(attrs, "retry_after", e.RetryAfter)
	}
	if e.cause != nil {
		attrs = append(attrs, "error", e.cause)
	}

	switch {
	case e.Status >= http.StatusInternalServerError:
		p.logger.ErrorContext(ctx, "request failed", attrs...)
	case e.Code == CodeProviderBusy || (e.RateLimit != nil && e.RateLimit.Degraded):
		p.logger.WarnContext(ctx, "request rejected", attrs...)
	default:
		p.logger.InfoContext(ctx, "request rejected", attrs...)
	}
}

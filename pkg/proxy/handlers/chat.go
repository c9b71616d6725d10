package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"pathfinder-hq/waypoint/pkg/admission"
	"pathfinder-hq/waypoint/pkg/config"
	"pathfinder-hq/waypoint/pkg/proxy"
	"pathfinder-hq/waypoint/pkg/proxy/types"
)

// Admitter runs the admission pipeline. *admission.Pipeline satisfies it.
type Admitter interface {
	Admit(ctx context.Context, req *admission.Request) (*admission.Response, *admission.Error)
}

// RequestRecorder receives one observation per API request.
// *metrics.Collector satisfies it.
type RequestRecorder interface {
	RecordRequest(endpoint string, status int, duration time.Duration)
}

// Options configure the API handlers.
type Options struct {
	// MaxBodyBytes bounds the request body. Zero means
	// config.DefaultMaxBodyBytes.
	MaxBodyBytes int64

	// Metrics is optional.
	Metrics RequestRecorder

	// Logger is optional.
	Logger *slog.Logger
}

// apiHandler is shared by the chat and report endpoints; only the endpoint
// class and the success body differ.
type apiHandler struct {
	endpoint types.Endpoint
	admitter Admitter
	maxBody  int64
	metrics  RequestRecorder
	logger   *slog.Logger
	respond  func(resp *admission.Response) any
}

func newAPIHandler(endpoint types.Endpoint, admitter Admitter, opts Options, respond func(*admission.Response) any) *apiHandler {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = config.DefaultMaxBodyBytes
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &apiHandler{
		endpoint: endpoint,
		admitter: admitter,
		maxBody:  opts.MaxBodyBytes,
		metrics:  opts.Metrics,
		logger:   opts.Logger.With("component", "handlers"),
		respond:  respond,
	}
}

// ServeHTTP implements http.Handler.
func (h *apiHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := h.serve(w, r)
	if h.metrics != nil {
		h.metrics.RecordRequest(string(h.endpoint), status, time.Since(start))
	}
}

func (h *apiHandler) serve(w http.ResponseWriter, r *http.Request) int {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		h.writeJSON(ctx, w, http.StatusMethodNotAllowed, &types.ErrorResponse{
			Error: "Method not allowed",
			Code:  string(admission.CodeInvalidRequest),
		})
		return http.StatusMethodNotAllowed
	}

	if r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}
	body, bodyErr := proxy.ReadBody(r, h.maxBody)

	resp, admErr := h.admitter.Admit(ctx, &admission.Request{
		Endpoint: h.endpoint,
		HTTP:     r,
		Body:     body,
		BodyErr:  bodyErr,
	})
	if admErr != nil {
		h.writeError(ctx, w, admErr)
		return admErr.Status
	}

	setRateLimitHeaders(w, resp.RateLimit)
	h.writeJSON(ctx, w, http.StatusOK, h.respond(resp))
	return http.StatusOK
}

// NewChatHandler serves POST /api/chat.
func NewChatHandler(admitter Admitter, opts Options) http.Handler {
	return newAPIHandler(types.EndpointChat, admitter, opts, func(resp *admission.Response) any {
		return &types.ChatResponse{
			Message: types.Message{
				ID:      uuid.NewString(),
				Role:    types.RoleAssistant,
				Content: resp.Content,
			},
			Usage:   resp.Usage,
			Trimmed: resp.Trimmed,
		}
	})
}

// NewReportHandler serves POST /api/report.
func NewReportHandler(admitter Admitter, opts Options) http.Handler {
	return newAPIHandler(types.EndpointReport, admitter, opts, func(resp *admission.Response) any {
		return &types.ReportResponse{
			Report:  resp.Content,
			Usage:   resp.Usage,
			Trimmed: resp.Trimmed,
		}
	})
}

func (h *apiHandler) writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	if err := proxy.WriteJSONResponse(w, status, body); err != nil {
		h.logger.ErrorContext(ctx, "failed to write response", "error", err)
	}
}

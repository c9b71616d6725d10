package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"pathfinder-hq/waypoint/pkg/admission"
	"pathfinder-hq/waypoint/pkg/limits/ratelimit"
	"pathfinder-hq/waypoint/pkg/proxy"
)

// Rate-limit response headers.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
)

// writeError writes every rejection body. Rate-limit headers are set
// whenever the limiter ran, and Retry-After on 429s.
func (h *apiHandler) writeError(ctx context.Context, w http.ResponseWriter, e *admission.Error) {
	setRateLimitHeaders(w, e.RateLimit)
	if err := proxy.WriteErrorResponse(w, e.Status, e.Response()); err != nil {
		h.logger.ErrorContext(ctx, "failed to write error response", "error", err)
	}
}

// setRateLimitHeaders reports the limiter decision. X-RateLimit-Reset is the
// Unix time in seconds at which the window resets.
func setRateLimitHeaders(w http.ResponseWriter, result *ratelimit.CheckResult) {
	if result == nil {
		return
	}
	reset := result.Reset
	if reset.IsZero() {
		reset = time.Now().Add(result.ResetIn)
	}
	remaining := max(result.Remaining, 0)

	w.Header().Set(HeaderRateLimitLimit, strconv.FormatInt(result.Limit, 10))
	w.Header().Set(HeaderRateLimitRemaining, strconv.FormatInt(remaining, 10))
	w.Header().Set(HeaderRateLimitReset, strconv.FormatInt(reset.Unix(), 10))
}

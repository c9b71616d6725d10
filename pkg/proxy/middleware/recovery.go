package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"pathfinder-hq/waypoint/pkg/proxy"
	"pathfinder-hq/waypoint/pkg/proxy/types"
)

// RecoveryMiddleware turns a handler panic into a 500 INTERNAL response. The
// panic value and stack are logged; neither reaches the client.
//
// http.ErrAbortHandler is re-panicked so the server can abort the connection.
//
// Example usage:
//
//	handler = RecoveryMiddleware(logger)(handler)
func RecoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.ErrorContext(r.Context(), "panic in handler",
					"error", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)

				_ = proxy.WriteErrorResponse(w, http.StatusInternalServerError, &types.ErrorResponse{
					Error: "Something went wrong. Please try again.",
					Code:  "INTERNAL",
				})
			}()

			next.ServeHTTP(w, r)
		})
	}
}

package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"

	"pathfinder-hq/waypoint/pkg/proxy/types"
)

// WriteJSONResponse writes a JSON response with the given status code.
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON response: %w", err)
	}
	return nil
}

// WriteErrorResponse writes an error body. Rate-limited responses also get
// a Retry-After header matching the body's retryAfter.
func WriteErrorResponse(w http.ResponseWriter, statusCode int, errResp *types.ErrorResponse) error {
	if errResp.RetryAfter > 0 {
		w.Header().Set("Retry-After", fmt.Sprintf("%d", errResp.RetryAfter))
	}
	return WriteJSONResponse(w, statusCode, errResp)
}

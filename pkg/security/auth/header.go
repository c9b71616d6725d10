package auth

import (
	"fmt"
	"net/http"
	"strings"
)

// DefaultUserHeader is the trusted header read by HeaderResolver.
const DefaultUserHeader = "X-User-ID"

// maxUserIDLength bounds identifiers taken from a header.
const maxUserIDLength = 128

// HeaderResolver trusts a user ID header set by an authenticating proxy in
// front of the service. Deploy it only where clients cannot reach the
// service directly.
type HeaderResolver struct {
	header string
}

// NewHeaderResolver creates a resolver for header. An empty header means
// DefaultUserHeader.
func NewHeaderResolver(header string) *HeaderResolver {
	if header == "" {
		header = DefaultUserHeader
	}
	return &HeaderResolver{header: header}
}

// Resolve returns the identity named by the header.
func (h *HeaderResolver) Resolve(r *http.Request) (*Identity, error) {
	userID := strings.TrimSpace(r.Header.Get(h.header))
	if userID == "" {
		return nil, fmt.Errorf("%w: missing %s header", ErrUnauthenticated, h.header)
	}
	if len(userID) > maxUserIDLength || strings.ContainsAny(userID, ":\r\n") {
		return nil, fmt.Errorf("%w: malformed %s header", ErrUnauthenticated, h.header)
	}
	return &Identity{UserID: userID, Source: "header"}, nil
}

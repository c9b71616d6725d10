package auth

import (
	"context"
	"errors"
	"net/http"
)

var (
	// ErrUnauthenticated is returned when a request carries no usable identity.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrTokenExpired is returned when a bearer token has expired.
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidToken is returned when a bearer token is invalid for any
	// other reason.
	ErrInvalidToken = errors.New("invalid token")
)

// Identity is the authenticated caller of a request.
type Identity struct {
	// UserID is the stable user identifier used for quotas and rate limit keys.
	UserID string

	// Source names the resolver that produced the identity ("header", "jwt").
	Source string
}

// Resolver extracts the caller's identity from a request. Session
// management lives outside this service; a Resolver only reads what the
// upstream auth layer attached to the request.
type Resolver interface {
	// Resolve returns the identity of r. Every failure wraps
	// ErrUnauthenticated so callers can map it to a single 401.
	Resolve(r *http.Request) (*Identity, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(r *http.Request) (*Identity, error)

// Resolve calls f(r).
func (f ResolverFunc) Resolve(r *http.Request) (*Identity, error) {
	return f(r)
}

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext returns the identity stored by WithIdentity.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok
}

package secrets

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Provider that has no value for a secret.
var ErrNotFound = errors.New("secret not found")

// Provider retrieves secrets from one backend.
type Provider interface {
	// Get returns the value of the named secret, or an error wrapping
	// ErrNotFound when this backend does not hold it.
	Get(ctx context.Context, name string) (string, error)

	// Name identifies the backend in logs and errors ("env", "file").
	Name() string
}

package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
)

// refPattern matches ${secret:name} references.
var refPattern = regexp.MustCompile(`\$\{secret:([A-Za-z0-9._-]+)\}`)

// Manager resolves secrets through an ordered list of providers, caching
// the values it finds.
type Manager struct {
	providers []Provider
	cache     *Cache
	logger    *slog.Logger
}

// NewManager creates a manager. Providers are consulted in order; the first
// one holding a secret wins.
func NewManager(providers []Provider, cache *Cache, logger *slog.Logger) *Manager {
	if cache == nil {
		cache = NewCache(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		providers: providers,
		cache:     cache,
		logger:    logger.With("component", "secrets"),
	}
}

// Get returns the named secret from the cache or the first provider that
// holds it. Errors other than ErrNotFound stop the search, so a misconfigured
// file source is reported rather than silently shadowed.
func (m *Manager) Get(ctx context.Context, name string) (string, error) {
	if value, ok := m.cache.Get(name); ok {
		return value, nil
	}

	for _, p := range m.providers {
		value, err := p.Get(ctx, name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("secret %q from %s: %w", name, p.Name(), err)
		}
		m.cache.Set(name, value)
		m.logger.Debug("secret resolved", "name", redactName(name), "provider", p.Name())
		return value, nil
	}
	return "", fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Resolve replaces every ${secret:name} reference in value. Values without
// references are returned unchanged. Any unresolvable reference fails the
// whole value.
func (m *Manager) Resolve(ctx context.Context, value string) (string, error) {
	var errs []error
	out := refPattern.ReplaceAllStringFunc(value, func(ref string) string {
		name := refPattern.FindStringSubmatch(ref)[1]
		secret, err := m.Get(ctx, name)
		if err != nil {
			errs = append(errs, err)
			return ref
		}
		return secret
	})
	if len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	return out, nil
}

// ResolveAll resolves each field in place and reports every failure,
// labelled by its key.
func (m *Manager) ResolveAll(ctx context.Context, fields map[string]*string) error {
	var errs []error
	for label, field := range fields {
		if field == nil || !HasReference(*field) {
			continue
		}
		resolved, err := m.Resolve(ctx, *field)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", label, err))
			continue
		}
		*field = resolved
	}
	return errors.Join(errs...)
}

// HasReference reports whether value contains a ${secret:name} reference.
func HasReference(value string) bool {
	return refPattern.MatchString(value)
}

// redactName keeps the ends of a secret name for logs.
func redactName(name string) string {
	if len(name) <= 4 {
		return "***"
	}
	return name[:2] + "..." + name[len(name)-2:]
}

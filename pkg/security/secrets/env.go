package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EnvProvider loads secrets from environment variables.
//
// Secret names are converted to uppercase environment variable names
// with hyphens replaced by underscores, then prefixed:
//
//	"anthropic-api-key" -> WAYPOINT_SECRET_ANTHROPIC_API_KEY
type EnvProvider struct {
	prefix string
	lookup func(string) (string, bool)
}

// NewEnvProvider creates a provider reading {prefix}{NAME}.
func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{prefix: prefix, lookup: os.LookupEnv}
}

// Get retrieves a secret from its environment variable. An unset or empty
// variable is ErrNotFound.
func (p *EnvProvider) Get(_ context.Context, name string) (string, error) {
	envVar := p.VarName(name)
	value, ok := p.lookup(envVar)
	if !ok || value == "" {
		return "", fmt.Errorf("%w: %s not set", ErrNotFound, envVar)
	}
	return value, nil
}

// Name returns "env".
func (p *EnvProvider) Name() string {
	return "env"
}

// VarName returns the environment variable consulted for name.
func (p *EnvProvider) VarName(name string) string {
	return p.prefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

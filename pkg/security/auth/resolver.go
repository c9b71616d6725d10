package auth

import (
	"fmt"

	"pathfinder-hq/waypoint/pkg/config"
)

// NewResolver builds the resolver selected by cfg.Mode.
func NewResolver(cfg config.AuthConfig) (Resolver, error) {
	switch cfg.Mode {
	case "header", "":
		return NewHeaderResolver(cfg.Header), nil
	case "jwt":
		if cfg.JWTSecret == "" {
			return nil, fmt.Errorf("auth: jwt mode requires a secret")
		}
		var opts []JWTOption
		if cfg.Issuer != "" {
			opts = append(opts, WithIssuer(cfg.Issuer))
		}
		if cfg.Audience != "" {
			opts = append(opts, WithAudience(cfg.Audience))
		}
		return NewJWTResolver(cfg.JWTSecret, opts...), nil
	default:
		return nil, fmt.Errorf("auth: unknown mode %q", cfg.Mode)
	}
}

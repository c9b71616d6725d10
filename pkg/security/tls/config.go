package tls

import (
	"crypto/tls"
	"fmt"
	"log/slog"

	"pathfinder-hq/waypoint/pkg/config"
)

// ParseMinVersion maps a configured version string to its crypto/tls
// constant. Empty means TLS 1.3; versions below 1.2 are refused.
func ParseMinVersion(v string) (uint16, error) {
	switch v {
	case "1.3", "":
		return tls.VersionTLS13, nil
	case "1.2":
		return tls.VersionTLS12, nil
	default:
		return 0, fmt.Errorf("unsupported TLS min_version %q (want 1.2 or 1.3)", v)
	}
}

// NewServerConfig builds the listener configuration for cfg. Certificates are
// served from reloader so renewals take effect on the next handshake.
func NewServerConfig(cfg config.TLSConfig, reloader *Reloader) (*tls.Config, error) {
	minVersion, err := ParseMinVersion(cfg.MinVersion)
	if err != nil {
		return nil, err
	}

	// #nosec G402 - MinVersion is 1.2 or higher
	return &tls.Config{
		MinVersion:     minVersion,
		GetCertificate: reloader.GetCertificate,
		NextProtos:     []string{"h2", "http/1.1"},
	}, nil
}

// Setup loads the configured pair and returns its reloader and listener
// configuration. It returns nil values when TLS is disabled.
func Setup(cfg config.TLSConfig, logger *slog.Logger) (*Reloader, *tls.Config, error) {
	if !cfg.Enabled {
		return nil, nil, nil
	}
	reloader, err := NewReloader(cfg.CertFile, cfg.KeyFile, cfg.ReloadInterval, logger)
	if err != nil {
		return nil, nil, err
	}
	tlsConfig, err := NewServerConfig(cfg, reloader)
	if err != nil {
		return nil, nil, err
	}
	return reloader, tlsConfig, nil
}

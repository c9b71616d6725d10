package providerfactory

import (
	"fmt"
	"log/slog"

	"pathfinder-hq/waypoint/pkg/config"
	"pathfinder-hq/waypoint/pkg/providers"
	"pathfinder-hq/waypoint/pkg/providers/anthropic"
)

// NewCompleter creates the LLM client selected by cfg.Provider.
//
// Supported providers:
//   - "anthropic": Anthropic Messages API
//
// Example:
//
//	completer, err := providerfactory.NewCompleter(cfg.LLM, logger)
//	if err != nil {
//	    return err
//	}
func NewCompleter(cfg config.LLMConfig, logger *slog.Logger) (providers.Completer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Debug("creating llm client",
		"provider", cfg.Provider,
		"base_url", cfg.BaseURL,
		"model", cfg.Model,
	)

	switch cfg.Provider {
	case "", anthropic.ProviderName:
		client, err := anthropic.NewClient(anthropic.Config{
			BaseURL:    cfg.BaseURL,
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			MaxTokens:  cfg.MaxTokens,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create provider %q: %w", anthropic.ProviderName, err)
		}
		return client, nil

	default:
		return nil, &providers.ConfigError{
			Provider: cfg.Provider,
			Field:    "provider",
			Message:  fmt.Sprintf("unsupported provider: %q (supported: anthropic)", cfg.Provider),
		}
	}
}

package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"pathfinder-hq/waypoint/pkg/config"
)

// Config contains logger configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string

	// Format is the output format (json, text, console).
	Format string

	// AddSource adds source file and line to log entries.
	AddSource bool

	// RedactPII enables automatic PII redaction.
	RedactPII bool

	// Writer is the output destination. Defaults to os.Stdout.
	Writer io.Writer
}

// New creates a structured logger from cfg.
func New(cfg Config) (*slog.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	format, err := parseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}

	writer := cfg.Writer
	if writer == nil {
		writer = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}

	var base slog.Handler
	switch format {
	case "json":
		base = slog.NewJSONHandler(writer, opts)
	default:
		base = slog.NewTextHandler(writer, opts)
	}

	var redactor *Redactor
	if cfg.RedactPII {
		redactor = NewRedactor()
	}

	return slog.New(NewHandler(base, redactor)), nil
}

// FromConfig creates a logger from the logging section of the service
// configuration.
func FromConfig(cfg config.LoggingConfig, writer io.Writer) (*slog.Logger, error) {
	return New(Config{
		Level:     cfg.Level,
		Format:    cfg.Format,
		AddSource: cfg.AddSource,
		RedactPII: cfg.RedactEnabled(),
		Writer:    writer,
	})
}

// parseLevel converts a string level to slog.Level.
func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", level)
	}
}

// parseFormat validates the log format string.
func parseFormat(format string) (string, error) {
	switch strings.ToLower(format) {
	case "json", "":
		return "json", nil
	case "text":
		return "text", nil
	case "console":
		// Console is an alias for text.
		return "text", nil
	default:
		return "", fmt.Errorf("invalid log format: %s (must be json, text, or console)", format)
	}
}

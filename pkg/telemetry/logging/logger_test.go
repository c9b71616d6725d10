package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"pathfinder-hq/waypoint/pkg/config"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to decode log line %q: %v", buf.String(), err)
	}
	return entry
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New(Config{Level: "verbose"}); err == nil {
		t.Error("Expected error for invalid level")
	}
}

func TestNew_InvalidFormat(t *testing.T) {
	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Error("Expected error for invalid format")
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("Expected info to be filtered, got %q", buf.String())
	}

	logger.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("Expected warn entry, got %q", buf.String())
	}
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("hello", "k", "v")
	if !strings.Contains(buf.String(), "msg=hello") || !strings.Contains(buf.String(), "k=v") {
		t.Errorf("Expected text output, got %q", buf.String())
	}
}

func TestLogger_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx := WithRequestID(context.Background(), "req-123")
	ctx = WithUser(ctx, "user-9")
	ctx = WithEndpoint(ctx, "chat")
	logger.InfoContext(ctx, "admitted")

	entry := decodeLine(t, &buf)
	if entry["request_id"] != "req-123" {
		t.Errorf("Expected request_id, got %v", entry["request_id"])
	}
	if entry["user"] != "user-9" {
		t.Errorf("Expected user, got %v", entry["user"])
	}
	if entry["endpoint"] != "chat" {
		t.Errorf("Expected endpoint, got %v", entry["endpoint"])
	}
}

func TestLogger_Redaction(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Format: "json", RedactPII: true, Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("contact alice@example.com",
		"client_ip", "203.0.113.7",
		"api_key", "sk-ant-abcdefghijklmnop",
		"err", errors.New("auth failed: Bearer abc.def.ghi"),
	)

	out := buf.String()
	for _, leaked := range []string{"alice@", "0.113.7", "abcdefghijklmnop", "abc.def.ghi"} {
		if strings.Contains(out, leaked) {
			t.Errorf("Expected %q to be redacted, got %s", leaked, out)
		}
	}

	entry := decodeLine(t, &buf)
	if entry["client_ip"] != "203.*.*.*" {
		t.Errorf("Expected masked ip, got %v", entry["client_ip"])
	}
	if entry["api_key"] != "***" {
		t.Errorf("Expected masked api_key, got %v", entry["api_key"])
	}
}

func TestLogger_RedactionDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("x", "client_ip", "203.0.113.7")
	if entry := decodeLine(t, &buf); entry["client_ip"] != "203.0.113.7" {
		t.Errorf("Expected raw ip without redaction, got %v", entry["client_ip"])
	}
}

func TestLogger_WithAttrsRedacted(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Format: "json", RedactPII: true, Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.With("email", "bob@example.org").WithGroup("req").Info("x", "n", 1)

	out := buf.String()
	if strings.Contains(out, "bob@") {
		t.Errorf("Expected With attrs to be redacted, got %s", out)
	}
	if !strings.Contains(out, `"req":{"n":1}`) {
		t.Errorf("Expected grouped attribute, got %s", out)
	}
}

func TestFromConfig(t *testing.T) {
	var cfg config.Config
	config.ApplyDefaults(&cfg)

	var buf bytes.Buffer
	logger, err := FromConfig(cfg.Telemetry.Logging, &buf)
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("shown", "ip", "10.1.2.3")

	entry := decodeLine(t, &buf)
	if entry["msg"] != "shown" {
		t.Errorf("Expected info entry, got %v", entry)
	}
	if entry["ip"] != "10.*.*.*" {
		t.Errorf("Expected redaction enabled by default, got %v", entry["ip"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := parseLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("parseLevel(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

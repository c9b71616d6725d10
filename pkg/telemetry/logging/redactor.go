package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Redactor masks PII (Personally Identifiable Information) in log values.
type Redactor struct {
	patterns []redactPattern
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in pattern names.
const (
	PatternAPIKey      = "api_key"
	PatternBearerToken = "bearer_token"
	PatternEmail       = "email"
	PatternIPv4        = "ipv4"
	PatternIPv6        = "ipv6"
)

// defaultPatterns are applied in order; bearer tokens go before API keys so
// the whole header value is masked.
var defaultPatterns = []redactPattern{
	{PatternBearerToken, regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-._~+/]+=*`), "Bearer ***"},
	{PatternAPIKey, regexp.MustCompile(`sk-(?:ant-)?[a-zA-Z0-9\-_]{8,}`), "sk-***"},
	{PatternEmail, regexp.MustCompile(`[a-zA-Z0-9._%+-]+@([a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`), "***@$1"},
	{PatternIPv4, regexp.MustCompile(`\b(\d{1,3})\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`), "$1.*.*.*"},
	{PatternIPv6, regexp.MustCompile(`\b(?:[0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}\b`), "****:****:****:****:****:****:****:****"},
}

// sensitiveKeys are attribute keys whose values are masked entirely. A key
// matches when it equals an entry or ends with "_" plus the entry.
var sensitiveKeys = []string{
	"password", "secret", "token", "api_key", "apikey", "authorization", "cookie",
}

// NewRedactor creates a Redactor with the built-in patterns.
func NewRedactor() *Redactor {
	return &Redactor{patterns: defaultPatterns}
}

// RedactString masks every PII match in value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// RedactAttr returns a with its value masked. Sensitive keys are masked
// entirely; other string values are scanned for PII. Groups are processed
// recursively.
func (r *Redactor) RedactAttr(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()

	if isSensitiveKey(a.Key) {
		if v.Kind() == slog.KindString && v.String() == "" {
			return a
		}
		return slog.String(a.Key, "***")
	}

	switch v.Kind() {
	case slog.KindString:
		return slog.String(a.Key, r.RedactString(v.String()))
	case slog.KindGroup:
		group := v.Group()
		redacted := make([]any, len(group))
		for i, ga := range group {
			redacted[i] = r.RedactAttr(ga)
		}
		return slog.Group(a.Key, redacted...)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
	}
	return slog.Attr{Key: a.Key, Value: v}
}

// isSensitiveKey checks if a key name indicates secret data.
func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if lower == s || strings.HasSuffix(lower, "_"+s) {
			return true
		}
	}
	return false
}

package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http/httptest"
	"regexp"
	"testing"
)

var hexPattern = regexp.MustCompile(`^[0-9a-f]{16}$`)

func expected(origin, agent string) string {
	sum := sha256.Sum256([]byte(origin + ":" + agent))
	return hex.EncodeToString(sum[:])[:16]
}

func TestMetadata_Origin(t *testing.T) {
	tests := []struct {
		name   string
		md     Metadata
		origin string
	}{
		{
			name:   "platform header wins",
			md:     Metadata{PlatformIP: "1.1.1.1", RealIP: "2.2.2.2", ForwardedFor: "3.3.3.3"},
			origin: "1.1.1.1",
		},
		{
			name:   "real ip before forwarded chain",
			md:     Metadata{RealIP: "2.2.2.2", ForwardedFor: "3.3.3.3, 4.4.4.4"},
			origin: "2.2.2.2",
		},
		{
			name:   "first hop of forwarded chain",
			md:     Metadata{ForwardedFor: " 3.3.3.3 , 4.4.4.4, 5.5.5.5"},
			origin: "3.3.3.3",
		},
		{
			name:   "no signal",
			md:     Metadata{UserAgent: "curl/8.0"},
			origin: UnknownOrigin,
		},
		{
			name:   "whitespace only is ignored",
			md:     Metadata{PlatformIP: "  ", RealIP: "2.2.2.2"},
			origin: "2.2.2.2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.md.Origin(); got != tt.origin {
				t.Errorf("Origin() = %q, want %q", got, tt.origin)
			}
		})
	}
}

func TestCompute(t *testing.T) {
	md := Metadata{RealIP: "203.0.113.7", UserAgent: "Mozilla/5.0"}

	got := Compute(md)
	if !hexPattern.MatchString(got) {
		t.Fatalf("Expected 16 lowercase hex chars, got %q", got)
	}
	if want := expected("203.0.113.7", "Mozilla/5.0"); got != want {
		t.Errorf("Compute() = %q, want %q", got, want)
	}
}

func TestCompute_Deterministic(t *testing.T) {
	md := Metadata{ForwardedFor: "198.51.100.1, 10.0.0.1", UserAgent: "agent"}
	if Compute(md) != Compute(md) {
		t.Error("Expected identical metadata to yield identical fingerprints")
	}
}

func TestCompute_Sensitivity(t *testing.T) {
	base := Metadata{RealIP: "203.0.113.7", UserAgent: "Mozilla/5.0"}
	otherAgent := Metadata{RealIP: "203.0.113.7", UserAgent: "Mozilla/5.1"}
	otherOrigin := Metadata{RealIP: "203.0.113.8", UserAgent: "Mozilla/5.0"}

	if Compute(base) == Compute(otherAgent) {
		t.Error("Expected different user agents to yield different fingerprints")
	}
	if Compute(base) == Compute(otherOrigin) {
		t.Error("Expected different origins to yield different fingerprints")
	}
}

func TestCompute_UnknownOrigin(t *testing.T) {
	got := Compute(Metadata{UserAgent: "ua"})
	if want := expected("unknown", "ua"); got != want {
		t.Errorf("Expected fingerprint of unknown origin, got %q want %q", got, want)
	}
}

func TestGetClientIdentifier(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/chat", nil)
	req.Header.Set("X-Forwarded-For", "198.51.100.23, 10.0.0.2")
	req.Header.Set("User-Agent", "test-agent")

	got := GetClientIdentifier(req)
	if want := expected("198.51.100.23", "test-agent"); got != want {
		t.Errorf("GetClientIdentifier() = %q, want %q", got, want)
	}
}

func TestFingerprinter_CustomHeader(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/chat", nil)
	req.Header.Set("CF-Connecting-IP", "192.0.2.44")
	req.Header.Set("X-Real-IP", "10.1.1.1")
	req.Header.Set("User-Agent", "ua")

	fp := New("CF-Connecting-IP")
	if got, want := fp.Identify(req), expected("192.0.2.44", "ua"); got != want {
		t.Errorf("Identify() = %q, want %q", got, want)
	}

	// The default header is absent, so X-Real-IP is used.
	if got, want := GetClientIdentifier(req), expected("10.1.1.1", "ua"); got != want {
		t.Errorf("GetClientIdentifier() = %q, want %q", got, want)
	}
}

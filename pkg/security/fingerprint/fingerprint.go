// Package fingerprint derives a privacy-preserving client identifier from
// request transport metadata.
//
// The fingerprint is the first 16 hex characters of
// SHA-256("{origin}:{user-agent}"). It is stable for a given client, good
// enough to rate-limit abusive traffic, and does not allow the raw IP address
// or user agent to be recovered. It is never persisted.
//
// Origin selection, in priority order:
//
//  1. the platform-verified client address header (set by the edge, not the client)
//  2. X-Real-IP
//  3. the first hop of X-Forwarded-For
//  4. "unknown"
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

const (
	// DefaultPlatformHeader carries the client address as verified by the
	// hosting platform's edge.
	DefaultPlatformHeader = "X-Vercel-Forwarded-For"

	// UnknownOrigin is used when no origin signal is present.
	UnknownOrigin = "unknown"

	// Length is the number of hex characters in a fingerprint.
	Length = 16
)

// Metadata holds the request signals used to build a fingerprint.
type Metadata struct {
	// PlatformIP is the edge-verified client address.
	PlatformIP string

	// RealIP is the proxy-asserted client address (X-Real-IP).
	RealIP string

	// ForwardedFor is the raw X-Forwarded-For chain.
	ForwardedFor string

	// UserAgent is the declared client agent string.
	UserAgent string
}

// Origin returns the best available network-origin signal.
func (m Metadata) Origin() string {
	if ip := strings.TrimSpace(m.PlatformIP); ip != "" {
		return firstHop(ip)
	}
	if ip := strings.TrimSpace(m.RealIP); ip != "" {
		return ip
	}
	if hop := firstHop(m.ForwardedFor); hop != "" {
		return hop
	}
	return UnknownOrigin
}

// firstHop returns the first entry of a comma-separated address chain.
func firstHop(chain string) string {
	first, _, _ := strings.Cut(chain, ",")
	return strings.TrimSpace(first)
}

// FromRequest extracts fingerprint metadata from r. platformHeader names the
// edge-verified address header; empty means DefaultPlatformHeader.
func FromRequest(r *http.Request, platformHeader string) Metadata {
	if platformHeader == "" {
		platformHeader = DefaultPlatformHeader
	}
	return Metadata{
		PlatformIP:   r.Header.Get(platformHeader),
		RealIP:       r.Header.Get("X-Real-IP"),
		ForwardedFor: r.Header.Get("X-Forwarded-For"),
		UserAgent:    r.Header.Get("User-Agent"),
	}
}

// Compute returns the 16-hex-character fingerprint for md.
func Compute(md Metadata) string {
	sum := sha256.Sum256([]byte(md.Origin() + ":" + md.UserAgent))
	return hex.EncodeToString(sum[:])[:Length]
}

// GetClientIdentifier fingerprints r using the default platform header.
func GetClientIdentifier(r *http.Request) string {
	return Compute(FromRequest(r, ""))
}

// Fingerprinter computes fingerprints with a configured platform header.
type Fingerprinter struct {
	platformHeader string
}

// New creates a Fingerprinter. An empty header uses DefaultPlatformHeader.
func New(platformHeader string) *Fingerprinter {
	if platformHeader == "" {
		platformHeader = DefaultPlatformHeader
	}
	return &Fingerprinter{platformHeader: platformHeader}
}

// Identify fingerprints r.
func (f *Fingerprinter) Identify(r *http.Request) string {
	return Compute(FromRequest(r, f.platformHeader))
}

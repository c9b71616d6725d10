package tls

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"time"
)

// ExpiryWarningWindow is how close to expiry a certificate is logged as a
// warning instead of at info level.
const ExpiryWarningWindow = 30 * 24 * time.Hour

// ValidateCertificate checks that the leaf of cert parses and is valid at now.
func ValidateCertificate(cert *tls.Certificate, now time.Time) (*x509.Certificate, error) {
	if cert == nil || len(cert.Certificate) == 0 {
		return nil, fmt.Errorf("certificate chain is empty")
	}

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}
	if now.Before(leaf.NotBefore) {
		return nil, fmt.Errorf("certificate is not yet valid (valid from %s)", leaf.NotBefore.Format(time.RFC3339))
	}
	if now.After(leaf.NotAfter) {
		return nil, fmt.Errorf("certificate expired on %s", leaf.NotAfter.Format(time.RFC3339))
	}
	return leaf, nil
}

// DaysUntilExpiry returns the whole days left before leaf expires and
// whether that falls inside ExpiryWarningWindow.
func DaysUntilExpiry(leaf *x509.Certificate, now time.Time) (days int, expiringSoon bool) {
	left := leaf.NotAfter.Sub(now)
	return int(left.Hours() / 24), left < ExpiryWarningWindow
}

// loadKeyPair reads and validates a certificate and key pair from disk.
func loadKeyPair(certFile, keyFile string, now time.Time) (*tls.Certificate, *x509.Certificate, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load certificate: %w", err)
	}
	leaf, err := ValidateCertificate(&cert, now)
	if err != nil {
		return nil, nil, err
	}
	cert.Leaf = leaf
	return &cert, leaf, nil
}

package tls

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"io"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pathfinder-hq/waypoint/pkg/config"
)

// writePair generates a self-signed ECDSA certificate for cn valid between
// notBefore and notAfter and writes it to dir.
func writePair(t *testing.T, dir, cn string, notBefore, notAfter time.Time) (certFile, keyFile string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: cn},
		Issuer:       pkix.Name{CommonName: cn},
		NotBefore:    notBefore,
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     []string{"localhost"},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}

	certFile = filepath.Join(dir, "tls.crt")
	keyFile = filepath.Join(dir, "tls.key")
	if err := os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600); err != nil {
		t.Fatal(err)
	}
	return certFile, keyFile
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseMinVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    uint16
		wantErr bool
	}{
		{"", tls.VersionTLS13, false},
		{"1.3", tls.VersionTLS13, false},
		{"1.2", tls.VersionTLS12, false},
		{"1.1", 0, true},
		{"tls13", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseMinVersion(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMinVersion(%q) = %x, %v; want %x, err %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestValidateCertificate(t *testing.T) {
	now := time.Now()
	dir := t.TempDir()

	tests := []struct {
		name      string
		notBefore time.Time
		notAfter  time.Time
		wantErr   bool
	}{
		{"valid", now.Add(-time.Hour), now.Add(90 * 24 * time.Hour), false},
		{"expired", now.Add(-48 * time.Hour), now.Add(-24 * time.Hour), true},
		{"not yet valid", now.Add(24 * time.Hour), now.Add(48 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			certFile, keyFile := writePair(t, dir, "waypoint.test", tt.notBefore, tt.notAfter)
			_, _, err := loadKeyPair(certFile, keyFile, now)
			if (err != nil) != tt.wantErr {
				t.Errorf("loadKeyPair() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if _, err := ValidateCertificate(&tls.Certificate{}, now); err == nil {
		t.Error("expected error for empty chain")
	}
}

func TestDaysUntilExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	days, soon := DaysUntilExpiry(&x509.Certificate{NotAfter: now.Add(10 * 24 * time.Hour)}, now)
	if days != 10 || !soon {
		t.Errorf("DaysUntilExpiry = %d, %v; want 10, true", days, soon)
	}

	days, soon = DaysUntilExpiry(&x509.Certificate{NotAfter: now.Add(60 * 24 * time.Hour)}, now)
	if days != 60 || soon {
		t.Errorf("DaysUntilExpiry = %d, %v; want 60, false", days, soon)
	}
}

func TestReloader_PicksUpRenewedCertificate(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	certFile, keyFile := writePair(t, dir, "first", now.Add(-time.Hour), now.Add(90*24*time.Hour))

	r, err := NewReloader(certFile, keyFile, time.Hour, quietLogger())
	if err != nil {
		t.Fatalf("NewReloader() error = %v", err)
	}
	if cn := r.Leaf().Subject.CommonName; cn != "first" {
		t.Fatalf("initial CN = %q", cn)
	}
	if r.Check() {
		t.Error("Check() reloaded unchanged files")
	}

	writePair(t, dir, "second", now.Add(-time.Hour), now.Add(90*24*time.Hour))
	// Make the change visible on filesystems with coarse mtimes.
	later := now.Add(time.Minute)
	for _, f := range []string{certFile, keyFile} {
		if err := os.Chtimes(f, later, later); err != nil {
			t.Fatal(err)
		}
	}

	if !r.Check() {
		t.Fatal("Check() did not reload changed files")
	}
	cert, err := r.GetCertificate(nil)
	if err != nil || cert.Leaf.Subject.CommonName != "second" {
		t.Errorf("GetCertificate() CN = %q, err %v; want second", cert.Leaf.Subject.CommonName, err)
	}
}

func TestReloader_KeepsCertificateOnBadReload(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	certFile, keyFile := writePair(t, dir, "good", now.Add(-time.Hour), now.Add(90*24*time.Hour))

	r, err := NewReloader(certFile, keyFile, time.Hour, quietLogger())
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(certFile, []byte("not a certificate"), 0o600); err != nil {
		t.Fatal(err)
	}
	later := now.Add(time.Minute)
	if err := os.Chtimes(certFile, later, later); err != nil {
		t.Fatal(err)
	}

	if r.Check() {
		t.Error("Check() installed an invalid certificate")
	}
	if cn := r.Leaf().Subject.CommonName; cn != "good" {
		t.Errorf("CN = %q, want previous certificate kept", cn)
	}
}

func TestReloader_RunStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	certFile, keyFile := writePair(t, dir, "run", now.Add(-time.Hour), now.Add(90*24*time.Hour))

	r, err := NewReloader(certFile, keyFile, 10*time.Millisecond, quietLogger())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSetup(t *testing.T) {
	reloader, tlsConfig, err := Setup(config.TLSConfig{}, quietLogger())
	if err != nil || reloader != nil || tlsConfig != nil {
		t.Errorf("disabled Setup() = %v, %v, %v; want all nil", reloader, tlsConfig, err)
	}

	dir := t.TempDir()
	now := time.Now()
	certFile, keyFile := writePair(t, dir, "setup", now.Add(-time.Hour), now.Add(90*24*time.Hour))

	reloader, tlsConfig, err = Setup(config.TLSConfig{
		Enabled:        true,
		CertFile:       certFile,
		KeyFile:        keyFile,
		MinVersion:     "1.2",
		ReloadInterval: time.Minute,
	}, quietLogger())
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if reloader == nil || tlsConfig.MinVersion != tls.VersionTLS12 || tlsConfig.GetCertificate == nil {
		t.Errorf("unexpected Setup() result: %+v", tlsConfig)
	}

	if _, _, err := Setup(config.TLSConfig{Enabled: true, CertFile: filepath.Join(dir, "missing"), KeyFile: keyFile}, quietLogger()); err == nil {
		t.Error("expected error for missing certificate")
	}
}

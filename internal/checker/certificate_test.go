package checker

import (
	"context"
	"crypto/x509"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// startTLSServer returns a local TLS server plus a dialer that routes
// any address to it, and a cert pool trusting its certificate. The
// server certificate is valid for "example.com".
func startTLSServer(t *testing.T) (dial func(ctx context.Context, network, addr string) (net.Conn, error), pool *x509.CertPool) {
	t.Helper()
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	pool = x509.NewCertPool()
	pool.AddCert(srv.Certificate())

	addr := srv.Listener.Addr().String()
	dial = func(ctx context.Context, network, _ string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, network, addr)
	}
	return dial, pool
}

func TestCertificateCheckerValid(t *testing.T) {
	dial, pool := startTLSServer(t)

	chk := &CertificateChecker{
		Timeout:     5 * time.Second,
		RootCAs:     pool,
		DialContext: dial,
	}
	res := chk.Check(context.Background(), "example.com")
	if res.Status != StatusOK {
		t.Fatalf("status = %q, error = %q", res.Status, res.Error)
	}
	cert := res.Certificate
	if !cert.Valid {
		t.Error("expected valid certificate")
	}
	if cert.ExpiryDate.IsZero() {
		t.Error("expected expiry date")
	}
	if cert.DaysUntilExpiry <= 0 {
		t.Errorf("days until expiry = %d, want > 0", cert.DaysUntilExpiry)
	}
}

func TestCertificateCheckerUntrusted(t *testing.T) {
	dial, _ := startTLSServer(t)

	// Empty pool: the server certificate chains to nothing.
	chk := &CertificateChecker{
		Timeout:     5 * time.Second,
		RootCAs:     x509.NewCertPool(),
		DialContext: dial,
	}
	res := chk.Check(context.Background(), "example.com")
	if res.Status != StatusError {
		t.Fatal("expected error status for untrusted certificate")
	}
	cert := res.Certificate
	if cert.Valid {
		t.Error("certificate must not be reported valid")
	}
	// The unverified retry should still describe the leaf.
	if cert.ExpiryDate.IsZero() {
		t.Error("expected leaf facts from unverified handshake")
	}
	if !cert.SelfSigned {
		t.Error("httptest certificate is self-signed; expected flag set")
	}
}

func TestCertificateCheckerConnectionRefused(t *testing.T) {
	chk := &CertificateChecker{
		Timeout: 2 * time.Second,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return nil, &net.OpError{Op: "dial", Err: context.DeadlineExceeded}
		},
	}
	res := chk.Check(context.Background(), "unreachable.example")
	if res.Status != StatusError {
		t.Fatal("expected error status")
	}
	if res.Certificate.Valid {
		t.Error("expected invalid certificate on dial failure")
	}
	if res.Error == "" {
		t.Error("expected error message")
	}
}

func TestNameString(t *testing.T) {
	if got := nameString([]string{"Acme Co"}, "acme.example"); got != "Acme Co" {
		t.Errorf("got %q, want organization", got)
	}
	if got := nameString(nil, "acme.example"); got != "acme.example" {
		t.Errorf("got %q, want common name fallback", got)
	}
}

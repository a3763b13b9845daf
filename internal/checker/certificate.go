package checker

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"time"
)

// CertificateChecker validates the TLS certificate presented on the
// target's HTTPS port. The handshake uses full chain verification; when
// verification fails a second, unverified handshake is attempted so the
// result can still describe the leaf certificate (issuer, expiry,
// self-signed).
type CertificateChecker struct {
	Port    int
	Timeout time.Duration

	// RootCAs overrides the system trust store. Nil means system roots.
	RootCAs *x509.CertPool

	// DialContext overrides the raw TCP dial for tests.
	DialContext func(ctx context.Context, network, addr string) (net.Conn, error)
}

// NewCertificateChecker returns a checker against port 443 with the
// given handshake timeout.
func NewCertificateChecker(timeout time.Duration) *CertificateChecker {
	return &CertificateChecker{Port: 443, Timeout: timeout}
}

func (c *CertificateChecker) Name() string { return "certificate" }

func (c *CertificateChecker) Check(ctx context.Context, domain string) CheckResult {
	result := newResult(domain)
	result.Certificate = &CertificateResult{}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addr := HostPort(domain, c.Port)

	leaf, err := c.handshake(ctx, addr, domain, false)
	if err == nil {
		c.describe(result.Certificate, leaf, true)
		return result
	}
	verifyErr := err

	// Verification failed. Probe again without verification so the
	// result still carries the leaf facts.
	if leaf, insecureErr := c.handshake(ctx, addr, domain, true); insecureErr == nil {
		c.describe(result.Certificate, leaf, false)
	}
	result.fail(Classify(verifyErr))
	return result
}

// handshake dials addr, completes a TLS handshake, and returns the leaf
// certificate. insecure skips chain verification.
func (c *CertificateChecker) handshake(ctx context.Context, addr, serverName string, insecure bool) (*x509.Certificate, error) {
	cfg := &tls.Config{
		ServerName:         serverName,
		RootCAs:            c.RootCAs,
		InsecureSkipVerify: insecure,
	}

	if c.DialContext != nil {
		raw, err := c.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, err
		}
		conn := tls.Client(raw, cfg)
		if err := conn.HandshakeContext(ctx); err != nil {
			raw.Close()
			return nil, err
		}
		defer conn.Close()
		return leafCert(conn.ConnectionState())
	}

	dialer := &tls.Dialer{NetDialer: &net.Dialer{}, Config: cfg}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return leafCert(conn.(*tls.Conn).ConnectionState())
}

func leafCert(state tls.ConnectionState) (*x509.Certificate, error) {
	if len(state.PeerCertificates) == 0 {
		return nil, Protocolf("server presented no certificate")
	}
	return state.PeerCertificates[0], nil
}

// describe fills the result from the leaf certificate.
func (c *CertificateChecker) describe(out *CertificateResult, leaf *x509.Certificate, valid bool) {
	out.Valid = valid
	out.Issuer = nameString(leaf.Issuer.Organization, leaf.Issuer.CommonName)
	out.Subject = nameString(leaf.Subject.Organization, leaf.Subject.CommonName)
	out.ExpiryDate = leaf.NotAfter
	out.DaysUntilExpiry = int(time.Until(leaf.NotAfter).Hours() / 24)
	out.SelfSigned = leaf.Issuer.String() == leaf.Subject.String()
}

// nameString prefers the organization, falling back to the common name.
func nameString(orgs []string, cn string) string {
	if len(orgs) > 0 && orgs[0] != "" {
		return orgs[0]
	}
	return cn
}

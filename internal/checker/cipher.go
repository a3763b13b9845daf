package checker

import (
	"context"
	"crypto/tls"
	"net"
	"strings"
	"time"
)

// probeVersions is ordered highest first so the first successful
// handshake names the best protocol the server speaks.
var probeVersions = []uint16{
	tls.VersionTLS13,
	tls.VersionTLS12,
	tls.VersionTLS11,
	tls.VersionTLS10,
}

// weakIndicators flag a negotiated cipher as weak when its uppercase
// name contains any of them.
var weakIndicators = []string{"RC4", "3DES", "DES", "MD5", "NULL", "EXPORT", "ANON"}

// CipherChecker enumerates the TLS protocol versions and cipher suites a
// server will negotiate. Each version is probed with a pinned
// Min/MaxVersion handshake; certificate verification is skipped because
// this probe measures the cryptographic envelope, not trust.
type CipherChecker struct {
	Port    int
	Timeout time.Duration

	// DialContext overrides the raw TCP dial for tests.
	DialContext func(ctx context.Context, network, addr string) (net.Conn, error)
}

// NewCipherChecker returns a checker against port 443 with the given
// per-handshake timeout.
func NewCipherChecker(timeout time.Duration) *CipherChecker {
	return &CipherChecker{Port: 443, Timeout: timeout}
}

func (c *CipherChecker) Name() string { return "cipher" }

func (c *CipherChecker) Check(ctx context.Context, domain string) CheckResult {
	result := newResult(domain)
	cipher := &CipherResult{}
	result.Cipher = cipher

	addr := HostPort(domain, c.Port)
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	seen := make(map[string]bool)
	var lastErr error
	for _, version := range probeVersions {
		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		name, err := c.probe(probeCtx, addr, domain, version)
		cancel()
		if err != nil {
			lastErr = err
			continue
		}
		if cipher.ProtocolVersion == "" {
			cipher.ProtocolVersion = tls.VersionName(version)
		}
		if !seen[name] {
			seen[name] = true
			cipher.SupportedCiphers = append(cipher.SupportedCiphers, name)
		}
	}

	for _, name := range cipher.SupportedCiphers {
		if IsWeakCipher(name) {
			cipher.WeakCiphersFound = append(cipher.WeakCiphersFound, name)
		}
	}

	if cipher.ProtocolVersion == "" {
		if lastErr == nil {
			lastErr = Protocolf("no TLS handshake succeeded")
		}
		result.fail(Classify(lastErr))
	}
	return result
}

// probe completes one handshake pinned to a single protocol version and
// returns the negotiated cipher suite name.
func (c *CipherChecker) probe(ctx context.Context, addr, serverName string, version uint16) (string, error) {
	cfg := &tls.Config{
		ServerName:         serverName,
		MinVersion:         version,
		MaxVersion:         version,
		InsecureSkipVerify: true,
	}

	var conn *tls.Conn
	if c.DialContext != nil {
		raw, err := c.DialContext(ctx, "tcp", addr)
		if err != nil {
			return "", err
		}
		conn = tls.Client(raw, cfg)
		if err := conn.HandshakeContext(ctx); err != nil {
			raw.Close()
			return "", err
		}
	} else {
		dialer := &tls.Dialer{Config: cfg}
		netConn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return "", err
		}
		conn = netConn.(*tls.Conn)
	}
	defer conn.Close()

	return tls.CipherSuiteName(conn.ConnectionState().CipherSuite), nil
}

// IsWeakCipher reports whether a cipher suite name contains a known-weak
// algorithm indicator.
func IsWeakCipher(name string) bool {
	upper := strings.ToUpper(name)
	for _, indicator := range weakIndicators {
		if strings.Contains(upper, indicator) {
			return true
		}
	}
	return false
}

package checker

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeDomain reduces a caller-supplied target to the bare hostname the
// probes operate on. Accepted inputs:
//
//   - example.com
//   - https://example.com:8443/path
//   - www.example.com
//   - example.com:443
//
// The scheme, port, path, leading "www.", and trailing dot are all stripped
// and the result is lowercased. An error is returned for inputs that cannot
// possibly name a public domain.
func NormalizeDomain(target string) (string, error) {
	host := strings.TrimSpace(target)
	if host == "" {
		return "", Configf("target must not be empty")
	}

	if strings.Contains(host, "://") {
		parsed, err := url.Parse(host)
		if err != nil || parsed.Hostname() == "" {
			return "", Configf("invalid target URL %q", target)
		}
		host = parsed.Hostname()
	} else {
		// Bare host, possibly with port and/or path.
		host = strings.Split(host, "/")[0]
		if idx := strings.LastIndex(host, ":"); idx > 0 && !strings.Contains(host, "]") {
			host = host[:idx]
		}
	}

	host = strings.ToLower(strings.TrimSuffix(host, "."))
	host = strings.TrimPrefix(host, "www.")

	if err := validateDomain(host); err != nil {
		return "", err
	}
	return host, nil
}

// validateDomain applies minimal shape checks: non-empty labels, at least
// one dot, no whitespace, total length within the DNS limit.
func validateDomain(host string) error {
	if host == "" || len(host) > 255 {
		return Configf("invalid domain %q", host)
	}
	if strings.ContainsAny(host, " \t") || strings.Contains(host, "..") {
		return Configf("invalid domain %q", host)
	}
	if !strings.Contains(host, ".") {
		return Configf("domain %q has no TLD", host)
	}
	return nil
}

// HostPort joins a domain with a port for dialing, defaulting to 443.
func HostPort(domain string, port int) string {
	if port <= 0 {
		port = 443
	}
	return fmt.Sprintf("%s:%d", domain, port)
}

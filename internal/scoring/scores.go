// Package scoring converts probe facts into component scores and a
// weighted composite. All component scores use a 0-100 scale internally;
// the API layer rescales cipher and DNS scores to 0.0-1.0 at the
// response boundary.
package scoring

import (
	"strings"

	"github.com/Jacksonmativo/SiteOrigin-Checker/internal/checker"
)

// DNS component weights. They sum to 100 so a fully configured domain
// scores the maximum.
const (
	dnsPointsA     = 20
	dnsPointsAAAA  = 10
	dnsPointsMX    = 15
	dnsPointsNS    = 20
	dnsPointsSPF   = 10
	dnsPointsDMARC = 15
	dnsPointsDKIM  = 10
)

// DomainAgeScore maps registration age in years to a score. Buckets are
// half-open with inclusive lower bounds, so exactly 5.0 years scores 100.
func DomainAgeScore(res *checker.DomainAgeResult) float64 {
	if res == nil || !res.AgeKnown {
		return 0
	}
	switch {
	case res.AgeYears >= 5:
		return 100
	case res.AgeYears >= 3:
		return 70
	case res.AgeYears >= 1:
		return 50
	case res.AgeYears >= 0:
		return 20
	default:
		return 0
	}
}

// CertificateScore scores a verified certificate: invalid is 0,
// expiring within 30 days is 50, otherwise 100.
func CertificateScore(res *checker.CertificateResult) float64 {
	if res == nil || !res.Valid {
		return 0
	}
	if res.DaysUntilExpiry < 30 {
		return 50
	}
	return 100
}

// CipherScore scores the observed TLS envelope. Weak ciphers cap the
// score at 50 regardless of protocol; within each branch newer protocols
// never score lower than older ones.
func CipherScore(res *checker.CipherResult) float64 {
	if res == nil {
		return 0
	}
	rank := protocolRank(res.ProtocolVersion)

	if len(res.WeakCiphersFound) > 0 {
		switch {
		case rank >= rankTLS13:
			return 50
		case rank == rankTLS12:
			return 40
		default:
			return 0
		}
	}

	switch {
	case rank >= rankTLS13:
		return 90
	case rank == rankTLS12 && hasAEAD(res.SupportedCiphers):
		return 80
	case rank == rankTLS12:
		return 70
	case rank == rankTLS11:
		return 40
	case rank == rankTLS10:
		return 30
	default:
		return 20
	}
}

// DNSScore sums fixed points for each configured record type. NXDOMAIN
// is an unconditional zero.
func DNSScore(res *checker.DNSResult) float64 {
	if res == nil || res.NXDomain {
		return 0
	}
	score := 0.0
	if len(res.ARecords) > 0 {
		score += dnsPointsA
	}
	if len(res.AAAARecords) > 0 {
		score += dnsPointsAAAA
	}
	if len(res.MXRecords) > 0 {
		score += dnsPointsMX
	}
	if len(res.NSRecords) > 0 {
		score += dnsPointsNS
	}
	if res.SPFRecord != "" {
		score += dnsPointsSPF
	}
	if res.DMARCRecord != "" {
		score += dnsPointsDMARC
	}
	if res.DKIMConfigured {
		score += dnsPointsDKIM
	}
	return score
}

// CipherStrength labels a cipher score: strong at 80 and above, medium
// at 50 and above, weak below that.
func CipherStrength(score float64) string {
	switch {
	case score >= 80:
		return "strong"
	case score >= 50:
		return "medium"
	default:
		return "weak"
	}
}

const (
	rankUnknown = iota
	rankTLS10
	rankTLS11
	rankTLS12
	rankTLS13
)

// protocolRank orders protocol version strings as produced by
// crypto/tls (e.g. "TLS 1.3").
func protocolRank(version string) int {
	switch version {
	case "TLS 1.3":
		return rankTLS13
	case "TLS 1.2":
		return rankTLS12
	case "TLS 1.1":
		return rankTLS11
	case "TLS 1.0":
		return rankTLS10
	default:
		return rankUnknown
	}
}

// hasAEAD reports whether any suite provides authenticated encryption
// (GCM or ChaCha20-Poly1305).
func hasAEAD(ciphers []string) bool {
	for _, name := range ciphers {
		upper := strings.ToUpper(name)
		if strings.Contains(upper, "GCM") || strings.Contains(upper, "CHACHA20") {
			return true
		}
	}
	return false
}

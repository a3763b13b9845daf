package scoring

import (
	"fmt"
	"strings"

	"github.com/Jacksonmativo/SiteOrigin-Checker/internal/checker"
)

// trustedIssuers are well-known CAs whose presence is worth surfacing in
// the report. Matching is substring-based on the issuer name.
var trustedIssuers = []string{
	"Let's Encrypt",
	"DigiCert",
	"GlobalSign",
	"Sectigo",
	"Comodo",
	"GoDaddy",
	"Entrust",
	"Amazon",
	"Google Trust Services",
	"Cloudflare",
}

// IsTrustedIssuer reports whether the issuer name matches a well-known CA.
func IsTrustedIssuer(issuer string) bool {
	for _, known := range trustedIssuers {
		if strings.Contains(issuer, known) {
			return true
		}
	}
	return false
}

// CipherRecommendations produces human-readable guidance from the
// observed TLS envelope.
func CipherRecommendations(res *checker.CipherResult) []string {
	if res == nil || res.ProtocolVersion == "" {
		return []string{"Could not negotiate TLS; verify the server accepts HTTPS connections"}
	}

	var recs []string
	rank := protocolRank(res.ProtocolVersion)

	for _, weak := range res.WeakCiphersFound {
		recs = append(recs, fmt.Sprintf("Disable weak cipher suite %s", weak))
	}

	switch {
	case rank >= rankTLS13 && len(res.WeakCiphersFound) == 0:
		recs = append(recs, "Excellent: Using TLS 1.3 with modern ciphers")
	case rank == rankTLS12:
		recs = append(recs, "Consider enabling TLS 1.3 for improved security and performance")
		if !hasAEAD(res.SupportedCiphers) {
			recs = append(recs, "Prefer AEAD cipher suites (AES-GCM or ChaCha20-Poly1305)")
		}
	case rank <= rankTLS11:
		recs = append(recs, fmt.Sprintf("Upgrade from %s: protocols older than TLS 1.2 are deprecated", res.ProtocolVersion))
	}
	return recs
}

// DNSRecommendations lists the missing email-security and resolution
// records for a domain.
func DNSRecommendations(res *checker.DNSResult) []string {
	if res == nil {
		return nil
	}
	if res.NXDomain {
		return []string{"Domain does not resolve; check the registration"}
	}

	var recs []string
	if len(res.ARecords) == 0 && len(res.AAAARecords) == 0 {
		recs = append(recs, "No address records found; the domain is not reachable over IP")
	} else if len(res.AAAARecords) == 0 {
		recs = append(recs, "Add AAAA records for IPv6 reachability")
	}
	if len(res.MXRecords) > 0 {
		if res.SPFRecord == "" {
			recs = append(recs, "Add an SPF record to limit who may send mail for this domain")
		}
		if res.DMARCRecord == "" {
			recs = append(recs, "Add a DMARC policy to protect against email spoofing")
		}
		if !res.DKIMConfigured {
			recs = append(recs, "Configure DKIM signing for outgoing mail")
		}
	}
	return recs
}

// OverallRecommendations summarizes the report-level guidance from the
// component scores and the certificate state.
func OverallRecommendations(s ComponentScores, age *checker.DomainAgeResult, cert *checker.CertificateResult) []string {
	var recs []string

	if age != nil && age.AgeKnown && age.AgeYears < 1 {
		recs = append(recs, "Domain is less than a year old; newly registered domains warrant extra caution")
	}

	switch {
	case cert == nil || !cert.Valid:
		recs = append(recs, "Install a valid TLS certificate from a trusted authority")
	case cert.DaysUntilExpiry < 30:
		recs = append(recs, fmt.Sprintf("Certificate expires in %d days; renew it soon", cert.DaysUntilExpiry))
	case IsTrustedIssuer(cert.Issuer):
		recs = append(recs, fmt.Sprintf("Certificate issued by well-known authority %s", cert.Issuer))
	}

	if s.Cipher < 50 {
		recs = append(recs, "TLS configuration is weak; modernize the cipher and protocol settings")
	}
	return recs
}

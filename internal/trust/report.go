// Package trust orchestrates the four probes and assembles the
// flat trust report returned to callers.
package trust

import (
	"time"

	"github.com/Jacksonmativo/SiteOrigin-Checker/internal/checker"
	"github.com/Jacksonmativo/SiteOrigin-Checker/internal/scoring"
)

// Report is the full trust assessment for one domain. Cipher and DNS
// scores are exposed on a 0.0-1.0 scale; the composite Score and the
// per-component ScoreDetails stay on 0-100.
type Report struct {
	Domain string `json:"domain"`

	DomainAgeYears float64 `json:"domain_age_years"`
	Registrar      string  `json:"registrar,omitempty"`
	CreationDate   string  `json:"creation_date,omitempty"`

	SSLValid         bool   `json:"ssl_valid"`
	SSLIssuer        string `json:"ssl_issuer,omitempty"`
	SSLExpiry        string `json:"ssl_expiry,omitempty"`
	SSLDaysRemaining int    `json:"ssl_days_remaining"`

	CipherScore           float64  `json:"cipher_score"`
	CipherStrength        string   `json:"cipher_strength"`
	ProtocolVersion       string   `json:"protocol_version,omitempty"`
	SupportedCiphers      []string `json:"supported_ciphers,omitempty"`
	WeakCiphersFound      []string `json:"weak_ciphers_found,omitempty"`
	CipherRecommendations []string `json:"cipher_recommendations,omitempty"`

	DNSScore           float64            `json:"dns_score"`
	DNSReliability     string             `json:"dns_reliability"`
	ARecords           []string           `json:"a_records,omitempty"`
	AAAARecords        []string           `json:"aaaa_records,omitempty"`
	MXRecords          []checker.MXRecord `json:"mx_records,omitempty"`
	NSRecords          []string           `json:"ns_records,omitempty"`
	SPFRecord          string             `json:"spf_record,omitempty"`
	DMARCRecord        string             `json:"dmarc_record,omitempty"`
	DKIMConfigured     bool               `json:"dkim_configured"`
	DNSRecommendations []string           `json:"dns_recommendations,omitempty"`

	Score           float64      `json:"score"`
	TrustLevel      string       `json:"trust_level"`
	ScoreDetails    ScoreDetails `json:"score_details"`
	Recommendations []string     `json:"recommendations,omitempty"`

	// Errors maps probe name to failure message for probes that could
	// not gather their signal. Those components score zero.
	Errors map[string]string `json:"errors,omitempty"`

	CheckedAt time.Time `json:"checked_at"`
}

// ScoreDetails exposes the 0-100 component scores and the weights that
// produced the composite.
type ScoreDetails struct {
	DomainAgeScore   float64 `json:"domain_age_score"`
	CertificateScore float64 `json:"certificate_score"`
	CipherScore      float64 `json:"cipher_score"`
	DNSScore         float64 `json:"dns_score"`

	WeightDomainAge   float64 `json:"weight_domain_age"`
	WeightCertificate float64 `json:"weight_certificate"`
	WeightCipher      float64 `json:"weight_cipher"`
	WeightDNS         float64 `json:"weight_dns"`
}

// assemble flattens the probe results and scores into a Report.
func assemble(domain string, weights scoring.Weights, results map[string]checker.CheckResult) *Report {
	var (
		age    *checker.DomainAgeResult
		cert   *checker.CertificateResult
		cipher *checker.CipherResult
		dnsRes *checker.DNSResult
	)
	errs := make(map[string]string)
	for name, res := range results {
		if res.Status == checker.StatusError && res.Error != "" {
			errs[name] = res.Error
		}
		if res.DomainAge != nil {
			age = res.DomainAge
		}
		if res.Certificate != nil {
			cert = res.Certificate
		}
		if res.Cipher != nil {
			cipher = res.Cipher
		}
		if res.DNS != nil {
			dnsRes = res.DNS
		}
	}

	scores := scoring.Score(age, cert, cipher, dnsRes)
	composite := weights.Aggregate(scores)

	report := &Report{
		Domain:     domain,
		Score:      composite,
		TrustLevel: scoring.TrustLevel(composite),
		ScoreDetails: ScoreDetails{
			DomainAgeScore:    scores.DomainAge,
			CertificateScore:  scores.Certificate,
			CipherScore:       scores.Cipher,
			DNSScore:          scores.DNS,
			WeightDomainAge:   weights.DomainAge,
			WeightCertificate: weights.Certificate,
			WeightCipher:      weights.Cipher,
			WeightDNS:         weights.DNS,
		},
		CipherScore:     scores.Cipher / 100,
		CipherStrength:  scoring.CipherStrength(scores.Cipher),
		DNSScore:        scores.DNS / 100,
		DNSReliability:  dnsReliability(scores.DNS),
		Recommendations: scoring.OverallRecommendations(scores, age, cert),
		CheckedAt:       time.Now().UTC(),
	}
	if len(errs) > 0 {
		report.Errors = errs
	}

	if age != nil && age.AgeKnown {
		report.DomainAgeYears = age.AgeYears
		report.Registrar = age.Registrar
		if !age.CreationDate.IsZero() {
			report.CreationDate = age.CreationDate.Format("2006-01-02")
		}
	}

	if cert != nil {
		report.SSLValid = cert.Valid
		report.SSLIssuer = cert.Issuer
		report.SSLDaysRemaining = cert.DaysUntilExpiry
		if !cert.ExpiryDate.IsZero() {
			report.SSLExpiry = cert.ExpiryDate.Format(time.RFC3339)
		}
	}

	if cipher != nil {
		report.ProtocolVersion = cipher.ProtocolVersion
		report.SupportedCiphers = cipher.SupportedCiphers
		report.WeakCiphersFound = cipher.WeakCiphersFound
	}
	report.CipherRecommendations = scoring.CipherRecommendations(cipher)

	if dnsRes != nil {
		report.ARecords = dnsRes.ARecords
		report.AAAARecords = dnsRes.AAAARecords
		report.MXRecords = dnsRes.MXRecords
		report.NSRecords = dnsRes.NSRecords
		report.SPFRecord = dnsRes.SPFRecord
		report.DMARCRecord = dnsRes.DMARCRecord
		report.DKIMConfigured = dnsRes.DKIMConfigured
		report.DNSRecommendations = scoring.DNSRecommendations(dnsRes)
	}

	return report
}

// dnsReliability labels the DNS sub-score the same way the composite is
// labeled.
func dnsReliability(score float64) string {
	switch {
	case score >= 80:
		return "high"
	case score >= 50:
		return "medium"
	default:
		return "low"
	}
}

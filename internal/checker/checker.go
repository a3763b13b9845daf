package checker

import (
	"context"
	"time"
)

// Status values for CheckResult.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// CheckResult represents the outcome of a single trust-signal probe.
// Exactly one of the typed payloads is non-nil, matching the probe that
// produced the result. Error is set (and Status is "error") when the probe
// could not gather its signal; the payload may still be non-nil with
// partial facts.
type CheckResult struct {
	Domain    string    `json:"domain"`
	CheckedAt time.Time `json:"checked_at"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`

	DomainAge   *DomainAgeResult   `json:"domain_age,omitempty"`
	Certificate *CertificateResult `json:"certificate,omitempty"`
	Cipher      *CipherResult      `json:"cipher,omitempty"`
	DNS         *DNSResult         `json:"dns,omitempty"`
}

// DomainAgeResult holds WHOIS/RDAP registration facts for a domain.
type DomainAgeResult struct {
	AgeKnown     bool      `json:"age_known"`
	AgeYears     float64   `json:"age_years"`
	CreationDate time.Time `json:"creation_date,omitzero"`
	Registrar    string    `json:"registrar,omitempty"`
}

// CertificateResult holds the outcome of a verified TLS handshake.
type CertificateResult struct {
	Valid           bool      `json:"valid"`
	Issuer          string    `json:"issuer,omitempty"`
	Subject         string    `json:"subject,omitempty"`
	ExpiryDate      time.Time `json:"expiry_date,omitzero"`
	DaysUntilExpiry int       `json:"days_until_expiry"`
	SelfSigned      bool      `json:"self_signed,omitempty"`
}

// CipherResult holds the protocol/cipher envelope observed for a domain.
// SupportedCiphers preserves discovery order (highest protocol first).
type CipherResult struct {
	ProtocolVersion  string   `json:"protocol_version,omitempty"`
	SupportedCiphers []string `json:"supported_ciphers,omitempty"`
	WeakCiphersFound []string `json:"weak_ciphers_found,omitempty"`
}

// MXRecord is a single mail exchanger entry, lowest priority first.
type MXRecord struct {
	Priority int    `json:"priority"`
	Host     string `json:"host"`
}

// DNSResult holds the record sets and email-security posture for a domain.
type DNSResult struct {
	NXDomain       bool       `json:"nxdomain,omitempty"`
	ARecords       []string   `json:"a_records,omitempty"`
	AAAARecords    []string   `json:"aaaa_records,omitempty"`
	MXRecords      []MXRecord `json:"mx_records,omitempty"`
	NSRecords      []string   `json:"ns_records,omitempty"`
	TXTRecords     []string   `json:"txt_records,omitempty"`
	SPFRecord      string     `json:"spf_record,omitempty"`
	DMARCRecord    string     `json:"dmarc_record,omitempty"`
	DKIMConfigured bool       `json:"dkim_configured"`
}

// Checker is the interface every trust-signal probe satisfies.
type Checker interface {
	// Check probes a single bare domain. It never returns a Go error;
	// failures are reported on the CheckResult.
	Check(ctx context.Context, domain string) CheckResult

	// Name identifies the probe (e.g. "domain-age", "dns").
	Name() string
}

// newResult initializes a CheckResult stamped with the probe time.
func newResult(domain string) CheckResult {
	return CheckResult{
		Domain:    domain,
		CheckedAt: time.Now().UTC(),
		Status:    StatusOK,
	}
}

// fail marks the result as failed with the classified error attached.
func (r *CheckResult) fail(err error) {
	r.Status = StatusError
	r.Error = err.Error()
}

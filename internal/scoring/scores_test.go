package scoring

import (
	"testing"

	"github.com/Jacksonmativo/SiteOrigin-Checker/internal/checker"
)

func TestDomainAgeScoreBuckets(t *testing.T) {
	tests := []struct {
		name  string
		years float64
		want  float64
	}{
		{name: "well established", years: 7.5, want: 100},
		{name: "exactly five years", years: 5.0, want: 100},
		{name: "just under five", years: 4.99, want: 70},
		{name: "exactly three years", years: 3.0, want: 70},
		{name: "just under three", years: 2.99, want: 50},
		{name: "exactly one year", years: 1.0, want: 50},
		{name: "just under one", years: 0.99, want: 20},
		{name: "brand new", years: 0, want: 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := &checker.DomainAgeResult{AgeKnown: true, AgeYears: tt.years}
			if got := DomainAgeScore(res); got != tt.want {
				t.Errorf("DomainAgeScore(%v years) = %v, want %v", tt.years, got, tt.want)
			}
		})
	}
}

func TestDomainAgeScoreUnknown(t *testing.T) {
	if got := DomainAgeScore(nil); got != 0 {
		t.Errorf("nil result = %v, want 0", got)
	}
	if got := DomainAgeScore(&checker.DomainAgeResult{AgeKnown: false}); got != 0 {
		t.Errorf("unknown age = %v, want 0", got)
	}
}

func TestCertificateScore(t *testing.T) {
	tests := []struct {
		name string
		res  *checker.CertificateResult
		want float64
	}{
		{name: "nil", res: nil, want: 0},
		{name: "invalid", res: &checker.CertificateResult{Valid: false, DaysUntilExpiry: 300}, want: 0},
		{name: "expiring soon", res: &checker.CertificateResult{Valid: true, DaysUntilExpiry: 29}, want: 50},
		{name: "exactly thirty days", res: &checker.CertificateResult{Valid: true, DaysUntilExpiry: 30}, want: 100},
		{name: "healthy", res: &checker.CertificateResult{Valid: true, DaysUntilExpiry: 300}, want: 100},
		{name: "already expired", res: &checker.CertificateResult{Valid: true, DaysUntilExpiry: -10}, want: 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CertificateScore(tt.res); got != tt.want {
				t.Errorf("CertificateScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCipherScore(t *testing.T) {
	tests := []struct {
		name string
		res  *checker.CipherResult
		want float64
	}{
		{name: "nil result", res: nil, want: 0},
		{
			name: "tls13 modern",
			res: &checker.CipherResult{
				ProtocolVersion:  "TLS 1.3",
				SupportedCiphers: []string{"TLS_AES_128_GCM_SHA256"},
			},
			want: 90,
		},
		{
			name: "tls12 aead",
			res: &checker.CipherResult{
				ProtocolVersion:  "TLS 1.2",
				SupportedCiphers: []string{"TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384"},
			},
			want: 80,
		},
		{
			name: "tls12 cbc only",
			res: &checker.CipherResult{
				ProtocolVersion:  "TLS 1.2",
				SupportedCiphers: []string{"TLS_ECDHE_RSA_WITH_AES_128_CBC_SHA"},
			},
			want: 70,
		},
		{
			name: "tls11",
			res:  &checker.CipherResult{ProtocolVersion: "TLS 1.1", SupportedCiphers: []string{"TLS_RSA_WITH_AES_128_CBC_SHA"}},
			want: 40,
		},
		{
			name: "tls10",
			res:  &checker.CipherResult{ProtocolVersion: "TLS 1.0", SupportedCiphers: []string{"TLS_RSA_WITH_AES_128_CBC_SHA"}},
			want: 30,
		},
		{name: "unknown protocol", res: &checker.CipherResult{}, want: 20},
		{
			name: "tls13 with weak cipher capped",
			res: &checker.CipherResult{
				ProtocolVersion:  "TLS 1.3",
				SupportedCiphers: []string{"TLS_AES_128_GCM_SHA256", "TLS_RSA_WITH_RC4_128_SHA"},
				WeakCiphersFound: []string{"TLS_RSA_WITH_RC4_128_SHA"},
			},
			want: 50,
		},
		{
			name: "tls12 with weak cipher",
			res: &checker.CipherResult{
				ProtocolVersion:  "TLS 1.2",
				SupportedCiphers: []string{"TLS_RSA_WITH_3DES_EDE_CBC_SHA"},
				WeakCiphersFound: []string{"TLS_RSA_WITH_3DES_EDE_CBC_SHA"},
			},
			want: 40,
		},
		{
			name: "tls10 with rc4",
			res: &checker.CipherResult{
				ProtocolVersion:  "TLS 1.0",
				SupportedCiphers: []string{"TLS_RSA_WITH_RC4_128_SHA"},
				WeakCiphersFound: []string{"TLS_RSA_WITH_RC4_128_SHA"},
			},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CipherScore(tt.res)
			if got != tt.want {
				t.Errorf("CipherScore = %v, want %v", got, tt.want)
			}
			if got < 0 || got > 100 {
				t.Errorf("CipherScore = %v outside [0, 100]", got)
			}
		})
	}
}

// TestCipherScoreWeakCap verifies that any weak cipher caps the score at
// 50 no matter the protocol.
func TestCipherScoreWeakCap(t *testing.T) {
	for _, version := range []string{"TLS 1.3", "TLS 1.2", "TLS 1.1", "TLS 1.0", ""} {
		res := &checker.CipherResult{
			ProtocolVersion:  version,
			WeakCiphersFound: []string{"TLS_RSA_WITH_RC4_128_SHA"},
		}
		if got := CipherScore(res); got > 50 {
			t.Errorf("weak cipher on %q scored %v, want <= 50", version, got)
		}
	}
}

// TestCipherScoreMonotonic verifies that within each weak/no-weak branch
// a higher protocol version never scores lower.
func TestCipherScoreMonotonic(t *testing.T) {
	versions := []string{"", "TLS 1.0", "TLS 1.1", "TLS 1.2", "TLS 1.3"}
	for _, weak := range []bool{false, true} {
		prev := -1.0
		for _, version := range versions {
			res := &checker.CipherResult{ProtocolVersion: version}
			if weak {
				res.WeakCiphersFound = []string{"TLS_RSA_WITH_RC4_128_SHA"}
			}
			got := CipherScore(res)
			if got < prev {
				t.Errorf("score decreased at %q (weak=%v): %v < %v", version, weak, got, prev)
			}
			prev = got
		}
	}
}

func TestDNSScoreAdditive(t *testing.T) {
	full := &checker.DNSResult{
		ARecords:       []string{"1.2.3.4"},
		AAAARecords:    []string{"::1"},
		MXRecords:      []checker.MXRecord{{Priority: 10, Host: "mx.example.com"}},
		NSRecords:      []string{"ns1.example.com"},
		SPFRecord:      "v=spf1 -all",
		DMARCRecord:    "v=DMARC1; p=reject",
		DKIMConfigured: true,
	}
	if got := DNSScore(full); got != 100 {
		t.Errorf("full zone = %v, want 100", got)
	}

	aAndNS := &checker.DNSResult{
		ARecords:  []string{"1.2.3.4"},
		NSRecords: []string{"ns1.example.com"},
	}
	if got := DNSScore(aAndNS); got != 40 {
		t.Errorf("A+NS = %v, want 40", got)
	}

	if got := DNSScore(&checker.DNSResult{NXDomain: true, ARecords: []string{"1.2.3.4"}}); got != 0 {
		t.Errorf("NXDOMAIN = %v, want 0", got)
	}
	if got := DNSScore(nil); got != 0 {
		t.Errorf("nil = %v, want 0", got)
	}
}

func TestCipherStrength(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{score: 95, want: "strong"},
		{score: 80, want: "strong"},
		{score: 79.9, want: "medium"},
		{score: 50, want: "medium"},
		{score: 49.9, want: "weak"},
		{score: 0, want: "weak"},
	}
	for _, tt := range tests {
		if got := CipherStrength(tt.score); got != tt.want {
			t.Errorf("CipherStrength(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

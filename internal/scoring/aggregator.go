package scoring

import (
	"math"

	"github.com/Jacksonmativo/SiteOrigin-Checker/internal/checker"
)

// Trust levels derived from the composite score.
const (
	TrustHigh   = "high"
	TrustMedium = "medium"
	TrustLow    = "low"
)

// Weights distributes the composite score across the four components.
// They must each lie in [0, 1] and sum to exactly 1.
type Weights struct {
	DomainAge   float64
	Certificate float64
	Cipher      float64
	DNS         float64
}

// DefaultWeights is the standard distribution: registration age carries
// the most signal, followed by certificate validity, then the TLS
// envelope and DNS posture equally.
func DefaultWeights() Weights {
	return Weights{
		DomainAge:   0.35,
		Certificate: 0.25,
		Cipher:      0.20,
		DNS:         0.20,
	}
}

// Validate rejects weights that fall outside [0, 1] or do not sum to 1.
// A small epsilon absorbs float formatting noise from config files.
func (w Weights) Validate() error {
	for _, v := range []float64{w.DomainAge, w.Certificate, w.Cipher, w.DNS} {
		if v < 0 || v > 1 {
			return checker.Configf("score weight %v outside [0, 1]", v)
		}
	}
	sum := w.DomainAge + w.Certificate + w.Cipher + w.DNS
	if math.Abs(sum-1.0) > 1e-9 {
		return checker.Configf("score weights sum to %v, want 1.0", sum)
	}
	return nil
}

// ComponentScores holds the four per-signal scores on the 0-100 scale.
type ComponentScores struct {
	DomainAge   float64
	Certificate float64
	Cipher      float64
	DNS         float64
}

// Score computes all component scores from the probe payloads. A nil
// payload (probe failed before producing facts) scores zero for that
// component.
func Score(age *checker.DomainAgeResult, cert *checker.CertificateResult, cipher *checker.CipherResult, dns *checker.DNSResult) ComponentScores {
	return ComponentScores{
		DomainAge:   DomainAgeScore(age),
		Certificate: CertificateScore(cert),
		Cipher:      CipherScore(cipher),
		DNS:         DNSScore(dns),
	}
}

// Aggregate folds the component scores into a weighted composite,
// rounded to one decimal place.
func (w Weights) Aggregate(s ComponentScores) float64 {
	composite := s.DomainAge*w.DomainAge +
		s.Certificate*w.Certificate +
		s.Cipher*w.Cipher +
		s.DNS*w.DNS
	return math.Round(composite*10) / 10
}

// TrustLevel maps a composite score to a trust label: high at 80 and
// above, medium at 60 and above, low below that.
func TrustLevel(composite float64) string {
	switch {
	case composite >= 80:
		return TrustHigh
	case composite >= 60:
		return TrustMedium
	default:
		return TrustLow
	}
}

package trust

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Jacksonmativo/SiteOrigin-Checker/internal/checker"
	"github.com/Jacksonmativo/SiteOrigin-Checker/internal/scoring"
)

// Service runs the four trust probes against a domain and aggregates
// their results into a Report. It is safe for concurrent use.
type Service struct {
	checkers     []checker.Checker
	weights      scoring.Weights
	checkTimeout time.Duration
	logger       *zap.Logger
}

// Options configures a Service. Zero-value fields fall back to
// defaults; Checkers is required.
type Options struct {
	Checkers []checker.Checker
	Weights  scoring.Weights

	// CheckTimeout bounds each individual probe. Default 10s.
	CheckTimeout time.Duration

	Logger *zap.Logger
}

// New validates the weights and builds a Service. An invalid weight
// configuration is a deployment error and is rejected up front rather
// than silently miscomputing every score.
func New(opts Options) (*Service, error) {
	if opts.Weights == (scoring.Weights{}) {
		opts.Weights = scoring.DefaultWeights()
	}
	if err := opts.Weights.Validate(); err != nil {
		return nil, err
	}
	if len(opts.Checkers) == 0 {
		return nil, checker.Configf("at least one checker is required")
	}
	if opts.CheckTimeout <= 0 {
		opts.CheckTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{
		checkers:     opts.Checkers,
		weights:      opts.Weights,
		checkTimeout: opts.CheckTimeout,
		logger:       opts.Logger,
	}, nil
}

// NewDefault builds a Service with the standard four probes and default
// weights.
func NewDefault(logger *zap.Logger) (*Service, error) {
	timeout := 10 * time.Second
	return New(Options{
		Checkers: []checker.Checker{
			checker.NewDomainAgeChecker(timeout),
			checker.NewCertificateChecker(timeout),
			checker.NewCipherChecker(5 * time.Second),
			checker.NewDNSChecker(5 * time.Second),
		},
		Logger: logger,
	})
}

// Weights returns the configured score weights.
func (s *Service) Weights() scoring.Weights { return s.weights }

// CheckDomain normalizes the target and runs every probe concurrently,
// joining on all of them before aggregating. A probe failure degrades
// its component score to zero; it never aborts the other probes or the
// report. The only error return is an unusable target.
func (s *Service) CheckDomain(ctx context.Context, target string) (*Report, error) {
	domain, err := checker.NormalizeDomain(target)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	results := make(map[string]checker.CheckResult, len(s.checkers))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, c := range s.checkers {
		wg.Add(1)
		go func(c checker.Checker) {
			defer wg.Done()
			probeCtx, cancel := context.WithTimeout(ctx, s.checkTimeout)
			defer cancel()

			res := c.Check(probeCtx, domain)
			if res.Status == checker.StatusError {
				s.logger.Debug("probe failed",
					zap.String("checker", c.Name()),
					zap.String("domain", domain),
					zap.String("error", res.Error))
			}
			mu.Lock()
			results[c.Name()] = res
			mu.Unlock()
		}(c)
	}
	wg.Wait()

	report := assemble(domain, s.weights, results)
	s.logger.Info("domain checked",
		zap.String("domain", domain),
		zap.Float64("score", report.Score),
		zap.String("trust_level", report.TrustLevel),
		zap.Duration("duration", time.Since(start)))
	return report, nil
}

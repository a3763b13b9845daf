package trust

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// BatchEntry is the outcome of one domain in a batch run. Err is set
// only for targets that could not be normalized; probe failures are
// reported inside the Report itself.
type BatchEntry struct {
	Target string  `json:"target"`
	Report *Report `json:"report,omitempty"`
	Err    string  `json:"error,omitempty"`
}

// Runner executes full trust checks against multiple targets using a
// worker pool with a global rate limit. Each target's probe pipeline is
// independent of every other target's.
type Runner struct {
	Concurrency int // Maximum number of concurrent domains
	RateLimit   int // Domains started per second (global)
}

// RunBatch checks every target with the service's default batch
// settings (3 concurrent domains, 3 started per second).
func (s *Service) RunBatch(ctx context.Context, targets []string) []BatchEntry {
	r := Runner{Concurrency: 3, RateLimit: 3}
	return r.Run(ctx, targets, s)
}

// Run checks every target and returns entries in input order.
func (r *Runner) Run(ctx context.Context, targets []string, svc *Service) []BatchEntry {
	concurrency := r.Concurrency
	if concurrency <= 0 {
		concurrency = 3
	}
	rps := r.RateLimit
	if rps <= 0 {
		rps = concurrency
	}
	limiter := rate.NewLimiter(rate.Limit(rps), rps)

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	entries := make([]BatchEntry, len(targets))

	for i, target := range targets {
		wg.Add(1)
		go func(i int, target string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if err := limiter.Wait(ctx); err != nil {
				entries[i] = BatchEntry{Target: target, Err: err.Error()}
				return
			}

			report, err := svc.CheckDomain(ctx, target)
			if err != nil {
				entries[i] = BatchEntry{Target: target, Err: err.Error()}
				return
			}
			entries[i] = BatchEntry{Target: target, Report: report}
		}(i, target)
	}

	wg.Wait()
	return entries
}

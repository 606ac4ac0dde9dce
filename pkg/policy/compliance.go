package policy

import (
	"context"
	"math"
	"runtime"
	"sync"

	"github.com/terracomply/terracomply/pkg/types"
)

// Check evaluates every policy against the resource list and aggregates
// the results into a ComplianceReport. It is pure: no I/O, no logging,
// no retained state. Given the same inputs it produces identical
// reports.
//
// Policies are independent, so they are fanned out over a small worker
// pool; each task reads the shared immutable inputs and writes only its
// own result slot. Aggregation waits for every task before computing
// totals. Cancelling ctx aborts between tasks and discards partial
// results.
func Check(ctx context.Context, resources []types.Resource, policies []Definition) (*types.ComplianceReport, error) {
	results := make([]types.PolicyResult, len(policies))

	workers := runtime.GOMAXPROCS(0)
	if workers > len(policies) {
		workers = len(policies)
	}

	if workers > 1 {
		jobs := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range jobs {
					results[i] = EvaluatePolicy(policies[i], resources)
				}
			}()
		}

		cancelled := false
	feed:
		for i := range policies {
			select {
			case <-ctx.Done():
				cancelled = true
				break feed
			case jobs <- i:
			}
		}
		close(jobs)
		wg.Wait()
		if cancelled {
			return nil, ctx.Err()
		}
	} else {
		for i := range policies {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = EvaluatePolicy(policies[i], resources)
		}
	}

	passed := 0
	for _, r := range results {
		if r.Status == types.StatusPassed {
			passed++
		}
	}
	total := len(policies)

	// No policies means trivially compliant.
	score := 100.0
	if total > 0 {
		score = math.Round(float64(passed)/float64(total)*1000) / 10
		// Rounding must not fabricate full compliance: the score is
		// exactly 100 iff no policy failed.
		if passed < total && score == 100.0 {
			score = 99.9
		}
	}

	return &types.ComplianceReport{
		TotalPolicies:   total,
		PassedPolicies:  passed,
		FailedPolicies:  total - passed,
		ComplianceScore: score,
		Results:         results,
	}, nil
}

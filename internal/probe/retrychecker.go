package probe

import (
	"context"
	"time"
)

// RetryChecker re-runs the inner checker on transport failures. Failing HTTP
// statuses are returned as-is: a 404 is an answer, not a flake. This is the
// only retry layer; the crawl itself retries implicitly on its next
// scheduled run.
type RetryChecker struct {
	Inner    Checker
	Attempts int
	Backoff  time.Duration
}

func (r *RetryChecker) Check(ctx context.Context, target string) CheckResult {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var last CheckResult
	for i := 0; i < attempts; i++ {
		last = r.Inner.Check(ctx, target)
		if last.Success || last.StatusCode != 0 || last.Malformed {
			return last
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return last
			case <-time.After(r.Backoff):
			}
		}
	}
	return last
}

package probe

import "context"

// CheckResult is the raw outcome of one fetch attempt.
//
// StatusCode is 0 for transport-level failures (DNS, connect, TLS, timeout).
// Malformed marks URLs the request could not even be built from; the caller
// surfaces those with a distinct message.
type CheckResult struct {
	Success    bool
	StatusCode int
	LatencyMS  float64
	Message    string
	Malformed  bool
}

// Checker performs a single fetch of a target URL. One invocation, one
// observation: retries live in decorators, not implementations.
type Checker interface {
	Check(ctx context.Context, target string) CheckResult
}

package probe

import (
	"context"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// browserAgent is presented when the operator enables the fake-agent toggle;
// some sites serve bots a different (often failing) response than browsers.
const browserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

type HTTPChecker struct {
	Client    *http.Client
	UserAgent string
	FakeAgent bool

	// Limiter, when set, throttles outbound fetches across all workers.
	Limiter *rate.Limiter

	// maxBodyRead caps how much of the body is drained to keep connections
	// reusable without downloading entire documents.
	maxBodyRead int64
}

func NewHTTPChecker(timeout time.Duration, userAgent string, fakeAgent bool) *HTTPChecker {
	return &HTTPChecker{
		Client:      &http.Client{Timeout: timeout},
		UserAgent:   userAgent,
		FakeAgent:   fakeAgent,
		maxBodyRead: 1 << 20,
	}
}

func (h *HTTPChecker) Check(ctx context.Context, target string) CheckResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return CheckResult{Success: false, Message: err.Error(), Malformed: true}
	}
	agent := h.UserAgent
	if h.FakeAgent {
		agent = browserAgent
	}
	req.Header.Set("User-Agent", agent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en;q=0.8,*;q=0.5")

	if h.Limiter != nil {
		if err := h.Limiter.Wait(ctx); err != nil {
			return CheckResult{Success: false, Message: err.Error()}
		}
	}

	start := time.Now()
	resp, err := h.Client.Do(req)
	latency := time.Since(start).Seconds() * 1000 // ms
	if err != nil {
		return CheckResult{Success: false, Message: err.Error(), LatencyMS: latency}
	}
	defer resp.Body.Close()
	_, _ = io.CopyN(io.Discard, resp.Body, h.maxBodyRead)

	success := resp.StatusCode >= 200 && resp.StatusCode < 400
	return CheckResult{
		Success:    success,
		StatusCode: resp.StatusCode,
		LatencyMS:  latency,
		Message:    resp.Status,
	}
}

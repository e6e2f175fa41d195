package engine

import (
	"context"
	"math"
	"math/rand/v2"
	"net"
	"time"

	"github.com/cockroachdb/errors"
	"google.golang.org/api/googleapi"
)

const (
	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 8 * time.Second
)

// withRetry runs fn under the per-call timeout, retrying transient failures
// up to maxAttempts with full-jitter exponential backoff. Configuration and
// authorization failures are never retried.
func (e *Engine) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
		lastErr = fn(callCtx)
		cancel()
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt == e.maxAttempts || !transient(lastErr) {
			return lastErr
		}

		delay := jitteredDelay(attempt)
		e.log.Debugw("retrying calendar call", "attempt", attempt, "delay", delay, "err", lastErr)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

// jitteredDelay returns a random duration in [0, min(base*2^(n-1), max)].
func jitteredDelay(attempt int) time.Duration {
	base := float64(retryBaseDelay) * math.Pow(2, float64(attempt-1))
	if base > float64(retryMaxDelay) {
		base = float64(retryMaxDelay)
	}
	return time.Duration(rand.Float64() * base)
}

// transient reports whether err is worth retrying: rate limiting, server
// errors, timeouts, and network-level failures.
func transient(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == 429 || gerr.Code >= 500
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return true
	}
	return false
}

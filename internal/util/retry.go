// ABOUTME: Exponential backoff with jitter for provider API retries
// ABOUTME: Delays double per attempt up to a cap and waits stop on context cancellation
package util

import (
	"context"
	"math/rand/v2"
	"time"
)

// DefaultMaxBackoff caps a single delay when Backoff.Max is unset
const DefaultMaxBackoff = 30 * time.Second

// Backoff computes retry delays of Base * 2^attempt, capped at Max, with ±25% jitter
type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

// Delay returns the wait before the given retry attempt. Attempt 0 and a
// non-positive Base never wait.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt <= 0 || b.Base <= 0 {
		return 0
	}
	limit := b.Max
	if limit <= 0 {
		limit = DefaultMaxBackoff
	}
	// Keep the shift in range
	if attempt > 30 {
		attempt = 30
	}

	delay := b.Base << uint(attempt)
	if delay <= 0 || delay > limit {
		delay = limit
	}

	quarter := int64(delay) / 4
	if quarter == 0 {
		return delay
	}
	return delay + time.Duration(rand.Int64N(2*quarter+1)-quarter)
}

// Wait sleeps for Delay(attempt) or until ctx is done
func (b Backoff) Wait(ctx context.Context, attempt int) error {
	delay := b.Delay(attempt)
	if delay == 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

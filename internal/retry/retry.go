package retry

import (
	"context"
	"time"
)

// Policy bounds repeated attempts with a linear backoff. Attempt numbers are
// 1-based; the pause before attempt n is (n-1) units.
type Policy struct {
	MaxAttempts int
	Unit        time.Duration
}

// Delay returns the pause before the given attempt.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	return time.Duration(attempt-1) * p.Unit
}

// Wait blocks for d or until ctx is cancelled, whichever comes first. A zero
// or negative duration still reports an already-cancelled context.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package timeutil

import (
	"context"
	"math"
	"time"
)

// ExponentialBackoffDelay returns the wait before retry number attempt (1-based):
// initialDuration * multiplier^(attempt-1), capped at maxDuration.
// A non-positive maxDuration leaves the delay uncapped.
func ExponentialBackoffDelay(attempt int, param BackoffParam) time.Duration {
	if attempt < 1 || param.initialDuration <= 0 {
		return 0
	}
	multiplier := param.multiplier
	if multiplier < 1 {
		multiplier = 1
	}

	delay := float64(param.initialDuration) * math.Pow(multiplier, float64(attempt-1))
	if param.maxDuration > 0 && delay > float64(param.maxDuration) {
		return param.maxDuration
	}
	if delay > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(delay)
}

// Sleep waits for d or until ctx is done, whichever comes first.
// It returns ctx.Err() when the wait was cut short.
func Sleep(ctx context.Context, d time.Duration) error {
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

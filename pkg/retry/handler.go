package retry

import (
	"context"
	"fmt"

	"github.com/rohmanhakim/record-finder/pkg/failure"
	"github.com/rohmanhakim/record-finder/pkg/timeutil"
)

// Retry runs fn up to MaxAttempts times, waiting an exponential backoff
// between attempts. Errors that report IsRetryable() == false are returned
// as-is on the first occurrence. Exhausting every attempt yields a
// recoverable RetryError wrapping the last failure; cancelling ctx while
// waiting yields a fatal one.
func Retry[T any](
	ctx context.Context,
	retryParam RetryParam,
	fn func() (T, failure.ClassifiedError),
) (T, failure.ClassifiedError) {
	var zero T

	if retryParam.MaxAttempts < 1 {
		return zero, &RetryError{
			Message:   "max attempt cannot be 0",
			Cause:     ErrZeroAttempt,
			Retryable: false,
		}
	}

	var lastErr failure.ClassifiedError
	for attempt := 1; attempt <= retryParam.MaxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !isErrorRetryable(err) {
			return zero, err
		}
		if attempt == retryParam.MaxAttempts {
			break
		}

		delay := timeutil.ExponentialBackoffDelay(attempt, retryParam.BackoffParam)
		if sleepErr := timeutil.Sleep(ctx, delay); sleepErr != nil {
			return zero, &RetryError{
				Message:   fmt.Sprintf("stopped after %d attempts: %v", attempt, sleepErr),
				Cause:     ErrCancelled,
				Retryable: false,
				Last:      lastErr,
			}
		}
	}

	return zero, &RetryError{
		Message: fmt.Sprintf("exhausted %d attempts, last error: %v", retryParam.MaxAttempts, lastErr),
		Cause:   ErrExhaustedAttempts,
		// the caller may still move on to other work
		Retryable: true,
		Last:      lastErr,
	}
}

// isErrorRetryable defaults to true for errors that do not say otherwise.
func isErrorRetryable(err failure.ClassifiedError) bool {
	type hasRetryable interface {
		IsRetryable() bool
	}
	if r, ok := err.(hasRetryable); ok {
		return r.IsRetryable()
	}
	return true
}

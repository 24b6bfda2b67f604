package timeutil_test

import (
	"context"
	"testing"
	"time"

	"github.com/rohmanhakim/record-finder/pkg/timeutil"
	"github.com/stretchr/testify/assert"
)

func TestExponentialBackoffDelay(t *testing.T) {
	param := timeutil.NewBackoffParam(100*time.Millisecond, 2.0, time.Second)

	tests := []struct {
		name     string
		attempt  int
		expected time.Duration
	}{
		{name: "before first attempt", attempt: 0, expected: 0},
		{name: "first retry", attempt: 1, expected: 100 * time.Millisecond},
		{name: "second retry", attempt: 2, expected: 200 * time.Millisecond},
		{name: "fourth retry", attempt: 4, expected: 800 * time.Millisecond},
		{name: "capped", attempt: 5, expected: time.Second},
		{name: "far past cap", attempt: 200, expected: time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, timeutil.ExponentialBackoffDelay(tt.attempt, param))
		})
	}
}

func TestExponentialBackoffDelay_Degenerate(t *testing.T) {
	constant := timeutil.NewBackoffParam(50*time.Millisecond, 0.5, 0)
	assert.Equal(t, 50*time.Millisecond, timeutil.ExponentialBackoffDelay(3, constant))

	zero := timeutil.NewBackoffParam(0, 2, time.Second)
	assert.Zero(t, timeutil.ExponentialBackoffDelay(3, zero))
}

func TestSleep(t *testing.T) {
	assert.NoError(t, timeutil.Sleep(context.Background(), time.Millisecond))
	assert.NoError(t, timeutil.Sleep(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, timeutil.Sleep(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, timeutil.Sleep(ctx, 0), context.Canceled)
}

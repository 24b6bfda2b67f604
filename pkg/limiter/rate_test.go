package limiter_test

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/rohmanhakim/record-finder/pkg/limiter"
	"github.com/rohmanhakim/record-finder/pkg/timeutil"
)

func newLimiter(base, jitter time.Duration) *limiter.ConcurrentRateLimiter {
	return limiter.NewConcurrentRateLimiter(
		base,
		jitter,
		timeutil.NewBackoffParam(time.Second, 2, 30*time.Second),
	)
}

func TestResolveDelay_UnknownHost(t *testing.T) {
	rl := newLimiter(time.Hour, 0)

	if got := rl.ResolveDelay("shop.example.com"); got != 0 {
		t.Errorf("ResolveDelay() = %v, want 0", got)
	}
}

func TestResolveDelay_BackoffWithoutFetch(t *testing.T) {
	rl := newLimiter(time.Hour, 0)
	rl.Backoff("shop.example.com")

	if got := rl.ResolveDelay("shop.example.com"); got != 0 {
		t.Errorf("ResolveDelay() = %v, want 0 before the first fetch", got)
	}
}

func TestResolveDelay_BaseDelay(t *testing.T) {
	rl := newLimiter(time.Hour, 0)
	rl.MarkLastFetchAsNow("shop.example.com")

	got := rl.ResolveDelay("shop.example.com")
	if got <= 59*time.Minute || got > time.Hour {
		t.Errorf("ResolveDelay() = %v, want just under 1h", got)
	}

	if other := rl.ResolveDelay("news.example.com"); other != 0 {
		t.Errorf("ResolveDelay(other host) = %v, want 0", other)
	}
}

func TestResolveDelay_NoBaseDelay(t *testing.T) {
	rl := newLimiter(0, 0)
	rl.MarkLastFetchAsNow("shop.example.com")

	if got := rl.ResolveDelay("shop.example.com"); got != 0 {
		t.Errorf("ResolveDelay() = %v, want 0", got)
	}
}

func TestBackoff_GrowsAndResets(t *testing.T) {
	rl := newLimiter(0, 0)
	host := "shop.example.com"

	wants := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	for i, want := range wants {
		rl.Backoff(host)
		timing := rl.HostTimings()[host]
		if timing.BackoffCount() != i+1 {
			t.Errorf("backoffCount = %d, want %d", timing.BackoffCount(), i+1)
		}
		if timing.BackoffDelay() != want {
			t.Errorf("backoffDelay = %v, want %v", timing.BackoffDelay(), want)
		}
	}

	rl.MarkLastFetchAsNow(host)
	if got := rl.ResolveDelay(host); got <= 3*time.Second || got > 4*time.Second {
		t.Errorf("ResolveDelay() = %v, want just under 4s", got)
	}

	rl.ResetBackoff(host)
	timing := rl.HostTimings()[host]
	if timing.BackoffCount() != 0 || timing.BackoffDelay() != 0 {
		t.Errorf("after reset: count = %d, delay = %v", timing.BackoffCount(), timing.BackoffDelay())
	}
	if got := rl.ResolveDelay(host); got != 0 {
		t.Errorf("ResolveDelay() after reset = %v, want 0", got)
	}
}

func TestBackoff_Capped(t *testing.T) {
	rl := newLimiter(0, 0)
	for i := 0; i < 10; i++ {
		rl.Backoff("shop.example.com")
	}

	timing := rl.HostTimings()["shop.example.com"]
	if timing.BackoffDelay() != 30*time.Second {
		t.Errorf("backoffDelay = %v, want 30s", timing.BackoffDelay())
	}
}

func TestResetBackoff_UnknownHost(t *testing.T) {
	rl := newLimiter(0, 0)
	rl.ResetBackoff("shop.example.com")

	if len(rl.HostTimings()) != 0 {
		t.Errorf("ResetBackoff registered an unknown host")
	}
}

func TestResolveDelay_JitterBounded(t *testing.T) {
	base := 10 * time.Minute
	jitter := time.Minute
	rl := newLimiter(base, jitter)
	rl.SetRNG(rand.New(rand.NewSource(42)))
	rl.MarkLastFetchAsNow("shop.example.com")

	for i := 0; i < 50; i++ {
		got := rl.ResolveDelay("shop.example.com")
		if got > base+jitter {
			t.Fatalf("ResolveDelay() = %v, want at most %v", got, base+jitter)
		}
		if got < base-time.Second {
			t.Fatalf("ResolveDelay() = %v, want at least about %v", got, base)
		}
	}
}

// Run with -race to check the locking.
func TestConcurrentAccess(t *testing.T) {
	rl := newLimiter(time.Millisecond, time.Millisecond)
	hosts := []string{"a.example", "b.example", "c.example"}

	var wg sync.WaitGroup
	for w := 0; w < 20; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				host := hosts[(id+i)%len(hosts)]
				switch i % 4 {
				case 0:
					rl.MarkLastFetchAsNow(host)
				case 1:
					rl.Backoff(host)
				case 2:
					rl.ResolveDelay(host)
				case 3:
					rl.ResetBackoff(host)
				}
			}
		}(w)
	}
	wg.Wait()

	if len(rl.HostTimings()) != len(hosts) {
		t.Errorf("len(HostTimings()) = %d, want %d", len(rl.HostTimings()), len(hosts))
	}
}

package limiter

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rohmanhakim/record-finder/pkg/timeutil"
)

// RateLimiter
// Paces requests made to the same host within one run
// Responsibilities:
// - Bookkeep each hostname's last fetch timestamp
// - Grow a per-host backoff while the host keeps failing
// - Compute how long to wait before the next request to a host
type RateLimiter interface {
	Backoff(host string)
	ResetBackoff(host string)
	MarkLastFetchAsNow(host string)
	ResolveDelay(host string) time.Duration
}

type ConcurrentRateLimiter struct {
	mu           sync.RWMutex
	rngMu        sync.Mutex
	baseDelay    time.Duration
	jitter       time.Duration
	backoffParam timeutil.BackoffParam
	hostTimings  map[string]hostTiming
	rng          *rand.Rand
}

func NewConcurrentRateLimiter(
	baseDelay time.Duration,
	jitter time.Duration,
	backoffParam timeutil.BackoffParam,
) *ConcurrentRateLimiter {
	return &ConcurrentRateLimiter{
		baseDelay:    baseDelay,
		jitter:       jitter,
		backoffParam: backoffParam,
		hostTimings:  make(map[string]hostTiming),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRNG replaces the jitter source, for deterministic tests.
func (r *ConcurrentRateLimiter) SetRNG(rng *rand.Rand) {
	if rng == nil {
		return
	}
	r.rngMu.Lock()
	r.rng = rng
	r.rngMu.Unlock()
}

// Backoff increments the failure count of host and grows its delay.
func (r *ConcurrentRateLimiter) Backoff(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timing := r.hostTimings[host]
	timing.backoffCount++
	timing.backoffDelay = timeutil.ExponentialBackoffDelay(timing.backoffCount, r.backoffParam)
	r.hostTimings[host] = timing
}

// ResetBackoff clears the backoff of host after a successful request.
func (r *ConcurrentRateLimiter) ResetBackoff(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timing, exists := r.hostTimings[host]
	if !exists {
		return
	}
	timing.backoffCount = 0
	timing.backoffDelay = 0
	r.hostTimings[host] = timing
}

func (r *ConcurrentRateLimiter) MarkLastFetchAsNow(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timing := r.hostTimings[host]
	timing.lastFetchAt = time.Now()
	r.hostTimings[host] = timing
}

// computeJitter returns a pseudo-random duration in [0, upper).
func (r *ConcurrentRateLimiter) computeJitter(upper time.Duration) time.Duration {
	if upper <= 0 {
		return 0
	}

	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	return time.Duration(r.rng.Int63n(int64(upper)))
}

// ResolveDelay returns the wait still owed to host:
// max(baseDelay, backoffDelay) + jitter, minus the time since its last fetch.
// Hosts never fetched are not delayed.
func (r *ConcurrentRateLimiter) ResolveDelay(host string) time.Duration {
	// copy needed state under read lock, then compute without holding r.mu
	r.mu.RLock()
	timing, exists := r.hostTimings[host]
	base := r.baseDelay
	jitter := r.jitter
	r.mu.RUnlock()

	if !exists || timing.lastFetchAt.IsZero() {
		return 0
	}

	finalDelay := max(base, timing.backoffDelay) + r.computeJitter(jitter)

	elapsed := time.Since(timing.lastFetchAt)
	if elapsed < finalDelay {
		return finalDelay - elapsed
	}
	return 0
}

// HostTimings returns a copy of the per-host state.
func (r *ConcurrentRateLimiter) HostTimings() map[string]hostTiming {
	r.mu.RLock()
	defer r.mu.RUnlock()

	copyMap := make(map[string]hostTiming, len(r.hostTimings))
	for k, v := range r.hostTimings {
		copyMap[k] = v
	}
	return copyMap
}

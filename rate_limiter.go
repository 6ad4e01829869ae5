package ucb

import (
	"sync"
	"time"
)

const rateLimitWindow = 60 * time.Second

// RateLimiter admits at most callsPerMinute calls within any trailing
// 60-second window. Expired timestamps are purged lazily on each check.
// Safe for concurrent use.
type RateLimiter struct {
	mu             sync.Mutex
	callsPerMinute int
	calls          []time.Time
}

// NewRateLimiter creates a sliding-window rate limiter.
func NewRateLimiter(callsPerMinute int) *RateLimiter {
	return &RateLimiter{
		callsPerMinute: callsPerMinute,
	}
}

// Allow purges entries older than the window, then admits and records the
// call iff capacity remains.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.purge(now)

	if len(rl.calls) < rl.callsPerMinute {
		rl.calls = append(rl.calls, now)
		return true
	}
	return false
}

// Remaining returns how many calls are left in the current window. The
// purge side effect matches Allow.
func (rl *RateLimiter) Remaining() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.purge(time.Now())
	remaining := rl.callsPerMinute - len(rl.calls)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ResetTime returns how long until the oldest recorded call leaves the
// window, or zero when the window is empty.
func (rl *RateLimiter) ResetTime() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.purge(now)

	if len(rl.calls) == 0 {
		return 0
	}
	until := rl.calls[0].Add(rateLimitWindow).Sub(now)
	if until < 0 {
		return 0
	}
	return until
}

// purge drops timestamps older than the window. Caller holds the lock.
// Entries are appended in time order, so the first retained index splits
// the slice.
func (rl *RateLimiter) purge(now time.Time) {
	cutoff := now.Add(-rateLimitWindow)
	i := 0
	for i < len(rl.calls) && !rl.calls[i].After(cutoff) {
		i++
	}
	if i > 0 {
		rl.calls = append(rl.calls[:0], rl.calls[i:]...)
	}
}

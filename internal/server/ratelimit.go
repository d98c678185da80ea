package server

import (
	"sync"
	"time"
)

// RateLimiter enforces per-key sliding window budgets. A denied request
// consumes no quota.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	now     func() time.Time
}

// NewRateLimiter creates a limiter. now is injectable for tests; nil
// means time.Now.
func NewRateLimiter(now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{
		windows: make(map[string][]time.Time),
		now:     now,
	}
}

// Allow records a request for the key if it fits within limit requests
// per window, and reports whether it was admitted.
func (l *RateLimiter) Allow(key string, limit int, window time.Duration) bool {
	if limit <= 0 {
		return false
	}
	now := l.now()
	cutoff := now.Add(-window)

	l.mu.Lock()
	defer l.mu.Unlock()

	times := l.windows[key]
	kept := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= limit {
		l.windows[key] = kept
		return false
	}
	l.windows[key] = append(kept, now)
	return true
}

// Remaining reports how many requests the key has left in the window.
func (l *RateLimiter) Remaining(key string, limit int, window time.Duration) int {
	cutoff := l.now().Add(-window)

	l.mu.Lock()
	defer l.mu.Unlock()

	used := 0
	for _, t := range l.windows[key] {
		if t.After(cutoff) {
			used++
		}
	}
	if used >= limit {
		return 0
	}
	return limit - used
}

package auth

import (
	"errors"
	"sync"

	"golang.org/x/time/rate"
)

var ErrTooManyAttempts = errors.New("too many login attempts, try again later")

// Throttle rate-limits login attempts per username.
type Throttle struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

// NewThrottle allows burst attempts per key, refilled at limit.
func NewThrottle(limit rate.Limit, burst int) *Throttle {
	return &Throttle{
		limit:    limit,
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Allow consumes one attempt for key and reports whether it was permitted.
// A nil Throttle permits everything.
func (t *Throttle) Allow(key string) bool {
	if t == nil {
		return true
	}

	t.mu.Lock()
	limiter, ok := t.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(t.limit, t.burst)
		t.limiters[key] = limiter
	}
	t.mu.Unlock()

	return limiter.Allow()
}

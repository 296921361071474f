package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxTrackedKeys bounds the limiter map. When it is reached the map is
// cleared; a returning user simply starts with a full bucket.
const maxTrackedKeys = 10000

// RateLimiter keeps one token bucket per key, typically a Telegram user id.
type RateLimiter struct {
	mu     sync.Mutex
	limits map[string]*rate.Limiter
	every  rate.Limit
	burst  int
}

// NewRateLimiter creates a limiter allowing perSecond events per key with the
// given burst.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limits: make(map[string]*rate.Limiter),
		every:  rate.Limit(perSecond),
		burst:  burst,
	}
}

// getLimiter gets or creates a limiter for the given key.
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, ok := rl.limits[key]; ok {
		return limiter
	}
	if len(rl.limits) >= maxTrackedKeys {
		clear(rl.limits)
	}
	limiter := rate.NewLimiter(rl.every, rl.burst)
	rl.limits[key] = limiter
	return limiter
}

// Allow reports whether an event for key may proceed now.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.AllowAt(key, time.Now())
}

// AllowAt is Allow with an explicit clock.
func (rl *RateLimiter) AllowAt(key string, now time.Time) bool {
	return rl.getLimiter(key).AllowN(now, 1)
}

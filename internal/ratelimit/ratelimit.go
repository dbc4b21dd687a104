// Package ratelimit provides per-key request limiting on top of
// golang.org/x/time/rate token buckets.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per key (typically client IP).
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*client
	limit    rate.Limit
	burst    int
	done     chan struct{}
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New creates a Limiter allowing rps requests per second with the given
// burst per key.
func New(rps float64, burst int) *Limiter {
	l := &Limiter{
		limiters: make(map[string]*client),
		limit:    rate.Limit(rps),
		burst:    burst,
		done:     make(chan struct{}),
	}

	// Start background cleanup
	go l.cleanup()

	return l
}

// Close stops the background cleanup goroutine.
func (l *Limiter) Close() {
	close(l.done)
}

// Allow checks if a request for the given key is allowed.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.limiters[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = c
	}
	c.lastSeen = time.Now()

	return c.limiter.Allow()
}

// cleanup periodically removes buckets that have been idle long enough to be
// full again anyway.
func (l *Limiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.mu.Lock()
			now := time.Now()
			for key, c := range l.limiters {
				if now.Sub(c.lastSeen) > 10*time.Minute {
					delete(l.limiters, key)
				}
			}
			l.mu.Unlock()
		case <-l.done:
			return
		}
	}
}

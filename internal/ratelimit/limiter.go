// Package ratelimit implements a fixed-window request limiter keyed by
// caller identity, applied as gin middleware in front of the API.
package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type entry struct {
	windowStart time.Time
	count       int
}

// Limiter tracks request counts per key over a fixed window. Zero or
// negative limits disable enforcement.
type Limiter struct {
	limit  int
	window time.Duration
	mu     sync.Mutex
	items  map[string]*entry
}

func New(limit int, window time.Duration) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		limit:  limit,
		window: window,
		items:  make(map[string]*entry),
	}
}

// Allow records one request for key and reports whether it fits the window.
func (l *Limiter) Allow(key string) bool {
	if l == nil || l.limit <= 0 {
		return true
	}
	if key == "" {
		return false
	}

	now := time.Now().UTC()
	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.items[key]
	if e == nil || now.Sub(e.windowStart) > l.window {
		// Reuse the expired scan to shed dead keys once the map grows.
		if len(l.items) > 10000 {
			for k, v := range l.items {
				if now.Sub(v.windowStart) > l.window {
					delete(l.items, k)
				}
			}
		}
		e = &entry{windowStart: now}
		l.items[key] = e
	}

	if e.count >= l.limit {
		return false
	}

	e.count++
	return true
}

// Middleware rejects requests over the limit with 429. The key is the API
// key id when authenticated, falling back to the client address.
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString("api_key_id")
		if key == "" {
			key = c.ClientIP()
		}
		if !l.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limited",
					"message": "too many requests",
				},
			})
			return
		}
		c.Next()
	}
}

// Copyright (c) 2025-2026 Atelier Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterCache keeps a token-bucket limiter per client key and evicts idle
// entries so the map cannot grow without bound.
type limiterCache struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterCache(r rate.Limit, burst int) *limiterCache {
	c := &limiterCache{
		limiters: make(map[string]*limiterEntry),
		rate:     r,
		burst:    burst,
	}
	go c.cleanup()
	return c
}

func (c *limiterCache) get(key string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(c.rate, c.burst)}
		c.limiters[key] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

func (c *limiterCache) cleanup() {
	for range time.Tick(time.Minute) {
		c.mu.Lock()
		for key, entry := range c.limiters {
			if time.Since(entry.lastSeen) > 3*time.Minute {
				delete(c.limiters, key)
			}
		}
		c.mu.Unlock()
	}
}

// RateLimit limits requests per client. Authenticated clients are keyed by
// identity id, anonymous clients by remote IP, so a NAT full of readers does
// not share one bucket with a logged-in author.
func RateLimit(perSecond float64, burst int) func(http.Handler) http.Handler {
	cache := newLimiterCache(rate.Limit(perSecond), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			if !cache.get(key).Allow() {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if p := PrincipalFrom(r.Context()); p != nil {
		return "id:" + p.IdentityID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

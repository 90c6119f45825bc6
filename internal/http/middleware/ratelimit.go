// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements an in-memory, per-client token-bucket rate limiter
// with opportunistic garbage collection. It protects the credential
// endpoints against brute force and sign-up floods.
//
// Notes:
//   - This limiter is process-local. For horizontally scaled deployments,
//     prefer a distributed limiter to enforce global limits.
//   - Rejections are reported through the Errors() stage as a
//     TooManyRequests error, so clients get the standard envelope.
package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-auth-service/internal/domain"
)

const (
	MsgTooManyRequests  = "Too many requests"
	CodeTooManyRequests = "RATE_LIMITED"

	// gcEvery is the number of lookups between idle-bucket sweeps.
	gcEvery = 5000
)

// keyFunc selects the identity used to key a rate-limit bucket.
type keyFunc func(*gin.Context) string

// KeyByRouteAndIP keys buckets by matched route and client IP, so that
// login attempts do not consume the register budget and vice versa.
func KeyByRouteAndIP() keyFunc {
	return func(c *gin.Context) string {
		return c.FullPath() + "|ip:" + c.ClientIP()
	}
}

// visitor holds a single rate limiter and the last time it was seen.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter implements a per-key token-bucket rate limiter.
//
// Buckets are created on demand and stored in a map guarded by a mutex.
// Idle buckets are evicted after a TTL during lookups.
//
// This type is safe for concurrent use.
type RateLimiter struct {
	rps      rate.Limit
	burst    int
	keyFn    keyFunc
	mu       sync.Mutex
	visitors map[string]*visitor

	ttl      time.Duration
	cleanupN uint64
}

// NewRateLimiter constructs a RateLimiter with the given tokens-per-second
// and burst size, keyed by keyFn. Burst values <= 0 are coerced to 1.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		visitors: make(map[string]*visitor),
		ttl:      10 * time.Minute,
	}
}

// getVisitor returns (and updates) the limiter for key, creating it if absent.
//
// GC runs before the requested visitor is touched so a stale bucket can be
// evicted even when it is the one being fetched.
func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.cleanupN++
	if rl.cleanupN >= gcEvery {
		for k, vv := range rl.visitors {
			if now.Sub(vv.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.cleanupN = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}

	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// retryAfter is the whole number of seconds until one token is replenished.
func (rl *RateLimiter) retryAfter() string {
	if rl.rps <= 0 {
		return "60"
	}
	secs := int(math.Ceil(1 / float64(rl.rps)))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// Handler returns a Gin middleware that enforces per-key limits. Rejected
// requests get a Retry-After header and a 429 envelope.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.getVisitor(rl.keyFn(c)).Allow() {
			c.Next()
			return
		}

		c.Header("Retry-After", rl.retryAfter())
		Fail(c, domain.NewTooManyRequestsError(MsgTooManyRequests, CodeTooManyRequests))
	}
}

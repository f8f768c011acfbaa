package api

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

// RateLimitMiddleware allows rps requests per second per client IP, with a burst of rps.
// Every polling client gets its own bucket so one noisy client cannot starve the rest.
func RateLimitMiddleware(rps int) gin.HandlerFunc {
	return newIPLimiter(rps, limiterIdleTTL).middleware()
}

// ipLimiter keeps one token bucket per client. Buckets idle for longer than
// idleTTL are swept from the request path, so no janitor goroutine runs.
type ipLimiter struct {
	rps       int
	idleTTL   time.Duration
	buckets   *cache.Cache
	lastSweep atomic.Int64
}

func newIPLimiter(rps int, idleTTL time.Duration) *ipLimiter {
	l := &ipLimiter{
		rps:     rps,
		idleTTL: idleTTL,
		buckets: cache.New(idleTTL, 0),
	}
	l.lastSweep.Store(time.Now().UnixNano())
	return l
}

func (l *ipLimiter) allow(key string) bool {
	l.maybeSweep()

	var limiter *rate.Limiter
	if v, ok := l.buckets.Get(key); ok {
		limiter = v.(*rate.Limiter)
	} else {
		limiter = rate.NewLimiter(rate.Limit(l.rps), l.rps)
		// Add fails if another request created the bucket first
		if err := l.buckets.Add(key, limiter, cache.DefaultExpiration); err != nil {
			if v, ok := l.buckets.Get(key); ok {
				limiter = v.(*rate.Limiter)
			}
		}
	}
	// sliding idle expiry
	l.buckets.SetDefault(key, limiter)

	return limiter.Allow()
}

func (l *ipLimiter) maybeSweep() {
	now := time.Now().UnixNano()
	last := l.lastSweep.Load()
	if time.Duration(now-last) < l.idleTTL {
		return
	}
	if l.lastSweep.CompareAndSwap(last, now) {
		l.buckets.DeleteExpired()
	}
}

func (l *ipLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

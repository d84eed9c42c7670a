package dashboard

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/rawblock/goldrush-engine/internal/ratelimit"
)

// ipRateLimiter gives every remote IP its own token bucket, generalizing
// the teacher's ipBucket-per-client pattern (internal/api/ratelimit.go) to
// reuse this repo's own ratelimit.Limiter instead of a bespoke bucket type.
type ipRateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*ratelimit.Limiter

	ratePerSec float64
	burst      float64
}

func newIPRateLimiter(perMinute, burst int) *ipRateLimiter {
	return &ipRateLimiter{
		buckets:    make(map[string]*ratelimit.Limiter),
		ratePerSec: float64(perMinute) / 60.0,
		burst:      float64(burst),
	}
}

func (r *ipRateLimiter) bucket(ip string) *ratelimit.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.buckets[ip]
	if !ok {
		b = ratelimit.New(r.ratePerSec, r.burst)
		r.buckets[ip] = b
	}
	return b
}

// Middleware rejects a request with 429 once the caller's IP has exceeded
// its bucket, matching the teacher's per-IP dashboard throttle.
func (r *ipRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.bucket(c.ClientIP()).TryAcquire() {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}

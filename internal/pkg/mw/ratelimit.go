package mw

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// IPRateLimiter stores a token bucket per client IP.
type IPRateLimiter struct {
	limiters sync.Map
	r        rate.Limit
	b        int
}

// NewIPRateLimiter creates a new IPRateLimiter. A non-positive burst falls back to 5.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	if b <= 0 {
		b = 5
	}
	return &IPRateLimiter{r: r, b: b}
}

// GetLimiter returns the limiter for ip, creating it on first use.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	if v, ok := i.limiters.Load(ip); ok {
		return v.(*rate.Limiter)
	}
	actual, _ := i.limiters.LoadOrStore(ip, rate.NewLimiter(i.r, i.b))
	return actual.(*rate.Limiter)
}

// RateLimiter is a middleware for IP-based rate limiting.
func RateLimiter(r rate.Limit, b int) gin.HandlerFunc {
	limiter := NewIPRateLimiter(r, b)
	return func(c *gin.Context) {
		if !limiter.GetLimiter(c.ClientIP()).Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// idleLimiterTTL is how long an address's limiter survives without requests.
const idleLimiterTTL = 10 * time.Minute

// IPRateLimiter stores a rate limiter for each client address.
// Limiters of idle clients expire so the table does not grow without bound.
type IPRateLimiter struct {
	limiters *cache.Cache
	mu       sync.Mutex
	r        rate.Limit
	b        int
}

// NewIPRateLimiter creates a new IPRateLimiter allowing r requests per second with burst b.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		limiters: cache.New(idleLimiterTTL, 2*idleLimiterTTL),
		r:        r,
		b:        b,
	}
}

// GetLimiter returns the rate limiter for an address, creating it on first use.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	if v, ok := i.limiters.Get(ip); ok {
		i.limiters.Set(ip, v, cache.DefaultExpiration)
		return v.(*rate.Limiter)
	}
	limiter := rate.NewLimiter(i.r, i.b)
	i.limiters.Set(ip, limiter, cache.DefaultExpiration)
	return limiter
}

// RateLimiter is a middleware for IP-based rate limiting.
func RateLimiter(r rate.Limit, b int) gin.HandlerFunc {
	limiter := NewIPRateLimiter(r, b)
	retryAfter := "1"
	if r > 0 {
		retryAfter = strconv.Itoa(int(math.Ceil(1 / float64(r))))
	}
	return func(c *gin.Context) {
		if !limiter.GetLimiter(c.ClientIP()).Allow() {
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

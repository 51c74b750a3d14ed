package middleware

import (
	"sync"
	"time"

	apperrors "gatehouse/internal/errors"
	"gatehouse/internal/logger"
	"gatehouse/internal/metrics"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const limiterTTL = 10 * time.Minute

// clientLimiters holds one token bucket per client IP.
type clientLimiters struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	limit     rate.Limit
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

func newClientLimiters(perMinute, burst int) *clientLimiters {
	return &clientLimiters{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		now:     time.Now,
	}
}

// allow reports whether key may proceed, creating its bucket on first use.
// Idle buckets are swept at most once per TTL.
func (l *clientLimiters) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > limiterTTL {
		for k, b := range l.buckets {
			if now.Sub(b.seen) > limiterTTL {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

// RateLimit throttles requests per client IP with a token bucket refilled at
// perMinute and holding burst tokens. Rejections are 429.
func RateLimit(perMinute, burst int, m *metrics.Metrics) gin.HandlerFunc {
	limiters := newClientLimiters(perMinute, burst)
	return rateLimit(limiters, m)
}

func rateLimit(limiters *clientLimiters, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !limiters.allow(ip) {
			m.LoginThrottled()
			logger.Get().Warnw("rate limit exceeded", "client_ip", ip, "path", c.Request.URL.Path)
			abortWithAppError(c, apperrors.ErrTooManyRequests)
			return
		}
		c.Next()
	}
}

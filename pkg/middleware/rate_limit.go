package middleware

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/peopledb/peopledb/pkg/metrics"
	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long an unused per-client bucket is kept.
const limiterIdleTTL = 3 * time.Minute

// clientKey identifies the caller by IP. The limiter runs on the whole
// engine, ahead of any route guard, so no verified subject exists yet.
func clientKey(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

type visitor struct {
	lim      *rate.Limiter
	lastSeen atomic.Int64
}

// memoryLimiter keeps one token bucket per client and drops buckets idle
// for longer than idle, sweeping at most once per idle period.
type memoryLimiter struct {
	rps      rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
	visitors sync.Map // map[string]*visitor
	swept    atomic.Int64
}

func newMemoryLimiter(rps float64, burst int, idle time.Duration) *memoryLimiter {
	l := &memoryLimiter{rps: rate.Limit(rps), burst: burst, idle: idle, now: time.Now}
	l.swept.Store(l.now().UnixNano())
	return l
}

func (l *memoryLimiter) allow(key string) bool {
	now := l.now()
	l.sweep(now)
	v, _ := l.visitors.LoadOrStore(key, &visitor{lim: rate.NewLimiter(l.rps, l.burst)})
	vis := v.(*visitor)
	vis.lastSeen.Store(now.UnixNano())
	return vis.lim.AllowN(now, 1)
}

func (l *memoryLimiter) sweep(now time.Time) {
	last := l.swept.Load()
	if now.UnixNano()-last < int64(l.idle) || !l.swept.CompareAndSwap(last, now.UnixNano()) {
		return
	}
	cutoff := now.Add(-l.idle).UnixNano()
	l.visitors.Range(func(k, v interface{}) bool {
		if v.(*visitor).lastSeen.Load() < cutoff {
			l.visitors.Delete(k)
		}
		return true
	})
}

func (l *memoryLimiter) size() int {
	n := 0
	l.visitors.Range(func(interface{}, interface{}) bool { n++; return true })
	return n
}

func (l *memoryLimiter) handle(c *gin.Context) {
	if !l.allow(clientKey(c)) {
		c.Header("Retry-After", "1")
		metrics.RateLimitRejected.WithLabelValues("memory").Inc()
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
		return
	}
	metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
	c.Next()
}

// RateLimitMiddleware returns a Gin middleware enforcing an in-memory token bucket per client IP.
// rps = allowed events per second, burst = maximum tokens in bucket.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	return newMemoryLimiter(rps, burst, limiterIdleTTL).handle
}

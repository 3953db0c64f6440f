package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/smallbiznis/appleid-token/internal/http/presenter"
)

const limiterIdleTTL = 5 * time.Minute

// RateLimiter enforces per-client-IP throttling.
type RateLimiter struct {
	limit      rate.Limit
	burst      int
	retryAfter string
	now        func() time.Time

	mu        sync.Mutex
	clients   map[string]*clientLimiter
	lastSweep time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter for the provided requests-per-minute budget.
// A non-positive budget disables limiting and returns nil.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	limit := rate.Limit(float64(requestsPerMinute) / 60.0)
	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:      limit,
		burst:      burst,
		retryAfter: strconv.Itoa(int(math.Ceil(1 / float64(limit)))),
		now:        time.Now,
		clients:    make(map[string]*clientLimiter),
	}
}

// Allow reports whether key may make another request now.
func (r *RateLimiter) Allow(key string) bool {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.clients[key]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.clients[key] = entry
	}
	entry.lastSeen = now
	r.sweepLocked(now)
	return entry.limiter.AllowN(now, 1)
}

// Handler returns the gin middleware enforcing throttling behaviour.
func (r *RateLimiter) Handler() gin.HandlerFunc {
	if r == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		if !r.Allow(c.ClientIP()) {
			c.Header("Retry-After", r.retryAfter)
			presenter.Fail(c, http.StatusTooManyRequests, "Too many requests. Please slow down.")
			return
		}
		c.Next()
	}
}

// sweepLocked drops idle clients at most once per idle TTL.
func (r *RateLimiter) sweepLocked(now time.Time) {
	if now.Sub(r.lastSweep) < limiterIdleTTL {
		return
	}
	r.lastSweep = now
	for key, entry := range r.clients {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(r.clients, key)
		}
	}
}

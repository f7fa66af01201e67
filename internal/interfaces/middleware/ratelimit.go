package middleware

import (
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/nexuscrm/backoffice/pkg/errors"
	"github.com/nexuscrm/backoffice/pkg/logging"
)

// maxTrackedClients bounds the limiter table; it is reset when exceeded
const maxTrackedClients = 10000

// RateLimiter keeps one token bucket per client
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
}

// NewRateLimiter creates a limiter allowing rps requests per second with
// the given burst per client
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if len(rl.limiters) > maxTrackedClients {
		rl.limiters = make(map[string]*rate.Limiter)
	}
	l, ok := rl.limiters[key]
	if !ok {
		l = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = l
	}
	return l
}

// Handler rejects requests over budget with 429. Clients are keyed by
// user id when authenticated, by client IP otherwise.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	log := logging.For("ratelimit")
	return func(c *gin.Context) {
		key := c.ClientIP()
		if user := UserFromContext(c.Request.Context()); user != nil {
			key = "user:" + user.ID
		}

		if !rl.limiter(key).Allow() {
			log.WithField("key", key).WithField("path", c.FullPath()).Warn("⚠️ Rate limit exceeded")
			abort(c, errors.NewRateLimitError(key))
			return
		}
		c.Next()
	}
}

package middlewares

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/hxuan190/lst-route-engine/internal/common"
	"github.com/hxuan190/lst-route-engine/internal/http/httputil"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per client IP token bucket. Idle clients are forgotten
// after expiresIn.
type RateLimiter struct {
	mu        sync.Mutex
	rate      rate.Limit
	burst     int
	expiresIn time.Duration
	visitors  map[string]*visitor
	lastSweep time.Time
}

func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		rate:      rate.Limit(perSecond),
		burst:     burst,
		expiresIn: 3 * time.Minute,
		visitors:  make(map[string]*visitor),
	}
}

func (rl *RateLimiter) Allow(ip string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) > rl.expiresIn {
		for key, v := range rl.visitors {
			if now.Sub(v.lastSeen) > rl.expiresIn {
				delete(rl.visitors, key)
			}
		}
		rl.lastSweep = now
	}

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP(), time.Now()) {
			httputil.HandleError(c, common.HTTPErrorTooManyRequests(""))
			return
		}
		c.Next()
	}
}

// internal/middleware/rate_limit.go
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/readsphere/readsphere-api/internal/config"
	"github.com/readsphere/readsphere-api/internal/i18n"
	"github.com/readsphere/readsphere-api/internal/utils"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-IP token bucket
type RateLimiter struct {
	visitors map[string]*visitor
	mtx      sync.Mutex
	rate     rate.Limit
	burst    int
	done     chan struct{}
}

func NewRateLimiter(r rate.Limit, b int) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    b,
		done:     make(chan struct{}),
	}

	// Clean up old visitors every minute
	go rl.cleanupVisitors()

	return rl
}

func (rl *RateLimiter) cleanupVisitors() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mtx.Lock()
			for ip, v := range rl.visitors {
				if time.Since(v.lastSeen) > 3*time.Minute {
					delete(rl.visitors, ip)
				}
			}
			rl.mtx.Unlock()
		}
	}
}

// Stop ends the cleanup goroutine
func (rl *RateLimiter) Stop() {
	close(rl.done)
}

func (rl *RateLimiter) getVisitor(ip string) *rate.Limiter {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.visitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.getVisitor(c.ClientIP()).Allow() {
			utils.HandleError(c, utils.NewAppError(http.StatusTooManyRequests, utils.CodeRateLimited, i18n.KeyRateLimited, nil))
			return
		}
		c.Next()
	}
}

// RateLimits holds the general and auth limiters built from config
type RateLimits struct {
	general *RateLimiter
	auth    *RateLimiter
}

func NewRateLimits(cfg config.RateLimitConfig) *RateLimits {
	if !cfg.Enabled {
		return &RateLimits{}
	}

	authPerMinute := cfg.AuthPerMinute
	if authPerMinute <= 0 {
		authPerMinute = 10
	}

	return &RateLimits{
		general: NewRateLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
		auth:    NewRateLimiter(rate.Every(time.Minute/time.Duration(authPerMinute)), authPerMinute),
	}
}

func (r *RateLimits) General() gin.HandlerFunc {
	return limiterOrPass(r.general)
}

func (r *RateLimits) Auth() gin.HandlerFunc {
	return limiterOrPass(r.auth)
}

func (r *RateLimits) Stop() {
	for _, l := range []*RateLimiter{r.general, r.auth} {
		if l != nil {
			l.Stop()
		}
	}
}

func limiterOrPass(l *RateLimiter) gin.HandlerFunc {
	if l == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return l.Middleware()
}

package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const limiterSweepInterval = 10 * time.Minute

// RateLimiter hands out one token bucket per player. The limit is read on
// every lookup so a config reload applies to existing buckets too.
type RateLimiter struct {
	visitors map[string]*rate.Limiter
	mu       sync.Mutex
	settings func() (rate.Limit, int)
}

func NewRateLimiter(settings func() (rate.Limit, int)) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*rate.Limiter),
		settings: settings,
	}
}

func (rl *RateLimiter) GetLimiter(key string) *rate.Limiter {
	limit, burst := rl.settings()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	limiter, exists := rl.visitors[key]
	if !exists {
		limiter = rate.NewLimiter(limit, burst)
		rl.visitors[key] = limiter
		return limiter
	}
	if limiter.Limit() != limit {
		limiter.SetLimit(limit)
	}
	if limiter.Burst() != burst {
		limiter.SetBurst(burst)
	}
	return limiter
}

// Sweep drops buckets that have refilled completely.
func (rl *RateLimiter) Sweep() {
	_, burst := rl.settings()
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, l := range rl.visitors {
		if l.TokensAt(now) >= float64(burst) {
			delete(rl.visitors, key)
		}
	}
}

// Janitor sweeps periodically until ctx is done.
func (rl *RateLimiter) Janitor(ctx context.Context) {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Sweep()
		}
	}
}

// RateLimitMiddleware limits per username, falling back to the client IP
// for anonymous players.
func RateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := currentUser(c)
		if key == "" || key == anonymousUser {
			key = "ip:" + c.ClientIP()
		}
		if !limiter.GetLimiter(key).Allow() {
			abortError(c, http.StatusTooManyRequests, "RateLimited", "Too many requests. Please wait.")
			return
		}
		c.Next()
	}
}

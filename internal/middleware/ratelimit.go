package middleware

import (
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"hosting-storefront/internal/apperr"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per subject, or per client IP before authentication.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
	log      *zap.Logger
	now      func() time.Time
}

func NewRateLimiter(rps float64, burst int, log *zap.Logger) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(rps),
		burst:    burst,
		log:      log,
		now:      time.Now,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = rl.now()
	return v.limiter
}

func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := "ip:" + c.RealIP()
			if subject := IdentityFrom(c); subject != nil {
				key = "user:" + subject.UserID
			}

			if !rl.limiter(key).Allow() {
				rl.log.Warn("rate limit exceeded",
					zap.String("key", key),
					zap.String("path", c.Request().URL.Path),
					zap.String("method", c.Request().Method),
				)
				return apperr.RateLimited("", nil)
			}
			return next(c)
		}
	}
}

// Cleanup forgets visitors idle for longer than idle and returns how many were dropped.
func (rl *RateLimiter) Cleanup(idle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idle)
	dropped := 0
	for key, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, key)
			dropped++
		}
	}
	return dropped
}

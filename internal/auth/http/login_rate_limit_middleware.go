package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// loginRateLimiterStore holds per-IP rate limiters for the login endpoint,
// which runs before any client is authenticated, so limiters are keyed by
// client IP rather than by client id.
type loginRateLimiterStore struct {
	limiters sync.Map // map[string]*loginRateLimiterEntry
	rps      float64
	burst    int
}

type loginRateLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
	mu         sync.Mutex
}

// LoginRateLimitMiddleware throttles login attempts per client IP using a
// token bucket, slowing credential-stuffing without touching the database.
func LoginRateLimitMiddleware(rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	store := &loginRateLimiterStore{rps: rps, burst: burst}
	go store.cleanupStale(context.Background(), 5*time.Minute)

	return func(c *gin.Context) {
		limiter := store.getLimiter(c.ClientIP())

		if !limiter.Allow() {
			reservation := limiter.Reserve()
			retryAfter := int(reservation.Delay().Seconds())
			reservation.Cancel()

			logger.Debug("login rate limit exceeded", slog.String("ip", c.ClientIP()), slog.Int("retry_after", retryAfter))

			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limit_exceeded",
				"message": "too many login attempts, retry after the specified delay",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func (s *loginRateLimiterStore) getLimiter(ip string) *rate.Limiter {
	if val, ok := s.limiters.Load(ip); ok {
		entry := val.(*loginRateLimiterEntry)
		entry.mu.Lock()
		entry.lastAccess = time.Now()
		entry.mu.Unlock()
		return entry.limiter
	}

	limiter := rate.NewLimiter(rate.Limit(s.rps), s.burst)
	entry := &loginRateLimiterEntry{limiter: limiter, lastAccess: time.Now()}
	s.limiters.Store(ip, entry)
	return limiter
}

func (s *loginRateLimiterStore) cleanupStale(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			threshold := time.Now().Add(-1 * time.Hour)
			s.limiters.Range(func(key, value any) bool {
				entry := value.(*loginRateLimiterEntry)
				entry.mu.Lock()
				shouldDelete := entry.lastAccess.Before(threshold)
				entry.mu.Unlock()
				if shouldDelete {
					s.limiters.Delete(key)
				}
				return true
			})
		}
	}
}

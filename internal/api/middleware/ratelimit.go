package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"microfinance-backend/internal/config"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const rateLimitKeyPrefix = "ratelimit:"

// RateLimiterMiddleware limits requests per client IP. With a Redis client
// the count is shared across instances using one-second fixed windows;
// otherwise, or while Redis is failing, an in-process token bucket is used.
type RateLimiterMiddleware struct {
	limiters sync.Map
	cfg      config.RateLimitConfig
	redis    redis.Cmdable
	now      func() time.Time
	logger   *slog.Logger
}

func NewRateLimiterMiddleware(cfg config.RateLimitConfig, client redis.Cmdable, logger *slog.Logger) *RateLimiterMiddleware {
	rl := &RateLimiterMiddleware{
		cfg:    cfg,
		redis:  client,
		now:    time.Now,
		logger: logger.With("component", "RateLimiter"),
	}

	go rl.cleanupLimiters()

	return rl
}

// windowLimit is the number of requests a client may make per second.
func (rl *RateLimiterMiddleware) windowLimit() int64 {
	return max(int64(rl.cfg.Burst), int64(math.Ceil(rl.cfg.RPS)), 1)
}

func (rl *RateLimiterMiddleware) getLimiter(ip string) *rate.Limiter {
	limiter, exists := rl.limiters.Load(ip)
	if !exists {
		newLimiter := rate.NewLimiter(rate.Limit(rl.cfg.RPS), rl.cfg.Burst)
		actual, _ := rl.limiters.LoadOrStore(ip, newLimiter)
		return actual.(*rate.Limiter)
	}
	return limiter.(*rate.Limiter)
}

func (rl *RateLimiterMiddleware) cleanupLimiters() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.limiters.Range(func(key, value any) bool {
			limiter := value.(*rate.Limiter)
			if limiter.Tokens() >= float64(rl.cfg.Burst) {
				rl.limiters.Delete(key)
			}
			return true
		})
	}
}

func (rl *RateLimiterMiddleware) extractIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}

	xRealIP := r.Header.Get("X-Real-IP")
	if xRealIP != "" {
		return xRealIP
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func (rl *RateLimiterMiddleware) allowShared(ctx context.Context, ip string) (bool, error) {
	now := rl.now()
	key := fmt.Sprintf("%s%s:%d", rateLimitKeyPrefix, ip, now.Unix())

	pipe := rl.redis.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, 2*time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= rl.windowLimit(), nil
}

func (rl *RateLimiterMiddleware) allow(r *http.Request, ip string) bool {
	if rl.redis != nil {
		ok, err := rl.allowShared(r.Context(), ip)
		if err == nil {
			return ok
		}
		rl.logger.WarnContext(r.Context(), "Shared rate limit unavailable, using local limiter", "error", err)
	}
	return rl.getLimiter(ip).AllowN(rl.now(), 1)
}

func (rl *RateLimiterMiddleware) Middleware(next http.Handler) http.Handler {
	if !rl.cfg.Enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := rl.extractIP(r)

		if !rl.allow(r, ip) {
			rl.logger.Warn("Rate limit exceeded", "ip", ip)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{
					"code":    "RATE_LIMITED",
					"message": "Rate limit exceeded",
				},
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

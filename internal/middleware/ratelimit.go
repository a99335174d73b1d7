package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter throttles requests per client IP using a Redis fixed window.
// Each window is a Redis counter that expires on its own; INCR past the
// limit rejects with 429 until the window rolls over.
//
// A nil Redis client disables limiting entirely, and Redis errors fail
// open: login availability is worth more than strict throttling.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	logger *slog.Logger
}

func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{rdb: rdb, limit: limit, window: window, logger: logger}
}

// Limit wraps a handler with the per-IP window check.
func (l *RateLimiter) Limit(next http.Handler) http.Handler {
	if l.rdb == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "ratelimit:" + clientIP(r)
		ctx := r.Context()

		count, err := l.rdb.Incr(ctx, key).Result()
		if err != nil {
			l.logger.Warn("rate limiter unavailable", slog.String("error", err.Error()))
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			// First hit opens the window; the key expiring closes it.
			if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
				l.logger.Warn("rate limiter expire failed", slog.String("error", err.Error()))
			}
		}

		remaining := int64(l.limit) - count
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(l.limit) {
			retryAfter := l.window
			if ttl, err := l.rdb.TTL(ctx, key).Result(); err == nil && ttl > 0 {
				retryAfter = ttl
			}
			secs := int(math.Ceil(retryAfter.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error":      "rate limit exceeded",
				"retryAfter": secs,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP returns the request's remote IP. chi's RealIP middleware runs
// earlier in the chain and rewrites RemoteAddr from X-Forwarded-For.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

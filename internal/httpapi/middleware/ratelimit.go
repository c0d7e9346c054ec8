package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Counter is the subset of the Redis API used for fixed-window counting.
type Counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RateLimiter enforces per-key request budgets backed by Redis.
type RateLimiter struct {
	counter   Counter
	namespace string
	logger    *zap.Logger
	now       func() time.Time
}

// NewRateLimiter creates a limiter storing counters under namespace.
func NewRateLimiter(counter Counter, namespace string, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		counter:   counter,
		namespace: namespace,
		logger:    logger,
		now:       time.Now,
	}
}

// Limit allows at most limit requests per window for each key returned by
// keyFn. Counter failures let the request through.
func (l *RateLimiter) Limit(bucket string, limit int, window time.Duration, keyFn func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 || window <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := l.now()
			windowIdx := now.UnixNano() / int64(window)
			key := fmt.Sprintf("%s:rl:%s:%s:%d", l.namespace, bucket, keyFn(r), windowIdx)

			count, err := l.counter.Incr(r.Context(), key).Result()
			if err != nil {
				l.logger.Warn("rate limit counter unavailable", zap.String("bucket", bucket), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				if err := l.counter.Expire(r.Context(), key, window).Err(); err != nil {
					l.logger.Warn("rate limit expiry failed", zap.String("bucket", bucket), zap.Error(err))
				}
			}

			remaining := int64(limit) - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > int64(limit) {
				windowEnd := time.Unix(0, (windowIdx+1)*int64(window))
				retryAfter := int(windowEnd.Sub(now).Seconds() + 0.999)
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeLimitError(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeLimitError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": "too many requests",
		"code":  "rate_limited",
	})
}

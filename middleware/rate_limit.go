package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"serverpe-gateway/logger"
	"serverpe-gateway/utils"
)

type RateLimiter struct {
	client   *redis.Client
	defaults RateLimitConfig
}

// RateLimitConfig is the allowance for one endpoint.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Message  string
}

var endpointConfigs = map[string]RateLimitConfig{
	"/api/auth/login/otp": {
		Requests: 10,
		Window:   15 * time.Minute,
		Message:  "Too many OTP requests. Please try again in 15 minutes.",
	},
	"/api/auth/subscribe/otp": {
		Requests: 10,
		Window:   15 * time.Minute,
		Message:  "Too many OTP requests. Please try again in 15 minutes.",
	},
	"/api/auth/login/verify": {
		Requests: 20,
		Window:   15 * time.Minute,
		Message:  "Too many verification attempts. Please wait 15 minutes.",
	},
	"/api/checkout/verify": {
		Requests: 10,
		Window:   time.Minute,
		Message:  "Too many payment verification attempts. Please wait a minute.",
	},
}

// Sliding window over a sorted set of request timestamps.
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local window_start = tonumber(ARGV[1])
	local limit = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local member = ARGV[4]
	local ttl = tonumber(ARGV[5])

	redis.call('ZREMRANGEBYSCORE', key, 0, window_start)

	local current = redis.call('ZCARD', key)
	if current < limit then
		redis.call('ZADD', key, now, member)
		redis.call('PEXPIRE', key, ttl)
		return {1, limit - current - 1}
	end
	return {0, 0}
`)

// NewRateLimiter shares the cache's redis connection. perMinute is the
// allowance for endpoints without their own entry.
func NewRateLimiter(client *redis.Client, perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &RateLimiter{
		client: client,
		defaults: RateLimitConfig{
			Requests: perMinute,
			Window:   time.Minute,
			Message:  "Rate limit exceeded. Please slow down your requests.",
		},
	}
}

// Allow records one hit on key and reports whether it is within limit per
// window. It also serves as the OTP send quota.
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	allowed, _, _, err := rl.check(ctx, "rate_limit:"+key, RateLimitConfig{Requests: limit, Window: window})
	return allowed, err
}

func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			config := rl.configFor(r.URL.Path)
			key := fmt.Sprintf("rate_limit:http:%s:%s", getClientIP(r), r.URL.Path)

			allowed, remaining, resetTime, err := rl.check(r.Context(), key, config)
			if err != nil {
				logger.Log.Warn("Rate limit check error", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.Requests))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

			if !allowed {
				logger.Log.Info("Rate limit exceeded", zap.String("key", key))
				retryAfter := int64(time.Until(resetTime).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
				utils.SendErrorResponse(w, http.StatusTooManyRequests, config.Message)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) configFor(path string) RateLimitConfig {
	if config, ok := endpointConfigs[strings.TrimRight(path, "/")]; ok {
		return config
	}
	return rl.defaults
}

func (rl *RateLimiter) check(ctx context.Context, key string, config RateLimitConfig) (allowed bool, remaining int, resetTime time.Time, err error) {
	now := time.Now()
	windowStart := now.Add(-config.Window)
	resetTime = now.Add(config.Window)

	result, err := slidingWindow.Run(ctx, rl.client, []string{key},
		windowStart.UnixMilli(),
		config.Requests,
		now.UnixMilli(),
		uuid.NewString(),
		config.Window.Milliseconds(),
	).Result()
	if err != nil {
		return false, 0, time.Time{}, err
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return false, 0, time.Time{}, fmt.Errorf("unexpected redis result format")
	}
	allowedInt, ok1 := values[0].(int64)
	remainingInt, ok2 := values[1].(int64)
	if !ok1 || !ok2 {
		return false, 0, time.Time{}, fmt.Errorf("failed to parse redis result")
	}

	return allowedInt == 1, int(remainingInt), resetTime, nil
}

// SecurityHeadersMiddleware adds the standard hardening headers.
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			w.Header().Set("Pragma", "no-cache")
			w.Header().Set("Expires", "0")
		}

		next.ServeHTTP(w, r)
	})
}

func getClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		ips := strings.Split(ip, ",")
		return strings.TrimSpace(ips[0])
	}

	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/platinummonkey/datahub/pkg/httputil"
)

// RateLimitConfig defines rate limiting configuration
type RateLimitConfig struct {
	// RequestsPerWindow is the max requests allowed in the time window
	RequestsPerWindow int
	// WindowDuration is the time window for rate limiting
	WindowDuration time.Duration
}

// DefaultRateLimitConfig returns default settings for anonymous callers
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerWindow: 100,
		WindowDuration:    time.Minute,
	}
}

// PerUserRateLimitConfig returns settings for authenticated users
func PerUserRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerWindow: 1000,
		WindowDuration:    time.Minute,
	}
}

// RateLimiter implements fixed-window rate limiting in Redis so limits are
// shared across instances
type RateLimiter struct {
	redis  *redis.Client
	config *RateLimitConfig
	prefix string
}

// NewRateLimiter creates a new Redis-backed rate limiter
func NewRateLimiter(redisClient *redis.Client, config *RateLimitConfig, prefix string) *RateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}
	if prefix == "" {
		prefix = "ratelimit"
	}

	return &RateLimiter{
		redis:  redisClient,
		config: config,
		prefix: prefix,
	}
}

func (rl *RateLimiter) key(key string) string {
	return rl.prefix + ":" + key
}

// Allow counts a request for key and reports whether it is within the limit
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := rl.key(key)

	// SET NX with a TTL opens the window and INCR keeps its TTL; MULTI/EXEC
	// keeps a counter from ever existing without an expiry
	var incr *redis.IntCmd
	_, err := rl.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, redisKey, 0, rl.config.WindowDuration)
		incr = pipe.Incr(ctx, redisKey)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}

	return incr.Val() <= int64(rl.config.RequestsPerWindow), nil
}

// Remaining returns the number of remaining requests in the window
func (rl *RateLimiter) Remaining(ctx context.Context, key string) (int, error) {
	count, err := rl.redis.Get(ctx, rl.key(key)).Int()
	if err == redis.Nil {
		return rl.config.RequestsPerWindow, nil
	} else if err != nil {
		return 0, err
	}

	remaining := rl.config.RequestsPerWindow - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// TTL returns the time until the rate limit window resets
func (rl *RateLimiter) TTL(ctx context.Context, key string) (time.Duration, error) {
	return rl.redis.TTL(ctx, rl.key(key)).Result()
}

// Reset clears the rate limit for a key
func (rl *RateLimiter) Reset(ctx context.Context, key string) error {
	return rl.redis.Del(ctx, rl.key(key)).Err()
}

// RateLimitMiddleware limits requests per user, or per client IP when the
// request is unauthenticated. Mount ClientHandler ahead of AuthMiddleware and
// Handler after it.
type RateLimitMiddleware struct {
	userLimiter      *RateLimiter
	anonymousLimiter *RateLimiter
	failOpen         bool
	onLimited        func(r *http.Request, kind string)
}

// NewRateLimitMiddleware creates rate limit middleware with default limits
func NewRateLimitMiddleware(redisClient *redis.Client) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		userLimiter:      NewRateLimiter(redisClient, PerUserRateLimitConfig(), "ratelimit:user"),
		anonymousLimiter: NewRateLimiter(redisClient, DefaultRateLimitConfig(), "ratelimit:anon"),
		failOpen:         true,
	}
}

// SetFailOpen controls whether requests pass (true) or get 503 (false) when Redis fails
func (m *RateLimitMiddleware) SetFailOpen(enabled bool) {
	m.failOpen = enabled
}

// SetOnLimited registers fn to be called for every rejected request.
// kind is "user" or "anonymous".
func (m *RateLimitMiddleware) SetOnLimited(fn func(r *http.Request, kind string)) {
	m.onLimited = fn
}

// ClientHandler limits requests that carry no credentials by client IP. It
// runs before authentication so anonymous floods stop here; requests with an
// Authorization header pass through to be authenticated and then limited per
// user by Handler.
func (m *RateLimitMiddleware) ClientHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			next.ServeHTTP(w, r)
			return
		}
		m.limit(w, r, next, m.anonymousLimiter, "ip:"+ClientIP(r), "anonymous")
	})
}

// Handler limits authenticated requests per user, and anything else per
// client IP. It must run after AuthMiddleware.
func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if authCtx := GetAuthContext(r); authCtx.IsAuthenticated() {
			m.limit(w, r, next, m.userLimiter, "user:"+authCtx.User.ID, "user")
			return
		}
		m.limit(w, r, next, m.anonymousLimiter, "ip:"+ClientIP(r), "anonymous")
	})
}

func (m *RateLimitMiddleware) limit(w http.ResponseWriter, r *http.Request, next http.Handler, limiter *RateLimiter, key, kind string) {
	ctx := r.Context()

	allowed, err := limiter.Allow(ctx, key)
	if err != nil {
		if m.failOpen {
			next.ServeHTTP(w, r)
			return
		}
		httputil.WriteServiceUnavailable(w, "service temporarily unavailable")
		return
	}

	w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limiter.config.RequestsPerWindow))

	if !allowed {
		retryAfter := limiter.config.WindowDuration
		if ttl, err := limiter.TTL(ctx, key); err == nil && ttl > 0 {
			retryAfter = ttl
		}
		w.Header().Set("Retry-After", fmt.Sprintf("%.0f", retryAfter.Seconds()))
		w.Header().Set("X-RateLimit-Remaining", "0")
		if m.onLimited != nil {
			m.onLimited(r, kind)
		}
		httputil.WriteTooManyRequests(w, "rate limit exceeded")
		return
	}

	if remaining, err := limiter.Remaining(ctx, key); err == nil {
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
	}

	next.ServeHTTP(w, r)
}

// ClientIP returns the caller address, preferring the first X-Forwarded-For hop
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Package middleware provides HTTP middleware for authentication and rate limiting.
//
// # Middleware Components
//
// AuthMiddleware: session-based authentication
//
//	authMW := middleware.NewAuthMiddleware(sessionStore, false)
//	router.Use(authMW.Handler)
//	// Resolves "Authorization: Bearer <token>" through the session store and
//	// adds an *auth.AuthContext to the request
//
// RateLimitMiddleware: Redis-backed fixed window limits
//
//	limiter := middleware.NewRateLimitMiddleware(redisClient)
//	router.Use(limiter.Handler)
//
// # Rate Limiting
//
// Anonymous (by client IP): 100 req/min
// Per-User: 1000 req/min
//
// Limits are kept in Redis so they hold across instances. When Redis is
// unreachable requests pass by default; SetFailOpen(false) rejects them with
// 503 instead.
//
// # Related Packages
//
//   - pkg/session: token to user resolution
//   - pkg/rbac: permission checking
package middleware

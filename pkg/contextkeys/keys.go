// Package contextkeys holds the request context keys shared across packages.
//
// The HTTP middleware chain fills them in this order:
//
//	httputil.RequestIDMiddleware  -> RequestIDKey
//	httputil.LoggingMiddleware    -> LoggerKey
//	middleware.AuthMiddleware     -> AuthKey, UserIDKey
//
// Readers in observability and audit tag logs and audit events from them.
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// AuthKey holds the caller's *auth.AuthContext
	AuthKey Key = "auth_context"
	// RequestIDKey holds the request ID string
	RequestIDKey Key = "request_id"
	// UserIDKey holds the authenticated user's ID string
	UserIDKey Key = "user_id"
	// LoggerKey holds the request's *observability.Logger
	LoggerKey Key = "logger"
)

// WithAuth stores the auth context. It takes any so this package does not
// depend on auth.
func WithAuth(ctx context.Context, authCtx any) context.Context {
	return context.WithValue(ctx, AuthKey, authCtx)
}

// WithLogger stores the request logger
func WithLogger(ctx context.Context, logger any) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// WithRequestID stores the request ID
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithUserID stores the authenticated user's ID
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetRequestID returns the request ID, or "" outside a request
func GetRequestID(ctx context.Context) string {
	return stringValue(ctx, RequestIDKey)
}

// GetUserID returns the authenticated user's ID, or "" for anonymous requests
func GetUserID(ctx context.Context) string {
	return stringValue(ctx, UserIDKey)
}

func stringValue(ctx context.Context, key Key) string {
	s, _ := ctx.Value(key).(string)
	return s
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/platinummonkey/datahub/pkg/auth"
	"github.com/platinummonkey/datahub/pkg/contextkeys"
	"github.com/platinummonkey/datahub/pkg/httputil"
	"github.com/platinummonkey/datahub/pkg/session"
)

// SessionResolver resolves a bearer token to a user
type SessionResolver interface {
	Get(ctx context.Context, token string) (*auth.User, error)
}

// AuthMiddleware provides authentication middleware
type AuthMiddleware struct {
	sessions SessionResolver
	optional bool // If true, allow requests without auth
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(sessions SessionResolver, optional bool) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
		optional: optional,
	}
}

// Handler wraps an HTTP handler with authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Format: "Bearer <token>"
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			httputil.WriteUnauthorized(w, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			httputil.WriteUnauthorized(w, "invalid authorization header format")
			return
		}
		token := parts[1]

		user, err := m.sessions.Get(r.Context(), token)
		if errors.Is(err, session.ErrNoSession) {
			httputil.WriteUnauthorized(w, "invalid or expired session")
			return
		}
		if err != nil {
			httputil.WriteServiceUnavailable(w, "session store unavailable")
			return
		}

		authCtx := &auth.AuthContext{
			User:  user,
			Token: token,
		}

		ctx := contextkeys.WithAuth(r.Context(), authCtx)
		ctx = contextkeys.WithUserID(ctx, user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetAuthContext extracts auth context from request
func GetAuthContext(r *http.Request) *auth.AuthContext {
	return AuthContextFrom(r.Context())
}

// AuthContextFrom extracts auth context from a context
func AuthContextFrom(ctx context.Context) *auth.AuthContext {
	authCtx, ok := ctx.Value(contextkeys.AuthKey).(*auth.AuthContext)
	if !ok {
		return nil
	}
	return authCtx
}

// WithAuthContext returns a copy of r carrying authCtx. Used by tests and by
// callers that authenticate outside of AuthMiddleware.
func WithAuthContext(r *http.Request, authCtx *auth.AuthContext) *http.Request {
	return r.WithContext(contextkeys.WithAuth(r.Context(), authCtx))
}

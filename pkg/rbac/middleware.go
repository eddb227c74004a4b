package rbac

import (
	"net/http"

	"github.com/platinummonkey/datahub/pkg/httputil"
	"github.com/platinummonkey/datahub/pkg/middleware"
)

// DecisionHook is called with every decision the middleware makes
type DecisionHook func(r *http.Request, decision Decision)

// PermissionMiddleware provides middleware for permission checking
type PermissionMiddleware struct {
	checker Checker
	hook    DecisionHook
}

// NewPermissionMiddleware creates a new permission middleware
func NewPermissionMiddleware(checker Checker, hook DecisionHook) *PermissionMiddleware {
	if checker == nil {
		checker = DefaultEvaluator()
	}
	return &PermissionMiddleware{
		checker: checker,
		hook:    hook,
	}
}

// RequirePermission creates middleware that requires a context-free permission.
// Conditional grants need the record being acted on and are checked by the
// handler once it has loaded it.
func (pm *PermissionMiddleware) RequirePermission(resource Resource, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := middleware.GetAuthContext(r)
			if !authCtx.IsAuthenticated() {
				httputil.WriteUnauthorized(w, "authentication required")
				return
			}

			decision := pm.checker.Explain(authCtx.User, resource, action, nil)
			if pm.hook != nil {
				pm.hook(r, decision)
			}

			if !decision.Allowed {
				httputil.WriteForbidden(w, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyPermission creates middleware that requires at least one of the permissions
func (pm *PermissionMiddleware) RequireAnyPermission(permissions ...Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := middleware.GetAuthContext(r)
			if !authCtx.IsAuthenticated() {
				httputil.WriteUnauthorized(w, "authentication required")
				return
			}

			for _, perm := range permissions {
				decision := pm.checker.Explain(authCtx.User, perm.Resource, perm.Action, nil)
				if pm.hook != nil {
					pm.hook(r, decision)
				}
				if decision.Allowed {
					next.ServeHTTP(w, r)
					return
				}
			}

			httputil.WriteForbidden(w, "insufficient permissions")
		})
	}
}

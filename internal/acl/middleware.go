// internal/acl/middleware.go
//
// Chi middleware helpers that enforce role checks.
//
// Roles are owned by the backend and arrive on the operator profile that
// auth.Middleware resolved, so these helpers never query anything
// themselves.  Mount them after auth.Middleware.

package acl

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/yanizio/pawnboard/internal/auth"
)

// RequireRole ensures the current operator holds ANY of the supplied roles.
// Role names compare case-insensitively.
func RequireRole(names ...string) func(http.Handler) http.Handler {
	if len(names) == 0 {
		panic("acl.RequireRole: at least one role name must be supplied")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			op, ok := auth.OperatorFrom(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			if !op.HasRole(names...) {
				zap.L().Info("acl denied",
					zap.Int64("operator", op.ID),
					zap.Strings("need", names),
					zap.Strings("have", op.Roles),
					zap.String("path", r.URL.Path))
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

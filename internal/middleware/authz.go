package middleware

import (
	"fmt"
	"net/http"

	"github.com/eventsphere/api/internal/model"
)

// RequirePermission allows the request through when any of the caller's
// roles grants perm. Must run after Auth.
func RequirePermission(perm model.Permission) Middleware {
	return gate(func(roles []model.Role) bool {
		return model.HasPermission(roles, perm)
	}, fmt.Sprintf("permission %s required", perm))
}

// RequireRole allows callers holding a role at or above required
func RequireRole(required model.Role) Middleware {
	return gate(func(roles []model.Role) bool {
		return model.HasRequiredRole(roles, required)
	}, fmt.Sprintf("role %s or higher required", required))
}

// RequireAdmin allows admins only
func RequireAdmin() Middleware {
	return gate(model.IsAdmin, "admin role required")
}

// RequireManagement allows te_head, be_head and admin
func RequireManagement() Middleware {
	return gate(model.HasManagementRole, "management role required")
}

func gate(allow func([]model.Role) bool, detail string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r.Context())
			if user == nil {
				model.NewUnauthorizedError("authentication required").WriteJSON(w)
				return
			}
			if !allow(user.Roles()) {
				model.NewInsufficientRoleError(detail).WriteJSON(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"net/http"
	"strings"

	"earnedpay/internal/domain/auth"
	"earnedpay/internal/transport/http/api"
)

// RequirePermission must run after RequireUser.
func RequirePermission(permission string) func(http.Handler) http.Handler {
	detail := "insufficient permissions"
	if role := auth.RoleFor(permission); role != "" {
		detail = "Access denied. " + strings.ToUpper(role[:1]) + role[1:] + " role required."
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				unauthorized(w, r)
				return
			}
			if !auth.HasPermission(user.Role, permission) {
				api.Fail(w, http.StatusForbidden, "forbidden", detail, GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-control/internal/domain/user"
	"github.com/cmlabs-hris/attendance-control/internal/handler/http/response"
)

// RequirePermission checks if user has specific permission
func RequirePermission(permission user.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := user.PrincipalFromContext(r.Context())
			if err != nil {
				response.HandleError(w, err)
				return
			}

			if !user.HasPermission(p.Role, permission) {
				slog.Warn("permission denied", "username", p.Username, "role", p.Role, "required", permission)
				response.HandleError(w, user.ErrInsufficientPermissions)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

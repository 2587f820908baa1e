package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-control/internal/domain/user"
	"github.com/cmlabs-hris/attendance-control/internal/handler/http/response"
)

func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := user.PrincipalFromContext(r.Context())
		if err != nil {
			response.HandleError(w, err)
			return
		}

		if !p.IsAdmin() {
			response.HandleError(w, user.ErrAdminPrivilegeRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}

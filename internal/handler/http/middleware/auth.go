package middleware

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/attendance-control/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-control/internal/domain/user"
	"github.com/cmlabs-hris/attendance-control/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-control/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

// AuthRequired accepts a verified, unrevoked access token of an active
// operator and stores the caller's Principal in the request context.
// Department grants are read fresh so revocations apply before the token
// expires.
func AuthRequired(jwtService jwt.Service, users user.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			if jwtService.IsTokenRevoked(jwtauth.TokenFromHeader(r)) {
				response.HandleError(w, auth.ErrTokenRevoked)
				return
			}

			c, err := jwtService.ParseClaims(claims)
			if err != nil {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			account, err := users.GetByID(r.Context(), c.UserID)
			if err != nil {
				if errors.Is(err, user.ErrUserNotFound) {
					response.HandleError(w, auth.ErrInvalidToken)
					return
				}
				response.HandleError(w, err)
				return
			}
			if !account.IsActive {
				response.HandleError(w, auth.ErrAccountInactive)
				return
			}

			p := user.Principal{
				UserID:   account.ID,
				Username: account.Username,
				Role:     account.Role,
			}
			if !account.IsAdmin() {
				p.DepartmentIDs, err = users.GetDepartmentIDs(r.Context(), account.ID)
				if err != nil {
					response.HandleError(w, err)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(user.WithPrincipal(r.Context(), p)))
		}
		return http.HandlerFunc(hfn)
	}
}

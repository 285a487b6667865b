package middleware

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/vatsinhr/settlement-backend-go/internal/domain/auth"
	"github.com/vatsinhr/settlement-backend-go/internal/handler/http/response"
	"github.com/vatsinhr/settlement-backend-go/internal/pkg/validator"
)

// RequireRole restricts a route to the given roles.
func RequireRole(roles ...auth.Role) func(http.Handler) http.Handler {
	allowed := make([]string, 0, len(roles))
	for _, role := range roles {
		allowed = append(allowed, string(role))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			role, ok := claims["role"].(string)
			if !ok || !validator.IsInSlice(role, allowed) {
				response.HandleError(w, auth.ErrRoleNotAllowed)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

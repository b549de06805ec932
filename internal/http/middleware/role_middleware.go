package middleware

import (
	"fmt"
	"net/http"

	"github.com/harvesthub/harvesthub-api/internal/http/response"
	"github.com/harvesthub/harvesthub-api/internal/observability"
)

// Authorize grants access only to the named roles. It must run after
// Protect, which attaches the user to the request context.
func Authorize(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				response.Error(w, r, http.StatusUnauthorized, "Not authorized to access this route")
				return
			}
			if _, ok := allowed[user.Role]; !ok {
				observability.Audit(r, "role.denied", "user_id", user.ID, "role", user.Role)
				response.Error(w, r, http.StatusForbidden,
					fmt.Sprintf("User role '%s' is not authorized to access this route", user.Role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

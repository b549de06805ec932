package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/harvesthub/harvesthub-api/internal/domain"
	"github.com/harvesthub/harvesthub-api/internal/http/response"
	"github.com/harvesthub/harvesthub-api/internal/observability"
	"github.com/harvesthub/harvesthub-api/internal/repository"
	"github.com/harvesthub/harvesthub-api/internal/security"
	"github.com/harvesthub/harvesthub-api/internal/service"
)

type contextKey string

const (
	ClaimsContextKey contextKey = "claims"
	UserContextKey   contextKey = "user"
)

// extractToken reads the session token. The Authorization header takes
// precedence over the cookie so API clients can override a stale browser
// session.
func extractToken(r *http.Request) (token, source string) {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer") {
		fields := strings.Fields(auth)
		if len(fields) == 2 {
			return fields[1], "header"
		}
	}
	if v := security.GetCookie(r, security.SessionCookieName); v != "" {
		return v, "cookie"
	}
	return "", ""
}

// Protect rejects requests without a valid session backed by a live account.
func Protect(jwtMgr *security.JWTManager, users repository.UserRepository, lockout service.LockoutPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, source := extractToken(r)
			if raw == "" {
				observability.RecordTokenValidation(r.Context(), "missing", source)
				response.Error(w, r, http.StatusUnauthorized, "Not authorized to access this route")
				return
			}

			claims, err := jwtMgr.Parse(raw)
			if err != nil {
				switch {
				case errors.Is(err, security.ErrTokenExpired):
					observability.RecordTokenValidation(r.Context(), "expired", source)
					response.Error(w, r, http.StatusUnauthorized, "Token expired")
				default:
					observability.RecordTokenValidation(r.Context(), "invalid", source)
					response.Error(w, r, http.StatusUnauthorized, "Invalid token")
				}
				return
			}

			userID, err := claims.UserID()
			if err != nil {
				observability.RecordTokenValidation(r.Context(), "invalid", source)
				response.Error(w, r, http.StatusUnauthorized, "Invalid token")
				return
			}

			user, err := users.FindByID(userID)
			if err != nil {
				if errors.Is(err, repository.ErrUserNotFound) {
					observability.RecordTokenValidation(r.Context(), "user_missing", source)
					response.Error(w, r, http.StatusUnauthorized, "No user found with this token")
					return
				}
				response.Error(w, r, http.StatusInternalServerError, "Server error")
				return
			}
			if !user.IsActive {
				observability.RecordTokenValidation(r.Context(), "deactivated", source)
				response.Error(w, r, http.StatusUnauthorized, "User account has been deactivated")
				return
			}
			if lockout.IsLocked(user, time.Now().UTC()) {
				observability.RecordTokenValidation(r.Context(), "locked", source)
				response.Error(w, r, http.StatusUnauthorized, "Account is temporarily locked due to failed login attempts")
				return
			}

			observability.RecordTokenValidation(r.Context(), "ok", source)
			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			ctx = context.WithValue(ctx, UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches the user when a valid session is present and stays
// silent otherwise.
func OptionalAuth(jwtMgr *security.JWTManager, users repository.UserRepository, lockout service.LockoutPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, _ := extractToken(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := jwtMgr.Parse(raw)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := claims.UserID()
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			user, err := users.FindByID(userID)
			if err != nil || !user.IsActive || lockout.IsLocked(user, time.Now().UTC()) {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			ctx = context.WithValue(ctx, UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ClaimsFromContext(ctx context.Context) (*security.SessionClaims, bool) {
	c, ok := ctx.Value(ClaimsContextKey).(*security.SessionClaims)
	return c, ok
}

func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(UserContextKey).(*domain.User)
	return u, ok
}

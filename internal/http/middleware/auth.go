package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/trailpeak/tours-api/internal/domain"
	"github.com/trailpeak/tours-api/internal/http/response"
	"github.com/trailpeak/tours-api/pkg/logger"
)

type contextKey string

const userKey contextKey = "current_user"

// CurrentUser returns the authenticated user set by RequireAuth, or nil.
func CurrentUser(r *http.Request) *domain.User {
	u, _ := r.Context().Value(userKey).(*domain.User)
	return u
}

// TokenResolver turns a raw access token into a live user.
type TokenResolver interface {
	UserFromToken(ctx context.Context, token string) (*domain.User, error)
}

// tokenFromRequest pulls the access token from the Authorization header or
// the jwt cookie, in that order.
func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie("jwt"); err == nil {
		return c.Value
	}
	return ""
}

// RequireAuth rejects unauthenticated requests and stores the resolved user
// on the request context.
func RequireAuth(resolver TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				response.Error(w, domain.ErrAuthentication("You are not logged in! Please log in to get access."))
				return
			}

			u, err := resolver.UserFromToken(r.Context(), token)
			if err != nil {
				response.Error(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, u)
			ctx = context.WithValue(ctx, logger.UserIDKey, u.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RestrictTo allows only the given roles past. Must run after RequireAuth.
func RestrictTo(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := CurrentUser(r)
			if u == nil || !allowed[u.Role] {
				response.Error(w, domain.ErrAuthorization("You do not have permission to perform this action"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

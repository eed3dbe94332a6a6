package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/shelfwise/bookstore/internal/domain"
	"github.com/shelfwise/bookstore/internal/http/response"
	"github.com/shelfwise/bookstore/pkg/auth"
	"github.com/shelfwise/bookstore/pkg/logger"
)

type ctxKey string

const ctxClaims ctxKey = "claims"

// RequireAuth verifies the bearer token and puts the decoded claims into the
// request context. No business logic runs on a missing, malformed, tampered,
// or expired token.
func RequireAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				response.Unauthorized(w, "missing or invalid authorization header", response.CodeUnauthorized)
				return
			}
			raw := strings.TrimPrefix(authz, "Bearer ")
			claims, err := auth.Parse(raw, secret)
			if err != nil {
				if auth.IsExpired(err) {
					response.Unauthorized(w, "token expired", response.CodeExpiredToken)
					return
				}
				response.Unauthorized(w, "invalid token", response.CodeInvalidToken)
				return
			}
			ctx := context.WithValue(r.Context(), ctxClaims, claims)
			ctx = context.WithValue(ctx, logger.UserIDKey, claims.Sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin gates a route on the admin role. It layers after RequireAuth;
// authentication failures have already been rejected by the time role is
// inspected.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := Claims(r)
		if claims == nil {
			response.Unauthorized(w, "missing or invalid authorization header", response.CodeUnauthorized)
			return
		}
		if claims.Role != domain.RoleAdmin {
			response.Forbidden(w, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Claims returns the verified token claims for the request, or nil when the
// request did not pass RequireAuth.
func Claims(r *http.Request) *auth.Claims {
	v := r.Context().Value(ctxClaims)
	if v == nil {
		return nil
	}
	return v.(*auth.Claims)
}

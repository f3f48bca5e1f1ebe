package middleware

import (
	"context"
	"net/http"
	"strings"

	"app/internal/util"

	"github.com/rs/zerolog"
)

// Injected key type to avoid context collisions
type contextKey string

const UserContextKey = contextKey("user")

// UserID extracts the resolved user identity from the request context.
func UserID(r *http.Request) string {
	id, _ := r.Context().Value(UserContextKey).(string)
	return id
}

// IdentityMiddleware resolves the caller's identity. A valid Supabase JWT
// always wins; the X-User-Id header is accepted as a pre-signup alias only
// when no token is presented. The alias is an unauthenticated bearer value, so
// everything gated on it stays advisory until the user signs up.
func IdentityMiddleware(jwtSecret string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := ""

			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) != 2 || parts[0] != "Bearer" {
					http.Error(w, "Invalid authorization header", http.StatusUnauthorized)
					return
				}
				claims, err := util.ValidateJWT(parts[1], jwtSecret)
				if err != nil {
					logger.Warn().Err(err).Msg("Rejected invalid token")
					http.Error(w, "Invalid token: "+err.Error(), http.StatusUnauthorized)
					return
				}
				userID = claims.Subject
			} else {
				userID = r.Header.Get("X-User-Id")
			}

			if userID == "" {
				userID = "anonymous"
			}

			ctx := context.WithValue(r.Context(), UserContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

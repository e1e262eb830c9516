// This file, `middleware.go`, defines the JWT middleware guarding every endpoint
// that needs a viewer.
package auth

import (
	"net/http"
	"strings"

	"github.com/user/bloghub-go/apperror"
	"github.com/user/bloghub-go/config"
)

// JWTMiddleware verifies the Bearer access token and stores its claims in the
// request context. Requests without a valid token are rejected with 401.
func JWTMiddleware(cfg *config.AuthConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				WriteError(w, r, apperror.NewAuthError("authorization header is missing", nil))
				return
			}

			// The Authorization header should be in the format "Bearer {token}".
			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				WriteError(w, r, apperror.NewAuthError("authorization header format must be Bearer {token}", nil))
				return
			}

			claims, err := parseToken(cfg.JWTSecret, parts[1], tokenTypeAccess)
			if err != nil {
				WriteError(w, r, apperror.NewAuthError("invalid token", err))
				return
			}
			if claims.Username == "" {
				WriteError(w, r, apperror.NewAuthError("invalid token: username claim is missing", nil))
				return
			}

			next.ServeHTTP(w, r.WithContext(NewContextWithClaims(r.Context(), claims)))
		})
	}
}

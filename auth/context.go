// This file, `context.go`, stores the authenticated viewer's claims in the request
// context so every handler receives the viewer explicitly instead of trusting
// identities sent in request bodies.
package auth

import (
	"context"
)

// contextKey is unexported so no other package can collide with it.
type contextKey string

const claimsContextKey contextKey = "auth_claims"

// NewContextWithClaims returns a child context carrying claims.
func NewContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext extracts the claims stored by NewContextWithClaims.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok
}

// ViewerFromContext returns the authenticated username, if any.
func ViewerFromContext(ctx context.Context) (string, bool) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok || claims.Username == "" {
		return "", false
	}
	return claims.Username, true
}

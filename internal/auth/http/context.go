// Package http provides HTTP middleware for authenticating and authorizing
// requests against JWT-encoded client claims.
package http

import (
	"context"

	"github.com/sealedbox/sealedbox/internal/auth/token"
)

// claimsKey is a context key type for storing verified token claims.
type claimsKey struct{}

// withClaims stores verified claims in the context. Called by
// AuthenticationMiddleware after a token verifies.
func withClaims(ctx context.Context, claims *token.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// GetClaims retrieves the authenticated request's token claims. Returns
// (claims, true) if present, or (nil, false) if the request never passed
// AuthenticationMiddleware.
func GetClaims(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*token.Claims)
	return claims, ok
}

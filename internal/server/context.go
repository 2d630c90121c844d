package server

import (
	"context"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	//nolint:gosec // G101 false positive - this is a context key name, not a credential
	bearerTokenKey contextKey = "bearer_token"
	principalKey   contextKey = "principal"
)

// ContextWithBearer returns a context carrying the caller's bearer token.
func ContextWithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerTokenKey, token)
}

// BearerFromContext returns the bearer token of the current call.
func BearerFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(bearerTokenKey).(string)
	return token, ok && token != ""
}

// ContextWithPrincipal returns a context carrying an authenticated principal.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the principal attached by AuthMiddleware.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok && p != nil
}

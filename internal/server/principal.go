package server

import (
	"slices"
	"time"

	"pokemcp/internal/identity"
	"pokemcp/internal/profile"
)

// Principal is the authenticated identity of one tool call. It is built per
// call and never persisted. It deliberately does not hold the token.
type Principal struct {
	UserID string
	Email  string

	// Scopes is sorted and free of duplicates.
	Scopes []string

	ExpiresAt time.Time

	// Introspection is the user record the identity provider returned.
	Introspection *identity.User

	// Profile is set by TokenValidator.Enrich when a profile store is
	// configured. It may be nil.
	Profile *profile.Profile
}

// HasScope reports whether the principal was granted scope.
func (p *Principal) HasScope(scope string) bool {
	_, found := slices.BinarySearch(p.Scopes, scope)
	return found
}

// UserContext is the introspected user together with their profile, which
// may be nil for a user without a profile row.
type UserContext struct {
	User    *identity.User
	Profile *profile.Profile
}

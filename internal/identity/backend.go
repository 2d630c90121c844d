package identity

import (
	"context"
	"time"
)

// Backend is the contract the session manager and the token validator rely on.
type Backend interface {
	// SignInWithPassword exchanges an email and password for a session.
	SignInWithPassword(ctx context.Context, email, password string) (*AuthResponse, error)

	// SignUp registers a new account. Providers that require email
	// verification return a user without a session.
	SignUp(ctx context.Context, email, password string) (*User, error)

	// Refresh exchanges a refresh token for a new session. Both tokens rotate.
	Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error)

	// SignOut revokes the session the access token belongs to.
	SignOut(ctx context.Context, accessToken string) error

	// Introspect returns the user an access token belongs to, or
	// ErrInvalidToken when the provider does not accept it.
	Introspect(ctx context.Context, accessToken string) (*User, error)
}

// User is the identity record returned by the provider.
type User struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Metadata  map[string]any `json:"user_metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Tokens is the session part of a sign-in or refresh response.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`

	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64 `json:"expires_in,omitempty"`

	// ExpiresAt is the absolute expiry as Unix seconds.
	ExpiresAt int64 `json:"expires_at,omitempty"`
}

// NormalizeExpiry fills ExpiresAt from ExpiresIn when the provider only sent
// the relative lifetime.
func (t *Tokens) NormalizeExpiry(now time.Time) {
	if t.ExpiresAt == 0 && t.ExpiresIn > 0 {
		t.ExpiresAt = now.Unix() + t.ExpiresIn
	}
}

// AuthResponse is the result of a sign-in or a refresh.
type AuthResponse struct {
	Session *Tokens
	User    *User
}

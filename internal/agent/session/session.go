package session

import (
	"time"

	"pokemcp/internal/identity"
)

// Session is the persisted credential record.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`

	// ExpiresAt is the absolute access token expiry in Unix seconds.
	ExpiresAt int64 `json:"expires_at"`

	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
}

// Valid reports whether the record is usable at all. A record without an
// access token or without an expiry is treated as no session.
func (s *Session) Valid() bool {
	return s != nil && s.AccessToken != "" && s.ExpiresAt != 0
}

// Expiry returns ExpiresAt as a time.Time.
func (s *Session) Expiry() time.Time {
	return time.Unix(s.ExpiresAt, 0)
}

// sessionFromResponse builds a Session from a sign-in or refresh response.
// Identity fields missing from the response are carried over from previous.
func sessionFromResponse(resp *identity.AuthResponse, previous *Session) (*Session, error) {
	if resp == nil || resp.Session == nil || resp.Session.AccessToken == "" {
		return nil, identity.ErrMalformedResponse
	}

	sess := &Session{
		AccessToken:  resp.Session.AccessToken,
		RefreshToken: resp.Session.RefreshToken,
		ExpiresAt:    resp.Session.ExpiresAt,
	}
	if resp.User != nil {
		sess.UserID = resp.User.ID
		sess.Email = resp.User.Email
	} else if previous != nil {
		sess.UserID = previous.UserID
		sess.Email = previous.Email
	}

	if !sess.Valid() {
		return nil, identity.ErrMalformedResponse
	}
	return sess, nil
}

package session

import (
	"errors"
	"fmt"

	"pokemcp/internal/identity"
)

var (
	// ErrNotAuthenticated is returned when no session is stored.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrRefreshFailed is returned when the stored token is within the
	// refresh buffer and could not be renewed. The stored session is left
	// as it was.
	ErrRefreshFailed = errors.New("session refresh failed")
)

// LoginError is returned by Login and SignUp. Reason is meant for humans.
type LoginError struct {
	Op     string
	Reason string
	Err    error
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Op, e.Reason)
}

func (e *LoginError) Unwrap() error {
	return e.Err
}

func newLoginError(op string, err error) *LoginError {
	return &LoginError{Op: op, Reason: reasonFor(err), Err: err}
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		return "invalid email or password"
	case errors.Is(err, identity.ErrEmailNotConfirmed):
		return "email address has not been confirmed yet"
	case errors.Is(err, identity.ErrMalformedResponse):
		return "identity provider returned an unexpected response"
	case identity.IsTransportError(err):
		return "identity provider is unreachable"
	default:
		return err.Error()
	}
}

package identity

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned when the email or password is wrong.
	ErrInvalidCredentials = errors.New("invalid login credentials")

	// ErrEmailNotConfirmed is returned when signing in to an unverified account.
	ErrEmailNotConfirmed = errors.New("email not confirmed")

	// ErrInvalidToken is returned when an access or refresh token is rejected.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrMalformedResponse is returned when the provider answered with a body
	// that does not have the expected shape.
	ErrMalformedResponse = errors.New("malformed identity provider response")
)

// APIError is a 4xx answer from the provider.
type APIError struct {
	StatusCode int
	Code       string
	Message    string

	kind error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code
	}
	if msg == "" {
		return fmt.Sprintf("identity provider returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("identity provider returned status %d: %s", e.StatusCode, msg)
}

// Unwrap exposes the sentinel the response was classified as, if any.
func (e *APIError) Unwrap() error {
	return e.kind
}

// TransportError reports that the provider could not be reached or did not
// produce a usable answer.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("identity %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err is or wraps a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// Package identity talks to the identity provider that issues and vouches for
// pokemcp bearer tokens.
//
// The provider is Supabase GoTrue. The client side uses it to sign users in,
// register them, rotate refresh tokens and sign out. The server side uses it
// to introspect an inbound access token ("is this token currently valid, and
// for whom").
//
// # Errors
//
// Credential problems surface as sentinel errors that callers match with
// errors.Is:
//
//   - ErrInvalidCredentials: wrong email or password
//   - ErrEmailNotConfirmed: the account exists but has not been verified
//   - ErrInvalidToken: an access or refresh token was rejected
//
// Failures that never reached a decision (network errors, 5xx responses,
// bodies that are not the expected JSON) are wrapped in *TransportError so
// they can be logged separately. Undecodable bodies additionally match
// ErrMalformedResponse.
//
// The identitytest subpackage provides an in-memory Backend for tests.
package identity

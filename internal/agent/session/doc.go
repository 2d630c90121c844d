// Package session owns the client-side credential lifecycle.
//
// A Session (access token, refresh token, absolute expiry and the identity it
// belongs to) is persisted by CredentialStore as a single JSON file readable
// only by its owner. Manager is the only component that mutates it: it signs
// users in and out through an identity.Backend and refreshes the access token
// lazily whenever it is read within the refresh buffer of its expiry.
//
// There is no background refresher. Every CLI invocation is short lived, so
// each token read has to be self-sufficient:
//
//	store, _ := session.NewCredentialStore("")
//	mgr, _ := session.NewManager(session.Config{Backend: backend, Store: store})
//
//	token, err := mgr.CurrentToken(ctx)
//	if errors.Is(err, session.ErrNotAuthenticated) {
//	    // ask the user to run `pokemcp auth login`
//	}
//
// Manager.TokenSource adapts CurrentToken to oauth2.TokenSource so an
// oauth2.Transport attaches the current bearer token to every outgoing MCP
// request.
//
// # Security
//
//   - The credential file is written with 0600 permissions inside a 0700
//     directory, via a temporary file that is renamed into place.
//   - Token values are never logged. Lifecycle events are logged as
//     SECURITY_AUDIT entries.
//   - A corrupt or unreadable file is treated as "no session" and is
//     overwritten by the next successful login.
package session

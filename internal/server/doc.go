// Package server authenticates inbound MCP tool calls.
//
// Every tool call may carry a bearer token. TokenValidator turns it into a
// Principal by asking the identity provider to introspect the token and then
// reading the scopes and expiry embedded in the token's own claims. The
// claims are decoded without checking the signature: the decision to trust
// the token is delegated entirely to the introspection call that precedes
// the decode in the same Authenticate call. Claims are never decoded for a
// token that was not just introspected, and validated tokens are not cached,
// so revocation is visible on the very next call.
//
// The outcome is binary. Authenticate either returns a Principal or
// ErrUnauthenticated; invalid, expired, undecodable and unintrospectable
// tokens (including an unreachable provider) all look the same to the caller.
// The cause is only logged.
//
// # Integration
//
//	┌───────────────────────────────────────────────┐
//	│                 pokemcp serve                 │
//	│                                               │
//	│  HTTPContextFunc / StdioContextFunc           │
//	│       bearer token -> context                 │
//	│               │                               │
//	│               ▼                               │
//	│  AuthMiddleware (mcp-go tool middleware)      │
//	│       TokenValidator.Authenticate             │
//	│       TokenValidator.Enrich (profile)         │
//	│               │                               │
//	│               ▼                               │
//	│  Tool handler: PrincipalFromContext(ctx)      │
//	└───────────────────────────────────────────────┘
package server

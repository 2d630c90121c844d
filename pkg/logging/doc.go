// Package logging provides subsystem-tagged structured logging for pokemcp.
//
// It is a thin layer over log/slog. Every entry carries a subsystem attribute
// so output from the session manager, the token validator and the MCP server
// can be told apart when the client and the server log to the same terminal.
//
// # Usage
//
//	logging.Init(logging.Options{Level: logging.LevelInfo, Output: os.Stderr})
//
//	logging.Info("SessionManager", "Logged in as %s", email)
//	logging.Debug("TokenValidator", "Introspection took %s", elapsed)
//	logging.Error("ProfileStore", err, "Failed to create profile for %s", userID)
//
// # Security audit events
//
// Credential lifecycle events (token stored, refreshed, cleared, rejected)
// are emitted with Audit. They are logged at INFO level with a
// "SECURITY_AUDIT:" message prefix and an "event" attribute. Token values must
// never be passed as attributes.
//
//	logging.Audit("token_stored", "Session stored", "has_refresh_token", true)
//
// # Output formats
//
// The CLI uses the text handler. `pokemcp serve --log-format=json` switches to
// the JSON handler for log shipping.
package logging

// Package mcpserver exposes the Pokédex tools over the Model Context Protocol.
//
// # Tools
//
//   - pokedex(pokemon_name): name, id, types and base stats of a Pokémon
//   - type_weakness(type_name): attacking types that deal double, half or no
//     damage to the type
//   - type_effectiveness(type_name): defending types the type deals double,
//     half or no damage to
//
// Results are JSON objects. When authentication is enabled every result also
// carries requested_by (the caller's user id), timestamp (RFC 3339) and
// request_id.
//
// # Transports
//
//   - stdio: the bearer token is taken once from configuration
//     (POKEMCP_ACCESS_TOKEN), since stdio has no per-request headers
//   - sse: /sse and /message endpoints, token from the Authorization header
//   - streamable-http: /mcp endpoint, token from the Authorization header
//
// # Authentication
//
// When a TokenValidator is supplied, server.AuthMiddleware is installed as
// tool handler middleware. Calls without a valid token are rejected before
// any PokéAPI request is made.
package mcpserver

// Package config loads the pokemcp configuration.
//
// Configuration lives in a single YAML file, by default
// ~/.config/pokemcp/config.yaml:
//
//	identity:
//	  url: https://project.supabase.co
//	  anonKey: ...
//	  timeout: 10s
//	session:
//	  tokenFile: ~/.config/pokemcp/session.json
//	  refreshBuffer: 5m
//	server:
//	  transport: streamable-http
//	  host: localhost
//	  port: 8090
//	  authEnabled: true
//	profiles:
//	  backend: rest # none, rest or sqlite
//	pokeapi:
//	  baseURL: https://pokeapi.co/api/v2
//	client:
//	  endpoint: http://localhost:8090/mcp
//	  transport: streamable-http
//
// A missing file yields the defaults. The environment variables
// SUPABASE_URL, SUPABASE_ANON_KEY, SUPABASE_SERVICE_ROLE_KEY,
// POKEMCP_TOKEN_FILE, POKEMCP_ENDPOINT and POKEMCP_ACCESS_TOKEN override the
// file. Keys are normally supplied through the environment rather than
// written to disk.
//
// Validate checks only what the given role needs: the chat client never
// needs the service role key, and a server without authentication needs no
// identity provider at all.
package config

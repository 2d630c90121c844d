package config

import "time"

// Transport names.
const (
	TransportStreamableHTTP = "streamable-http"
	TransportSSE            = "sse"
	TransportStdio          = "stdio"
)

// Profile store backends.
const (
	ProfilesNone   = "none"
	ProfilesREST   = "rest"
	ProfilesSQLite = "sqlite"
)

// Config is the top-level configuration structure for pokemcp.
type Config struct {
	Identity IdentityConfig `yaml:"identity"`
	Session  SessionConfig  `yaml:"session"`
	Server   ServerConfig   `yaml:"server"`
	Profiles ProfilesConfig `yaml:"profiles"`
	PokeAPI  PokeAPIConfig  `yaml:"pokeapi"`
	Client   ClientConfig   `yaml:"client"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// IdentityConfig points at the GoTrue-compatible identity provider.
type IdentityConfig struct {
	URL            string        `yaml:"url,omitempty"`
	AnonKey        string        `yaml:"anonKey,omitempty"`
	ServiceRoleKey string        `yaml:"serviceRoleKey,omitempty"` // server only, for the profile table
	Timeout        time.Duration `yaml:"timeout,omitempty"`        // per request, introspection included
}

// SessionConfig configures the client-side credential store.
type SessionConfig struct {
	TokenFile     string        `yaml:"tokenFile,omitempty"`
	RefreshBuffer time.Duration `yaml:"refreshBuffer,omitempty"`
}

// ServerConfig configures `pokemcp serve`.
type ServerConfig struct {
	Transport   string `yaml:"transport,omitempty"`
	Host        string `yaml:"host,omitempty"`
	Port        int    `yaml:"port,omitempty"`
	AuthEnabled bool   `yaml:"authEnabled"`

	// AccessToken authenticates stdio requests. Environment only.
	AccessToken string `yaml:"-"`
}

// ProfilesConfig selects where user profiles are kept.
type ProfilesConfig struct {
	Backend    string `yaml:"backend,omitempty"`
	Table      string `yaml:"table,omitempty"`
	SQLitePath string `yaml:"sqlitePath,omitempty"`
}

// PokeAPIConfig configures the Pokémon data source.
type PokeAPIConfig struct {
	BaseURL string        `yaml:"baseURL,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// ClientConfig configures `pokemcp chat`.
type ClientConfig struct {
	Endpoint  string `yaml:"endpoint,omitempty"`
	Transport string `yaml:"transport,omitempty"`
}

// LoggingConfig configures pkg/logging.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

package config

import "time"

const (
	DefaultIdentityTimeout = 10 * time.Second
	DefaultRefreshBuffer   = 5 * time.Minute
	DefaultServerHost      = "localhost"
	DefaultServerPort      = 8090
	DefaultProfilesTable   = "profiles"
	DefaultPokeAPIURL      = "https://pokeapi.co/api/v2"
	DefaultPokeAPITimeout  = 15 * time.Second
	DefaultClientEndpoint  = "http://localhost:8090/mcp"
)

// GetDefaultConfig returns the configuration used when no file exists.
func GetDefaultConfig() Config {
	return Config{
		Identity: IdentityConfig{
			Timeout: DefaultIdentityTimeout,
		},
		Session: SessionConfig{
			RefreshBuffer: DefaultRefreshBuffer,
		},
		Server: ServerConfig{
			Transport:   TransportStreamableHTTP,
			Host:        DefaultServerHost,
			Port:        DefaultServerPort,
			AuthEnabled: true,
		},
		Profiles: ProfilesConfig{
			Backend: ProfilesREST,
			Table:   DefaultProfilesTable,
		},
		PokeAPI: PokeAPIConfig{
			BaseURL: DefaultPokeAPIURL,
			Timeout: DefaultPokeAPITimeout,
		},
		Client: ClientConfig{
			Endpoint:  DefaultClientEndpoint,
			Transport: TransportStreamableHTTP,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

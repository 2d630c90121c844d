package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pokemcp/internal/config"
	"pokemcp/internal/identity"
	"pokemcp/internal/mcpserver"
	"pokemcp/internal/pokeapi"
	"pokemcp/internal/profile"
	authserver "pokemcp/internal/server"
	"pokemcp/pkg/logging"
)

var (
	serveTransport string
	serveHost      string
	servePort      int
	serveAuth      bool
	serveLogLevel  string
	serveLogFormat string
)

// serveCmd defines the serve command structure.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Pokédex MCP server",
	Long: `Starts the MCP server exposing the pokedex, type_weakness and
type_effectiveness tools.

With authentication enabled (the default) every tool call must carry a
Supabase access token: as an Authorization bearer header on the sse and
streamable-http transports, or in POKEMCP_ACCESS_TOKEN for stdio.

Flags override the server section of config.yaml.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveTransport, "transport", "", "Transport: stdio, sse or streamable-http (default from config)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen host for HTTP transports (default from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port for HTTP transports (default from config)")
	serveCmd.Flags().BoolVar(&serveAuth, "auth", true, "Require a valid access token on tool calls")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "", "Log level: debug, info, warn or error")
	serveCmd.Flags().StringVar(&serveLogFormat, "log-format", "", "Log format: text or json")
}

// serveOverrides applies the flags the user set on top of the loaded config.
func serveOverrides(cmd *cobra.Command) func(*config.Config) {
	return func(c *config.Config) {
		flags := cmd.Flags()
		if flags.Changed("transport") {
			c.Server.Transport = serveTransport
		}
		if flags.Changed("host") {
			c.Server.Host = serveHost
		}
		if flags.Changed("port") {
			c.Server.Port = servePort
		}
		if flags.Changed("auth") {
			c.Server.AuthEnabled = serveAuth
		}
		if flags.Changed("log-level") {
			c.Logging.Level = serveLogLevel
		}
		if flags.Changed("log-format") {
			c.Logging.Format = serveLogFormat
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(config.RoleServer, serveOverrides(cmd))
	if err != nil {
		return err
	}

	initServerLogging(cfg.Logging, os.Stderr)

	srv, cleanup, err := buildServer(cfg, GetVersion())
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Start(ctx)
}

// initServerLogging configures the server logger. Logs always go to w,
// which keeps stdout free for the stdio transport.
func initServerLogging(cfg config.LoggingConfig, w io.Writer) {
	level, _ := logging.ParseLevel(cfg.Level)
	logging.Init(logging.Options{
		Level:  level,
		Format: logging.Format(cfg.Format),
		Output: w,
	})
}

// buildServer wires the data provider, the token validator and the profile
// store. cleanup releases the profile store.
func buildServer(cfg config.Config, version string) (*mcpserver.Server, func(), error) {
	data := pokeapi.NewClient(pokeapi.Config{
		BaseURL: cfg.PokeAPI.BaseURL,
		Timeout: cfg.PokeAPI.Timeout,
	})

	serverCfg := mcpserver.Config{
		Name:       "pokedex",
		Version:    version,
		Transport:  cfg.Server.Transport,
		Host:       cfg.Server.Host,
		Port:       cfg.Server.Port,
		StdioToken: cfg.Server.AccessToken,
	}

	if !cfg.Server.AuthEnabled {
		return mcpserver.New(serverCfg, data, nil), func() {}, nil
	}

	backend, err := identity.NewGoTrueClient(identity.Config{
		URL:     cfg.Identity.URL,
		APIKey:  cfg.Identity.AnonKey,
		Timeout: cfg.Identity.Timeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create identity client: %w", err)
	}

	profiles, cleanup, err := buildProfileStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	validator, err := authserver.NewTokenValidator(authserver.ValidatorConfig{
		Backend:  backend,
		Profiles: profiles,
		Timeout:  cfg.Identity.Timeout,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to create token validator: %w", err)
	}

	return mcpserver.New(serverCfg, data, validator), cleanup, nil
}

// buildProfileStore returns nil for the none backend.
func buildProfileStore(cfg config.Config) (profile.Store, func(), error) {
	switch cfg.Profiles.Backend {
	case config.ProfilesREST:
		store, err := profile.NewRESTStore(profile.RESTConfig{
			URL:            cfg.Identity.URL,
			ServiceRoleKey: cfg.Identity.ServiceRoleKey,
			Table:          cfg.Profiles.Table,
			Timeout:        cfg.Identity.Timeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create profile store: %w", err)
		}
		return store, func() {}, nil

	case config.ProfilesSQLite:
		store, err := profile.NewSQLiteStore(cfg.Profiles.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open profile database: %w", err)
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logging.Warn("Serve", "Failed to close profile database: %v", err)
			}
		}, nil

	default:
		return nil, func() {}, nil
	}
}

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pokemcp/internal/agent"
	"pokemcp/internal/agent/session"
	"pokemcp/internal/cli"
	"pokemcp/internal/config"
)

var (
	chatEndpoint  string
	chatTransport string
	chatTimeout   time.Duration
	chatVerbose   bool
	chatNoColor   bool
)

// chatCmd starts the interactive client.
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive Pokédex client",
	Long: `Connects to a pokemcp server and opens an interactive prompt.

Available commands inside the prompt:
  pokemon <name>         Look up a Pokémon
  weakness <type>        Damage a type takes from other types
  effectiveness <type>   Damage a type deals to other types
  tools                  List the server's tools
  whoami                 Show the signed-in user
  login [email]          Sign in
  logout                 Sign out
  help, exit

The prompt shows [AUTH REQUIRED] while there is no usable session. The
session is shared with 'pokemcp auth'.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVar(&chatEndpoint, "endpoint", "", "Server MCP endpoint URL (default from config)")
	chatCmd.Flags().StringVar(&chatTransport, "transport", "", "Transport: streamable-http or sse (default from config)")
	chatCmd.Flags().DurationVar(&chatTimeout, "timeout", 30*time.Second, "Timeout for each MCP request")
	chatCmd.Flags().BoolVar(&chatVerbose, "verbose", false, "Log MCP requests and responses")
	chatCmd.Flags().BoolVar(&chatNoColor, "no-color", false, "Disable colored output")
}

func chatOverrides(cmd *cobra.Command) func(*config.Config) {
	return func(c *config.Config) {
		if cmd.Flags().Changed("endpoint") {
			c.Client.Endpoint = chatEndpoint
		}
		if cmd.Flags().Changed("transport") {
			c.Client.Transport = chatTransport
		}
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	initCLILogging(cmd.ErrOrStderr())

	cfg, err := loadConfig(config.RoleClient, chatOverrides(cmd))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := agent.NewLogger(chatVerbose, !chatNoColor)

	client, manager, err := connectChatClient(ctx, cmd, cfg, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	return agent.NewREPL(client, manager, logger).Run(ctx)
}

// connectChatClient builds the session-aware MCP client and connects it.
// Tool listing does not need a session, so a signed-out user still gets a
// prompt.
func connectChatClient(ctx context.Context, cmd *cobra.Command, cfg config.Config, logger *agent.Logger) (*agent.Client, *session.Manager, error) {
	manager, _, err := newSessionManager(cfg)
	if err != nil {
		return nil, nil, err
	}

	client := agent.NewClient(cfg.Client.Endpoint, logger, agent.TransportType(cfg.Client.Transport),
		agent.WithHTTPClient(agent.NewHTTPClient(manager.TokenSource(ctx), nil)),
		agent.WithTimeout(chatTimeout),
		agent.WithClientVersion(GetVersion()),
	)

	err = cli.RunWithSpinner(cmd.ErrOrStderr(), false, "Connecting to "+cfg.Client.Endpoint+"...", "Failed to connect", func() error {
		return client.Connect(ctx)
	})
	if err != nil {
		return nil, nil, cli.ClassifyConnectionError(err, cfg.Client.Endpoint)
	}
	return client, manager, nil
}

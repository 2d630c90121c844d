package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"pokemcp/internal/cli"
	"pokemcp/internal/config"
)

// authStatusCmd represents the auth status command
var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	Long: `Show the stored session: the identity provider, the token file, the
signed-in user and when the access token expires.

The token is checked (and refreshed if due) before the state is shown.`,
	Args: cobra.NoArgs,
	RunE: runAuthStatus,
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	initCLILogging(cmd.ErrOrStderr())

	cfg, err := loadConfig(config.RoleClient)
	if err != nil {
		return err
	}
	manager, store, err := newSessionManager(cfg)
	if err != nil {
		return err
	}

	status := cli.SessionStatus{
		IdentityURL: cfg.Identity.URL,
		TokenFile:   store.Path(),
	}

	if manager.UserInfo() != nil {
		manager.IsAuthenticated(cmd.Context())

		// Read again: the check may have rotated the session.
		if info := manager.UserInfo(); info != nil {
			status.Stored = true
			status.UserID = info.UserID
			status.Email = info.Email
			status.ExpiresAt = info.ExpiresAt
			status.State = manager.State().String()
		}
	}

	cli.RenderSessionStatus(cmd.OutOrStdout(), status, time.Now())
	return nil
}

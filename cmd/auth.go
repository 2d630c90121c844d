package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pokemcp/internal/cli"
	"pokemcp/internal/config"
)

var authQuiet bool

// authCmd represents the auth command group
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the pokemcp session",
	Long: `Manage the local Supabase session used by pokemcp clients.

The session is stored in the token file (default: session.json next to
config.yaml) and refreshed automatically shortly before it expires.

Examples:
  pokemcp auth signup ash@pallet.town   # Register a new account
  pokemcp auth login                    # Sign in interactively
  pokemcp auth status                   # Show the stored session
  pokemcp auth whoami                   # Show the signed-in identity
  pokemcp auth refresh                  # Force a token refresh
  pokemcp auth logout                   # Sign out and delete the session`,
}

// authLogoutCmd represents the auth logout command
var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and delete the stored session",
	Long: `Revoke the session at the identity provider and delete the token file.

The local session is removed even when the identity provider cannot be
reached.`,
	Args: cobra.NoArgs,
	RunE: runAuthLogout,
}

// authRefreshCmd represents the auth refresh command
var authRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Force token refresh",
	Long: `Exchange the stored refresh token for a new session, even if the current
access token is still valid.`,
	Args: cobra.NoArgs,
	RunE: runAuthRefresh,
}

// authWhoamiCmd represents the auth whoami command
var authWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show current authenticated identity",
	Long: `Show the identity of the stored session. The token is refreshed first if it
is about to expire.`,
	Args: cobra.NoArgs,
	RunE: runAuthWhoami,
}

// authPrint prints output only if the --quiet flag is not set.
// Use this for progress messages and non-essential output.
func authPrint(cmd *cobra.Command, format string, args ...interface{}) {
	if !authQuiet {
		fmt.Fprintf(cmd.OutOrStdout(), format, args...)
	}
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authSignupCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authRefreshCmd)
	authCmd.AddCommand(authWhoamiCmd)

	authCmd.PersistentFlags().BoolVarP(&authQuiet, "quiet", "q", false, "Suppress non-essential output")
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	initCLILogging(cmd.ErrOrStderr())

	cfg, err := loadConfig(config.RoleClient)
	if err != nil {
		return err
	}
	manager, _, err := newSessionManager(cfg)
	if err != nil {
		return err
	}

	if manager.UserInfo() == nil {
		authPrint(cmd, "Not logged in.\n")
		return nil
	}

	if err := manager.Logout(cmd.Context()); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	authPrint(cmd, "Logged out.\n")
	return nil
}

func runAuthRefresh(cmd *cobra.Command, args []string) error {
	initCLILogging(cmd.ErrOrStderr())

	cfg, err := loadConfig(config.RoleClient)
	if err != nil {
		return err
	}
	manager, _, err := newSessionManager(cfg)
	if err != nil {
		return err
	}

	err = cli.RunWithSpinner(cmd.ErrOrStderr(), authQuiet, "Refreshing session...", "Failed to refresh session", func() error {
		return manager.Refresh(cmd.Context())
	})
	if err != nil {
		return sessionError(err, cfg.Identity.URL)
	}

	info := manager.UserInfo()
	authPrint(cmd, "Token refreshed, expires %s.\n", cli.FormatExpiryWithDirection(info.ExpiresAt, time.Now()))
	return nil
}

func runAuthWhoami(cmd *cobra.Command, args []string) error {
	initCLILogging(cmd.ErrOrStderr())

	cfg, err := loadConfig(config.RoleClient)
	if err != nil {
		return err
	}
	manager, _, err := newSessionManager(cfg)
	if err != nil {
		return err
	}

	if _, err := manager.CurrentToken(cmd.Context()); err != nil {
		return sessionError(err, cfg.Identity.URL)
	}

	info := manager.UserInfo()
	out := cmd.OutOrStdout()
	if info.Email != "" {
		fmt.Fprintf(out, "Identity:  %s\n", info.Email)
	}
	fmt.Fprintf(out, "User ID:   %s\n", info.UserID)
	fmt.Fprintf(out, "Issuer:    %s\n", cfg.Identity.URL)
	if !info.ExpiresAt.IsZero() {
		fmt.Fprintf(out, "Expires:   %s\n", cli.FormatExpiryWithDirection(info.ExpiresAt, time.Now()))
	}
	return nil
}

package cmd

import (
	"github.com/spf13/cobra"

	"pokemcp/internal/cli"
	"pokemcp/internal/config"
)

// passwordStdin makes login and signup read the password from stdin.
var passwordStdin bool

// authLoginCmd represents the auth login command
var authLoginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Sign in with email and password",
	Long: `Sign in to the identity provider and store the session in the token file.

The password is read from the terminal without echo, or from the first line
of stdin with --password-stdin. A failed login keeps the previous session.

Examples:
  pokemcp auth login
  pokemcp auth login ash@pallet.town
  echo "$PASSWORD" | pokemcp auth login ash@pallet.town --password-stdin`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthLogin,
}

// authSignupCmd represents the auth signup command
var authSignupCmd = &cobra.Command{
	Use:   "signup [email]",
	Short: "Register a new account",
	Long: `Register a new account with the identity provider.

No session is stored: confirm the address from the verification email and
then run 'pokemcp auth login'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthSignup,
}

func init() {
	authLoginCmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	authSignupCmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	initCLILogging(cmd.ErrOrStderr())

	cfg, err := loadConfig(config.RoleClient)
	if err != nil {
		return err
	}
	manager, _, err := newSessionManager(cfg)
	if err != nil {
		return err
	}

	email, password, err := readCredentials(cmd, args, false)
	if err != nil {
		return err
	}

	err = cli.RunWithSpinner(cmd.ErrOrStderr(), authQuiet, "Signing in...", "Sign in failed", func() error {
		return manager.Login(cmd.Context(), email, password)
	})
	if err != nil {
		return sessionError(err, cfg.Identity.URL)
	}

	authPrint(cmd, "Logged in as %s\n", manager.UserInfo().Email)
	return nil
}

func runAuthSignup(cmd *cobra.Command, args []string) error {
	initCLILogging(cmd.ErrOrStderr())

	cfg, err := loadConfig(config.RoleClient)
	if err != nil {
		return err
	}
	manager, _, err := newSessionManager(cfg)
	if err != nil {
		return err
	}

	email, password, err := readCredentials(cmd, args, true)
	if err != nil {
		return err
	}

	err = cli.RunWithSpinner(cmd.ErrOrStderr(), authQuiet, "Registering...", "Registration failed", func() error {
		_, err := manager.SignUp(cmd.Context(), email, password)
		return err
	})
	if err != nil {
		return sessionError(err, cfg.Identity.URL)
	}

	authPrint(cmd, "Registered %s.\n", email)
	authPrint(cmd, "Confirm the address from the verification email, then run 'pokemcp auth login'.\n")
	return nil
}

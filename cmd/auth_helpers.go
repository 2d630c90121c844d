package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"pokemcp/internal/agent/session"
	"pokemcp/internal/cli"
	"pokemcp/internal/config"
	"pokemcp/internal/identity"
	"pokemcp/pkg/logging"
)

// Terminal prompts. Tests replace them.
var (
	promptLine     = readlineLine
	promptPassword = readlinePassword
)

// loadConfig loads the configuration from --config-path, applies overrides
// and validates the result for role.
func loadConfig(role config.Role, overrides ...func(*config.Config)) (config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return config.Config{}, err
	}
	for _, override := range overrides {
		override(&cfg)
	}
	if err := cfg.Validate(role); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// initCLILogging keeps library logging out of the way of command output
// unless --debug is set.
func initCLILogging(w io.Writer) {
	level := logging.LevelWarn
	if debug {
		level = logging.LevelDebug
	}
	logging.InitForCLI(level, w)
}

// newSessionManager wires the identity client and credential store for the
// client commands.
func newSessionManager(cfg config.Config) (*session.Manager, *session.CredentialStore, error) {
	backend, err := identity.NewGoTrueClient(identity.Config{
		URL:     cfg.Identity.URL,
		APIKey:  cfg.Identity.AnonKey,
		Timeout: cfg.Identity.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}

	store, err := session.NewCredentialStore(cfg.Session.TokenFile)
	if err != nil {
		return nil, nil, err
	}

	manager, err := session.NewManager(session.Config{
		Backend:       backend,
		Store:         store,
		RefreshBuffer: cfg.Session.RefreshBuffer,
		Timeout:       cfg.Identity.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}
	return manager, store, nil
}

// sessionError maps session manager errors to the CLI error types that carry
// exit codes and guidance.
func sessionError(err error, endpoint string) error {
	var loginErr *session.LoginError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, session.ErrNotAuthenticated):
		return &cli.AuthRequiredError{Endpoint: endpoint}
	case errors.Is(err, session.ErrRefreshFailed):
		return &cli.AuthExpiredError{Endpoint: endpoint, Reason: err}
	case errors.As(err, &loginErr):
		return &cli.AuthFailedError{Endpoint: endpoint, Reason: loginErr}
	default:
		return err
	}
}

// readCredentials resolves the email from args or a prompt and the password
// from stdin (--password-stdin) or a prompt without echo. confirm asks for
// the password twice when prompting.
func readCredentials(cmd *cobra.Command, args []string, confirm bool) (string, string, error) {
	email := ""
	if len(args) > 0 {
		email = strings.TrimSpace(args[0])
	}
	if email == "" {
		line, err := promptLine("Email: ")
		if err != nil {
			return "", "", fmt.Errorf("failed to read email: %w", err)
		}
		email = strings.TrimSpace(line)
	}
	if email == "" {
		return "", "", errors.New("email is required")
	}

	if passwordStdin {
		password, err := readPasswordFrom(cmd.InOrStdin())
		if err != nil {
			return "", "", err
		}
		return email, password, nil
	}

	password, err := promptPassword("Password: ")
	if err != nil {
		return "", "", fmt.Errorf("failed to read password: %w", err)
	}
	if password == "" {
		return "", "", errors.New("password is required")
	}
	if confirm {
		again, err := promptPassword("Confirm password: ")
		if err != nil {
			return "", "", fmt.Errorf("failed to read password: %w", err)
		}
		if again != password {
			return "", "", errors.New("passwords do not match")
		}
	}
	return email, password, nil
}

// readPasswordFrom reads the first line of r.
func readPasswordFrom(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read password from stdin: %w", err)
		}
		return "", errors.New("password is required on stdin")
	}
	password := strings.TrimRight(scanner.Text(), "\r")
	if password == "" {
		return "", errors.New("password is required on stdin")
	}
	return password, nil
}

func readlineLine(prompt string) (string, error) {
	rl, err := readline.NewEx(&readline.Config{Prompt: prompt})
	if err != nil {
		return "", err
	}
	defer rl.Close()
	return rl.Readline()
}

func readlinePassword(prompt string) (string, error) {
	rl, err := readline.NewEx(&readline.Config{})
	if err != nil {
		return "", err
	}
	defer rl.Close()

	pw, err := rl.ReadPassword(prompt)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

package commands

import (
	"context"
)

// LogoutCommand ends the stored session.
type LogoutCommand struct {
	*BaseCommand
	auth         AuthInterface
	onAuthChange func()
}

// NewLogoutCommand creates a new logout command
func NewLogoutCommand(client ClientInterface, output OutputLogger, auth AuthInterface, onAuthChange func()) *LogoutCommand {
	return &LogoutCommand{
		BaseCommand:  NewBaseCommand(client, output),
		auth:         auth,
		onAuthChange: onAuthChange,
	}
}

// Execute logs out. The local session is cleared even when the identity
// provider cannot be reached.
func (l *LogoutCommand) Execute(ctx context.Context, args []string) error {
	err := l.auth.Logout(ctx)
	if l.onAuthChange != nil {
		l.onAuthChange()
	}
	if err != nil {
		return err
	}
	l.output.Success("Logged out")
	return nil
}

// Usage returns the usage string
func (l *LogoutCommand) Usage() string {
	return "logout"
}

// Description returns the command description
func (l *LogoutCommand) Description() string {
	return "Sign out and delete the stored session"
}

// Completions returns possible completions
func (l *LogoutCommand) Completions(input string) []string {
	return []string{}
}

// Aliases returns command aliases
func (l *LogoutCommand) Aliases() []string {
	return []string{"signout"}
}

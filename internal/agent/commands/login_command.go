package commands

import (
	"context"
	"errors"
	"strings"
)

// LoginCommand signs in with email and password. The password is always
// read through the Prompter and never taken from the command line.
type LoginCommand struct {
	*BaseCommand
	auth         AuthInterface
	prompter     Prompter
	onAuthChange func()
}

// NewLoginCommand creates a new login command
func NewLoginCommand(client ClientInterface, output OutputLogger, auth AuthInterface, prompter Prompter, onAuthChange func()) *LoginCommand {
	return &LoginCommand{
		BaseCommand:  NewBaseCommand(client, output),
		auth:         auth,
		prompter:     prompter,
		onAuthChange: onAuthChange,
	}
}

// Execute prompts for missing credentials and logs in.
func (l *LoginCommand) Execute(ctx context.Context, args []string) error {
	email := ""
	if len(args) > 0 {
		email = strings.TrimSpace(stripQuotes(args[0]))
	}
	if email == "" {
		line, err := l.prompter.ReadLine("Email: ")
		if err != nil {
			return err
		}
		email = strings.TrimSpace(line)
	}
	if email == "" {
		return errors.New("email is required")
	}

	password, err := l.prompter.ReadPassword("Password: ")
	if err != nil {
		return err
	}
	if password == "" {
		return errors.New("password is required")
	}

	err = l.auth.Login(ctx, email, password)
	if l.onAuthChange != nil {
		l.onAuthChange()
	}
	if err != nil {
		return err
	}

	l.output.Success("Logged in as %s", email)
	return nil
}

// Usage returns the usage string
func (l *LoginCommand) Usage() string {
	return "login [email]"
}

// Description returns the command description
func (l *LoginCommand) Description() string {
	return "Sign in with email and password"
}

// Completions returns possible completions
func (l *LoginCommand) Completions(input string) []string {
	return []string{}
}

// Aliases returns command aliases
func (l *LoginCommand) Aliases() []string {
	return []string{"signin"}
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// WhoAmICommand shows who the current access token belongs to.
type WhoAmICommand struct {
	*BaseCommand
	auth AuthInterface
	now  func() time.Time
}

// NewWhoAmICommand creates a new whoami command
func NewWhoAmICommand(client ClientInterface, output OutputLogger, auth AuthInterface) *WhoAmICommand {
	return &WhoAmICommand{
		BaseCommand: NewBaseCommand(client, output),
		auth:        auth,
		now:         time.Now,
	}
}

// Execute reads the identity from the claims of the current token. The
// token is not verified here; the server does that on every tool call.
func (w *WhoAmICommand) Execute(ctx context.Context, args []string) error {
	token, err := w.auth.CurrentToken(ctx)
	if err != nil {
		return fmt.Errorf("not authenticated. Run 'login' to sign in: %w", err)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return errors.New("the stored access token is not a readable JWT")
	}

	sub, _ := claims.GetSubject()
	w.output.OutputLine("User ID: %s", sub)
	if email, ok := claims["email"].(string); ok && email != "" {
		w.output.OutputLine("Email:   %s", email)
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		remaining := exp.Sub(w.now()).Round(time.Second)
		w.output.OutputLine("Expires: %s (in %s)", exp.Local().Format(time.RFC3339), remaining)
	}
	return nil
}

// Usage returns the usage string
func (w *WhoAmICommand) Usage() string {
	return "whoami"
}

// Description returns the command description
func (w *WhoAmICommand) Description() string {
	return "Show the signed-in user"
}

// Completions returns possible completions
func (w *WhoAmICommand) Completions(input string) []string {
	return []string{}
}

// Aliases returns command aliases
func (w *WhoAmICommand) Aliases() []string {
	return []string{"me"}
}

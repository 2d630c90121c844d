package commands

import (
	"context"
)

// ExitCommand handles REPL exit
type ExitCommand struct {
	*BaseCommand
}

// NewExitCommand creates a new exit command
func NewExitCommand(client ClientInterface, output OutputLogger) *ExitCommand {
	return &ExitCommand{
		BaseCommand: NewBaseCommand(client, output),
	}
}

// Execute returns ErrExit to signal REPL shutdown.
func (e *ExitCommand) Execute(ctx context.Context, args []string) error {
	return ErrExit
}

// Usage returns the usage string
func (e *ExitCommand) Usage() string {
	return "exit"
}

// Description returns the command description
func (e *ExitCommand) Description() string {
	return "Exit the REPL"
}

// Completions returns possible completions
func (e *ExitCommand) Completions(input string) []string {
	return []string{}
}

// Aliases returns command aliases
func (e *ExitCommand) Aliases() []string {
	return []string{"quit", "q"}
}

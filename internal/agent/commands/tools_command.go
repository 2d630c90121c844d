package commands

import (
	"context"
)

// ToolsCommand lists the tools offered by the server.
type ToolsCommand struct {
	*BaseCommand
}

// NewToolsCommand creates a new tools command
func NewToolsCommand(client ClientInterface, output OutputLogger) *ToolsCommand {
	return &ToolsCommand{
		BaseCommand: NewBaseCommand(client, output),
	}
}

// Execute refreshes the tool cache and prints it.
func (t *ToolsCommand) Execute(ctx context.Context, args []string) error {
	if err := t.client.RefreshToolCache(ctx); err != nil {
		return err
	}
	t.output.OutputLine("%s", t.client.GetFormatters().FormatToolsList(t.client.GetToolCache()))
	return nil
}

// Usage returns the usage string
func (t *ToolsCommand) Usage() string {
	return "tools"
}

// Description returns the command description
func (t *ToolsCommand) Description() string {
	return "List the tools offered by the server"
}

// Completions returns possible completions
func (t *ToolsCommand) Completions(input string) []string {
	return []string{}
}

// Aliases returns command aliases
func (t *ToolsCommand) Aliases() []string {
	return []string{"list", "ls"}
}

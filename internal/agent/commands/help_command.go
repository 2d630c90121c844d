package commands

import (
	"context"
	"strings"
)

// HelpCommand prints the available commands.
type HelpCommand struct {
	*BaseCommand
	registry *Registry
}

// NewHelpCommand creates a new help command
func NewHelpCommand(client ClientInterface, output OutputLogger, registry *Registry) *HelpCommand {
	return &HelpCommand{
		BaseCommand: NewBaseCommand(client, output),
		registry:    registry,
	}
}

// Execute prints every command, or the usage of the named one.
func (h *HelpCommand) Execute(ctx context.Context, args []string) error {
	if len(args) > 0 {
		if cmd, ok := h.registry.Get(strings.ToLower(args[0])); ok {
			h.output.OutputLine("Usage: %s", cmd.Usage())
			h.output.OutputLine("  %s", cmd.Description())
			if aliases := cmd.Aliases(); len(aliases) > 0 {
				h.output.OutputLine("  Aliases: %s", strings.Join(aliases, ", "))
			}
			return nil
		}
	}

	h.output.OutputLine("Available commands:")
	for _, name := range h.registry.List() {
		cmd, _ := h.registry.Get(name)
		h.output.OutputLine("  %-24s %s", cmd.Usage(), cmd.Description())
	}
	h.output.OutputLine("")
	h.output.OutputLine("Use TAB for completion, 'help <command>' for details.")
	return nil
}

// Usage returns the usage string
func (h *HelpCommand) Usage() string {
	return "help [command]"
}

// Description returns the command description
func (h *HelpCommand) Description() string {
	return "Show available commands"
}

// Completions returns possible completions
func (h *HelpCommand) Completions(input string) []string {
	var out []string
	for _, name := range h.registry.List() {
		if strings.HasPrefix(name, input) {
			out = append(out, name)
		}
	}
	return out
}

// Aliases returns command aliases
func (h *HelpCommand) Aliases() []string {
	return []string{"?", "h"}
}

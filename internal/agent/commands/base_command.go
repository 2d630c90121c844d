package commands

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// BaseCommand provides common functionality for all REPL commands.
type BaseCommand struct {
	client ClientInterface
	output OutputLogger
}

// NewBaseCommand creates a new base command with the specified dependencies.
func NewBaseCommand(client ClientInterface, output OutputLogger) *BaseCommand {
	return &BaseCommand{
		client: client,
		output: output,
	}
}

// parseArgs checks that at least minArgs arguments were given.
func (b *BaseCommand) parseArgs(args []string, minArgs int, usage string) ([]string, error) {
	if len(args) < minArgs {
		return nil, fmt.Errorf("usage: %s", usage)
	}
	return args, nil
}

// joinArgsFrom joins arguments starting from a specific index into a single string.
func (b *BaseCommand) joinArgsFrom(args []string, index int) string {
	if index >= len(args) {
		return ""
	}
	return strings.Join(args[index:], " ")
}

// stripQuotes removes surrounding single or double quotes from a string.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') ||
			(s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// resultText concatenates the text content of a tool result.
func resultText(result *mcp.CallToolResult) string {
	var parts []string
	for _, content := range result.Content {
		if text, ok := mcp.AsTextContent(content); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}

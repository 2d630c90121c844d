// Package commands provides the REPL command implementations of the chat
// client.
//
// Each command implements Command and is registered with a Registry under its
// primary name. Aliases resolve to the primary name.
package commands

import (
	"context"
	"errors"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
)

// ErrExit is returned by the exit command to end the REPL.
var ErrExit = errors.New("exit")

// Command represents a REPL command that can be executed interactively.
type Command interface {
	// Execute runs the command with the given arguments
	Execute(ctx context.Context, args []string) error

	// Usage returns the usage string for the command
	Usage() string

	// Description returns a brief description of what the command does
	Description() string

	// Completions returns possible completions for the command
	// The input parameter is the current partial input for context
	Completions(input string) []string

	// Aliases returns alternative names for this command
	Aliases() []string
}

// OutputLogger defines the interface for structured command output.
// This separates user-facing output from system logging.
type OutputLogger interface {
	// User-facing output (no timestamps)
	Output(format string, args ...interface{})
	OutputLine(format string, args ...interface{})

	// System messages (with timestamps)
	Info(format string, args ...interface{})
	Debug(format string, args ...interface{})
	Error(format string, args ...interface{})
	Success(format string, args ...interface{})
}

// ClientInterface is what commands need from the MCP client.
type ClientInterface interface {
	GetToolCache() []mcp.Tool
	RefreshToolCache(ctx context.Context) error
	CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error)
	GetFormatters() FormatterInterface
}

// FormatterInterface renders tool data for the console.
type FormatterInterface interface {
	FormatToolsList(tools []mcp.Tool) string
	FormatToolResult(tool, text string) string
}

// AuthInterface is the part of the session manager the chat client may use.
type AuthInterface interface {
	IsAuthenticated(ctx context.Context) bool
	CurrentToken(ctx context.Context) (string, error)
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context) error
}

// Prompter reads interactive input. ReadPassword must not echo.
type Prompter interface {
	ReadLine(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
}

// Registry manages available commands for the REPL.
type Registry struct {
	commands map[string]Command
	aliases  map[string]string // alias -> primary command name
}

// NewRegistry creates a new command registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
		aliases:  make(map[string]string),
	}
}

// Register adds a command to the registry.
func (r *Registry) Register(name string, cmd Command) {
	r.commands[name] = cmd

	for _, alias := range cmd.Aliases() {
		r.aliases[alias] = name
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) (Command, bool) {
	if cmd, exists := r.commands[name]; exists {
		return cmd, true
	}

	if primary, exists := r.aliases[name]; exists {
		if cmd, exists := r.commands[primary]; exists {
			return cmd, true
		}
	}

	return nil, false
}

// List returns all registered command names in alphabetical order.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AllCompletions returns all possible command completions.
func (r *Registry) AllCompletions() []string {
	var completions []string

	for name := range r.commands {
		completions = append(completions, name)
	}
	for alias := range r.aliases {
		completions = append(completions, alias)
	}

	sort.Strings(completions)
	return completions
}

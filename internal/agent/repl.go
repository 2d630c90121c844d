package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"

	"pokemcp/internal/agent/commands"
)

// StateAuthRequired is shown in the prompt while no usable token exists.
const StateAuthRequired = "[AUTH REQUIRED]"

const (
	promptPrefix         = "pokedex"
	promptChevronUnicode = "»"
	promptChevronASCII   = ">"
)

// commandExecutionTimeout bounds a single REPL command.
const commandExecutionTimeout = 2 * time.Minute

// REPL is the interactive chat loop. It talks to the server through Client
// and to the session through the commands.AuthInterface subset only.
type REPL struct {
	client          *Client
	auth            commands.AuthInterface
	logger          *Logger
	rl              *readline.Instance
	commandRegistry *commands.Registry
	historyFile     string
	authRequired    bool
	useUnicode      bool
	mu              sync.RWMutex
}

// NewREPL creates a REPL and registers its commands.
func NewREPL(client *Client, auth commands.AuthInterface, logger *Logger) *REPL {
	r := &REPL{
		client:          client,
		auth:            auth,
		logger:          logger,
		commandRegistry: commands.NewRegistry(),
		historyFile:     filepath.Join(os.TempDir(), ".pokemcp_history"),
		useUnicode:      detectUnicodeSupport(),
	}
	r.registerCommands()
	return r
}

func (r *REPL) registerCommands() {
	onAuthChange := func() { r.checkAuthRequired(context.Background()) }

	r.commandRegistry.Register("help", commands.NewHelpCommand(r.client, r.logger, r.commandRegistry))
	r.commandRegistry.Register("pokemon", commands.NewPokemonCommand(r.client, r.logger, onAuthChange))
	r.commandRegistry.Register("weakness", commands.NewWeaknessCommand(r.client, r.logger, onAuthChange))
	r.commandRegistry.Register("effectiveness", commands.NewEffectivenessCommand(r.client, r.logger, onAuthChange))
	r.commandRegistry.Register("tools", commands.NewToolsCommand(r.client, r.logger))
	r.commandRegistry.Register("whoami", commands.NewWhoAmICommand(r.client, r.logger, r.auth))
	r.commandRegistry.Register("login", commands.NewLoginCommand(r.client, r.logger, r.auth, r, onAuthChange))
	r.commandRegistry.Register("logout", commands.NewLogoutCommand(r.client, r.logger, r.auth, onAuthChange))
	r.commandRegistry.Register("exit", commands.NewExitCommand(r.client, r.logger))
}

// detectUnicodeSupport checks if the terminal likely supports unicode characters.
func detectUnicodeSupport() bool {
	term := os.Getenv("TERM")
	if term == "" || term == "dumb" {
		return false
	}
	for _, v := range []string{os.Getenv("LANG"), os.Getenv("LC_ALL")} {
		lower := strings.ToLower(v)
		if strings.Contains(lower, "utf-8") || strings.Contains(lower, "utf8") {
			return true
		}
	}
	return !strings.HasPrefix(strings.ToLower(term), "vt")
}

// buildPrompt renders "pokedex » " or "pokedex [AUTH REQUIRED] » ".
func (r *REPL) buildPrompt() string {
	r.mu.RLock()
	authReq := r.authRequired
	useUnicode := r.useUnicode
	r.mu.RUnlock()

	chevron := promptChevronASCII
	if useUnicode {
		chevron = promptChevronUnicode
	}

	parts := []string{promptPrefix}
	if authReq {
		parts = append(parts, StateAuthRequired)
	}
	parts = append(parts, chevron)
	return strings.Join(parts, " ") + " "
}

func (r *REPL) updatePrompt() {
	if r.rl != nil {
		r.rl.SetPrompt(r.buildPrompt())
	}
}

// checkAuthRequired re-evaluates the session and updates the prompt.
func (r *REPL) checkAuthRequired(ctx context.Context) {
	authRequired := !r.auth.IsAuthenticated(ctx)

	r.mu.Lock()
	changed := r.authRequired != authRequired
	r.authRequired = authRequired
	r.mu.Unlock()

	if changed {
		r.updatePrompt()
		if authRequired {
			r.logger.Info("Not signed in. Run 'login' to authenticate")
		}
	}
}

// ReadLine implements commands.Prompter.
func (r *REPL) ReadLine(prompt string) (string, error) {
	if r.rl == nil {
		return "", errors.New("no interactive terminal")
	}
	r.rl.SetPrompt(prompt)
	defer r.updatePrompt()
	return r.rl.Readline()
}

// ReadPassword implements commands.Prompter without echoing input.
func (r *REPL) ReadPassword(prompt string) (string, error) {
	if r.rl == nil {
		return "", errors.New("no interactive terminal")
	}
	defer r.updatePrompt()
	pw, err := r.rl.ReadPassword(prompt)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// executeCommand parses and executes a command using the registry.
func (r *REPL) executeCommand(ctx context.Context, input string) error {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	command, exists := r.commandRegistry.Get(strings.ToLower(parts[0]))
	if !exists {
		return fmt.Errorf("unknown command: %s. Type 'help' for available commands", parts[0])
	}

	commandCtx, cancel := context.WithTimeout(ctx, commandExecutionTimeout)
	defer cancel()

	return command.Execute(commandCtx, parts[1:])
}

// Run starts the REPL and processes commands until exit, EOF or ctx is
// cancelled.
func (r *REPL) Run(ctx context.Context) error {
	config := &readline.Config{
		Prompt:          r.buildPrompt(),
		HistoryFile:     r.historyFile,
		AutoComplete:    r.createCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	}

	rl, err := readline.NewEx(config)
	if err != nil {
		return fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer rl.Close()
	r.rl = rl

	r.checkAuthRequired(ctx)
	r.updatePrompt()

	r.logger.Info("Connected to %s. Type 'help' for available commands. Use TAB for completion.", r.client.Endpoint())
	fmt.Println()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("REPL shutting down...")
			return nil
		default:
		}

		line, err := r.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		} else if errors.Is(err, io.EOF) {
			r.logger.Info("Goodbye!")
			return nil
		} else if err != nil {
			return fmt.Errorf("readline error: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if err := r.executeCommand(ctx, input); err != nil {
			if errors.Is(err, commands.ErrExit) {
				r.logger.Info("Goodbye!")
				return nil
			}
			r.logger.Error("Error: %v", err)
		}

		fmt.Println()
	}
}

// createCompleter builds tab completion from the registered commands.
func (r *REPL) createCompleter() *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, name := range r.commandRegistry.List() {
		cmd, _ := r.commandRegistry.Get(name)
		complete := cmd.Completions
		items = append(items, readline.PcItem(name,
			readline.PcItemDynamic(func(line string) []string {
				fields := strings.Fields(line)
				prefix := ""
				if len(fields) > 1 && !strings.HasSuffix(line, " ") {
					prefix = fields[len(fields)-1]
				}
				return complete(prefix)
			}),
		))
	}
	return readline.NewPrefixCompleter(items...)
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

package commands

import (
	"context"
	"errors"
	"strings"
)

// Tool names served by the pokemcp server.
const (
	ToolPokedex           = "pokedex"
	ToolTypeWeakness      = "type_weakness"
	ToolTypeEffectiveness = "type_effectiveness"
)

// pokemonTypes completes type arguments.
var pokemonTypes = []string{
	"bug", "dark", "dragon", "electric", "fairy", "fighting", "fire", "flying", "ghost",
	"grass", "ground", "ice", "normal", "poison", "psychic", "rock", "steel", "water",
}

// ToolCommand calls one server tool with a single name argument.
type ToolCommand struct {
	*BaseCommand
	tool         string
	argName      string
	usage        string
	description  string
	aliases      []string
	completions  []string
	onAuthChange func()
}

// NewPokemonCommand looks up a Pokémon through the pokedex tool.
func NewPokemonCommand(client ClientInterface, output OutputLogger, onAuthChange func()) *ToolCommand {
	return &ToolCommand{
		BaseCommand:  NewBaseCommand(client, output),
		tool:         ToolPokedex,
		argName:      "pokemon_name",
		usage:        "pokemon <name>",
		description:  "Show the types and base stats of a Pokémon",
		aliases:      []string{"dex", "p"},
		onAuthChange: onAuthChange,
	}
}

// NewWeaknessCommand shows which attacking types hurt a type.
func NewWeaknessCommand(client ClientInterface, output OutputLogger, onAuthChange func()) *ToolCommand {
	return &ToolCommand{
		BaseCommand:  NewBaseCommand(client, output),
		tool:         ToolTypeWeakness,
		argName:      "type_name",
		usage:        "weakness <type>",
		description:  "Show the attacking types a type is weak or resistant to",
		aliases:      []string{"weak", "w"},
		completions:  pokemonTypes,
		onAuthChange: onAuthChange,
	}
}

// NewEffectivenessCommand shows which defending types a type hurts.
func NewEffectivenessCommand(client ClientInterface, output OutputLogger, onAuthChange func()) *ToolCommand {
	return &ToolCommand{
		BaseCommand:  NewBaseCommand(client, output),
		tool:         ToolTypeEffectiveness,
		argName:      "type_name",
		usage:        "effectiveness <type>",
		description:  "Show the defending types a type is strong or weak against",
		aliases:      []string{"eff", "e"},
		completions:  pokemonTypes,
		onAuthChange: onAuthChange,
	}
}

// Execute calls the tool and prints the formatted result.
func (c *ToolCommand) Execute(ctx context.Context, args []string) error {
	parsed, err := c.parseArgs(args, 1, c.usage)
	if err != nil {
		return err
	}
	name := strings.ToLower(stripQuotes(c.joinArgsFrom(parsed, 0)))

	result, err := c.client.CallTool(ctx, c.tool, map[string]interface{}{c.argName: name})
	if err != nil {
		return err
	}

	text := resultText(result)
	if result.IsError {
		if strings.HasPrefix(text, "unauthenticated") {
			if c.onAuthChange != nil {
				c.onAuthChange()
			}
			return errors.New("not authenticated. Run 'login' to sign in")
		}
		return errors.New(text)
	}

	c.output.OutputLine("%s", c.client.GetFormatters().FormatToolResult(c.tool, text))
	return nil
}

// Usage returns the usage string
func (c *ToolCommand) Usage() string {
	return c.usage
}

// Description returns the command description
func (c *ToolCommand) Description() string {
	return c.description
}

// Completions returns possible completions
func (c *ToolCommand) Completions(input string) []string {
	var out []string
	for _, candidate := range c.completions {
		if strings.HasPrefix(candidate, input) {
			out = append(out, candidate)
		}
	}
	return out
}

// Aliases returns command aliases
func (c *ToolCommand) Aliases() []string {
	return c.aliases
}

// Tool returns the name of the server tool the command calls.
func (c *ToolCommand) Tool() string {
	return c.tool
}

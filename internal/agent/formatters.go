package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"pokemcp/internal/agent/commands"
)

// Formatters renders tool data for the console.
type Formatters struct{}

// NewFormatters creates a new formatters instance
func NewFormatters() *Formatters {
	return &Formatters{}
}

// FormatToolsList formats tools list for console output
func (f *Formatters) FormatToolsList(tools []mcp.Tool) string {
	if len(tools) == 0 {
		return "No tools available."
	}

	var output []string
	output = append(output, fmt.Sprintf("Available tools (%d):", len(tools)))
	for i, tool := range tools {
		output = append(output, fmt.Sprintf("  %d. %-20s - %s", i+1, tool.Name, tool.Description))
	}
	return strings.Join(output, "\n")
}

type pokemonResult struct {
	Name  string   `json:"name"`
	ID    int      `json:"id"`
	Types []string `json:"types"`
	Stats []struct {
		Name string `json:"name"`
		Base int    `json:"base"`
	} `json:"stats"`
}

type relationsResult struct {
	Name             string   `json:"name"`
	DoubleDamageFrom []string `json:"double_damage_from"`
	HalfDamageFrom   []string `json:"half_damage_from"`
	NoDamageFrom     []string `json:"no_damage_from"`
	DoubleDamageTo   []string `json:"double_damage_to"`
	HalfDamageTo     []string `json:"half_damage_to"`
	NoDamageTo       []string `json:"no_damage_to"`
}

type requestMeta struct {
	RequestedBy string `json:"requested_by"`
	Timestamp   string `json:"timestamp"`
	RequestID   string `json:"request_id"`
}

// FormatToolResult renders the JSON text of a pokemcp tool result. Text that
// is not JSON is returned unchanged; unknown tools are pretty-printed.
func (f *Formatters) FormatToolResult(tool, text string) string {
	if !json.Valid([]byte(text)) {
		return text
	}

	var body string
	switch tool {
	case commands.ToolPokedex:
		var p pokemonResult
		if err := json.Unmarshal([]byte(text), &p); err != nil {
			return text
		}
		body = formatPokemon(p)
	case commands.ToolTypeWeakness, commands.ToolTypeEffectiveness:
		var r relationsResult
		if err := json.Unmarshal([]byte(text), &r); err != nil {
			return text
		}
		body = formatRelations(tool, r)
	default:
		var v interface{}
		if err := json.Unmarshal([]byte(text), &v); err != nil {
			return text
		}
		return PrettyJSON(v)
	}

	var meta requestMeta
	if err := json.Unmarshal([]byte(text), &meta); err == nil && meta.RequestedBy != "" {
		body += fmt.Sprintf("\n\nRequested by %s at %s (request %s)", meta.RequestedBy, meta.Timestamp, meta.RequestID)
	}
	return body
}

func formatPokemon(p pokemonResult) string {
	var output []string
	output = append(output, fmt.Sprintf("%s (#%d)", titleCase(p.Name), p.ID))
	output = append(output, fmt.Sprintf("Types: %s", strings.Join(p.Types, ", ")))
	if len(p.Stats) > 0 {
		output = append(output, "Base stats:")
		for _, s := range p.Stats {
			output = append(output, fmt.Sprintf("  %-16s %3d", s.Name, s.Base))
		}
	}
	return strings.Join(output, "\n")
}

func formatRelations(tool string, r relationsResult) string {
	var output []string
	if tool == commands.ToolTypeWeakness {
		output = append(output, fmt.Sprintf("%s type takes:", titleCase(r.Name)))
		output = append(output, relationLine("double damage from", r.DoubleDamageFrom))
		output = append(output, relationLine("half damage from", r.HalfDamageFrom))
		output = append(output, relationLine("no damage from", r.NoDamageFrom))
	} else {
		output = append(output, fmt.Sprintf("%s type deals:", titleCase(r.Name)))
		output = append(output, relationLine("double damage to", r.DoubleDamageTo))
		output = append(output, relationLine("half damage to", r.HalfDamageTo))
		output = append(output, relationLine("no damage to", r.NoDamageTo))
	}
	return strings.Join(output, "\n")
}

func relationLine(label string, types []string) string {
	value := "-"
	if len(types) > 0 {
		value = strings.Join(types, ", ")
	}
	return fmt.Sprintf("  %-20s %s", label+":", value)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// PrettyJSON pretty-prints JSON for logging
func PrettyJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

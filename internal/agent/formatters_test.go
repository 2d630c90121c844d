package agent

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"

	"pokemcp/internal/agent/commands"
)

func TestFormatToolsList(t *testing.T) {
	f := NewFormatters()
	assert.Equal(t, "No tools available.", f.FormatToolsList(nil))

	out := f.FormatToolsList([]mcp.Tool{{Name: "pokedex", Description: "Look up a Pokémon"}})
	assert.Contains(t, out, "Available tools (1):")
	assert.Contains(t, out, "1. pokedex")
	assert.Contains(t, out, "Look up a Pokémon")
}

func TestFormatToolResult_Pokemon(t *testing.T) {
	f := NewFormatters()
	text := `{"name":"pikachu","id":25,"types":["electric"],"stats":[{"name":"hp","base":35},{"name":"speed","base":90}]}`

	out := f.FormatToolResult(commands.ToolPokedex, text)
	assert.Contains(t, out, "Pikachu (#25)")
	assert.Contains(t, out, "Types: electric")
	assert.Contains(t, out, "hp")
	assert.Contains(t, out, " 90")
	assert.NotContains(t, out, "Requested by")
}

func TestFormatToolResult_Relations(t *testing.T) {
	f := NewFormatters()

	weak := f.FormatToolResult(commands.ToolTypeWeakness,
		`{"name":"fire","double_damage_from":["water","ground","rock"],"half_damage_from":["fire"],"no_damage_from":[]}`)
	assert.Contains(t, weak, "Fire type takes:")
	assert.Contains(t, weak, "water, ground, rock")
	assert.Contains(t, weak, "no damage from:")
	assert.Contains(t, weak, " -")

	eff := f.FormatToolResult(commands.ToolTypeEffectiveness,
		`{"name":"fire","double_damage_to":["grass"],"half_damage_to":["water"],"no_damage_to":[]}`)
	assert.Contains(t, eff, "Fire type deals:")
	assert.Contains(t, eff, "double damage to:")
	assert.Contains(t, eff, "grass")
}

func TestFormatToolResult_RequestMetadata(t *testing.T) {
	f := NewFormatters()
	text := `{"name":"pikachu","id":25,"types":["electric"],"requested_by":"user-1","timestamp":"2025-06-17T12:00:00Z","request_id":"abc"}`

	out := f.FormatToolResult(commands.ToolPokedex, text)
	assert.Contains(t, out, "Requested by user-1 at 2025-06-17T12:00:00Z (request abc)")
}

func TestFormatToolResult_Fallbacks(t *testing.T) {
	f := NewFormatters()
	assert.Equal(t, "plain text", f.FormatToolResult(commands.ToolPokedex, "plain text"))
	assert.Equal(t, "{\n  \"a\": 1\n}", f.FormatToolResult("other", `{"a":1}`))
}

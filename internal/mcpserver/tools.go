package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"pokemcp/internal/pokeapi"
	authserver "pokemcp/internal/server"
	"pokemcp/pkg/logging"
)

// Tool names.
const (
	ToolPokedex           = "pokedex"
	ToolTypeWeakness      = "type_weakness"
	ToolTypeEffectiveness = "type_effectiveness"
)

func (s *Server) registerTools() {
	pokedexTool := mcp.NewTool(ToolPokedex,
		mcp.WithDescription("Fetch the name, id, types and base stats (hp, attack, defense, special-attack, special-defense, speed) of a Pokémon"),
		mcp.WithString("pokemon_name",
			mcp.Required(),
			mcp.Description("Name of the Pokémon, e.g. pikachu"),
		),
	)
	s.mcpServer.AddTool(pokedexTool, s.handlePokedex)

	weaknessTool := mcp.NewTool(ToolTypeWeakness,
		mcp.WithDescription("List the attacking types that deal double, half or no damage to a Pokémon type"),
		mcp.WithString("type_name",
			mcp.Required(),
			mcp.Description("Name of the Pokémon type, e.g. fire"),
		),
	)
	s.mcpServer.AddTool(weaknessTool, s.handleTypeWeakness)

	effectivenessTool := mcp.NewTool(ToolTypeEffectiveness,
		mcp.WithDescription("List the defending types a Pokémon type deals double, half or no damage to"),
		mcp.WithString("type_name",
			mcp.Required(),
			mcp.Description("Name of the Pokémon type, e.g. fire"),
		),
	)
	s.mcpServer.AddTool(effectivenessTool, s.handleTypeEffectiveness)
}

func (s *Server) handlePokedex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("pokemon_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	pokemon, err := s.data.FetchPokemon(ctx, name)
	if err != nil {
		return fetchError("Pokémon", err), nil
	}
	return s.result(ctx, ToolPokedex, pokemon)
}

func (s *Server) handleTypeWeakness(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("type_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	typ, err := s.data.FetchType(ctx, name)
	if err != nil {
		return fetchError("Type", err), nil
	}
	return s.result(ctx, ToolTypeWeakness, typ.Weakness())
}

func (s *Server) handleTypeEffectiveness(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("type_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	typ, err := s.data.FetchType(ctx, name)
	if err != nil {
		return fetchError("Type", err), nil
	}
	return s.result(ctx, ToolTypeEffectiveness, typ.Effectiveness())
}

func fetchError(kind string, err error) *mcp.CallToolResult {
	if errors.Is(err, pokeapi.ErrNotFound) {
		return mcp.NewToolResultError(kind + " not found.")
	}
	logging.Warn(subsystem, "PokéAPI request failed: %v", err)
	return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch %s data: %v", kind, err))
}

// result renders v as a JSON object. Authenticated calls additionally carry
// who asked, when, and a request id.
func (s *Server) result(ctx context.Context, tool string, v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s result: %w", tool, err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to encode %s result: %w", tool, err)
	}

	if s.AuthEnabled() {
		if principal, ok := authserver.PrincipalFromContext(ctx); ok {
			requestID := uuid.NewString()
			fields["requested_by"] = principal.UserID
			fields["timestamp"] = s.now().UTC().Format(time.RFC3339)
			fields["request_id"] = requestID
			logging.Debug(subsystem, "Served %s to %s (request %s)", tool, principal.UserID, requestID)
		}
	}

	out, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s result: %w", tool, err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

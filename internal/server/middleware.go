package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// BearerFromRequest extracts the token of an "Authorization: Bearer" header.
func BearerFromRequest(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// HTTPContextFunc copies the bearer token of an HTTP request into the
// context. It fits both the streamable-http and the SSE transports.
func HTTPContextFunc(ctx context.Context, r *http.Request) context.Context {
	if token := BearerFromRequest(r); token != "" {
		return ContextWithBearer(ctx, token)
	}
	return ctx
}

// StdioContextFunc attaches a fixed token to every stdio request. Stdio has
// no headers, so the token is supplied once at startup.
func StdioContextFunc(token string) mcpserver.StdioContextFunc {
	return func(ctx context.Context) context.Context {
		if token == "" {
			return ctx
		}
		return ContextWithBearer(ctx, token)
	}
}

// AuthMiddleware rejects tool calls without a valid bearer token before they
// reach the tool handler. Accepted calls see their enriched Principal via
// PrincipalFromContext.
func AuthMiddleware(v *TokenValidator) mcpserver.ToolHandlerMiddleware {
	return func(next mcpserver.ToolHandlerFunc) mcpserver.ToolHandlerFunc {
		return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			token, _ := BearerFromContext(ctx)

			principal, err := v.Authenticate(ctx, token)
			if err != nil {
				return mcp.NewToolResultError("unauthenticated: a valid bearer token is required"), nil
			}

			v.Enrich(ctx, principal)
			return next(ContextWithPrincipal(ctx, principal), request)
		}
	}
}

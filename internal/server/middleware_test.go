package server

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "bearer", header: "Bearer abc.def", want: "abc.def"},
		{name: "lowercase scheme", header: "bearer abc", want: "abc"},
		{name: "extra whitespace", header: "  Bearer   abc  ", want: "abc"},
		{name: "basic auth", header: "Basic dXNlcjpwYXNz", want: ""},
		{name: "no token", header: "Bearer", want: ""},
		{name: "missing", header: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/mcp", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, BearerFromRequest(r))
		})
	}
}

func TestHTTPContextFunc(t *testing.T) {
	r := httptest.NewRequest("POST", "/mcp", nil)
	r.Header.Set("Authorization", "Bearer T1")

	token, ok := BearerFromContext(HTTPContextFunc(context.Background(), r))
	assert.True(t, ok)
	assert.Equal(t, "T1", token)

	_, ok = BearerFromContext(HTTPContextFunc(context.Background(), httptest.NewRequest("POST", "/mcp", nil)))
	assert.False(t, ok)
}

func TestStdioContextFunc(t *testing.T) {
	token, ok := BearerFromContext(StdioContextFunc("T1")(context.Background()))
	assert.True(t, ok)
	assert.Equal(t, "T1", token)

	_, ok = BearerFromContext(StdioContextFunc("")(context.Background()))
	assert.False(t, ok)
}

func TestPrincipalContext(t *testing.T) {
	_, ok := PrincipalFromContext(context.Background())
	assert.False(t, ok)

	p := &Principal{UserID: "u1"}
	got, ok := PrincipalFromContext(ContextWithPrincipal(context.Background(), p))
	assert.True(t, ok)
	assert.Same(t, p, got)
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return text.Text
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("rejects before the handler runs", func(t *testing.T) {
		for _, token := range []string{"", "garbage"} {
			f := newValidatorFixture(t)
			called := false
			handler := AuthMiddleware(f.validator)(func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				called = true
				return mcp.NewToolResultText("ok"), nil
			})

			ctx := context.Background()
			if token != "" {
				ctx = ContextWithBearer(ctx, token)
			}

			result, err := handler(ctx, mcp.CallToolRequest{})
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), "unauthenticated")
			assert.False(t, called)
			assert.Equal(t, 0, f.profiles.creates)
		}
	})

	t.Run("passes enriched principal", func(t *testing.T) {
		f := newValidatorFixture(t)

		var seen *Principal
		handler := AuthMiddleware(f.validator)(func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			seen, _ = PrincipalFromContext(ctx)
			return mcp.NewToolResultText("ok"), nil
		})

		result, err := handler(ContextWithBearer(context.Background(), f.token), mcp.CallToolRequest{})
		require.NoError(t, err)
		assert.False(t, result.IsError)

		require.NotNil(t, seen)
		assert.Equal(t, f.user.ID, seen.UserID)
		require.NotNil(t, seen.Profile)
		assert.Equal(t, f.user.ID, seen.Profile.ID)
	})
}

package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

type mockClient struct {
	tools         []mcp.Tool
	refreshed     int
	lastTool      string
	lastArgs      map[string]interface{}
	callResult    *mcp.CallToolResult
	callToolError error
}

func (m *mockClient) GetToolCache() []mcp.Tool {
	return m.tools
}

func (m *mockClient) RefreshToolCache(ctx context.Context) error {
	m.refreshed++
	return nil
}

func (m *mockClient) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	m.lastTool = name
	m.lastArgs = args
	if m.callToolError != nil {
		return nil, m.callToolError
	}
	if m.callResult != nil {
		return m.callResult, nil
	}
	return mcp.NewToolResultText(`{"status": "ok"}`), nil
}

func (m *mockClient) GetFormatters() FormatterInterface {
	return &mockFormatter{}
}

type mockFormatter struct{}

func (m *mockFormatter) FormatToolsList(tools []mcp.Tool) string {
	return fmt.Sprintf("%d tools", len(tools))
}

func (m *mockFormatter) FormatToolResult(tool, text string) string {
	return tool + ": " + text
}

// mockOutput records everything written through it.
type mockOutput struct {
	lines []string
}

func (m *mockOutput) record(format string, args ...interface{}) {
	m.lines = append(m.lines, fmt.Sprintf(format, args...))
}

func (m *mockOutput) Output(format string, args ...interface{})     { m.record(format, args...) }
func (m *mockOutput) OutputLine(format string, args ...interface{}) { m.record(format, args...) }
func (m *mockOutput) Info(format string, args ...interface{})       { m.record(format, args...) }
func (m *mockOutput) Debug(format string, args ...interface{})      {}
func (m *mockOutput) Error(format string, args ...interface{})      { m.record(format, args...) }
func (m *mockOutput) Success(format string, args ...interface{})    { m.record(format, args...) }

func (m *mockOutput) String() string {
	return strings.Join(m.lines, "\n")
}

type mockAuth struct {
	token     string
	tokenErr  error
	loginErr  error
	logoutErr error

	loginEmail    string
	loginPassword string
	logouts       int
}

func (m *mockAuth) IsAuthenticated(ctx context.Context) bool {
	return m.token != "" && m.tokenErr == nil
}

func (m *mockAuth) CurrentToken(ctx context.Context) (string, error) {
	if m.tokenErr != nil {
		return "", m.tokenErr
	}
	return m.token, nil
}

func (m *mockAuth) Login(ctx context.Context, email, password string) error {
	m.loginEmail = email
	m.loginPassword = password
	return m.loginErr
}

func (m *mockAuth) Logout(ctx context.Context) error {
	m.logouts++
	return m.logoutErr
}

type mockPrompter struct {
	lines     []string
	passwords []string
	prompts   []string
}

func (m *mockPrompter) ReadLine(prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if len(m.lines) == 0 {
		return "", fmt.Errorf("no input")
	}
	line := m.lines[0]
	m.lines = m.lines[1:]
	return line, nil
}

func (m *mockPrompter) ReadPassword(prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if len(m.passwords) == 0 {
		return "", fmt.Errorf("no input")
	}
	pw := m.passwords[0]
	m.passwords = m.passwords[1:]
	return pw, nil
}

package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"pokemcp/internal/agent/commands"
)

// TransportType defines the transport type for MCP connections
type TransportType string

const (
	TransportSSE            TransportType = "sse"
	TransportStreamableHTTP TransportType = "streamable-http"
)

const defaultRequestTimeout = 30 * time.Second

// Client is the MCP client of the chat REPL.
type Client struct {
	endpoint      string
	transportType TransportType
	httpClient    *http.Client
	logger        *Logger
	client        *client.Client
	toolCache     []mcp.Tool
	mu            sync.RWMutex
	timeout       time.Duration
	formatters    *Formatters
	version       string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used by the transport, typically one
// built by NewHTTPClient.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds every MCP request.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithClientVersion sets the version reported during initialization.
func WithClientVersion(v string) ClientOption {
	return func(c *Client) {
		c.version = v
	}
}

// NewClient creates a new agent client with specified transport
func NewClient(endpoint string, logger *Logger, transportType TransportType, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:      endpoint,
		transportType: transportType,
		logger:        logger,
		toolCache:     []mcp.Tool{},
		timeout:       defaultRequestTimeout,
		formatters:    NewFormatters(),
		version:       "dev",
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	return c
}

// Endpoint returns the server URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Transport returns the configured transport type.
func (c *Client) Transport() TransportType {
	return c.transportType
}

func (c *Client) createAndConnectClient(ctx context.Context) (*client.Client, error) {
	var (
		mcpClient *client.Client
		err       error
	)

	switch c.transportType {
	case TransportSSE:
		mcpClient, err = client.NewSSEMCPClient(c.endpoint, transport.WithHTTPClient(c.httpClient))
		if err != nil {
			return nil, fmt.Errorf("failed to create SSE client: %w", err)
		}
	case TransportStreamableHTTP:
		mcpClient, err = client.NewStreamableHttpClient(c.endpoint, transport.WithHTTPBasicClient(c.httpClient))
		if err != nil {
			return nil, fmt.Errorf("failed to create streamable-http client: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported transport type: %s", c.transportType)
	}

	if err := mcpClient.Start(ctx); err != nil {
		mcpClient.Close()
		return nil, fmt.Errorf("failed to start %s client: %w", c.transportType, err)
	}
	return mcpClient, nil
}

// Connect establishes the MCP session and loads the tool list.
func (c *Client) Connect(ctx context.Context) error {
	c.logger.Debug("Connecting to %s using %s transport", c.endpoint, c.transportType)

	mcpClient, err := c.createAndConnectClient(ctx)
	if err != nil {
		return err
	}
	c.client = mcpClient

	if err := c.initialize(ctx); err != nil {
		c.Close()
		return fmt.Errorf("initialization failed: %w", err)
	}

	if err := c.RefreshToolCache(ctx); err != nil {
		c.Close()
		return fmt.Errorf("initial tool listing failed: %w", err)
	}
	return nil
}

func (c *Client) initialize(ctx context.Context) error {
	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{
		Name:    "pokemcp-agent",
		Version: c.version,
	}
	req.Params.Capabilities = mcp.ClientCapabilities{}

	c.logger.Request("initialize", req.Params)

	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.client.Initialize(timeoutCtx, req)
	if err != nil {
		c.logger.Debug("Initialize failed: %v", err)
		return err
	}

	c.logger.Response("initialize", result)
	return nil
}

// RefreshToolCache reloads the tool list from the server.
func (c *Client) RefreshToolCache(ctx context.Context) error {
	if c.client == nil {
		return errors.New("client not connected")
	}

	req := mcp.ListToolsRequest{}
	c.logger.Request("tools/list", req.Params)

	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.client.ListTools(timeoutCtx, req)
	if err != nil {
		return err
	}
	c.logger.Response("tools/list", result)

	c.mu.Lock()
	c.toolCache = result.Tools
	c.mu.Unlock()
	return nil
}

// GetToolCache returns the cached tool list.
func (c *Client) GetToolCache() []mcp.Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.toolCache
}

// CallTool executes a tool and returns the result
func (c *Client) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	if c.client == nil {
		return nil, errors.New("client not connected")
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	c.logger.Request("tools/call", req.Params)

	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.client.CallTool(timeoutCtx, req)
	if err != nil {
		return nil, fmt.Errorf("tool call failed: %w", err)
	}

	c.logger.Response("tools/call", result)
	return result, nil
}

// GetFormatters returns the formatters for commands
func (c *Client) GetFormatters() commands.FormatterInterface {
	return c.formatters
}

// Close closes the connection
func (c *Client) Close() error {
	if c.client != nil {
		err := c.client.Close()
		c.client = nil
		return err
	}
	return nil
}

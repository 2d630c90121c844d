package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"pokemcp/internal/pokeapi"
	authserver "pokemcp/internal/server"
	"pokemcp/pkg/logging"
)

// Transport names accepted by Config.Transport.
const (
	TransportStdio          = "stdio"
	TransportSSE            = "sse"
	TransportStreamableHTTP = "streamable-http"
)

const (
	subsystem       = "MCPServer"
	shutdownTimeout = 5 * time.Second
)

// DataProvider is the source of Pokémon data. *pokeapi.Client implements it.
type DataProvider interface {
	FetchPokemon(ctx context.Context, name string) (*pokeapi.Pokemon, error)
	FetchType(ctx context.Context, name string) (*pokeapi.Type, error)
}

// Config configures a Server.
type Config struct {
	Name    string
	Version string

	Transport string
	Host      string
	Port      int

	// StdioToken is the bearer token used for every stdio request.
	StdioToken string
}

// Server is the pokemcp MCP tool server.
type Server struct {
	cfg       Config
	data      DataProvider
	validator *authserver.TokenValidator
	mcpServer *server.MCPServer
	now       func() time.Time
}

// New creates a server. A nil validator disables authentication.
func New(cfg Config, data DataProvider, validator *authserver.TokenValidator) *Server {
	if cfg.Name == "" {
		cfg.Name = "pokedex"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if validator != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(authserver.AuthMiddleware(validator)))
	}

	s := &Server{
		cfg:       cfg,
		data:      data,
		validator: validator,
		mcpServer: server.NewMCPServer(cfg.Name, cfg.Version, opts...),
		now:       time.Now,
	}
	s.registerTools()
	return s
}

// AuthEnabled reports whether tool calls require a bearer token.
func (s *Server) AuthEnabled() bool {
	return s.validator != nil
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// Handler returns the streamable-http handler, mounted at /mcp.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/mcp", server.NewStreamableHTTPServer(s.mcpServer,
		server.WithHTTPContextFunc(authserver.HTTPContextFunc),
	))
	return mux
}

func (s *Server) addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// Start serves on the configured transport until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s.AuthEnabled() {
		logging.Info(subsystem, "Authentication enabled")
	} else {
		logging.Warn(subsystem, "Running without authentication")
	}

	switch s.cfg.Transport {
	case TransportStdio, "":
		logging.Info(subsystem, "Starting MCP server with stdio transport")
		stdioServer := server.NewStdioServer(s.mcpServer)
		stdioServer.SetContextFunc(authserver.StdioContextFunc(s.cfg.StdioToken))
		if err := stdioServer.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("stdio server: %w", err)
		}
		return nil

	case TransportSSE:
		addr := s.addr()
		logging.Info(subsystem, "Starting MCP server with SSE transport on %s", addr)
		sseServer := server.NewSSEServer(
			s.mcpServer,
			server.WithBaseURL("http://"+addr),
			server.WithSSEEndpoint("/sse"),
			server.WithMessageEndpoint("/message"),
			server.WithKeepAlive(true),
			server.WithKeepAliveInterval(30*time.Second),
			server.WithSSEContextFunc(authserver.HTTPContextFunc),
		)
		return s.serveHTTP(ctx, addr, sseServer, sseServer.Shutdown)

	case TransportStreamableHTTP:
		addr := s.addr()
		logging.Info(subsystem, "Starting MCP server with streamable-http transport on %s", addr)
		return s.serveHTTP(ctx, addr, s.Handler(), nil)

	default:
		return fmt.Errorf("unsupported transport type: %s", s.cfg.Transport)
	}
}

func (s *Server) serveHTTP(ctx context.Context, addr string, handler http.Handler, closeSessions func(context.Context) error) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)

	case <-ctx.Done():
		logging.Info(subsystem, "Shutting down MCP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if closeSessions != nil {
			if err := closeSessions(shutdownCtx); err != nil {
				logging.Error(subsystem, err, "Error closing sessions")
			}
		}
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logging.Error(subsystem, err, "Error shutting down HTTP server")
		}
		return nil
	}
}

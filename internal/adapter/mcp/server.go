// Package mcp exposes the cost-governance pipeline as Model Context
// Protocol tools, so agent frameworks can estimate and run tasks through
// the budget gate instead of calling providers directly.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/costgate/costgate/internal/domain/model"
	"github.com/costgate/costgate/internal/domain/run"
)

// Pipeline is the slice of the agent service exposed over MCP.
type Pipeline interface {
	Route(level int, override string) (modelID, reason string)
	EstimateOnly(ctx context.Context, req run.TaskRequest) (*run.EstimateResult, error)
	RunTask(ctx context.Context, req run.TaskRequest) (*run.Result, error)
	RecentRuns(ctx context.Context, limit int) ([]run.Record, error)
	CumulativeCost(ctx context.Context) (float64, error)
}

// ServerConfig holds the MCP server settings.
type ServerConfig struct {
	Addr    string
	Name    string
	Version string
}

// ServerDeps are the collaborators the MCP tools call into.
type ServerDeps struct {
	Pipeline Pipeline
	Models   *model.Table
}

// Server wraps an MCP server speaking streamable HTTP.
type Server struct {
	cfg        ServerConfig
	deps       ServerDeps
	mcpServer  *mcpserver.MCPServer
	httpServer *mcpserver.StreamableHTTPServer
}

// NewServer creates the MCP server and registers all tools and resources.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	s := &Server{
		cfg:  cfg,
		deps: deps,
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithResourceCapabilities(false, false),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying MCP server, for embedding into an
// existing HTTP mux.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Handler returns the streamable-HTTP handler for mounting on an
// existing router at /mcp.
func (s *Server) Handler() http.Handler {
	return mcpserver.NewStreamableHTTPServer(s.mcpServer)
}

// Start serves MCP over streamable HTTP on the configured address.
// It does not block.
func (s *Server) Start() error {
	s.httpServer = mcpserver.NewStreamableHTTPServer(s.mcpServer)
	go func() {
		slog.Info("mcp server listening", "addr", s.cfg.Addr)
		if err := s.httpServer.Start(s.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("mcp server failed", "error", err)
		}
	}()
	return nil
}

// Stop shuts the MCP server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func toolResultJSON(data string) *mcplib.CallToolResult {
	return mcplib.NewToolResultText(data)
}

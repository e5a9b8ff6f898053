package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

// registerResources registers all MCP resources on the server.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(
			"costgate://models",
			"Model Table",
			mcplib.WithResourceDescription("All routable models with levels and per-million-token prices"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleModelsResource,
	)

	s.mcpServer.AddResource(
		mcplib.NewResource(
			"costgate://costs/cumulative",
			"Cumulative Cost",
			mcplib.WithResourceDescription("Total spend across every persisted run"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleCumulativeCostResource,
	)
}

func (s *Server) handleModelsResource(_ context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	if s.deps.Models == nil {
		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     `{"error":"model table not configured"}`,
			},
		}, nil
	}
	data, err := json.Marshal(s.deps.Models.Entries())
	if err != nil {
		return nil, err
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleCumulativeCostResource(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	if s.deps.Pipeline == nil {
		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     `{"error":"pipeline not configured"}`,
			},
		}, nil
	}
	total, err := s.deps.Pipeline.CumulativeCost(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(map[string]float64{"cumulative_cost": total})
	if err != nil {
		return nil, err
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

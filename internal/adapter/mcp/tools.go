package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/costgate/costgate/internal/domain/run"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.routeTaskTool(),
		s.estimateTaskTool(),
		s.runTaskTool(),
		s.recentRunsTool(),
		s.cumulativeCostTool(),
	)
}

func (s *Server) routeTaskTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("route_task",
		mcplib.WithDescription("Resolve which model a task complexity level routes to"),
		mcplib.WithNumber("level",
			mcplib.Required(),
			mcplib.Description("Task complexity level (1-3)"),
		),
		mcplib.WithString("model",
			mcplib.Description("Explicit model id to pin instead of routing"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleRouteTask,
	}
}

func (s *Server) estimateTaskTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("estimate_task",
		mcplib.WithDescription("Estimate the cost of a task without executing it: compress the prompt, route to a model, price the tokens, and check the budget"),
		mcplib.WithString("input_text",
			mcplib.Required(),
			mcplib.Description("The task prompt"),
		),
		mcplib.WithNumber("level",
			mcplib.Required(),
			mcplib.Description("Task complexity level (1-3)"),
		),
		mcplib.WithNumber("tokens",
			mcplib.Required(),
			mcplib.Description("Expected output tokens"),
		),
		mcplib.WithString("model",
			mcplib.Description("Explicit model id to pin instead of routing"),
		),
		mcplib.WithNumber("budget",
			mcplib.Description("Per-call budget in USD overriding the configured default"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleEstimateTask,
	}
}

func (s *Server) runTaskTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("run_task",
		mcplib.WithDescription("Run a task through the full cost-governed pipeline: estimate, budget-gate, and (when execute is true) call the model with quality-driven retry"),
		mcplib.WithString("input_text",
			mcplib.Required(),
			mcplib.Description("The task prompt"),
		),
		mcplib.WithNumber("level",
			mcplib.Required(),
			mcplib.Description("Task complexity level (1-3)"),
		),
		mcplib.WithNumber("tokens",
			mcplib.Required(),
			mcplib.Description("Expected output tokens"),
		),
		mcplib.WithBoolean("execute",
			mcplib.Description("Actually call the model; false records a dry run"),
		),
		mcplib.WithString("model",
			mcplib.Description("Explicit model id to pin instead of routing"),
		),
		mcplib.WithNumber("budget",
			mcplib.Description("Per-call budget in USD overriding the configured default"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleRunTask,
	}
}

func (s *Server) recentRunsTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("recent_runs",
		mcplib.WithDescription("List the most recent persisted run records, newest first"),
		mcplib.WithNumber("limit",
			mcplib.Description("Maximum number of records to return (default 10)"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleRecentRuns,
	}
}

func (s *Server) cumulativeCostTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("cumulative_cost",
		mcplib.WithDescription("Report the total spend across every persisted run"),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleCumulativeCost,
	}
}

func (s *Server) handleRouteTask(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Pipeline == nil {
		return mcplib.NewToolResultError("pipeline not configured"), nil
	}
	args := req.GetArguments()
	level, ok := intArg(args, "level")
	if !ok {
		return mcplib.NewToolResultError("level is required"), nil
	}
	override, _ := args["model"].(string)

	modelID, reason := s.deps.Pipeline.Route(level, override)
	data, err := json.Marshal(map[string]string{"model": modelID, "router_reason": reason})
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal route", err), nil
	}
	return toolResultJSON(string(data)), nil
}

func (s *Server) handleEstimateTask(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Pipeline == nil {
		return mcplib.NewToolResultError("pipeline not configured"), nil
	}
	task, errMsg := taskFromArgs(req.GetArguments())
	if errMsg != "" {
		return mcplib.NewToolResultError(errMsg), nil
	}

	res, err := s.deps.Pipeline.EstimateOnly(ctx, task)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to estimate task", err), nil
	}
	data, err := json.Marshal(res)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal estimate", err), nil
	}
	return toolResultJSON(string(data)), nil
}

func (s *Server) handleRunTask(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Pipeline == nil {
		return mcplib.NewToolResultError("pipeline not configured"), nil
	}
	args := req.GetArguments()
	task, errMsg := taskFromArgs(args)
	if errMsg != "" {
		return mcplib.NewToolResultError(errMsg), nil
	}
	task.Execute, _ = args["execute"].(bool)

	res, err := s.deps.Pipeline.RunTask(ctx, task)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to run task", err), nil
	}
	data, err := json.Marshal(res)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal run result", err), nil
	}
	return toolResultJSON(string(data)), nil
}

func (s *Server) handleRecentRuns(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Pipeline == nil {
		return mcplib.NewToolResultError("pipeline not configured"), nil
	}
	limit, ok := intArg(req.GetArguments(), "limit")
	if !ok {
		limit = 10
	}

	runs, err := s.deps.Pipeline.RecentRuns(ctx, limit)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to list runs", err), nil
	}
	data, err := json.Marshal(runs)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal runs", err), nil
	}
	return toolResultJSON(string(data)), nil
}

func (s *Server) handleCumulativeCost(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Pipeline == nil {
		return mcplib.NewToolResultError("pipeline not configured"), nil
	}
	total, err := s.deps.Pipeline.CumulativeCost(ctx)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to get cumulative cost", err), nil
	}
	data, err := json.Marshal(map[string]any{
		"cumulative_cost": total,
		"formatted":       run.FormatCost(total),
	})
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal cumulative cost", err), nil
	}
	return toolResultJSON(string(data)), nil
}

// taskFromArgs maps MCP tool arguments onto a task request. Returns a
// non-empty message on missing required arguments; domain validation
// happens in the pipeline.
func taskFromArgs(args map[string]any) (run.TaskRequest, string) {
	var task run.TaskRequest

	prompt, ok := args["input_text"].(string)
	if !ok || prompt == "" {
		return task, "input_text is required"
	}
	level, ok := intArg(args, "level")
	if !ok {
		return task, "level is required"
	}
	tokens, ok := intArg(args, "tokens")
	if !ok {
		return task, "tokens is required"
	}

	task.Prompt = prompt
	task.Level = level
	task.ExpectedOutputTokens = tokens
	task.ModelOverride, _ = args["model"].(string)
	if b, ok := args["budget"].(float64); ok {
		task.BudgetOverride = &b
	}
	return task, ""
}

// intArg reads a JSON number argument as int.
func intArg(args map[string]any, key string) (int, bool) {
	f, ok := args[key].(float64)
	if !ok {
		return 0, false
	}
	return int(f), true
}

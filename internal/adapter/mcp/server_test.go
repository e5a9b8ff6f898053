package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/costgate/costgate/internal/domain/model"
	"github.com/costgate/costgate/internal/domain/run"
)

type mockPipeline struct {
	runRes *run.Result
	estRes *run.EstimateResult
	runs   []run.Record
	total  float64
	err    error

	lastReq run.TaskRequest
}

func (m *mockPipeline) Route(level int, override string) (string, string) {
	if override != "" {
		return override, "override:" + override
	}
	return "mock-model", "router:level=?"
}

func (m *mockPipeline) EstimateOnly(_ context.Context, req run.TaskRequest) (*run.EstimateResult, error) {
	m.lastReq = req
	return m.estRes, m.err
}

func (m *mockPipeline) RunTask(_ context.Context, req run.TaskRequest) (*run.Result, error) {
	m.lastReq = req
	return m.runRes, m.err
}

func (m *mockPipeline) RecentRuns(_ context.Context, _ int) ([]run.Record, error) {
	return m.runs, m.err
}

func (m *mockPipeline) CumulativeCost(_ context.Context) (float64, error) {
	return m.total, m.err
}

func testServer(t *testing.T, p Pipeline) *Server {
	t.Helper()
	table, err := model.NewTable([]model.Entry{{ID: "mock-model", Level: 1}})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return NewServer(
		ServerConfig{Name: "test-server", Version: "0.0.1"},
		ServerDeps{Pipeline: p, Models: table},
	)
}

func toolRequest(args map[string]any) mcplib.CallToolRequest {
	var req mcplib.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcplib.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("tool result has no content")
	}
	text, ok := res.Content[0].(mcplib.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", res.Content[0])
	}
	return text.Text
}

func TestNewServer(t *testing.T) {
	s := testServer(t, &mockPipeline{})
	if s == nil {
		t.Fatal("NewServer returned nil")
	}
	if s.MCPServer() == nil {
		t.Fatal("MCPServer() returned nil")
	}
}

func TestRunTaskTool(t *testing.T) {
	p := &mockPipeline{
		runRes: &run.Result{
			TraceID:   "t1",
			Status:    run.StatusExecuted,
			ModelUsed: "mock-model",
			Response:  "done",
		},
	}
	s := testServer(t, p)

	res, err := s.handleRunTask(context.Background(), toolRequest(map[string]any{
		"input_text": "do the thing",
		"level":      float64(2),
		"tokens":     float64(100),
		"execute":    true,
		"budget":     0.5,
	}))
	if err != nil {
		t.Fatalf("handleRunTask: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool errored: %s", resultText(t, res))
	}

	if p.lastReq.Prompt != "do the thing" || p.lastReq.Level != 2 || !p.lastReq.Execute {
		t.Errorf("request not forwarded: %+v", p.lastReq)
	}
	if p.lastReq.BudgetOverride == nil || *p.lastReq.BudgetOverride != 0.5 {
		t.Errorf("budget override not forwarded: %v", p.lastReq.BudgetOverride)
	}

	var out run.Result
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if out.Status != run.StatusExecuted {
		t.Errorf("status = %q, want executed", out.Status)
	}
}

func TestRunTaskToolMissingArguments(t *testing.T) {
	s := testServer(t, &mockPipeline{})

	tests := []map[string]any{
		{"level": float64(1), "tokens": float64(10)},
		{"input_text": "x", "tokens": float64(10)},
		{"input_text": "x", "level": float64(1)},
	}
	for _, args := range tests {
		res, err := s.handleRunTask(context.Background(), toolRequest(args))
		if err != nil {
			t.Fatalf("handleRunTask: %v", err)
		}
		if !res.IsError {
			t.Errorf("args %v accepted, want tool error", args)
		}
	}
}

func TestEstimateTaskTool(t *testing.T) {
	p := &mockPipeline{
		estRes: &run.EstimateResult{
			TraceID:  "t2",
			Estimate: run.NewCostEstimate("mock-model", 5, 50, 0.001, 0.002),
		},
	}
	s := testServer(t, p)

	res, err := s.handleEstimateTask(context.Background(), toolRequest(map[string]any{
		"input_text": "estimate this",
		"level":      float64(1),
		"tokens":     float64(50),
	}))
	if err != nil {
		t.Fatalf("handleEstimateTask: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool errored: %s", resultText(t, res))
	}
	if !strings.Contains(resultText(t, res), `"trace_id":"t2"`) {
		t.Errorf("result missing trace id: %s", resultText(t, res))
	}
}

func TestCumulativeCostTool(t *testing.T) {
	s := testServer(t, &mockPipeline{total: 0.25})

	res, err := s.handleCumulativeCost(context.Background(), mcplib.CallToolRequest{})
	if err != nil {
		t.Fatalf("handleCumulativeCost: %v", err)
	}
	text := resultText(t, res)
	if !strings.Contains(text, "0.25") {
		t.Errorf("result missing total: %s", text)
	}
	if !strings.Contains(text, "$0.25000") {
		t.Errorf("result missing formatted total: %s", text)
	}
}

func TestRouteTaskTool(t *testing.T) {
	s := testServer(t, &mockPipeline{})

	res, err := s.handleRouteTask(context.Background(), toolRequest(map[string]any{
		"level": float64(1),
	}))
	if err != nil {
		t.Fatalf("handleRouteTask: %v", err)
	}
	if !strings.Contains(resultText(t, res), "mock-model") {
		t.Errorf("result missing model: %s", resultText(t, res))
	}

	res, err = s.handleRouteTask(context.Background(), toolRequest(map[string]any{
		"level": float64(1),
		"model": "pinned",
	}))
	if err != nil {
		t.Fatalf("handleRouteTask override: %v", err)
	}
	if !strings.Contains(resultText(t, res), "override:pinned") {
		t.Errorf("result missing override reason: %s", resultText(t, res))
	}
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/costgate/costgate/internal/domain"
	"github.com/costgate/costgate/internal/domain/model"
	"github.com/costgate/costgate/internal/domain/run"
	"github.com/costgate/costgate/internal/port/llm"
)

type fakeOrchestrator struct {
	estimateRes *run.EstimateResult
	runRes      *run.Result
	runs        []run.Record
	total       float64
	err         error

	lastReq run.TaskRequest
}

func (f *fakeOrchestrator) Route(level int, override string) (string, string) {
	if override != "" {
		return override, "override:" + override
	}
	return "routed-model", fmt.Sprintf("router:level=%d", level)
}

func (f *fakeOrchestrator) EstimateOnly(_ context.Context, req run.TaskRequest) (*run.EstimateResult, error) {
	f.lastReq = req
	return f.estimateRes, f.err
}

func (f *fakeOrchestrator) RunTask(_ context.Context, req run.TaskRequest) (*run.Result, error) {
	f.lastReq = req
	return f.runRes, f.err
}

func (f *fakeOrchestrator) RecentRuns(_ context.Context, _ int) ([]run.Record, error) {
	return f.runs, f.err
}

func (f *fakeOrchestrator) CumulativeCost(_ context.Context) (float64, error) {
	return f.total, f.err
}

func newTestRouter(t *testing.T, orch Orchestrator) http.Handler {
	t.Helper()
	table, err := model.NewTable([]model.Entry{
		{ID: "gpt-4o-mini", Level: 1, PromptPerMillion: 0.15, CompletionPerMillion: 0.60},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	r := chi.NewRouter()
	MountRoutes(r, NewHandlers(orch, table))
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body == "" {
		rd = bytes.NewReader(nil)
	} else {
		rd = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouteTaskEndpoint(t *testing.T) {
	h := newTestRouter(t, &fakeOrchestrator{})

	rec := doJSON(t, h, http.MethodPost, "/api/v1/route", `{"level": 2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var out routeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Model != "routed-model" || out.RouterReason != "router:level=2" {
		t.Errorf("response = %+v", out)
	}
}

func TestRouteTaskEndpointRejectsBadLevel(t *testing.T) {
	h := newTestRouter(t, &fakeOrchestrator{})

	for _, body := range []string{`{"level": 0}`, `{"level": 4}`, `not json`} {
		rec := doJSON(t, h, http.MethodPost, "/api/v1/route", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestRunEndpoint(t *testing.T) {
	orch := &fakeOrchestrator{
		runRes: &run.Result{
			TraceID:   "trace-1",
			Status:    run.StatusExecuted,
			ModelUsed: "gpt-4o-mini",
			Estimate:  run.NewCostEstimate("gpt-4o-mini", 10, 100, 0.001, 0.002),
			Budget:    1.0,
			Response:  "done",
			Execution: &run.Execution{ActualCost: 0.002},
			LogID:     3,
		},
	}
	h := newTestRouter(t, orch)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/run",
		`{"input_text": "do it", "level": 1, "tokens": 100, "execute": true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	if orch.lastReq.Prompt != "do it" || !orch.lastReq.Execute {
		t.Errorf("request not forwarded: %+v", orch.lastReq)
	}

	var out struct {
		run.Result
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Status != run.StatusExecuted {
		t.Errorf("Status = %q, want executed", out.Status)
	}
	if !strings.Contains(out.Summary, "[Execute]") {
		t.Errorf("summary missing execute marker: %q", out.Summary)
	}
}

func TestRunEndpointErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			"validation",
			fmt.Errorf("%w: input_text is required", domain.ErrValidation),
			http.StatusBadRequest,
		},
		{
			"provider auth",
			llm.NewError(llm.KindAuth, "litellm", "complete", errors.New("401")),
			http.StatusBadGateway,
		},
		{
			"provider unavailable",
			llm.NewError(llm.KindUnavailable, "litellm", "complete", errors.New("down")),
			http.StatusBadGateway,
		},
		{
			"provider rate limited",
			llm.NewError(llm.KindRateLimited, "litellm", "complete", errors.New("429")),
			http.StatusServiceUnavailable,
		},
		{
			"internal",
			errors.New("pg connection lost"),
			http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t, &fakeOrchestrator{err: tt.err})
			rec := doJSON(t, h, http.MethodPost, "/api/v1/run",
				`{"input_text": "x", "level": 1, "tokens": 1}`)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestEstimateEndpoint(t *testing.T) {
	orch := &fakeOrchestrator{
		estimateRes: &run.EstimateResult{
			TraceID:  "trace-2",
			Estimate: run.NewCostEstimate("gpt-4o-mini", 10, 50, 0.0001, 0.0002),
			Budget:   1.0,
		},
	}
	h := newTestRouter(t, orch)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/estimate",
		`{"input_text": "estimate me", "level": 1, "tokens": 50}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var out run.EstimateResult
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.TraceID != "trace-2" {
		t.Errorf("TraceID = %q, want trace-2", out.TraceID)
	}
}

func TestListRunsEndpoint(t *testing.T) {
	orch := &fakeOrchestrator{
		runs: []run.Record{{ID: 2, TraceID: "b"}, {ID: 1, TraceID: "a"}},
	}
	h := newTestRouter(t, orch)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/runs?limit=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Runs  []run.Record `json:"runs"`
		Count int          `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Count != 2 || len(out.Runs) != 2 {
		t.Errorf("count = %d, runs = %d, want 2/2", out.Count, len(out.Runs))
	}
}

func TestListRunsEndpointRejectsBadLimit(t *testing.T) {
	h := newTestRouter(t, &fakeOrchestrator{})
	for _, q := range []string{"limit=0", "limit=-1", "limit=9999", "limit=abc"} {
		rec := doJSON(t, h, http.MethodGet, "/api/v1/runs?"+q, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, rec.Code)
		}
	}
}

func TestCumulativeCostEndpoint(t *testing.T) {
	h := newTestRouter(t, &fakeOrchestrator{total: 0.125})

	rec := doJSON(t, h, http.MethodGet, "/api/v1/costs/cumulative", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		CumulativeCost float64 `json:"cumulative_cost"`
		Formatted      string  `json:"formatted"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.CumulativeCost != 0.125 {
		t.Errorf("cumulative_cost = %g, want 0.125", out.CumulativeCost)
	}
	if out.Formatted != "$0.12500" {
		t.Errorf("formatted = %q, want $0.12500", out.Formatted)
	}
}

func TestModelsEndpoints(t *testing.T) {
	h := newTestRouter(t, &fakeOrchestrator{})

	rec := doJSON(t, h, http.MethodGet, "/api/v1/models", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list struct {
		Models []model.Entry `json:"models"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(list.Models) != 1 || list.Models[0].ID != "gpt-4o-mini" {
		t.Errorf("models = %+v", list.Models)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/models/gpt-4o-mini", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/models/ghost", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown model status = %d, want 404", rec.Code)
	}
}

package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/costgate/costgate/internal/domain"
	"github.com/costgate/costgate/internal/domain/model"
	"github.com/costgate/costgate/internal/domain/run"
)

// Orchestrator is the slice of the agent service the HTTP layer needs.
type Orchestrator interface {
	Route(level int, override string) (modelID, reason string)
	EstimateOnly(ctx context.Context, req run.TaskRequest) (*run.EstimateResult, error)
	RunTask(ctx context.Context, req run.TaskRequest) (*run.Result, error)
	RecentRuns(ctx context.Context, limit int) ([]run.Record, error)
	CumulativeCost(ctx context.Context) (float64, error)
}

// Handlers holds the HTTP handlers for the cost-governance API.
type Handlers struct {
	orch   Orchestrator
	models *model.Table
}

// NewHandlers creates the API handlers.
func NewHandlers(orch Orchestrator, models *model.Table) *Handlers {
	return &Handlers{orch: orch, models: models}
}

type routeRequest struct {
	Level int    `json:"level"`
	Model string `json:"model,omitempty"`
}

type routeResponse struct {
	Model        string `json:"model"`
	RouterReason string `json:"router_reason"`
}

// RouteTask resolves the model a level would route to without estimating
// or executing anything.
func (h *Handlers) RouteTask(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[routeRequest](w, r, maxRequestBodySize)
	if !ok {
		return
	}
	if req.Level < model.MinLevel || req.Level > model.MaxLevel {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("level must be %d..%d", model.MinLevel, model.MaxLevel), "validation")
		return
	}

	modelID, reason := h.orch.Route(req.Level, req.Model)
	writeJSON(w, http.StatusOK, routeResponse{Model: modelID, RouterReason: reason})
}

// EstimateTask runs the front half of the pipeline: compress, route,
// estimate, budget check. Nothing is executed or persisted.
func (h *Handlers) EstimateTask(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[run.TaskRequest](w, r, maxRequestBodySize)
	if !ok {
		return
	}

	res, err := h.orch.EstimateOnly(r.Context(), req)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type runResponse struct {
	*run.Result
	Summary string `json:"summary"`
}

// RunTask executes the full pipeline for one request.
func (h *Handlers) RunTask(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[run.TaskRequest](w, r, maxRequestBodySize)
	if !ok {
		return
	}

	res, err := h.orch.RunTask(r.Context(), req)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runResponse{Result: res, Summary: res.Summary()})
}

// ListRuns returns the newest persisted run records.
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be 1..500", "validation")
			return
		}
		limit = n
	}

	runs, err := h.orch.RecentRuns(r.Context(), limit)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	if runs == nil {
		runs = []run.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}

// CumulativeCost reports the total spend across every persisted run.
func (h *Handlers) CumulativeCost(w http.ResponseWriter, r *http.Request) {
	total, err := h.orch.CumulativeCost(r.Context())
	if err != nil {
		writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cumulative_cost": total,
		"formatted":       run.FormatCost(total),
	})
}

// ListModels returns the routable model table.
func (h *Handlers) ListModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"models": h.models.Entries()})
}

// GetModel returns one model entry by id.
func (h *Handlers) GetModel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, ok := h.models.Get(id)
	if !ok {
		writePipelineError(w, fmt.Errorf("%w: model %q", domain.ErrNotFound, id))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

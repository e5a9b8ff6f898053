// Package run defines the domain types for one cost-governed pipeline run.
package run

import (
	"fmt"
	"time"

	"github.com/costgate/costgate/internal/domain"
	"github.com/costgate/costgate/internal/domain/model"
)

// Status is the terminal state of a run. States are mutually exclusive.
type Status string

const (
	StatusExecuted       Status = "executed"
	StatusDryRun         Status = "dry_run"
	StatusRejectedBudget Status = "rejected_budget"
	StatusError          Status = "error"
)

// TaskRequest is the immutable input to one pipeline run.
type TaskRequest struct {
	Prompt               string   `json:"input_text"`
	Level                int      `json:"level"`
	ExpectedOutputTokens int      `json:"tokens"`
	ModelOverride        string   `json:"model,omitempty"`
	BudgetOverride       *float64 `json:"budget,omitempty"`
	Execute              bool     `json:"execute"`
}

// Validate checks caller-supplied fields against the domain bounds.
func (r TaskRequest) Validate() error {
	if r.Prompt == "" {
		return fmt.Errorf("%w: input_text is required", domain.ErrValidation)
	}
	if r.Level < model.MinLevel || r.Level > model.MaxLevel {
		return fmt.Errorf("%w: level must be %d..%d, got %d",
			domain.ErrValidation, model.MinLevel, model.MaxLevel, r.Level)
	}
	if r.ExpectedOutputTokens < 1 {
		return fmt.Errorf("%w: tokens must be >= 1, got %d",
			domain.ErrValidation, r.ExpectedOutputTokens)
	}
	if r.BudgetOverride != nil && *r.BudgetOverride <= 0 {
		return fmt.Errorf("%w: budget must be > 0, got %g",
			domain.ErrValidation, *r.BudgetOverride)
	}
	return nil
}

// CostEstimate is the pre-execution cost breakdown for one model.
type CostEstimate struct {
	Model          string  `json:"model"`
	PromptTokens   int     `json:"prompt_tokens"`
	OutputTokens   int     `json:"output_tokens"`
	PromptCost     float64 `json:"prompt_cost"`
	CompletionCost float64 `json:"completion_cost"`
	TotalCost      float64 `json:"total_cost"`
}

// NewCostEstimate builds an estimate whose TotalCost is, by construction,
// exactly PromptCost+CompletionCost.
func NewCostEstimate(modelID string, promptTokens, outputTokens int, promptCost, completionCost float64) CostEstimate {
	return CostEstimate{
		Model:          modelID,
		PromptTokens:   promptTokens,
		OutputTokens:   outputTokens,
		PromptCost:     promptCost,
		CompletionCost: completionCost,
		TotalCost:      promptCost + completionCost,
	}
}

// Compression reports how much the prompt shrank before estimation.
type Compression struct {
	RawChars        int     `json:"raw_chars"`
	CompressedChars int     `json:"compressed_chars"`
	Ratio           float64 `json:"ratio"`
}

// NewCompression computes the metrics for a raw/compressed prompt pair.
// Ratio is 1.0 for empty input.
func NewCompression(raw, compressed string) Compression {
	c := Compression{RawChars: len(raw), CompressedChars: len(compressed), Ratio: 1.0}
	if c.RawChars > 0 {
		c.Ratio = float64(c.CompressedChars) / float64(c.RawChars)
	}
	return c
}

// Execution carries fields that only exist when a real provider call
// happened. A nil Execution on a RunResult means no call was made.
type Execution struct {
	ActualCost         float64 `json:"actual_cost"`
	ActualOutputTokens int     `json:"actual_output_tokens"`
}

// Quality carries fields that only exist when the quality evaluator ran.
type Quality struct {
	Score         int    `json:"score"`
	Reason        string `json:"reason"`
	Retries       int    `json:"retries"`
	OriginalModel string `json:"original_model,omitempty"` // set only after escalation
}

// Result is the full outcome of one pipeline invocation. It is created
// once by the orchestrator, persisted once, and never mutated afterwards.
type Result struct {
	TraceID        string       `json:"trace_id"`
	Status         Status       `json:"status"`
	Estimate       CostEstimate `json:"estimate"`
	Budget         float64      `json:"budget"`
	BudgetExceeded bool         `json:"budget_exceeded"`
	Compression    Compression  `json:"compression"`
	RouterReason   string       `json:"router_reason"`
	ModelUsed      string       `json:"model_used"`
	Response       string       `json:"response"`
	Execution      *Execution   `json:"execution,omitempty"`
	Quality        *Quality     `json:"quality,omitempty"`
	LatencyMS      float64      `json:"latency_ms"`
	LogID          int64        `json:"log_id"`
	CumulativeCost float64      `json:"cumulative_cost"`
}

// Record is one persisted row of the append-only run log.
type Record struct {
	ID                 int64     `json:"id"`
	TraceID            string    `json:"trace_id"`
	Timestamp          time.Time `json:"timestamp"`
	Status             Status    `json:"status"`
	Model              string    `json:"model"`
	TaskLevel          int       `json:"task_level"`
	PromptTokens       int       `json:"prompt_tokens"`
	OutputTokens       int       `json:"output_tokens"`
	PromptCost         float64   `json:"prompt_cost"`
	CompletionCost     float64   `json:"completion_cost"`
	TotalCost          float64   `json:"total_cost"`
	Budget             float64   `json:"budget"`
	BudgetExceeded     bool      `json:"budget_exceeded"`
	CompressedPrompt   string    `json:"compressed_prompt"`
	ActualCost         *float64  `json:"actual_cost,omitempty"`
	ActualOutputTokens *int      `json:"actual_output_tokens,omitempty"`
	QualityScore       *int      `json:"quality_score,omitempty"`
	QualityRetries     *int      `json:"quality_retries,omitempty"`
	OriginalModel      string    `json:"original_model,omitempty"`
	ErrorKind          string    `json:"error_kind,omitempty"`
	ErrorMessage       string    `json:"error_message,omitempty"`
	LatencyMS          float64   `json:"latency_ms"`
}

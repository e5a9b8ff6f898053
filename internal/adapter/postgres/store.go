package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/costgate/costgate/internal/domain/run"
)

// Store implements runstore.Store using PostgreSQL. Appends are single
// INSERT statements, so concurrent writers serialize safely inside the
// database without client-side locking.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Append persists one run record and returns the server-assigned id.
func (s *Store) Append(ctx context.Context, rec *run.Record) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO task_runs (
			trace_id, created_at, status, model, task_level,
			prompt_tokens, output_tokens, prompt_cost, completion_cost, total_cost,
			budget, budget_exceeded, compressed_prompt,
			actual_cost, actual_output_tokens, quality_score, quality_retries,
			original_model, error_kind, error_message, latency_ms
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
		RETURNING id`,
		rec.TraceID, rec.Timestamp.UTC(), rec.Status, rec.Model, rec.TaskLevel,
		rec.PromptTokens, rec.OutputTokens, rec.PromptCost, rec.CompletionCost, rec.TotalCost,
		rec.Budget, rec.BudgetExceeded, rec.CompressedPrompt,
		rec.ActualCost, rec.ActualOutputTokens, rec.QualityScore, rec.QualityRetries,
		rec.OriginalModel, rec.ErrorKind, rec.ErrorMessage, rec.LatencyMS,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("append run: %w", err)
	}
	return id, nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]run.Record, error) {
	if limit < 1 {
		limit = 10
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, trace_id, created_at, status, model, task_level,
		        prompt_tokens, output_tokens, prompt_cost, completion_cost, total_cost,
		        budget, budget_exceeded, compressed_prompt,
		        actual_cost, actual_output_tokens, quality_score, quality_retries,
		        original_model, error_kind, error_message, latency_ms
		 FROM task_runs ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	defer rows.Close()

	var records []run.Record
	for rows.Next() {
		var rec run.Record
		var ts time.Time
		if err := rows.Scan(
			&rec.ID, &rec.TraceID, &ts, &rec.Status, &rec.Model, &rec.TaskLevel,
			&rec.PromptTokens, &rec.OutputTokens, &rec.PromptCost, &rec.CompletionCost, &rec.TotalCost,
			&rec.Budget, &rec.BudgetExceeded, &rec.CompressedPrompt,
			&rec.ActualCost, &rec.ActualOutputTokens, &rec.QualityScore, &rec.QualityRetries,
			&rec.OriginalModel, &rec.ErrorKind, &rec.ErrorMessage, &rec.LatencyMS,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.Timestamp = ts.UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SumTotalCost returns the sum of total_cost over every persisted row.
// Always a full aggregation, never an incrementally maintained counter.
func (s *Store) SumTotalCost(ctx context.Context) (float64, error) {
	var sum float64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(total_cost), 0) FROM task_runs`).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum total cost: %w", err)
	}
	return sum, nil
}

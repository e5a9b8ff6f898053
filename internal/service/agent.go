// Package service composes the cost-governance pipeline: compress,
// route, estimate, budget-gate, execute with quality-driven escalation,
// persist, and report cumulative spend.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/costgate/costgate/internal/adapter/otel"
	"github.com/costgate/costgate/internal/compress"
	"github.com/costgate/costgate/internal/config"
	"github.com/costgate/costgate/internal/domain/model"
	"github.com/costgate/costgate/internal/domain/run"
	"github.com/costgate/costgate/internal/logger"
	"github.com/costgate/costgate/internal/port/broadcast"
	"github.com/costgate/costgate/internal/port/llm"
	"github.com/costgate/costgate/internal/port/messagequeue"
	"github.com/costgate/costgate/internal/port/runstore"
)

// noContentMessage replaces empty or whitespace-only model output.
const noContentMessage = "[No content returned by model]"

// AgentService is the orchestrator: it owns the lifecycle of one
// run.Result per request and is its sole writer.
type AgentService struct {
	cfg       config.Agent
	router    *Router
	estimator *Estimator
	evaluator *Evaluator // nil disables quality evaluation
	provider  llm.CompletionProvider
	store     runstore.Store

	queue   messagequeue.Queue    // optional, best-effort event publishing
	hub     broadcast.Broadcaster // optional, best-effort live events
	metrics *otel.Metrics         // optional

	costFlight singleflight.Group
}

// NewAgentService creates the orchestrator with its required collaborators.
func NewAgentService(
	cfg config.Agent,
	router *Router,
	estimator *Estimator,
	evaluator *Evaluator,
	provider llm.CompletionProvider,
	store runstore.Store,
) *AgentService {
	return &AgentService{
		cfg:       cfg,
		router:    router,
		estimator: estimator,
		evaluator: evaluator,
		provider:  provider,
		store:     store,
	}
}

// SetQueue attaches an event queue for run outcome events.
func (s *AgentService) SetQueue(q messagequeue.Queue) { s.queue = q }

// SetBroadcaster attaches a live event broadcaster.
func (s *AgentService) SetBroadcaster(b broadcast.Broadcaster) { s.hub = b }

// SetMetrics attaches metric instruments.
func (s *AgentService) SetMetrics(m *otel.Metrics) { s.metrics = m }

// Route resolves the model for a level, honoring an explicit override.
// The reason string explains which path was taken; it is surfaced to
// callers for explainability and never drives control flow.
func (s *AgentService) Route(level int, override string) (modelID, reason string) {
	if override != "" {
		return override, "override:" + override
	}
	return s.router.Route(level), fmt.Sprintf("router:level=%d", level)
}

// EstimateOnly runs the front half of the pipeline (compress, route,
// estimate, budget check) without executing or persisting anything.
func (s *AgentService) EstimateOnly(ctx context.Context, req run.TaskRequest) (*run.EstimateResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	traceID := uuid.NewString()
	ctx = logger.WithTraceID(ctx, traceID)
	start := time.Now()

	compressed := s.compress(req.Prompt)
	modelID, reason := s.Route(req.Level, req.ModelOverride)

	est, err := s.estimator.Estimate(ctx, compressed, req.ExpectedOutputTokens, modelID)
	if err != nil {
		return nil, err
	}

	budget := s.effectiveBudget(req)
	res := &run.EstimateResult{
		TraceID:        traceID,
		Estimate:       est,
		RouterReason:   reason,
		Budget:         budget,
		BudgetExceeded: est.TotalCost > budget,
		Compression:    run.NewCompression(req.Prompt, compressed),
		LatencyMS:      msSince(start),
	}

	slog.Info("estimate done",
		"trace_id", traceID,
		"model", modelID,
		"router_reason", reason,
		"total_cost", est.TotalCost,
		"budget_exceeded", res.BudgetExceeded,
		"latency_ms", res.LatencyMS,
	)
	return res, nil
}

// RunTask executes the full pipeline for one request. Every invocation
// that enters the pipeline appends exactly one row to the run store --
// including failed ones, which persist a degraded minimal record before
// the original error propagates.
func (s *AgentService) RunTask(ctx context.Context, req run.TaskRequest) (*run.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	traceID := uuid.NewString()
	ctx = logger.WithTraceID(ctx, traceID)
	ctx, span := otel.StartRunSpan(ctx, traceID, req.Level)
	defer span.End()

	start := time.Now()
	budget := s.effectiveBudget(req)

	// 1. Compress.
	compressed := s.compress(req.Prompt)

	// 2. Route (or override).
	modelID, reason := s.Route(req.Level, req.ModelOverride)

	// 3. Estimate.
	est, err := s.estimator.Estimate(ctx, compressed, req.ExpectedOutputTokens, modelID)
	if err != nil {
		return nil, s.failRun(ctx, req, traceID, compressed, budget, start, err)
	}

	res := &run.Result{
		TraceID:      traceID,
		Estimate:     est,
		Budget:       budget,
		Compression:  run.NewCompression(req.Prompt, compressed),
		RouterReason: reason,
		ModelUsed:    modelID,
	}

	// 4-6. Budget gate, then dry-run or execute.
	switch {
	case est.TotalCost > budget:
		res.Status = run.StatusRejectedBudget
		res.BudgetExceeded = true
		res.Response = fmt.Sprintf("[Budget exceeded] Would use %s", modelID)
	case !req.Execute:
		res.Status = run.StatusDryRun
		res.Response = fmt.Sprintf("[Dry-run] Would use %s", modelID)
	default:
		if err := s.execute(ctx, req, compressed, res); err != nil {
			return nil, s.failRun(ctx, req, traceID, compressed, budget, start, err)
		}
		res.Status = run.StatusExecuted
	}

	res.LatencyMS = msSince(start)

	// 7. Persist.
	logID, err := s.store.Append(ctx, recordFromResult(req, res, compressed))
	if err != nil {
		return nil, fmt.Errorf("persist run %s: %w", traceID, err)
	}
	res.LogID = logID

	// 8. Cumulative spend readback.
	cumulative, err := s.CumulativeCost(ctx)
	if err != nil {
		return nil, fmt.Errorf("cumulative cost after run %s: %w", traceID, err)
	}
	res.CumulativeCost = cumulative

	if res.BudgetExceeded {
		slog.Warn("task cost exceeds per-call budget",
			"trace_id", traceID,
			"total_cost", est.TotalCost,
			"budget", budget,
		)
	}
	slog.Info("run complete",
		"trace_id", traceID,
		"status", res.Status,
		"model", res.ModelUsed,
		"total_cost", est.TotalCost,
		"log_id", res.LogID,
		"latency_ms", res.LatencyMS,
	)

	s.observe(ctx, res)
	return res, nil
}

// RecentRuns returns the newest persisted run records.
func (s *AgentService) RecentRuns(ctx context.Context, limit int) ([]run.Record, error) {
	return s.store.Recent(ctx, limit)
}

// CumulativeCost recomputes the sum of total_cost over every persisted
// run. Concurrent callers share a single aggregation query.
func (s *AgentService) CumulativeCost(ctx context.Context) (float64, error) {
	v, err, _ := s.costFlight.Do("sum_total_cost", func() (any, error) {
		return s.store.SumTotalCost(ctx)
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

// execute runs the provider call loop with quality-driven escalation.
// The loop always makes at least one attempt; maxAttempts is 1 when
// quality evaluation is off and 1+MaxRetries otherwise, so the result
// fields set inside the loop are populated on every path out of it.
func (s *AgentService) execute(ctx context.Context, req run.TaskRequest, compressed string, res *run.Result) error {
	level := req.Level
	modelID := res.ModelUsed
	originalModel := modelID

	qualityOn := s.evaluator != nil && s.cfg.Quality.Enabled
	maxAttempts := 1
	if qualityOn {
		maxAttempts = 1 + s.cfg.Quality.MaxRetries
	}

	var exec run.Execution
	var verdict Verdict
	retries := 0

	for attempt := 1; ; attempt++ {
		attemptCtx, span := otel.StartAttemptSpan(ctx, modelID, attempt)
		completion, err := s.provider.Complete(attemptCtx, modelID,
			[]llm.Message{{Role: "user", Content: compressed}}, req.ExpectedOutputTokens)
		span.End()
		if err != nil {
			return err
		}

		content := strings.TrimSpace(completion.Content)
		if content == "" {
			content = noContentMessage
		}
		res.Response = content
		res.ModelUsed = modelID
		exec = run.Execution{
			ActualCost:         completion.Cost,
			ActualOutputTokens: completion.Usage.CompletionTokens,
		}

		if !qualityOn {
			break
		}

		verdict = s.evaluator.Evaluate(ctx, compressed, content)
		if verdict.Score >= s.cfg.Quality.Threshold {
			break
		}
		if attempt >= maxAttempts || level >= model.MaxLevel {
			// No escalation left: accept this attempt, unsatisfied.
			break
		}

		level++
		retries++
		if req.ModelOverride == "" {
			// Re-route at the higher level. An explicit override pins
			// the model: the retry happens, the escalation does not.
			modelID = s.router.Route(level)
		}
		if s.metrics != nil {
			s.metrics.QualityRetries.Add(ctx, 1)
		}
		slog.Info("quality retry",
			"trace_id", logger.TraceID(ctx),
			"score", verdict.Score,
			"threshold", s.cfg.Quality.Threshold,
			"next_level", level,
			"next_model", modelID,
		)
	}

	res.Execution = &exec
	if qualityOn {
		res.Quality = &run.Quality{
			Score:   verdict.Score,
			Reason:  verdict.Reason,
			Retries: retries,
		}
		if res.ModelUsed != originalModel {
			res.Quality.OriginalModel = originalModel
		}
	}
	return nil
}

// failRun persists a degraded minimal record for a failed pipeline run
// and returns the original error. A persistence failure here is logged
// and swallowed so it never masks the failure being reported.
func (s *AgentService) failRun(ctx context.Context, req run.TaskRequest, traceID, compressed string, budget float64, start time.Time, cause error) error {
	rec := &run.Record{
		TraceID:          traceID,
		Timestamp:        time.Now().UTC(),
		Status:           run.StatusError,
		TaskLevel:        req.Level,
		Budget:           budget,
		CompressedPrompt: compressed,
		ErrorKind:        string(llm.Classify(cause)),
		ErrorMessage:     firstLine(cause.Error()),
		LatencyMS:        msSince(start),
	}

	if _, err := s.store.Append(ctx, rec); err != nil {
		slog.Error("failed to persist error record",
			"trace_id", traceID, "append_error", err, "original_error", cause)
	}
	if s.metrics != nil {
		s.metrics.RunsErrored.Add(ctx, 1)
	}
	s.publish(ctx, messagequeue.SubjectRunErrored, rec)

	slog.Error("run failed",
		"trace_id", traceID,
		"error_kind", rec.ErrorKind,
		"error", firstLine(cause.Error()),
	)
	return cause
}

// observe emits metrics, queue events, and live broadcasts for a
// completed run. All of it is best-effort.
func (s *AgentService) observe(ctx context.Context, res *run.Result) {
	if s.metrics != nil {
		switch res.Status {
		case run.StatusExecuted:
			s.metrics.RunsExecuted.Add(ctx, 1)
		case run.StatusDryRun:
			s.metrics.RunsDryRun.Add(ctx, 1)
		case run.StatusRejectedBudget:
			s.metrics.RunsRejected.Add(ctx, 1)
		case run.StatusError:
			s.metrics.RunsErrored.Add(ctx, 1)
		}
		s.metrics.RunLatency.Record(ctx, res.LatencyMS)
		s.metrics.RunCost.Record(ctx, res.Estimate.TotalCost)
	}

	s.publish(ctx, messagequeue.SubjectFor(string(res.Status)), res)

	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, "run."+string(res.Status), res)
	}
}

func (s *AgentService) publish(ctx context.Context, subject string, payload any) {
	if s.queue == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("marshal run event", "subject", subject, "error", err)
		return
	}
	if err := s.queue.Publish(ctx, subject, data); err != nil {
		slog.Warn("publish run event", "subject", subject, "error", err)
	}
}

func (s *AgentService) compress(prompt string) string {
	return compress.Compress(compress.Clean(prompt), s.cfg.CompressMaxTokens)
}

func (s *AgentService) effectiveBudget(req run.TaskRequest) float64 {
	if req.BudgetOverride != nil {
		return *req.BudgetOverride
	}
	return s.cfg.DefaultBudget
}

// recordFromResult maps a finished result onto its persisted row.
func recordFromResult(req run.TaskRequest, res *run.Result, compressed string) *run.Record {
	rec := &run.Record{
		TraceID:          res.TraceID,
		Timestamp:        time.Now().UTC(),
		Status:           res.Status,
		Model:            res.ModelUsed,
		TaskLevel:        req.Level,
		PromptTokens:     res.Estimate.PromptTokens,
		OutputTokens:     res.Estimate.OutputTokens,
		PromptCost:       res.Estimate.PromptCost,
		CompletionCost:   res.Estimate.CompletionCost,
		TotalCost:        res.Estimate.TotalCost,
		Budget:           res.Budget,
		BudgetExceeded:   res.BudgetExceeded,
		CompressedPrompt: compressed,
		LatencyMS:        res.LatencyMS,
	}
	if res.Execution != nil {
		cost := res.Execution.ActualCost
		tokens := res.Execution.ActualOutputTokens
		rec.ActualCost = &cost
		rec.ActualOutputTokens = &tokens
	}
	if res.Quality != nil {
		score := res.Quality.Score
		rtr := res.Quality.Retries
		rec.QualityScore = &score
		rec.QualityRetries = &rtr
		rec.OriginalModel = res.Quality.OriginalModel
	}
	return rec
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

// firstLine trims an error message to its first line so internal stack
// detail never reaches callers or the audit log.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "costgate"

// StartRunSpan starts a span for one pipeline run.
func StartRunSpan(ctx context.Context, traceID string, level int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "run",
		trace.WithAttributes(
			attribute.String("run.trace_id", traceID),
			attribute.Int("run.level", level),
		),
	)
}

// StartAttemptSpan starts a span for one provider call attempt within a run.
func StartAttemptSpan(ctx context.Context, modelID string, attempt int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "attempt",
		trace.WithAttributes(
			attribute.String("attempt.model", modelID),
			attribute.Int("attempt.number", attempt),
		),
	)
}

// StartJudgeSpan starts a span for a quality-evaluator judge call.
func StartJudgeSpan(ctx context.Context, judgeModel string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "judge",
		trace.WithAttributes(
			attribute.String("judge.model", judgeModel),
		),
	)
}

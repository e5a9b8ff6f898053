// Package otel provides OpenTelemetry instruments and HTTP middleware.
// Exporter setup is left to the embedding deployment; without a
// configured SDK these are no-ops.
package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "costgate"

// Metrics holds all CostGate metric instruments.
type Metrics struct {
	RunsExecuted   metric.Int64Counter
	RunsDryRun     metric.Int64Counter
	RunsRejected   metric.Int64Counter
	RunsErrored    metric.Int64Counter
	QualityRetries metric.Int64Counter
	RunLatency     metric.Float64Histogram
	RunCost        metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.RunsExecuted, err = meter.Int64Counter("costgate.runs.executed",
		metric.WithDescription("Number of runs that made a real provider call"))
	if err != nil {
		return nil, err
	}

	m.RunsDryRun, err = meter.Int64Counter("costgate.runs.dry_run",
		metric.WithDescription("Number of estimate-only runs"))
	if err != nil {
		return nil, err
	}

	m.RunsRejected, err = meter.Int64Counter("costgate.runs.rejected_budget",
		metric.WithDescription("Number of runs blocked by the budget gate"))
	if err != nil {
		return nil, err
	}

	m.RunsErrored, err = meter.Int64Counter("costgate.runs.errored",
		metric.WithDescription("Number of runs that failed"))
	if err != nil {
		return nil, err
	}

	m.QualityRetries, err = meter.Int64Counter("costgate.quality.retries",
		metric.WithDescription("Number of quality-driven escalation retries"))
	if err != nil {
		return nil, err
	}

	m.RunLatency, err = meter.Float64Histogram("costgate.run.latency_ms",
		metric.WithDescription("Pipeline latency in milliseconds"))
	if err != nil {
		return nil, err
	}

	m.RunCost, err = meter.Float64Histogram("costgate.run.cost_usd",
		metric.WithDescription("Estimated run cost in USD"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

package run

// EstimateResult is the outcome of an estimate-only call: the same
// compress/route/estimate/budget-gate front half of the pipeline, with
// no execution and no persistence.
type EstimateResult struct {
	TraceID        string       `json:"trace_id"`
	Estimate       CostEstimate `json:"estimate"`
	RouterReason   string       `json:"router_reason"`
	Budget         float64      `json:"budget"`
	BudgetExceeded bool         `json:"budget_exceeded"`
	Compression    Compression  `json:"compression"`
	LatencyMS      float64      `json:"latency_ms"`
}

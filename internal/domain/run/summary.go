package run

import (
	"fmt"
	"strings"
)

// FormatCost renders a dollar amount with five decimal places.
func FormatCost(cost float64) string {
	return fmt.Sprintf("$%.5f", cost)
}

// Summary builds a human-readable multi-line report of the run,
// suitable for CLI output or chat surfaces.
func (r *Result) Summary() string {
	mode := "[Dry-run]"
	if r.Execution != nil {
		mode = "[Execute]"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Mode:             %s\n", mode)
	fmt.Fprintf(&b, "Model:            %s\n", r.ModelUsed)
	fmt.Fprintf(&b, "Prompt tokens:    %d\n", r.Estimate.PromptTokens)
	fmt.Fprintf(&b, "Output tokens:    %d\n", r.Estimate.OutputTokens)
	fmt.Fprintf(&b, "Prompt cost:      %s\n", FormatCost(r.Estimate.PromptCost))
	fmt.Fprintf(&b, "Completion cost:  %s\n", FormatCost(r.Estimate.CompletionCost))
	fmt.Fprintf(&b, "Total cost (est): %s\n", FormatCost(r.Estimate.TotalCost))
	fmt.Fprintf(&b, "Budget:           %s\n", FormatCost(r.Budget))
	fmt.Fprintf(&b, "Over budget:      %s\n", yesNo(r.BudgetExceeded))
	fmt.Fprintf(&b, "Cumulative cost:  %s", FormatCost(r.CumulativeCost))

	if r.Execution != nil {
		fmt.Fprintf(&b, "\nActual cost:      %s", FormatCost(r.Execution.ActualCost))
		fmt.Fprintf(&b, "\nActual tokens:    %d", r.Execution.ActualOutputTokens)
	}
	if r.Quality != nil {
		fmt.Fprintf(&b, "\nQuality score:    %d (retries: %d)", r.Quality.Score, r.Quality.Retries)
	}
	if r.LogID > 0 {
		fmt.Fprintf(&b, "\nLog ID:           %d", r.LogID)
	}
	if r.Execution != nil && r.Response != "" {
		fmt.Fprintf(&b, "\n\n--- Response ---\n%s", r.Response)
	}
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

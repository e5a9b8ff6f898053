// Package pricetable implements the pricing oracle port on top of the
// in-memory priced model table.
package pricetable

import (
	"fmt"

	"github.com/costgate/costgate/internal/domain/model"
	"github.com/costgate/costgate/internal/port/pricing"
)

const tokensPerMillion = 1_000_000

// Oracle prices token counts from a model table's per-million rates.
type Oracle struct {
	table *model.Table
}

// New creates an Oracle over the given table.
func New(table *model.Table) *Oracle {
	return &Oracle{table: table}
}

// Price returns the prompt/completion cost pair for a model. Models
// absent from the table return pricing.ErrUnknownModel.
func (o *Oracle) Price(modelID string, promptTokens, completionTokens int) (float64, float64, error) {
	entry, ok := o.table.Get(modelID)
	if !ok {
		return 0, 0, fmt.Errorf("price %q: %w", modelID, pricing.ErrUnknownModel)
	}

	promptCost := float64(promptTokens) * entry.PromptPerMillion / tokensPerMillion
	completionCost := float64(completionTokens) * entry.CompletionPerMillion / tokensPerMillion
	return promptCost, completionCost, nil
}

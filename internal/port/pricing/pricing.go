// Package pricing defines the tokenizer and pricing oracle ports consumed
// by the cost estimator.
package pricing

import "errors"

// ErrUnknownModel signals the oracle has no price entry for a model id.
// The estimator treats this as zero cost rather than failing.
var ErrUnknownModel = errors.New("unknown model")

// Tokenizer counts prompt tokens for a given model.
type Tokenizer interface {
	CountTokens(text, modelID string) int
}

// Oracle converts token counts into a prompt/completion cost pair for a
// model. Implementations return ErrUnknownModel for unpriced models.
type Oracle interface {
	Price(modelID string, promptTokens, completionTokens int) (promptCost, completionCost float64, err error)
}

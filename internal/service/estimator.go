package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/costgate/costgate/internal/domain/run"
	"github.com/costgate/costgate/internal/port/cache"
	"github.com/costgate/costgate/internal/port/pricing"
)

// Estimator produces pre-execution cost estimates by combining the
// tokenizer and pricing oracles. Estimates are pure functions of
// (text, output tokens, model, price table), so they are safe to cache.
type Estimator struct {
	tokenizer pricing.Tokenizer
	oracle    pricing.Oracle
	cache     cache.Cache // optional
	cacheTTL  time.Duration
}

// NewEstimator creates an Estimator. Pass a nil cache to disable caching.
func NewEstimator(tok pricing.Tokenizer, oracle pricing.Oracle, c cache.Cache, ttl time.Duration) *Estimator {
	return &Estimator{tokenizer: tok, oracle: oracle, cache: c, cacheTTL: ttl}
}

// Estimate returns the cost breakdown for sending text to modelID and
// receiving expectedOutputTokens back. Unknown models degrade to a
// zero-cost estimate instead of failing: an unpriced model must never
// block estimation, only under-report spend.
func (e *Estimator) Estimate(ctx context.Context, text string, expectedOutputTokens int, modelID string) (run.CostEstimate, error) {
	key := e.cacheKey(text, expectedOutputTokens, modelID)
	if est, ok := e.cached(ctx, key); ok {
		return est, nil
	}

	promptTokens := e.tokenizer.CountTokens(text, modelID)

	promptCost, completionCost, err := e.oracle.Price(modelID, promptTokens, expectedOutputTokens)
	if err != nil {
		if !errors.Is(err, pricing.ErrUnknownModel) {
			return run.CostEstimate{}, fmt.Errorf("price %s: %w", modelID, err)
		}
		slog.Warn("no pricing for model, estimating zero cost", "model", modelID)
		promptCost, completionCost = 0, 0
	}

	est := run.NewCostEstimate(modelID, promptTokens, expectedOutputTokens, promptCost, completionCost)
	e.store(ctx, key, est)
	return est, nil
}

func (e *Estimator) cacheKey(text string, tokens int, modelID string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("est:%s:%d:%s", modelID, tokens, hex.EncodeToString(sum[:16]))
}

func (e *Estimator) cached(ctx context.Context, key string) (run.CostEstimate, bool) {
	if e.cache == nil {
		return run.CostEstimate{}, false
	}
	data, ok, err := e.cache.Get(ctx, key)
	if err != nil || !ok {
		return run.CostEstimate{}, false
	}
	var est run.CostEstimate
	if err := json.Unmarshal(data, &est); err != nil {
		return run.CostEstimate{}, false
	}
	return est, true
}

func (e *Estimator) store(ctx context.Context, key string, est run.CostEstimate) {
	if e.cache == nil {
		return
	}
	data, err := json.Marshal(est)
	if err != nil {
		return
	}
	_ = e.cache.Set(ctx, key, data, e.cacheTTL)
}

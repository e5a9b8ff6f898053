package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/costgate/costgate/internal/adapter/otel"
	"github.com/costgate/costgate/internal/logger"
	"github.com/costgate/costgate/internal/port/llm"
)

// Judge-call input bounds keep evaluation cost flat regardless of how
// large the candidate prompt/response were.
const (
	judgePromptLimit   = 2000
	judgeResponseLimit = 3000
	failOpenScore      = 10
)

const judgePromptTemplate = `You are a quality evaluator. Rate the following AI response on a scale of 1-10.

Criteria:
- Relevance: Does the response address the prompt?
- Completeness: Does it cover the key points?
- Accuracy: Is the information correct and coherent?
- Clarity: Is it well-written and easy to understand?

Prompt:
%s

Response:
%s

Reply with ONLY a JSON object: {"score": <integer 1-10>, "reason": "<one sentence>"}`

var scorePattern = regexp.MustCompile(`"?score"?\s*[:=]\s*(\d+)`)

// Verdict is the outcome of one quality evaluation.
type Verdict struct {
	Score    int     `json:"score"`
	Reason   string  `json:"reason"`
	EvalCost float64 `json:"eval_cost"`
}

// Evaluator scores model output with a cheap judge model. It fails open:
// any judge-call or parse failure yields a passing verdict with zero
// cost, so quality evaluation can never block the pipeline.
type Evaluator struct {
	provider  llm.CompletionProvider
	model     string
	maxTokens int
}

// NewEvaluator creates an Evaluator using the given judge model.
func NewEvaluator(provider llm.CompletionProvider, judgeModel string, maxTokens int) *Evaluator {
	if maxTokens <= 0 {
		maxTokens = 100
	}
	return &Evaluator{provider: provider, model: judgeModel, maxTokens: maxTokens}
}

// Evaluate asks the judge model to score (prompt, response). It never
// returns an error past its own boundary.
func (e *Evaluator) Evaluate(ctx context.Context, prompt, response string) Verdict {
	ctx, span := otel.StartJudgeSpan(ctx, e.model)
	defer span.End()

	judgePrompt := fmt.Sprintf(judgePromptTemplate,
		truncate(prompt, judgePromptLimit),
		truncate(response, judgeResponseLimit),
	)

	completion, err := e.provider.Complete(ctx, e.model,
		[]llm.Message{{Role: "user", Content: judgePrompt}}, e.maxTokens)
	if err != nil {
		slog.Warn("quality eval failed open",
			"trace_id", logger.TraceID(ctx), "judge_model", e.model, "error", err)
		return Verdict{
			Score:    failOpenScore,
			Reason:   "eval_error: " + truncate(err.Error(), 100),
			EvalCost: 0,
		}
	}

	score, reason := parseVerdict(completion.Content)
	v := Verdict{Score: score, Reason: reason, EvalCost: completion.Cost}
	slog.Debug("quality eval done",
		"trace_id", logger.TraceID(ctx), "score", v.Score, "eval_cost", v.EvalCost)
	return v
}

// parseVerdict extracts score and reason from the judge reply, leniently:
// strict JSON first, then a regex scan for a score field (capped at 10),
// then fail-open.
func parseVerdict(raw string) (int, string) {
	trimmed := strings.TrimSpace(raw)

	var parsed struct {
		Score  *int   `json:"score"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil && parsed.Score != nil {
		return *parsed.Score, parsed.Reason
	}

	if m := scorePattern.FindStringSubmatch(trimmed); m != nil {
		score, err := strconv.Atoi(m[1])
		// Atoi rejects digit runs past the int range; treat those the
		// same as any other over-10 score.
		if err != nil || score > 10 {
			score = 10
		}
		return score, truncate(trimmed, 100)
	}

	return failOpenScore, "parse_error: " + truncate(trimmed, 100)
}

// truncate cuts s to at most n bytes without splitting a UTF-8 rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

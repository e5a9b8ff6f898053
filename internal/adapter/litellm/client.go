// Package litellm implements the completion-provider port against a
// LiteLLM proxy (OpenAI-compatible chat completions API).
package litellm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/costgate/costgate/internal/port/llm"
	"github.com/costgate/costgate/internal/resilience"
)

const providerName = "litellm"

// Client talks to a LiteLLM proxy's chat completions endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates a new LiteLLM completion client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []llm.Message `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Complete sends one chat completion request. Failures are classified
// into the closed llm.Kind set here, at the provider boundary.
func (c *Client) Complete(ctx context.Context, modelID string, messages []llm.Message, maxOutputTokens int) (*llm.Completion, error) {
	body, err := json.Marshal(chatRequest{
		Model:     modelID,
		Messages:  messages,
		MaxTokens: maxOutputTokens,
	})
	if err != nil {
		return nil, llm.NewError(llm.KindInternal, providerName, "complete", err)
	}

	var out *llm.Completion
	call := func() error {
		var callErr error
		out, callErr = c.doComplete(ctx, body)
		return callErr
	}

	if c.breaker != nil {
		if err := c.breaker.Execute(call); err != nil {
			if errors.Is(err, resilience.ErrCircuitOpen) {
				return nil, llm.NewError(llm.KindUnavailable, providerName, "complete", err)
			}
			return nil, err
		}
		return out, nil
	}

	if err := call(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) doComplete(ctx context.Context, body []byte) (*llm.Completion, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, llm.NewError(llm.KindInternal, providerName, "complete", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, llm.NewError(llm.KindUnavailable, providerName, "complete", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, llm.NewError(llm.KindUnavailable, providerName, "complete", err)
	}

	if resp.StatusCode >= 400 {
		return nil, llm.NewError(classifyStatus(resp.StatusCode), providerName, "complete",
			fmt.Errorf("litellm API error %d: %s", resp.StatusCode, firstLine(string(data))))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, llm.NewError(llm.KindInternal, providerName, "complete",
			fmt.Errorf("unmarshal completion: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return nil, llm.NewError(llm.KindInternal, providerName, "complete",
			errors.New("completion has no choices"))
	}

	return &llm.Completion{
		Content: parsed.Choices[0].Message.Content,
		Usage: llm.Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
		},
		Cost: responseCost(resp),
	}, nil
}

// classifyStatus maps an HTTP status to a provider failure kind.
func classifyStatus(status int) llm.Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return llm.KindAuth
	case status == http.StatusTooManyRequests:
		return llm.KindRateLimited
	case status >= 500:
		return llm.KindUnavailable
	default:
		return llm.KindInternal
	}
}

// responseCost reads the per-call spend the proxy reports in its
// response headers, if any.
func responseCost(resp *http.Response) float64 {
	for _, h := range []string{"x-litellm-response-cost", "llm-provider-cost"} {
		if v := resp.Header.Get(h); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
		}
	}
	return 0
}

// firstLine trims a provider error body to its first line so verbose
// upstream traces never reach callers.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Health checks if the proxy is reachable.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health/liveliness", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("litellm health: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("litellm health: status %d", resp.StatusCode)
	}
	return nil
}

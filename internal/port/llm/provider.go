// Package llm defines the completion-provider port and its closed set of
// failure kinds. Classification happens inside provider adapters; callers
// never inspect error text.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Kind is a machine-readable provider failure class.
type Kind string

const (
	// KindAuth means the provider rejected the credentials.
	KindAuth Kind = "provider_auth"
	// KindRateLimited means the provider throttled the request.
	KindRateLimited Kind = "provider_rate_limited"
	// KindUnavailable means the provider could not be reached or returned
	// a server-side failure.
	KindUnavailable Kind = "provider_unavailable"
	// KindInternal covers everything else.
	KindInternal Kind = "internal"
)

// Error wraps a provider failure with its kind and origin.
type Error struct {
	Kind     Kind
	Provider string
	Op       string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s [%s]: %v", e.Provider, e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a classified provider error.
func NewError(kind Kind, provider, op string, err error) *Error {
	return &Error{Kind: kind, Provider: provider, Op: op, Err: err}
}

// Classify returns the failure kind of err. Errors that did not come from
// a provider adapter classify as KindInternal.
func Classify(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindInternal
}

// Message is one chat message sent to a model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage reports token consumption of a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Completion is the result of one model call.
type Completion struct {
	Content string
	Usage   Usage
	// Cost is the provider-reported spend for this call in USD,
	// zero when the provider does not report one.
	Cost float64
}

// CompletionProvider is the port for chat-completion calls. Calls are
// blocking I/O; callers wrap the context with a deadline when they need one.
type CompletionProvider interface {
	Complete(ctx context.Context, modelID string, messages []Message, maxOutputTokens int) (*Completion, error)
}

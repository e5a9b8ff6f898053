package model

import "fmt"

// presets holds the built-in priced model tables per provider.
// Levels: 1=simple, 2=medium, 3=complex. Cost tiers rank relative spend
// within a provider (1=cheap, 3=expensive). Prices are USD per million
// tokens and are the source the pricing oracle reads from.
var presets = map[string][]Entry{
	"google": {
		{ID: "gemini/gemini-2.0-flash", DisplayName: "Gemini 2.0 Flash", Level: 1, CostTier: 1, Provider: "google", PromptPerMillion: 0.10, CompletionPerMillion: 0.40},
		{ID: "gemini/gemini-2.5-flash", DisplayName: "Gemini 2.5 Flash", Level: 2, CostTier: 1, Provider: "google", PromptPerMillion: 0.30, CompletionPerMillion: 2.50},
		{ID: "gemini/gemini-2.5-pro", DisplayName: "Gemini 2.5 Pro", Level: 3, CostTier: 2, Provider: "google", PromptPerMillion: 1.25, CompletionPerMillion: 10.0},
	},
	"openai": {
		{ID: "gpt-4o-mini", DisplayName: "GPT-4o Mini", Level: 1, CostTier: 1, Provider: "openai", PromptPerMillion: 0.15, CompletionPerMillion: 0.60},
		{ID: "gpt-4o", DisplayName: "GPT-4o", Level: 2, CostTier: 2, Provider: "openai", PromptPerMillion: 2.50, CompletionPerMillion: 10.0},
		{ID: "o3-mini", DisplayName: "o3-mini", Level: 3, CostTier: 3, Provider: "openai", PromptPerMillion: 1.10, CompletionPerMillion: 4.40},
	},
	"anthropic": {
		{ID: "anthropic/claude-haiku", DisplayName: "Claude Haiku", Level: 1, CostTier: 1, Provider: "anthropic", PromptPerMillion: 0.80, CompletionPerMillion: 4.0},
		{ID: "anthropic/claude-sonnet", DisplayName: "Claude Sonnet", Level: 2, CostTier: 2, Provider: "anthropic", PromptPerMillion: 3.0, CompletionPerMillion: 15.0},
		{ID: "anthropic/claude-opus", DisplayName: "Claude Opus", Level: 3, CostTier: 3, Provider: "anthropic", PromptPerMillion: 15.0, CompletionPerMillion: 75.0},
	},
	"deepseek": {
		{ID: "deepseek/deepseek-chat", DisplayName: "DeepSeek V3", Level: 1, CostTier: 1, Provider: "deepseek", PromptPerMillion: 0.27, CompletionPerMillion: 1.10},
		{ID: "deepseek/deepseek-reasoner", DisplayName: "DeepSeek R1", Level: 3, CostTier: 1, Provider: "deepseek", PromptPerMillion: 0.55, CompletionPerMillion: 2.19},
	},
}

// Preset returns the built-in table for a provider name.
func Preset(provider string) (*Table, error) {
	entries, ok := presets[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider preset %q", provider)
	}
	return NewTable(entries)
}

// PresetProviders returns the names of all built-in provider presets.
func PresetProviders() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	return names
}

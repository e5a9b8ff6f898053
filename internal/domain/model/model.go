// Package model defines the priced model table used for routing and pricing.
package model

import (
	"fmt"
	"sort"

	"github.com/costgate/costgate/internal/domain"
)

// Entry describes one routable model: identity, complexity level,
// relative cost tier, and per-million-token prices.
type Entry struct {
	ID                   string  `json:"id" yaml:"id"`
	DisplayName          string  `json:"display_name" yaml:"display_name"`
	Level                int     `json:"level" yaml:"level"`
	CostTier             int     `json:"cost_tier" yaml:"cost_tier"`
	Provider             string  `json:"provider" yaml:"provider"`
	PromptPerMillion     float64 `json:"prompt_per_million" yaml:"prompt_per_million"`
	CompletionPerMillion float64 `json:"completion_per_million" yaml:"completion_per_million"`
}

// MinLevel and MaxLevel bound the task complexity scale.
const (
	MinLevel = 1
	MaxLevel = 3
)

// Table is a read-only mapping from model id to Entry, loaded once at
// startup. Iteration order is lexicographic by model id so every lookup
// is deterministic regardless of source ordering.
type Table struct {
	entries map[string]Entry
	ids     []string
}

// NewTable builds a Table from entries. An empty set is a configuration
// error; duplicate ids are rejected.
func NewTable(entries []Entry) (*Table, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: model table is empty", domain.ErrConfig)
	}

	m := make(map[string]Entry, len(entries))
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			return nil, fmt.Errorf("%w: model entry with empty id", domain.ErrConfig)
		}
		if _, dup := m[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate model id %q", domain.ErrConfig, e.ID)
		}
		if e.Level < MinLevel || e.Level > MaxLevel {
			return nil, fmt.Errorf("%w: model %q has level %d, want %d..%d",
				domain.ErrConfig, e.ID, e.Level, MinLevel, MaxLevel)
		}
		m[e.ID] = e
		ids = append(ids, e.ID)
	}
	sort.Strings(ids)

	return &Table{entries: m, ids: ids}, nil
}

// Get returns the entry for id.
func (t *Table) Get(id string) (Entry, bool) {
	e, ok := t.entries[id]
	return e, ok
}

// IDs returns all model ids in lexicographic order.
func (t *Table) IDs() []string {
	out := make([]string, len(t.ids))
	copy(out, t.ids)
	return out
}

// Entries returns all entries in lexicographic id order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.ids))
	for _, id := range t.ids {
		out = append(out, t.entries[id])
	}
	return out
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.ids)
}

// HighestLevel returns the numerically highest level present in the table.
func (t *Table) HighestLevel() int {
	max := 0
	for _, id := range t.ids {
		if lvl := t.entries[id].Level; lvl > max {
			max = lvl
		}
	}
	return max
}

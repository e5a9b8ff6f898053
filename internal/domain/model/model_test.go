package model

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/costgate/costgate/internal/domain"
)

func TestNewTableRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
	}{
		{"empty", nil},
		{"empty id", []Entry{{ID: "", Level: 1}}},
		{"duplicate id", []Entry{{ID: "m", Level: 1}, {ID: "m", Level: 2}}},
		{"level too low", []Entry{{ID: "m", Level: 0}}},
		{"level too high", []Entry{{ID: "m", Level: 4}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTable(tt.entries); !errors.Is(err, domain.ErrConfig) {
				t.Errorf("NewTable error = %v, want ErrConfig", err)
			}
		})
	}
}

func TestTableOrderIsLexicographic(t *testing.T) {
	table, err := NewTable([]Entry{
		{ID: "zebra", Level: 1},
		{ID: "alpha", Level: 2},
		{ID: "mid", Level: 3},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	ids := table.IDs()
	if !sort.StringsAreSorted(ids) {
		t.Errorf("IDs not sorted: %v", ids)
	}
	entries := table.Entries()
	for i, e := range entries {
		if e.ID != ids[i] {
			t.Errorf("Entries()[%d].ID = %q, want %q", i, e.ID, ids[i])
		}
	}
}

func TestTableHighestLevel(t *testing.T) {
	table, err := NewTable([]Entry{
		{ID: "a", Level: 1},
		{ID: "b", Level: 2},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	if got := table.HighestLevel(); got != 2 {
		t.Errorf("HighestLevel = %d, want 2", got)
	}
}

func TestPresetProvidersAllLoad(t *testing.T) {
	providers := PresetProviders()
	if len(providers) == 0 {
		t.Fatal("no preset providers")
	}
	for _, p := range providers {
		table, err := Preset(p)
		if err != nil {
			t.Errorf("Preset(%q): %v", p, err)
			continue
		}
		if table.Len() == 0 {
			t.Errorf("Preset(%q) is empty", p)
		}
		if table.HighestLevel() != MaxLevel {
			t.Errorf("Preset(%q) highest level = %d, want %d", p, table.HighestLevel(), MaxLevel)
		}
	}
}

func TestPresetUnknownProvider(t *testing.T) {
	if _, err := Preset("nonexistent"); err == nil {
		t.Error("Preset accepted unknown provider")
	}
}

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	content := `
models:
  - id: custom-small
    display_name: Custom Small
    level: 1
    cost_tier: 1
    provider: custom
    prompt_per_million: 0.2
    completion_per_million: 0.8
  - id: custom-large
    display_name: Custom Large
    level: 3
    cost_tier: 3
    provider: custom
    prompt_per_million: 5.0
    completion_per_million: 20.0
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("Len = %d, want 2", table.Len())
	}
	e, ok := table.Get("custom-small")
	if !ok {
		t.Fatal("custom-small not found")
	}
	if e.PromptPerMillion != 0.2 || e.CompletionPerMillion != 0.8 {
		t.Errorf("prices = (%g, %g), want (0.2, 0.8)", e.PromptPerMillion, e.CompletionPerMillion)
	}
}

func TestLoadTableMissingFile(t *testing.T) {
	if _, err := LoadTable(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadTable accepted a missing file")
	}
}

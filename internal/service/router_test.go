package service

import (
	"errors"
	"testing"

	"github.com/costgate/costgate/internal/domain"
	"github.com/costgate/costgate/internal/domain/model"
)

func testTable(t *testing.T, entries []model.Entry) *model.Table {
	t.Helper()
	table, err := model.NewTable(entries)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return table
}

func TestRouterRoutesByLevel(t *testing.T) {
	table := testTable(t, []model.Entry{
		{ID: "cheap-mini", Level: 1},
		{ID: "mid-tier", Level: 2},
		{ID: "smart-pro", Level: 3},
	})
	r, err := NewRouter(table)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	tests := []struct {
		level int
		want  string
	}{
		{1, "cheap-mini"},
		{2, "mid-tier"},
		{3, "smart-pro"},
	}
	for _, tt := range tests {
		if got := r.Route(tt.level); got != tt.want {
			t.Errorf("Route(%d) = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestRouterFallsBackToHighestLevel(t *testing.T) {
	table := testTable(t, []model.Entry{
		{ID: "cheap-mini", Level: 1},
		{ID: "smart-pro", Level: 3},
	})
	r, err := NewRouter(table)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	// Level 2 has no entry; the highest level present wins.
	if got := r.Route(2); got != "smart-pro" {
		t.Errorf("Route(2) = %q, want smart-pro", got)
	}
}

func TestRouterTieBreaksLexicographically(t *testing.T) {
	// Two entries at the same level, supplied in reverse id order.
	table := testTable(t, []model.Entry{
		{ID: "zeta-model", Level: 2},
		{ID: "alpha-model", Level: 2},
		{ID: "base-model", Level: 1},
	})
	r, err := NewRouter(table)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	if got := r.Route(2); got != "alpha-model" {
		t.Errorf("Route(2) = %q, want alpha-model", got)
	}
}

func TestNewRouterRejectsEmptyTable(t *testing.T) {
	if _, err := NewRouter(nil); !errors.Is(err, domain.ErrConfig) {
		t.Fatalf("NewRouter(nil) error = %v, want ErrConfig", err)
	}
}

package service

import (
	"fmt"

	"github.com/costgate/costgate/internal/domain"
	"github.com/costgate/costgate/internal/domain/model"
)

// Router maps a task complexity level to a model id using the priced
// model table. Routing is deterministic: candidates are scanned in
// lexicographic model-id order, so ties on level always resolve to the
// same entry regardless of table source ordering.
type Router struct {
	table *model.Table
}

// NewRouter creates a Router over the given table. An empty table is a
// configuration error.
func NewRouter(table *model.Table) (*Router, error) {
	if table == nil || table.Len() == 0 {
		return nil, fmt.Errorf("%w: router needs a non-empty model table", domain.ErrConfig)
	}
	return &Router{table: table}, nil
}

// Route returns the model id for the requested level: the first entry
// (in id order) whose level matches, or, when no entry matches, the
// first entry carrying the table's highest level.
func (r *Router) Route(level int) string {
	if id, ok := r.firstAtLevel(level); ok {
		return id
	}
	id, _ := r.firstAtLevel(r.table.HighestLevel())
	return id
}

// Table returns the routing table.
func (r *Router) Table() *model.Table {
	return r.table
}

func (r *Router) firstAtLevel(level int) (string, bool) {
	for _, id := range r.table.IDs() {
		if e, _ := r.table.Get(id); e.Level == level {
			return id, true
		}
	}
	return "", false
}

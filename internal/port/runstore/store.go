// Package runstore defines the append-only run log port.
package runstore

import (
	"context"

	"github.com/costgate/costgate/internal/domain/run"
)

// Store is the port for the persisted run log. The store is the sole
// writer of persisted records and the sole source of the cumulative-cost
// aggregate, which is always recomputed as a full sum so concurrent
// writers never observe a stale incremental total.
type Store interface {
	// Append persists one run record and returns its server-assigned id.
	Append(ctx context.Context, rec *run.Record) (int64, error)

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]run.Record, error)

	// SumTotalCost returns the sum of total_cost over every persisted row.
	SumTotalCost(ctx context.Context) (float64, error)
}

// Package ledger records which feed entries have already been published, so repeated publisher runs don't post the same entry twice.
//
// Entries older than the retention window are pruned lazily, when the ledger is loaded, rather than by a background sweep.
package ledger

import (
	"context"
	"time"
)

type Ledger interface {
	Contains(ctx context.Context, key string) (bool, error)
	Record(ctx context.Context, key string, publishedAt time.Time) error
	// Drops entries published before "cutoff". Returns the number of entries removed.
	Prune(ctx context.Context, cutoff time.Time) (int, error)
	// Persists any buffered state. A no-op for backends which write through.
	Save(ctx context.Context) error
}

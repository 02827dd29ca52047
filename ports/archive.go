package ports

import (
	"context"
	"time"

	"hyperit/domain/core"
)

// ArchivedRun is the persisted form of one finished matrix pass: identifying
// metadata plus the flattened result tensor.
type ArchivedRun struct {
	ID        core.RunID `db:"id"`
	Measure   string     `db:"measure"`
	Estimator string     `db:"estimator"`
	Units     int        `db:"units"`
	Epochs    int        `db:"epochs"`
	Stats     int        `db:"stats"`
	Tensor    []float64  `db:"-"`
	CreatedAt time.Time  `db:"created_at"`
}

// RunArchive persists finished runs. Archiving is optional and never caches:
// compute results always return fresh to the caller.
type RunArchive interface {
	StoreRun(ctx context.Context, run ArchivedRun) error
	GetRun(ctx context.Context, id core.RunID) (ArchivedRun, error)
	ListRuns(ctx context.Context, limit int) ([]ArchivedRun, error)
}

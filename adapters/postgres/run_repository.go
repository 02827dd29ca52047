// Package postgres persists finished runs to PostgreSQL through sqlx.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"hyperit/domain/core"
	"hyperit/internal/errors"
	"hyperit/ports"
)

const runSchema = `
CREATE TABLE IF NOT EXISTS analysis_runs (
	id         TEXT PRIMARY KEY,
	measure    TEXT NOT NULL,
	estimator  TEXT NOT NULL,
	units      INTEGER NOT NULL,
	epochs     INTEGER NOT NULL,
	stats      INTEGER NOT NULL,
	tensor     DOUBLE PRECISION[] NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// RunRepositoryImpl implements ports.RunArchive for PostgreSQL.
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// Connect opens the archive database and ensures the schema exists.
func Connect(url string) (*RunRepositoryImpl, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to archive database")
	}
	if _, err := db.Exec(runSchema); err != nil {
		return nil, errors.Wrap(err, "ensuring archive schema")
	}
	return &RunRepositoryImpl{db: db}, nil
}

// NewRunRepository wraps an existing connection.
func NewRunRepository(db *sqlx.DB) ports.RunArchive {
	return &RunRepositoryImpl{db: db}
}

// Close releases the underlying connection pool.
func (r *RunRepositoryImpl) Close() error { return r.db.Close() }

// StoreRun inserts one finished run.
func (r *RunRepositoryImpl) StoreRun(ctx context.Context, run ports.ArchivedRun) error {
	if run.ID == "" {
		return errors.InvalidInput("run ID is required")
	}
	if want := run.Units * run.Units * run.Epochs * run.Stats; len(run.Tensor) != want {
		return errors.InvalidInput(fmt.Sprintf(
			"tensor has %d values, shape requires %d", len(run.Tensor), want))
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO analysis_runs (id, measure, estimator, units, epochs, stats, tensor)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, run.ID.String(), run.Measure, run.Estimator, run.Units, run.Epochs, run.Stats,
		pq.Array(run.Tensor))
	if err != nil {
		return errors.Wrap(err, "storing run")
	}
	return nil
}

// GetRun retrieves one run with its tensor.
func (r *RunRepositoryImpl) GetRun(ctx context.Context, id core.RunID) (ports.ArchivedRun, error) {
	var run ports.ArchivedRun
	var tensor pq.Float64Array
	err := r.db.QueryRowxContext(ctx, `
		SELECT id, measure, estimator, units, epochs, stats, tensor, created_at
		FROM analysis_runs
		WHERE id = $1
	`, id.String()).Scan(&run.ID, &run.Measure, &run.Estimator,
		&run.Units, &run.Epochs, &run.Stats, &tensor, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return ports.ArchivedRun{}, errors.NotFound(fmt.Sprintf("run %s", id))
	}
	if err != nil {
		return ports.ArchivedRun{}, errors.Wrap(err, "loading run")
	}
	run.Tensor = []float64(tensor)
	return run, nil
}

// ListRuns returns recent runs without their tensors, newest first.
func (r *RunRepositoryImpl) ListRuns(ctx context.Context, limit int) ([]ports.ArchivedRun, error) {
	query := `
		SELECT id, measure, estimator, units, epochs, stats, created_at
		FROM analysis_runs
		ORDER BY created_at DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	var runs []ports.ArchivedRun
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, errors.Wrap(err, "listing runs")
	}
	return runs, nil
}

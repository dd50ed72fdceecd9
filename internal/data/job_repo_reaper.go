package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ScoeScoe/POSTANOS/internal/data/pgxutil"
	apperrors "github.com/ScoeScoe/POSTANOS/internal/errors"
)

// Advisory lock namespace for reaper operations.
// Using two-arg pg_try_advisory_xact_lock(major, minor) for proper namespacing.
const (
	advisoryLockReaperMajor          = 1000
	advisoryLockReaperFailProcessing = 1 // minor key for FailStaleProcessingJobs
)

const staleProcessingError = "job timed out in processing status"

// FailStaleProcessingJobs marks processing jobs untouched for longer than
// maxAge as failed. A job stuck in processing lost its worker between the
// claim and the terminal transition; it is failed rather than requeued
// because the postcard order may already have been submitted, and a second
// attempt would mail a duplicate.
//
// Processes up to batchSize jobs per call to prevent long locks and I/O
// spikes. Uses advisory locks so concurrent reaper instances do not conflict.
// Returns the number of jobs marked as failed.
func (r *JobRepo) FailStaleProcessingJobs(
	ctx context.Context,
	maxAge time.Duration,
	batchSize int,
) (int64, error) {
	if maxAge <= 0 {
		return 0, apperrors.Validation("max age must be greater than zero")
	}
	if batchSize <= 0 {
		return 0, apperrors.Validation("batch size must be greater than zero")
	}

	var rowsAffected int64
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			var locked bool
			if err := tx.QueryRowContext(ctx, "SELECT pg_try_advisory_xact_lock($1, $2)",
				advisoryLockReaperMajor, advisoryLockReaperFailProcessing).Scan(&locked); err != nil {
				return fmt.Errorf("acquire advisory lock: %w", err)
			}
			if !locked {
				rowsAffected = 0
				return nil
			}

			currentTime := r.timeProvider.Now()
			cutoffTime := currentTime.Add(-maxAge)

			res, err := tx.ExecContext(ctx, `
				UPDATE jobs
				SET status = 'failed',
					error_message = $1,
					updated_at = $2
				WHERE id IN (
					SELECT id FROM jobs
					WHERE status = 'processing'
					  AND updated_at < $3
					ORDER BY updated_at
					LIMIT $4
					FOR UPDATE SKIP LOCKED
				)
			`, staleProcessingError, currentTime.UTC(), cutoffTime.UTC(), batchSize)
			if err != nil {
				return fmt.Errorf("fail stale processing jobs: %w", err)
			}

			ra, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			rowsAffected = ra
			return nil
		},
	})
	if err != nil {
		return 0, apperrors.Wrap(apperrors.MapDBError(err), apperrors.ErrCodeStore,
			"sweep stale processing jobs")
	}
	return rowsAffected, nil
}

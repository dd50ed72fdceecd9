package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ScoeScoe/POSTANOS/internal/data/pgxutil"
	"github.com/ScoeScoe/POSTANOS/internal/domain/model"
	apperrors "github.com/ScoeScoe/POSTANOS/internal/errors"
)

// Transition moves a job to the given status and applies optional fields in
// the same statement. The current status is locked and checked first so an
// illegal transition never reaches the table.
func (r *JobRepo) Transition(
	ctx context.Context,
	jobID string,
	status model.JobStatus,
	fields model.TransitionFields,
) error {
	if strings.TrimSpace(jobID) == "" {
		return apperrors.Validation("job id is required")
	}
	if !status.Valid() {
		return apperrors.Validationf("invalid job status: %s", status)
	}

	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			var current model.JobStatus
			if err := tx.QueryRowContext(ctx,
				`SELECT status FROM jobs WHERE id = $1 FOR UPDATE`, jobID,
			).Scan(&current); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return apperrors.NotFoundf("job %s not found", jobID)
				}
				return fmt.Errorf("lock job row: %w", err)
			}

			if !current.CanTransitionTo(status) {
				return apperrors.Conflict(
					fmt.Sprintf("job %s cannot transition from %s to %s", jobID, current, status),
				)
			}

			query, args := r.buildTransitionQuery(jobID, status, fields)
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("transition job: %w", err)
			}
			return nil
		},
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return apperrors.Wrapf(apperrors.MapDBError(err), apperrors.ErrCodeStore,
			"transition job %s to %s", jobID, status)
	}
	return nil
}

// buildTransitionQuery builds an UPDATE statement covering the status change
// plus whichever optional fields are set.
func (r *JobRepo) buildTransitionQuery(
	jobID string,
	status model.JobStatus,
	fields model.TransitionFields,
) (string, []any) {
	now := r.timeProvider.Now().UTC()

	parts := []string{"status = $2", "updated_at = $3"}
	args := []any{jobID, status, now}

	appendPart := func(column string, value any) {
		args = append(args, value)
		parts = append(parts, column+" = $"+strconv.Itoa(len(args)))
	}

	if fields.LobID != nil {
		appendPart("lob_id", *fields.LobID)
	}
	if fields.TrackingURL != nil {
		appendPart("lob_tracking_url", *fields.TrackingURL)
	}
	if fields.ErrorMessage != nil {
		appendPart("error_message", *fields.ErrorMessage)
	}
	if fields.ProcessedAt != nil {
		appendPart("processed_at", fields.ProcessedAt.UTC())
	}
	if status == model.JobStatusDelivered {
		appendPart("delivered_at", now)
	}

	query := "UPDATE jobs SET " + strings.Join(parts, ", ") + " WHERE id = $1"
	return query, args
}

// MarkNotified records that the owner notification for a job was sent.
func (r *JobRepo) MarkNotified(ctx context.Context, jobID string) error {
	if strings.TrimSpace(jobID) == "" {
		return apperrors.Validation("job id is required")
	}

	res, err := r.DB.ExecContext(ctx, `
		UPDATE jobs
		SET notification_sent = TRUE,
		    updated_at = $2
		WHERE id = $1
	`, jobID, r.timeProvider.Now().UTC())
	if err != nil {
		return apperrors.Wrapf(apperrors.MapDBError(err), apperrors.ErrCodeStore,
			"mark job %s notified", jobID)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return apperrors.Wrap(apperrors.MapDBError(err), apperrors.ErrCodeStore, "rows affected")
	}
	if rowsAffected == 0 {
		return apperrors.NotFoundf("job %s not found", jobID)
	}

	return nil
}

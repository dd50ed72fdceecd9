package errors

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// MapDBError maps database errors to AppError instances at the store
// boundary. Connection-class failures are marked transient so the scheduler
// can distinguish an unreachable store from a data problem.
//
// If the error is not a recognized database error, it is wrapped as a
// generic store error.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{
			Code:      ErrCodeTimeout,
			Message:   "database operation timed out",
			Cause:     err,
			Transient: true,
		}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{
			Code:    ErrCodeCanceled,
			Message: "database operation was canceled",
			Cause:   err,
		}
	}

	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return &AppError{
			Code:    ErrCodeNotFound,
			Message: "row not found",
			Cause:   err,
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}

	return &AppError{
		Code:      ErrCodeStore,
		Message:   "database operation failed",
		Cause:     err,
		Transient: true,
	}
}

// mapPgError maps PostgreSQL-specific errors to AppError instances.
func mapPgError(pgErr *pgconn.PgError) error {
	switch {
	case pgErr.Code == pgerrcode.UniqueViolation:
		return &AppError{
			Code:    ErrCodeConflict,
			Message: "value already exists",
			Cause:   pgErr,
		}
	case pgErr.Code == pgerrcode.ForeignKeyViolation:
		return &AppError{
			Code:    ErrCodeValidation,
			Message: "referenced row does not exist",
			Cause:   pgErr,
		}
	case pgErr.Code == pgerrcode.CheckViolation, pgErr.Code == pgerrcode.NotNullViolation:
		return &AppError{
			Code:    ErrCodeValidation,
			Message: "row violates a schema constraint",
			Cause:   pgErr,
		}
	case pgerrcode.IsConnectionException(pgErr.Code), pgerrcode.IsOperatorIntervention(pgErr.Code):
		return &AppError{
			Code:      ErrCodeStore,
			Message:   "database connection failure",
			Cause:     pgErr,
			Transient: true,
		}
	default:
		return &AppError{
			Code:    ErrCodeStore,
			Message: "database error",
			Cause:   pgErr,
		}
	}
}

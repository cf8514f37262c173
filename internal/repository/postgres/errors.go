package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	appErrors "synapse-backend/pkg/errors"
)

const (
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// mapError translates pgx errors into the application taxonomy.
// Raw storage-engine error text is never the sole surface; the wrapped
// AppError names the failing operation and carries a stable kind.
func mapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return appErrors.WithOperation(
			appErrors.NewNotFound(appErrors.CodeNodeNotFound, "no matching row"), operation)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return appErrors.WithOperation(
			appErrors.NewTimeout(appErrors.CodePathTimeout, "statement exceeded its time budget"), operation)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return appErrors.WithOperation(
				appErrors.NewNotFound(appErrors.CodeNodeNotFound, "referenced node does not exist"), operation)
		case pgCheckViolation:
			return appErrors.WithOperation(
				appErrors.NewInternal("storage constraint violated", err), operation)
		}
	}
	// Connection loss, serialization conflicts and everything else the
	// caller's layer may retry.
	return appErrors.WithOperation(appErrors.NewTransient("graph storage failure", err), operation)
}

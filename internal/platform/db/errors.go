package db

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/SMRFT/Cosmetalogy-final/internal/platform/apperr"
)

const (
	uniqueViolation      = "23505"
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
)

// Classify translates pgx errors into the apperr taxonomy. Errors that are
// already classified pass through unchanged.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, apperr.ErrNotFound) ||
		errors.Is(err, apperr.ErrConflict) ||
		errors.Is(err, apperr.ErrValidation) ||
		errors.Is(err, apperr.ErrStorageUnavailable) ||
		errors.Is(err, apperr.ErrInsufficientStock) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation, serializationFailure, deadlockDetected:
			return fmt.Errorf("%s: %w: %s", op, apperr.ErrConflict, pgErr.ConstraintName)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	var netErr net.Error
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) || pgconn.SafeToRetry(err) {
		return apperr.Unavailable(op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// IsUniqueViolation reports whether err is a Postgres unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return false
}

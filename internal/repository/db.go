package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/josh-kwaku/agency-ledger/internal/domain"
)

type scanner interface {
	Scan(dest ...any) error
}

// Commit commits tx and maps serialization and constraint failures raised at
// commit time to domain errors.
func Commit(tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		return mapPQError(err)
	}
	return nil
}

// Postgres SQLSTATE codes the ledger reacts to.
const (
	pqUniqueViolation      = "23505"
	pqCheckViolation       = "23514"
	pqForeignKeyViolation  = "23503"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqNumericOutOfRange    = "22003"
)

// mapPQError translates driver errors into domain integrity faults so callers
// can tell a retryable conflict from a missing reference.
func mapPQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch string(pqErr.Code) {
	case pqForeignKeyViolation:
		return fmt.Errorf("%s: %w", pqErr.Constraint, domain.ErrNotFound)
	case pqUniqueViolation, pqCheckViolation, pqSerializationFailure, pqDeadlockDetected:
		return fmt.Errorf("%s: %w", pqErr.Message, domain.ErrConflict)
	case pqNumericOutOfRange:
		return fmt.Errorf("%s: %w", pqErr.Message, domain.ErrAmountOverflow)
	}
	return err
}

// IsUniqueViolation reports whether err came from a unique constraint.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation
}

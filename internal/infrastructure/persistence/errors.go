package persistence

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/storefront/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes that mean "try again"
var retryableSQLStates = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
}

// translateError maps transient storage errors to a retryable
// CONCURRENCY_CONFLICT and record-not-found to ErrNotFound. Other errors
// pass through unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && retryableSQLStates[pgErr.Code] {
		return shared.NewDomainError(shared.CodeConcurrencyConflict, "Storage conflict, please retry: "+pgErr.Message)
	}
	// sqlite reports writer contention as a plain message
	if strings.Contains(err.Error(), "database is locked") {
		return shared.NewDomainError(shared.CodeConcurrencyConflict, "Storage conflict, please retry")
	}
	return err
}

func conflictError(resource string) error {
	return shared.NewDomainError(shared.CodeConcurrencyConflict, resource+" was modified by another transaction")
}

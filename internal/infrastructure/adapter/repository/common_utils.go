package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
)

// ErrorType represents the type of database error that occurred
type ErrorType string

const (
	DuplicateKeyError ErrorType = "duplicate_key"
	TransientError    ErrorType = "transient"
	LockError         ErrorType = "lock"
	ConnectionError   ErrorType = "connection"
	ConstraintError   ErrorType = "constraint"
)

// PostgreSQL SQLSTATE codes the classifier cares about
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// ErrorClassifier provides methods to classify database errors.
// Driver error codes are checked first, message matching covers SQLite and wrapped errors.
type ErrorClassifier struct{}

// NewErrorClassifier creates a new ErrorClassifier
func NewErrorClassifier() *ErrorClassifier {
	return &ErrorClassifier{}
}

// Classify returns the type of error
func (c *ErrorClassifier) Classify(err error) ErrorType {
	switch {
	case err == nil:
		return ""
	case c.IsDuplicateKeyError(err):
		return DuplicateKeyError
	case c.IsLockError(err):
		return LockError
	case c.IsTransientError(err):
		return TransientError
	case c.IsConnectionError(err):
		return ConnectionError
	case c.IsConstraintError(err):
		return ConstraintError
	}
	return ""
}

// IsDuplicateKeyError checks if the error is a unique constraint violation
func (c *ErrorClassifier) IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || hasPGCode(err, pgUniqueViolation) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// IsLockError checks if the error is a serialization failure, deadlock or busy database.
// These are resolved by re-running the whole unit of work.
func (c *ErrorClassifier) IsLockError(err error) bool {
	if err == nil {
		return false
	}
	if hasPGCode(err, pgSerializationFailure) || hasPGCode(err, pgDeadlockDetected) || hasPGCode(err, pgLockNotAvailable) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "could not serialize access") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "sqlite_busy")
}

// IsTransientError checks if an error is a dropped connection that can be retried
func (c *ErrorClassifier) IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "server closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "unexpected EOF")
}

// IsConnectionError checks if the error is related to database connectivity
func (c *ErrorClassifier) IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "dial") ||
		strings.Contains(msg, "no connection") ||
		c.IsTransientError(err)
}

// IsConstraintError checks if the error is a constraint violation
func (c *ErrorClassifier) IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "constraint") ||
		strings.Contains(msg, "violates") ||
		c.IsDuplicateKeyError(err)
}

// IsRetryable reports whether re-running the enclosing unit of work may succeed
func (c *ErrorClassifier) IsRetryable(err error) bool {
	return errs.IsConcurrencyConflict(err) ||
		errors.Is(err, errs.ErrDuplicateTransaction) ||
		errors.Is(err, errs.ErrDuplicateRecord) ||
		c.IsLockError(err) ||
		c.IsTransientError(err)
}

// mapError converts a driver error into a domain error.
// notFound is returned for gorm.ErrRecordNotFound, duplicate is returned for unique violations.
func (c *ErrorClassifier) mapError(err error, notFound, duplicate error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case c.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %s", duplicate, err.Error())
	case c.IsLockError(err):
		// Kept as a conflict so callers do not need to know the driver
		return fmt.Errorf("%w: %s", errs.ErrConcurrencyConflict, err.Error())
	default:
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
	}
}

func hasPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

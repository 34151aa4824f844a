package persistence

import (
	"context"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
)

// TransactionRepository defines essential methods to interact with the append-only ledger.
// There is deliberately no update or delete.
type TransactionRepository interface {
	// Create appends a transaction
	//
	// Possible errors:
	// - ErrDuplicateTransaction: If (source, refId) already exists
	// - ErrDatabaseConnection: If database connection fails
	Create(ctx context.Context, transaction *entity.CreditTransaction) error

	// GetByRef retrieves the transaction recorded for an idempotency key
	// Used for idempotent replay
	//
	// Possible errors:
	// - ErrNotFound: If no transaction carries the key
	// - ErrDatabaseConnection: If database connection fails
	GetByRef(ctx context.Context, source entity.TransactionSource, refID string) (*entity.CreditTransaction, error)

	// ListByUser returns a user's transactions newest first.
	// A non-zero beforeID pages past that transaction.
	ListByUser(ctx context.Context, userID uint64, limit int, beforeID uint64) ([]entity.CreditTransaction, error)

	// SumByUser returns the sum of all of a user's transaction amounts
	SumByUser(ctx context.Context, userID uint64) (int64, error)
}

package persistence

import (
	"context"
	"time"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
)

// WalletRepository stores the materialized balance of each user
type WalletRepository interface {
	// GetByUserID retrieves a wallet
	//
	// Possible errors:
	// - ErrWalletNotFound: If the user has no wallet
	// - ErrDatabaseConnection: If database connection fails
	GetByUserID(ctx context.Context, userID uint64) (*entity.Wallet, error)

	// Create stores a new wallet
	//
	// Possible errors:
	// - ErrDuplicateRecord: If the user already has a wallet
	Create(ctx context.Context, wallet *entity.Wallet) error

	// UpdateBalance writes a new balance if the stored version still equals expectedVersion
	// and increments the version
	//
	// Possible errors:
	// - ErrConcurrencyConflict: If another writer changed the wallet first
	// - ErrDatabaseConnection: If database connection fails
	UpdateBalance(ctx context.Context, userID uint64, balanceMicro, expectedVersion int64, now time.Time) error
}

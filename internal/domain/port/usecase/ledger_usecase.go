package usecase

import (
	"context"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
)

// ApplyRequest describes one ledger movement
type ApplyRequest struct {
	UserID      uint64
	AmountMicro int64                    // Signed, never zero
	Source      entity.TransactionSource // Origin of the movement
	RefID       string                   // Optional idempotency key, unique per source
}

// LedgerUseCase defines the operations of the append-only ledger store
type LedgerUseCase interface {
	// ApplyTransaction appends a transaction and moves the wallet balance in one unit of work.
	// A repeated (source, refId) returns the stored result flagged as replayed.
	// Joins the caller's transaction when ctx carries one.
	//
	// Possible errors:
	// - ErrInvalidAmount: zero amount
	// - ErrInvalidSource: unknown source
	// - ErrAmountOverflow: the balance would leave the int64 range
	// - ErrIdempotencyKeyReuse: the key was used for a different user or amount
	// - ErrWalletNotFound: the user has no wallet
	// - ErrConcurrencyConflict: retries exhausted
	ApplyTransaction(ctx context.Context, req ApplyRequest) (*entity.ApplyResult, error)

	// GetBalance returns the current balance in micro-units
	GetBalance(ctx context.Context, userID uint64) (int64, error)

	// GetWalletSummary returns the balance with its formatted decimal rendering
	// This is the read model served to collaborators
	GetWalletSummary(ctx context.Context, userID uint64) (*entity.WalletSummary, error)

	// ListTransactions returns a page of the user's log, newest first
	ListTransactions(ctx context.Context, userID uint64, limit int, beforeID uint64) ([]entity.CreditTransaction, error)

	// ReconcileWallet recomputes the balance from the log and repairs a drifted wallet
	ReconcileWallet(ctx context.Context, userID uint64) (*entity.ReconcileResult, error)
}

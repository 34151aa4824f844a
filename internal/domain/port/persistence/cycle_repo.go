package persistence

import (
	"context"
	"time"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
)

// CycleRepository stores postpaid cycles
type CycleRepository interface {
	// Create stores a new cycle
	//
	// Possible errors:
	// - ErrDuplicateRecord: If the user already has an open cycle
	Create(ctx context.Context, cycle *entity.PostpaidCycle) error

	// GetByID returns a cycle or ErrCycleNotFound
	GetByID(ctx context.Context, id uint64) (*entity.PostpaidCycle, error)

	// GetOpenByUser returns the user's open cycle or ErrCycleNotFound
	GetOpenByUser(ctx context.Context, userID uint64) (*entity.PostpaidCycle, error)

	// Update writes status, charges and settlement fields if the stored version equals expectedVersion
	//
	// Possible errors:
	// - ErrConcurrencyConflict: If another writer changed the cycle first
	Update(ctx context.Context, cycle *entity.PostpaidCycle, expectedVersion int64) error

	// CountPastDue returns how many past_due cycles a user has
	CountPastDue(ctx context.Context, userID uint64) (int64, error)

	// ListSettlementCandidates returns IDs of open cycles whose window ended by now,
	// closed cycles and past_due cycles not attempted since now, past_due last
	ListSettlementCandidates(ctx context.Context, now time.Time, limit int) ([]uint64, error)

	// ListByUser returns a user's cycles, newest first
	ListByUser(ctx context.Context, userID uint64, limit int) ([]entity.PostpaidCycle, error)
}

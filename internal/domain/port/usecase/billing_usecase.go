package usecase

import (
	"context"
	"time"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
)

// BillingUseCase manages postpaid cycles
type BillingUseCase interface {
	// EnsureOpenCycle returns the cycle accepting charges at now, rotating an expired one
	EnsureOpenCycle(ctx context.Context, userID uint64, now time.Time) (*entity.PostpaidCycle, error)

	// Accrue adds a charge to the user's open cycle
	Accrue(ctx context.Context, userID uint64, amountMicro int64) (*entity.PostpaidCycle, error)

	// CanAccrue reports whether the user may accrue, false while a cycle is past due
	CanAccrue(ctx context.Context, userID uint64) (bool, error)

	// CloseDueCycles closes ended cycles and settles them against the wallet in batches
	CloseDueCycles(ctx context.Context, batchSize int) (*entity.CloseReport, error)

	// ListCycles returns a user's cycles, newest first
	ListCycles(ctx context.Context, userID uint64) ([]entity.PostpaidCycle, error)
}

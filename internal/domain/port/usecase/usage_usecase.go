package usecase

import (
	"context"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
)

// UsageUseCase meters tool invocations
type UsageUseCase interface {
	// RecordUsage prices a report and funds it from the wallet, the free quota or
	// the postpaid cycle, in that order. Idempotent on the gateway request ID.
	// A rejected event is returned together with its error.
	//
	// Possible errors:
	// - ErrInvalidUsageReport: missing fields or negative token counts
	// - ErrIdempotencyKeyReuse: the gateway request ID was recorded for a different report
	// - ErrUserNotFound: the user does not exist, nothing is recorded
	// - ErrRateNotFound: the model has no rate, the event is recorded as rejected
	// - ErrInsufficientFunds: no funding source applies, the event is recorded as rejected
	RecordUsage(ctx context.Context, report entity.UsageReport) (*entity.UsageEvent, error)

	// ListUsage returns the user's most recent events
	ListUsage(ctx context.Context, userID uint64, limit int) ([]entity.UsageEvent, error)
}

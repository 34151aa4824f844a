package usecase

import (
	"context"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
)

// QuotaUseCase tracks daily free-mode allowances
type QuotaUseCase interface {
	// Consume takes amountMicro from today's allowance if it fits and reports whether it did
	Consume(ctx context.Context, userID uint64, amountMicro int64) (bool, error)

	// GetLimitsSummary reads the allowance without writing
	GetLimitsSummary(ctx context.Context, userID uint64) (*entity.LimitsSummary, error)

	// SetDailyQuota changes a user's daily allowance
	SetDailyQuota(ctx context.Context, userID uint64, amountMicro int64) error
}

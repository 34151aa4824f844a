package persistence

import (
	"context"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
)

// LimitsRepository stores daily free-mode allowances
type LimitsRepository interface {
	// GetByUserID returns the limits row or ErrNotFound
	GetByUserID(ctx context.Context, userID uint64) (*entity.Limits, error)

	// Create stores a new limits row, ErrDuplicateRecord if one exists
	Create(ctx context.Context, limits *entity.Limits) error

	// Update writes quota, usage and rollup day if the stored version equals expectedVersion.
	// ErrConcurrencyConflict otherwise.
	Update(ctx context.Context, limits *entity.Limits, expectedVersion int64) error
}

package persistence

import (
	"context"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
)

// GrantRepository stores one-time credits
type GrantRepository interface {
	// Create stores a grant, ErrDuplicateRecord if (type, refKey) exists
	Create(ctx context.Context, grant *entity.Grant) error

	// GetByRef returns the grant for (type, refKey) or ErrNotFound
	GetByRef(ctx context.Context, grantType entity.GrantType, refKey string) (*entity.Grant, error)

	// ListByUser returns a user's grants, oldest first
	ListByUser(ctx context.Context, userID uint64) ([]entity.Grant, error)
}

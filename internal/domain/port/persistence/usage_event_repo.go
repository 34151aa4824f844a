package persistence

import (
	"context"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
)

// UsageEventRepository stores immutable usage events
type UsageEventRepository interface {
	// Create stores an event
	//
	// Possible errors:
	// - ErrDuplicateRecord: If the gateway request ID was already recorded
	Create(ctx context.Context, event *entity.UsageEvent) error

	// GetByGatewayRequestID returns the event recorded for a gateway request
	//
	// Possible errors:
	// - ErrNotFound: If no event was recorded for the key
	GetByGatewayRequestID(ctx context.Context, gatewayRequestID string) (*entity.UsageEvent, error)

	// ListByUser returns a user's most recent events, newest first
	ListByUser(ctx context.Context, userID uint64, limit int) ([]entity.UsageEvent, error)
}

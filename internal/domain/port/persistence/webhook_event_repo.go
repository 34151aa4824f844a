package persistence

import (
	"context"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
)

// WebhookEventRepository stores received payment provider events
type WebhookEventRepository interface {
	// CreateIfAbsent inserts the event unless (eventType, externalEventId) exists.
	// It reports whether a row was inserted.
	CreateIfAbsent(ctx context.Context, event *entity.WebhookEvent) (bool, error)

	// GetByExternalID returns the stored event for the dedupe key or ErrNotFound
	GetByExternalID(ctx context.Context, eventType, externalEventID string) (*entity.WebhookEvent, error)

	// GetByID returns a stored event or ErrNotFound
	GetByID(ctx context.Context, id uint64) (*entity.WebhookEvent, error)

	// Update writes the processing outcome of an event
	Update(ctx context.Context, event *entity.WebhookEvent) error

	// ListFailed returns failed events, oldest first
	ListFailed(ctx context.Context, limit int) ([]entity.WebhookEvent, error)
}

package usecase

import (
	"context"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
)

// WebhookUseCase ingests payment provider events
type WebhookUseCase interface {
	// Handle stores the event once and credits recognized payments.
	// A repeated event returns the stored record with Duplicate set.
	Handle(ctx context.Context, event entity.PaymentEvent) (*entity.WebhookResult, error)

	// ReprocessFailed retries failed events and returns how many were processed
	ReprocessFailed(ctx context.Context, batchSize int) (int, error)
}

package usecase

import (
	"context"
	"time"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
)

// PublishRateRequest carries upstream per-million prices in micro-units
type PublishRateRequest struct {
	ModelID               string
	Provider              string
	InputPerMillionMicro  int64
	OutputPerMillionMicro int64
}

// PublishResult reports the version in effect after a publication
type PublishResult struct {
	Rate      *entity.ModelRate
	Published bool // false when the active version already carried the same pricing
}

// RateUseCase defines operations of the versioned rate catalog
type RateUseCase interface {
	// GetActiveRate returns the version in effect at the given time
	//
	// Possible errors:
	// - ErrRateNotFound: no version covers the time
	GetActiveRate(ctx context.Context, modelID string, at time.Time) (*entity.ModelRate, error)

	// PublishRate creates the next version effective now and supersedes the prior one
	//
	// Possible errors:
	// - ErrInvalidRate: empty model or provider, negative prices
	PublishRate(ctx context.Context, req PublishRateRequest) (*PublishResult, error)

	// ListPricedModels returns every model priced at the given time
	ListPricedModels(ctx context.Context, at time.Time) ([]entity.ModelRate, error)

	// RateHistory returns every version of a model, oldest first
	RateHistory(ctx context.Context, modelID string) ([]entity.ModelRate, error)

	// RetireModel ends the active version without a successor
	RetireModel(ctx context.Context, modelID string) error

	// PublishFromPriceList publishes every entry of the provider price list
	// and returns how many new versions were created
	PublishFromPriceList(ctx context.Context) (int, error)
}

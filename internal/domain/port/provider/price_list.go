package provider

import (
	"context"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
)

// PriceList is an upstream source of model prices
type PriceList interface {
	// FetchRates returns the provider's current per-million prices
	FetchRates(ctx context.Context) ([]entity.ProviderRate, error)
}

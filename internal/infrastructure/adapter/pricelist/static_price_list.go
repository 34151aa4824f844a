package pricelist

import (
	"context"
	"fmt"
	"strings"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/provider"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/config"
)

// StaticPriceList serves provider prices declared in configuration
type StaticPriceList struct {
	rates []entity.ProviderRate
}

var _ provider.PriceList = (*StaticPriceList)(nil)

// NewStaticPriceList validates the configured entries; a model may appear only once
func NewStaticPriceList(entries []config.RateConfig) (*StaticPriceList, error) {
	seen := make(map[string]struct{}, len(entries))
	rates := make([]entity.ProviderRate, 0, len(entries))

	for i, e := range entries {
		modelID := strings.TrimSpace(e.ModelID)
		providerName := strings.TrimSpace(e.Provider)
		if modelID == "" || providerName == "" {
			return nil, fmt.Errorf("rates[%d]: modelId and provider are required", i)
		}
		if e.InputPerMillionMicro < 0 || e.OutputPerMillionMicro < 0 {
			return nil, fmt.Errorf("rates[%d]: prices must not be negative", i)
		}
		if _, dup := seen[modelID]; dup {
			return nil, fmt.Errorf("rates[%d]: model %s is listed twice", i, modelID)
		}
		seen[modelID] = struct{}{}

		rates = append(rates, entity.ProviderRate{
			ModelID:               modelID,
			Provider:              providerName,
			InputPerMillionMicro:  e.InputPerMillionMicro,
			OutputPerMillionMicro: e.OutputPerMillionMicro,
		})
	}
	return &StaticPriceList{rates: rates}, nil
}

// FetchRates returns a copy of the configured prices
func (p *StaticPriceList) FetchRates(ctx context.Context) ([]entity.ProviderRate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]entity.ProviderRate, len(p.rates))
	copy(out, p.rates)
	return out, nil
}

package dto

import (
	"time"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
)

// PublishRateRequest carries upstream prices per million tokens in currency units
type PublishRateRequest struct {
	ModelID          string `json:"modelId" binding:"required"`
	Provider         string `json:"provider" binding:"required"`
	InputPerMillion  string `json:"inputPerMillion" binding:"required"`
	OutputPerMillion string `json:"outputPerMillion" binding:"required"`
}

// RateResponse is one rate version
type RateResponse struct {
	ModelID                  string     `json:"modelId"`
	Provider                 string     `json:"provider"`
	Version                  int64      `json:"version"`
	InputPerMillion          string     `json:"inputPerMillion"`
	OutputPerMillion         string     `json:"outputPerMillion"`
	ProviderInputPerMillion  string     `json:"providerInputPerMillion,omitempty"`
	ProviderOutputPerMillion string     `json:"providerOutputPerMillion,omitempty"`
	EffectiveFrom            time.Time  `json:"effectiveFrom"`
	EffectiveTo              *time.Time `json:"effectiveTo,omitempty"`
	Active                   bool       `json:"active"`
}

// PublishRateResponse reports the version in effect after publishing
type PublishRateResponse struct {
	Rate      RateResponse `json:"rate"`
	Published bool         `json:"published"`
}

// NewRateResponse maps a rate; upstream prices are included only for operators
func NewRateResponse(r *entity.ModelRate, withProviderPrices bool) RateResponse {
	resp := RateResponse{
		ModelID:          r.ModelID,
		Provider:         r.Provider,
		Version:          r.Version,
		InputPerMillion:  entity.FormatMicro(r.InputPerMillionMicro),
		OutputPerMillion: entity.FormatMicro(r.OutputPerMillionMicro),
		EffectiveFrom:    r.EffectiveFrom,
		EffectiveTo:      r.EffectiveTo,
		Active:           r.IsActive,
	}
	if withProviderPrices {
		resp.ProviderInputPerMillion = entity.FormatMicro(r.ProviderInputPerMillionMicro)
		resp.ProviderOutputPerMillion = entity.FormatMicro(r.ProviderOutputPerMillionMicro)
	}
	return resp
}

// NewRateList maps a list of rates
func NewRateList(rates []entity.ModelRate, withProviderPrices bool) []RateResponse {
	out := make([]RateResponse, 0, len(rates))
	for i := range rates {
		out = append(out, NewRateResponse(&rates[i], withProviderPrices))
	}
	return out
}

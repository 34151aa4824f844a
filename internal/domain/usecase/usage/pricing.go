package usage

import (
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
)

const tokensPerMillion = 1_000_000

// Price is the cost of one usage report under a rate version
type Price struct {
	CostMicro         int64
	ProviderCostMicro int64
}

// MarginMicro is what the charge earns above the upstream cost
func (p Price) MarginMicro() int64 {
	return p.CostMicro - p.ProviderCostMicro
}

// PriceUsage rounds each token class up to a whole micro-unit separately
func PriceUsage(rate *entity.ModelRate, promptTokens, completionTokens int64) (Price, error) {
	cost, err := tokenCost(promptTokens, rate.InputPerMillionMicro, completionTokens, rate.OutputPerMillionMicro)
	if err != nil {
		return Price{}, err
	}
	providerCost, err := tokenCost(promptTokens, rate.ProviderInputPerMillionMicro, completionTokens, rate.ProviderOutputPerMillionMicro)
	if err != nil {
		return Price{}, err
	}
	return Price{CostMicro: cost, ProviderCostMicro: providerCost}, nil
}

func tokenCost(promptTokens, inputPerMillion, completionTokens, outputPerMillion int64) (int64, error) {
	input, err := entity.MulDivCeil(promptTokens, inputPerMillion, tokensPerMillion)
	if err != nil {
		return 0, err
	}
	output, err := entity.MulDivCeil(completionTokens, outputPerMillion, tokensPerMillion)
	if err != nil {
		return 0, err
	}
	return entity.AddMicro(input, output)
}

package rate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/provider"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/usecase"
)

const basisPoints = 10_000

// Service is the versioned rate catalog
type Service struct {
	uow          persistence.UnitOfWork
	priceList    provider.PriceList
	idGenerator  coreport.IDGenerator
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
	markupBps    int64
}

var _ usecase.RateUseCase = (*Service)(nil)

// NewRateService creates a rate catalog charging markupBps on top of provider prices
func NewRateService(
	uow persistence.UnitOfWork,
	priceList provider.PriceList,
	idGenerator coreport.IDGenerator,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
	markupBps int64,
) *Service {
	return &Service{
		uow:          uow,
		priceList:    priceList,
		idGenerator:  idGenerator,
		timeProvider: timeProvider,
		logger:       logger,
		markupBps:    markupBps,
	}
}

// GetActiveRate returns the version of a model in effect at the given time
func (s *Service) GetActiveRate(ctx context.Context, modelID string, at time.Time) (*entity.ModelRate, error) {
	if strings.TrimSpace(modelID) == "" {
		return nil, errs.NewValidationError(errs.ErrInvalidRate, "modelId", "is empty")
	}
	return s.uow.GetRateRepository(ctx).GetEffective(ctx, modelID, at)
}

// PublishRate supersedes the active version with version N+1 unless the pricing is unchanged
func (s *Service) PublishRate(ctx context.Context, req usecase.PublishRateRequest) (*usecase.PublishResult, error) {
	if err := validatePublish(req); err != nil {
		return nil, err
	}

	input, err := s.applyMarkup(req.InputPerMillionMicro)
	if err != nil {
		return nil, err
	}
	output, err := s.applyMarkup(req.OutputPerMillionMicro)
	if err != nil {
		return nil, err
	}

	var result *usecase.PublishResult
	err = s.uow.WithinTransaction(ctx, "rate.publish", func(txCtx context.Context) error {
		repo := s.uow.GetRateRepository(txCtx)
		candidate := &entity.ModelRate{
			ModelID:                       req.ModelID,
			Provider:                      req.Provider,
			InputPerMillionMicro:          input,
			OutputPerMillionMicro:         output,
			ProviderInputPerMillionMicro:  req.InputPerMillionMicro,
			ProviderOutputPerMillionMicro: req.OutputPerMillionMicro,
		}

		current, err := repo.GetCurrent(txCtx, req.ModelID)
		switch {
		case err == nil:
			if current.SamePricing(candidate) {
				result = &usecase.PublishResult{Rate: current}
				return nil
			}
		case errors.Is(err, errs.ErrRateNotFound):
			current = nil
		default:
			return err
		}

		now := s.timeProvider.Now()
		if current != nil {
			if err := repo.Supersede(txCtx, current.ID, now); err != nil {
				return err
			}
		}

		maxVersion, err := repo.MaxVersion(txCtx, req.ModelID)
		if err != nil {
			return err
		}

		candidate.ID = s.idGenerator.NextID()
		candidate.Version = maxVersion + 1
		candidate.EffectiveFrom = now
		candidate.IsActive = true
		candidate.CreatedAt = now
		if err := repo.Create(txCtx, candidate); err != nil {
			return err
		}

		result = &usecase.PublishResult{Rate: candidate, Published: true}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Published {
		s.logger.Info("Rate version published", map[string]any{
			"model_id":           result.Rate.ModelID,
			"provider":           result.Rate.Provider,
			"version":            result.Rate.Version,
			"input_per_million":  result.Rate.InputPerMillionMicro,
			"output_per_million": result.Rate.OutputPerMillionMicro,
			"markup_bps":         s.markupBps,
		})
	}
	return result, nil
}

// ListPricedModels returns the active version of every model priced at the given time
func (s *Service) ListPricedModels(ctx context.Context, at time.Time) ([]entity.ModelRate, error) {
	active, err := s.uow.GetRateRepository(ctx).ListActive(ctx)
	if err != nil {
		return nil, err
	}
	priced := make([]entity.ModelRate, 0, len(active))
	for i := range active {
		if active[i].CoversTime(at) {
			priced = append(priced, active[i])
		}
	}
	return priced, nil
}

// RateHistory returns every version of a model, oldest first
func (s *Service) RateHistory(ctx context.Context, modelID string) ([]entity.ModelRate, error) {
	history, err := s.uow.GetRateRepository(ctx).ListHistory(ctx, modelID)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: model %q has no versions", errs.ErrRateNotFound, modelID)
	}
	return history, nil
}

// RetireModel ends the active version so further usage of the model fails closed
func (s *Service) RetireModel(ctx context.Context, modelID string) error {
	err := s.uow.WithinTransaction(ctx, "rate.retire", func(txCtx context.Context) error {
		repo := s.uow.GetRateRepository(txCtx)
		current, err := repo.GetCurrent(txCtx, modelID)
		if err != nil {
			return err
		}
		return repo.Supersede(txCtx, current.ID, s.timeProvider.Now())
	})
	if err != nil {
		return err
	}

	s.logger.Info("Model retired", map[string]any{"model_id": modelID})
	return nil
}

// PublishFromPriceList publishes each upstream entry and keeps going past individual failures
func (s *Service) PublishFromPriceList(ctx context.Context) (int, error) {
	rates, err := s.priceList.FetchRates(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch price list: %w", err)
	}

	published := 0
	var failures []error
	for _, r := range rates {
		result, err := s.PublishRate(ctx, usecase.PublishRateRequest{
			ModelID:               r.ModelID,
			Provider:              r.Provider,
			InputPerMillionMicro:  r.InputPerMillionMicro,
			OutputPerMillionMicro: r.OutputPerMillionMicro,
		})
		if err != nil {
			s.logger.Error("Failed to publish rate", map[string]any{
				"model_id": r.ModelID,
				"error":    err.Error(),
			})
			failures = append(failures, fmt.Errorf("%s: %w", r.ModelID, err))
			continue
		}
		if result.Published {
			published++
		}
	}

	s.logger.Info("Price list processed", map[string]any{
		"entries":   len(rates),
		"published": published,
		"failed":    len(failures),
	})
	return published, errors.Join(failures...)
}

// applyMarkup raises a provider price by the configured basis points, rounding up
func (s *Service) applyMarkup(providerPrice int64) (int64, error) {
	return entity.MulDivCeil(providerPrice, basisPoints+s.markupBps, basisPoints)
}

func validatePublish(req usecase.PublishRateRequest) error {
	if strings.TrimSpace(req.ModelID) == "" {
		return errs.NewValidationError(errs.ErrInvalidRate, "modelId", "is empty")
	}
	if strings.TrimSpace(req.Provider) == "" {
		return errs.NewValidationError(errs.ErrInvalidRate, "provider", "is empty")
	}
	if req.InputPerMillionMicro < 0 {
		return errs.NewValidationError(errs.ErrInvalidRate, "inputPerMillionMicro", "must not be negative")
	}
	if req.OutputPerMillionMicro < 0 {
		return errs.NewValidationError(errs.ErrInvalidRate, "outputPerMillionMicro", "must not be negative")
	}
	return nil
}

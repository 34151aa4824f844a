package quota

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/usecase"
)

// Service tracks the daily free-mode allowance of each user
type Service struct {
	uow          persistence.UnitOfWork
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

var _ usecase.QuotaUseCase = (*Service)(nil)

// NewQuotaService creates a new quota tracker
func NewQuotaService(uow persistence.UnitOfWork, timeProvider coreport.TimeProvider, logger coreport.Logger) *Service {
	return &Service{
		uow:          uow,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Consume rolls a stale day over and takes amountMicro if it fits, in one versioned update
func (s *Service) Consume(ctx context.Context, userID uint64, amountMicro int64) (bool, error) {
	if amountMicro < 0 {
		return false, errs.NewValidationError(errs.ErrInvalidAmount, "amountMicro", "must not be negative")
	}

	var consumed bool
	err := s.uow.WithinTransaction(ctx, "quota.consume", func(txCtx context.Context) error {
		repo := s.uow.GetLimitsRepository(txCtx)
		limits, err := s.load(txCtx, repo, userID)
		if err != nil {
			return err
		}

		now := s.timeProvider.Now()
		expected := limits.Version
		var dirty bool
		consumed, dirty = limits.TryConsume(entity.EpochDay(now), amountMicro)
		if !dirty {
			return nil
		}
		limits.UpdatedAt = now
		return repo.Update(txCtx, limits, expected)
	})
	if err != nil {
		return false, err
	}
	return consumed, nil
}

// GetLimitsSummary reads the allowance for today without writing
func (s *Service) GetLimitsSummary(ctx context.Context, userID uint64) (*entity.LimitsSummary, error) {
	limits, err := s.load(ctx, s.uow.GetLimitsRepository(ctx), userID)
	if err != nil {
		return nil, err
	}
	summary := limits.SummaryOn(s.timeProvider.Today())
	return &summary, nil
}

// SetDailyQuota replaces the user's daily allowance; today's usage is kept
func (s *Service) SetDailyQuota(ctx context.Context, userID uint64, amountMicro int64) error {
	if amountMicro < 0 {
		return errs.NewValidationError(errs.ErrInvalidAmount, "dailyQuotaMicro", "must not be negative")
	}

	err := s.uow.WithinTransaction(ctx, "quota.set", func(txCtx context.Context) error {
		repo := s.uow.GetLimitsRepository(txCtx)
		limits, err := s.load(txCtx, repo, userID)
		if err != nil {
			return err
		}
		now := s.timeProvider.Now()
		expected := limits.Version
		limits.Rollover(entity.EpochDay(now))
		limits.DailyQuotaMicro = amountMicro
		limits.UpdatedAt = now
		return repo.Update(txCtx, limits, expected)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Daily quota changed", map[string]any{
		"user_id":           userID,
		"daily_quota_micro": amountMicro,
	})
	return nil
}

func (s *Service) load(ctx context.Context, repo persistence.LimitsRepository, userID uint64) (*entity.Limits, error) {
	if userID == 0 {
		return nil, errs.NewValidationError(errs.ErrInvalidUserID, "userId", "must be positive")
	}
	limits, err := repo.GetByUserID(ctx, userID)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, fmt.Errorf("%w: no limits for user %d", errs.ErrUserNotFound, userID)
	}
	return limits, err
}

package usage

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

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Service meters tool invocations and funds them
type Service struct {
	uow          persistence.UnitOfWork
	rates        usecase.RateUseCase
	ledger       usecase.LedgerUseCase
	quota        usecase.QuotaUseCase
	billing      usecase.BillingUseCase
	idGenerator  coreport.IDGenerator
	timeProvider coreport.TimeProvider
	metrics      coreport.Metrics
	logger       coreport.Logger
}

var _ usecase.UsageUseCase = (*Service)(nil)

// NewUsageService creates a new usage meter
func NewUsageService(
	uow persistence.UnitOfWork,
	rates usecase.RateUseCase,
	ledger usecase.LedgerUseCase,
	quota usecase.QuotaUseCase,
	billing usecase.BillingUseCase,
	idGenerator coreport.IDGenerator,
	timeProvider coreport.TimeProvider,
	metrics coreport.Metrics,
	logger coreport.Logger,
) *Service {
	return &Service{
		uow:          uow,
		rates:        rates,
		ledger:       ledger,
		quota:        quota,
		billing:      billing,
		idGenerator:  idGenerator,
		timeProvider: timeProvider,
		metrics:      metrics,
		logger:       logger,
	}
}

// RecordUsage prices the report and records exactly one event per gateway request
func (s *Service) RecordUsage(ctx context.Context, report entity.UsageReport) (*entity.UsageEvent, error) {
	report, err := normalizeReport(report)
	if err != nil {
		return nil, err
	}

	var event *entity.UsageEvent
	var replayed bool
	err = s.uow.WithinTransaction(ctx, "usage.record", func(txCtx context.Context) error {
		event, replayed = nil, false

		usageRepo := s.uow.GetUsageEventRepository(txCtx)
		existing, err := usageRepo.GetByGatewayRequestID(txCtx, report.GatewayRequestID)
		if err == nil {
			if !sameReport(existing, report) {
				return errs.NewValidationError(errs.ErrIdempotencyKeyReuse, "gatewayRequestId",
					fmt.Sprintf("%s was recorded for user %d with model %q", report.GatewayRequestID, existing.UserID, existing.ModelID))
			}
			event, replayed = existing, true
			return nil
		}
		if !errors.Is(err, errs.ErrNotFound) {
			return fmt.Errorf("failed to look up usage event: %w", err)
		}

		user, err := s.uow.GetUserRepository(txCtx).GetByID(txCtx, report.UserID)
		if err != nil {
			return err
		}

		now := s.timeProvider.Now()
		candidate := &entity.UsageEvent{
			ID:               s.idGenerator.NextID(),
			UserID:           report.UserID,
			ToolSlug:         report.ToolSlug,
			ModelID:          report.ModelID,
			PromptTokens:     report.PromptTokens,
			CompletionTokens: report.CompletionTokens,
			GatewayRequestID: report.GatewayRequestID,
			CreatedAt:        now,
		}

		rate, err := s.rates.GetActiveRate(txCtx, report.ModelID, now)
		switch {
		case errors.Is(err, errs.ErrRateNotFound):
			candidate.Status = entity.UsageRejected
			candidate.RejectReason = entity.RejectRateNotFound
		case err != nil:
			return err
		default:
			price, err := PriceUsage(rate, report.PromptTokens, report.CompletionTokens)
			if err != nil {
				return err
			}
			candidate.RateVersion = rate.Version
			candidate.CostMicro = price.CostMicro
			candidate.MarginMicro = price.MarginMicro()
			if err := s.fund(txCtx, user, candidate); err != nil {
				return err
			}
		}

		if err := usageRepo.Create(txCtx, candidate); err != nil {
			return err
		}
		event = candidate
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !replayed {
		s.metrics.IncUsageEvent(string(event.Status))
		s.logger.Info("Usage recorded", map[string]any{
			"user_id":            event.UserID,
			"gateway_request_id": event.GatewayRequestID,
			"model_id":           event.ModelID,
			"tool_slug":          event.ToolSlug,
			"status":             string(event.Status),
			"cost_micro":         event.CostMicro,
			"rate_version":       event.RateVersion,
		})
	}

	if event.IsRejected() {
		return event, rejectionError(event)
	}
	return event, nil
}

// ListUsage returns the user's most recent events
func (s *Service) ListUsage(ctx context.Context, userID uint64, limit int) ([]entity.UsageEvent, error) {
	if userID == 0 {
		return nil, errs.NewValidationError(errs.ErrInvalidUserID, "userId", "must be positive")
	}
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	return s.uow.GetUsageEventRepository(ctx).ListByUser(ctx, userID, limit)
}

// fund tries the wallet, then the free quota, then the postpaid cycle
func (s *Service) fund(ctx context.Context, user *entity.User, event *entity.UsageEvent) error {
	wallet, err := s.uow.GetWalletRepository(ctx).GetByUserID(ctx, user.ID)
	if err != nil {
		return err
	}

	if wallet.CanCover(event.CostMicro) {
		event.Status = entity.UsageChargedPrepaid
		if event.CostMicro == 0 {
			return nil
		}
		result, err := s.ledger.ApplyTransaction(ctx, usecase.ApplyRequest{
			UserID:      user.ID,
			AmountMicro: -event.CostMicro,
			Source:      entity.SourceUsage,
			RefID:       event.GatewayRequestID,
		})
		if err != nil {
			return err
		}
		event.TransactionID = result.TransactionID
		return nil
	}

	consumed, err := s.quota.Consume(ctx, user.ID, event.CostMicro)
	if err != nil {
		return err
	}
	if consumed {
		event.Status = entity.UsageChargedFree
		return nil
	}

	if user.PostpaidEnabled {
		allowed, err := s.billing.CanAccrue(ctx, user.ID)
		if err != nil {
			return err
		}
		if allowed {
			cycle, err := s.billing.Accrue(ctx, user.ID, event.CostMicro)
			if err != nil {
				return err
			}
			event.Status = entity.UsageAccruedPostpaid
			event.CycleID = cycle.ID
			return nil
		}
	}

	event.Status = entity.UsageRejected
	event.RejectReason = entity.RejectInsufficientFunds
	return nil
}

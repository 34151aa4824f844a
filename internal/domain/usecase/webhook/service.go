package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/usecase"
)

const (
	defaultReprocessBatch = 100
	outcomeDuplicate      = "duplicate"
)

// Failure reasons stored on failed events
const (
	reasonUnknownUser     = "unknown user"
	reasonMalformedAmount = "malformed amount"
)

// Service ingests payment provider events exactly once
type Service struct {
	uow          persistence.UnitOfWork
	ledger       usecase.LedgerUseCase
	idGenerator  coreport.IDGenerator
	timeProvider coreport.TimeProvider
	metrics      coreport.Metrics
	logger       coreport.Logger
}

var _ usecase.WebhookUseCase = (*Service)(nil)

// NewWebhookService creates a new payment webhook processor
func NewWebhookService(
	uow persistence.UnitOfWork,
	ledger usecase.LedgerUseCase,
	idGenerator coreport.IDGenerator,
	timeProvider coreport.TimeProvider,
	metrics coreport.Metrics,
	logger coreport.Logger,
) *Service {
	return &Service{
		uow:          uow,
		ledger:       ledger,
		idGenerator:  idGenerator,
		timeProvider: timeProvider,
		metrics:      metrics,
		logger:       logger,
	}
}

// Handle stores the event keyed by (type, externalEventId) and credits recognized payments
func (s *Service) Handle(ctx context.Context, event entity.PaymentEvent) (*entity.WebhookResult, error) {
	if strings.TrimSpace(event.Type) == "" {
		return nil, errs.NewValidationError(errs.ErrValidation, "type", "is empty")
	}
	if strings.TrimSpace(event.ExternalEventID) == "" {
		return nil, errs.NewValidationError(errs.ErrValidation, "externalEventId", "is empty")
	}

	var result *entity.WebhookResult
	err := s.uow.WithinTransaction(ctx, "webhook.handle", func(txCtx context.Context) error {
		repo := s.uow.GetWebhookEventRepository(txCtx)
		record := &entity.WebhookEvent{
			ID:              s.idGenerator.NextID(),
			Provider:        event.Provider,
			EventType:       event.Type,
			ExternalEventID: event.ExternalEventID,
			UserIdentifier:  strings.TrimSpace(event.UserIdentifier),
			Amount:          strings.TrimSpace(event.Amount),
			Status:          entity.WebhookReceived,
			ReceivedAt:      s.timeProvider.Now(),
		}
		if json.Valid(event.Payload) {
			record.Payload = event.Payload
		}

		inserted, err := repo.CreateIfAbsent(txCtx, record)
		if err != nil {
			return err
		}
		if !inserted {
			stored, err := repo.GetByExternalID(txCtx, event.Type, event.ExternalEventID)
			if err != nil {
				return err
			}
			result = &entity.WebhookResult{Event: stored, Duplicate: true}
			return nil
		}

		if err := s.process(txCtx, record); err != nil {
			return err
		}
		if err := repo.Update(txCtx, record); err != nil {
			return err
		}
		result = &entity.WebhookResult{Event: record}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.report(result)
	return result, nil
}

// ReprocessFailed retries failed events, each in its own unit of work
func (s *Service) ReprocessFailed(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = defaultReprocessBatch
	}

	failed, err := s.uow.GetWebhookEventRepository(ctx).ListFailed(ctx, batchSize)
	if err != nil {
		return 0, err
	}

	processed := 0
	for i := range failed {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		var outcome *entity.WebhookEvent
		err := s.uow.WithinTransaction(ctx, "webhook.reprocess", func(txCtx context.Context) error {
			repo := s.uow.GetWebhookEventRepository(txCtx)
			record, err := repo.GetByID(txCtx, failed[i].ID)
			if err != nil {
				return err
			}
			if record.Status != entity.WebhookFailed {
				outcome = nil
				return nil
			}
			if err := s.process(txCtx, record); err != nil {
				return err
			}
			outcome = record
			return repo.Update(txCtx, record)
		})
		if err != nil {
			s.logger.Error("Failed to reprocess webhook event", map[string]any{
				"event_id": failed[i].ID,
				"error":    err.Error(),
			})
			continue
		}
		if outcome != nil && outcome.Status == entity.WebhookProcessed {
			processed++
			s.metrics.IncWebhookEvent(string(entity.WebhookProcessed))
		}
	}

	s.logger.Info("Failed webhook events reprocessed", map[string]any{
		"candidates": len(failed),
		"processed":  processed,
	})
	return processed, nil
}

// process decides the outcome of a stored event and applies its credit
func (s *Service) process(ctx context.Context, record *entity.WebhookEvent) error {
	record.Attempts++
	record.FailureReason = ""

	source, recognized := entity.SourceForEventType(record.EventType)
	if !recognized {
		record.Status = entity.WebhookIgnored
		return nil
	}

	user, err := s.resolveUser(ctx, record.UserIdentifier)
	if errors.Is(err, errs.ErrUserNotFound) {
		record.Status = entity.WebhookFailed
		record.FailureReason = reasonUnknownUser
		return nil
	}
	if err != nil {
		return err
	}
	record.UserID = user.ID

	amountMicro, err := entity.ParseMicro(record.Amount)
	if err != nil || amountMicro <= 0 {
		record.Status = entity.WebhookFailed
		record.FailureReason = reasonMalformedAmount
		return nil
	}
	record.AmountMicro = amountMicro

	applied, err := s.ledger.ApplyTransaction(ctx, usecase.ApplyRequest{
		UserID:      user.ID,
		AmountMicro: amountMicro,
		Source:      source,
		RefID:       record.ExternalEventID,
	})
	if errs.IsValidationError(err) || errors.Is(err, errs.ErrWalletNotFound) {
		record.Status = entity.WebhookFailed
		record.FailureReason = err.Error()
		return nil
	}
	if err != nil {
		return err
	}

	processedAt := s.timeProvider.Now()
	record.Status = entity.WebhookProcessed
	record.TransactionID = applied.TransactionID
	record.ProcessedAt = &processedAt
	return nil
}

// resolveUser matches the provider's identifier against external auth IDs, then emails
func (s *Service) resolveUser(ctx context.Context, identifier string) (*entity.User, error) {
	if identifier == "" {
		return nil, fmt.Errorf("%w: empty identifier", errs.ErrUserNotFound)
	}
	repo := s.uow.GetUserRepository(ctx)
	user, err := repo.GetByExternalAuthID(ctx, identifier)
	if !errors.Is(err, errs.ErrUserNotFound) {
		return user, err
	}
	return repo.GetByEmail(ctx, strings.ToLower(identifier))
}

func (s *Service) report(result *entity.WebhookResult) {
	fields := map[string]any{
		"event_id":          result.Event.ID,
		"event_type":        result.Event.EventType,
		"external_event_id": result.Event.ExternalEventID,
		"status":            string(result.Event.Status),
	}

	if result.Duplicate {
		s.metrics.IncWebhookEvent(outcomeDuplicate)
		s.logger.Debug("Duplicate webhook event acknowledged", fields)
		return
	}

	s.metrics.IncWebhookEvent(string(result.Event.Status))
	switch result.Event.Status {
	case entity.WebhookFailed:
		fields["reason"] = result.Event.FailureReason
		s.logger.Warn("Webhook event could not be applied", fields)
	case entity.WebhookIgnored:
		s.logger.Info("Unrecognized webhook event ignored", fields)
	default:
		fields["user_id"] = result.Event.UserID
		fields["amount_micro"] = result.Event.AmountMicro
		s.logger.Info("Payment credited", fields)
	}
}

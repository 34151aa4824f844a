package ledger

import (
	"context"
	"fmt"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/usecase"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// Service is the append-only ledger store. The wallet balance is a projection of the
// transaction log and both are written in the same unit of work.
type Service struct {
	uow                persistence.UnitOfWork
	idGenerator        coreport.IDGenerator
	timeProvider       coreport.TimeProvider
	metrics            coreport.Metrics
	logger             coreport.Logger
	validator          *Validator
	idempotencyHandler *IdempotencyHandler
}

var _ usecase.LedgerUseCase = (*Service)(nil)

// NewLedgerService creates a new ledger service
func NewLedgerService(
	uow persistence.UnitOfWork,
	idGenerator coreport.IDGenerator,
	timeProvider coreport.TimeProvider,
	metrics coreport.Metrics,
	logger coreport.Logger,
) *Service {
	return &Service{
		uow:                uow,
		idGenerator:        idGenerator,
		timeProvider:       timeProvider,
		metrics:            metrics,
		logger:             logger,
		validator:          NewValidator(),
		idempotencyHandler: NewIdempotencyHandler(uow),
	}
}

// ApplyTransaction appends one movement and updates the wallet
func (s *Service) ApplyTransaction(ctx context.Context, req usecase.ApplyRequest) (*entity.ApplyResult, error) {
	if err := s.validator.ValidateApply(req); err != nil {
		return nil, err
	}

	var result *entity.ApplyResult
	err := s.uow.WithinTransaction(ctx, "ledger.apply", func(txCtx context.Context) error {
		replay, found, err := s.idempotencyHandler.CheckIdempotency(txCtx, req)
		if err != nil {
			return err
		}
		if found {
			result = replay
			return nil
		}

		walletRepo := s.uow.GetWalletRepository(txCtx)
		wallet, err := walletRepo.GetByUserID(txCtx, req.UserID)
		if err != nil {
			return err
		}

		newBalance, err := entity.AddMicro(wallet.BalanceMicro, req.AmountMicro)
		if err != nil {
			return err
		}

		now := s.timeProvider.Now()
		txn := &entity.CreditTransaction{
			ID:                s.idGenerator.NextID(),
			UserID:            req.UserID,
			AmountMicro:       req.AmountMicro,
			Source:            req.Source,
			RefID:             req.RefID,
			BalanceAfterMicro: newBalance,
			CreatedAt:         now,
		}
		if err := s.uow.GetTransactionRepository(txCtx).Create(txCtx, txn); err != nil {
			return err
		}
		if err := walletRepo.UpdateBalance(txCtx, req.UserID, newBalance, wallet.Version, now); err != nil {
			return err
		}

		result = &entity.ApplyResult{TransactionID: txn.ID, BalanceMicro: newBalance}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Replayed {
		s.logger.Debug("Ledger request replayed", map[string]any{
			"user_id":        req.UserID,
			"source":         string(req.Source),
			"ref_id":         req.RefID,
			"transaction_id": result.TransactionID,
		})
	} else {
		s.metrics.IncLedgerTransaction(string(req.Source))
		s.logger.Info("Ledger transaction applied", map[string]any{
			"user_id":        req.UserID,
			"source":         string(req.Source),
			"amount_micro":   req.AmountMicro,
			"balance_micro":  result.BalanceMicro,
			"transaction_id": result.TransactionID,
		})
	}

	return result, nil
}

// GetBalance returns the current balance in micro-units
func (s *Service) GetBalance(ctx context.Context, userID uint64) (int64, error) {
	if err := s.validator.ValidateUserID(userID); err != nil {
		return 0, err
	}
	wallet, err := s.uow.GetWalletRepository(ctx).GetByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return wallet.BalanceMicro, nil
}

// GetWalletSummary returns the wallet read model
func (s *Service) GetWalletSummary(ctx context.Context, userID uint64) (*entity.WalletSummary, error) {
	if err := s.validator.ValidateUserID(userID); err != nil {
		return nil, err
	}
	wallet, err := s.uow.GetWalletRepository(ctx).GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := wallet.ToSummary()
	return &summary, nil
}

// ListTransactions returns a page of the user's log, newest first
func (s *Service) ListTransactions(ctx context.Context, userID uint64, limit int, beforeID uint64) ([]entity.CreditTransaction, error) {
	if err := s.validator.ValidateUserID(userID); err != nil {
		return nil, err
	}
	return s.uow.GetTransactionRepository(ctx).ListByUser(ctx, userID, clampPageSize(limit), beforeID)
}

// ReconcileWallet rebuilds the balance from the log and rewrites a drifted wallet
func (s *Service) ReconcileWallet(ctx context.Context, userID uint64) (*entity.ReconcileResult, error) {
	if err := s.validator.ValidateUserID(userID); err != nil {
		return nil, err
	}

	var result *entity.ReconcileResult
	err := s.uow.WithinTransaction(ctx, "ledger.reconcile", func(txCtx context.Context) error {
		walletRepo := s.uow.GetWalletRepository(txCtx)
		wallet, err := walletRepo.GetByUserID(txCtx, userID)
		if err != nil {
			return err
		}

		sum, err := s.uow.GetTransactionRepository(txCtx).SumByUser(txCtx, userID)
		if err != nil {
			return fmt.Errorf("failed to sum ledger: %w", err)
		}

		result = &entity.ReconcileResult{UserID: userID, StoredMicro: wallet.BalanceMicro, LedgerMicro: sum}
		if sum == wallet.BalanceMicro {
			return nil
		}

		if err := walletRepo.UpdateBalance(txCtx, userID, sum, wallet.Version, s.timeProvider.Now()); err != nil {
			return err
		}
		result.Corrected = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Corrected {
		s.logger.Warn("Wallet drifted from ledger and was rebuilt", map[string]any{
			"user_id":      userID,
			"stored_micro": result.StoredMicro,
			"ledger_micro": result.LedgerMicro,
		})
	}
	return result, nil
}

func clampPageSize(limit int) int {
	switch {
	case limit <= 0:
		return defaultPageSize
	case limit > maxPageSize:
		return maxPageSize
	default:
		return limit
	}
}

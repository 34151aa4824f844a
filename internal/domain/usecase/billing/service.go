package billing

import (
	"context"
	"errors"
	"time"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/usecase"
)

const (
	defaultBatchSize  = 100
	defaultMaxBatches = 50
	cycleListLimit    = 100
)

// Settlement outcomes reported to metrics
const (
	outcomeSettled = "settled"
	outcomePastDue = "past_due"
	outcomeFailed  = "failed"
)

// Config holds the billing cycle settings
type Config struct {
	CyclePeriod time.Duration
	MaxBatches  int
}

// Service manages postpaid cycles and settles them against the wallet
type Service struct {
	uow          persistence.UnitOfWork
	ledger       usecase.LedgerUseCase
	idGenerator  coreport.IDGenerator
	timeProvider coreport.TimeProvider
	metrics      coreport.Metrics
	logger       coreport.Logger
	config       Config
}

var _ usecase.BillingUseCase = (*Service)(nil)

// NewBillingService creates a new billing cycle manager
func NewBillingService(
	uow persistence.UnitOfWork,
	ledger usecase.LedgerUseCase,
	idGenerator coreport.IDGenerator,
	timeProvider coreport.TimeProvider,
	metrics coreport.Metrics,
	logger coreport.Logger,
	config Config,
) *Service {
	if config.CyclePeriod <= 0 {
		config.CyclePeriod = 30 * 24 * time.Hour
	}
	if config.MaxBatches <= 0 {
		config.MaxBatches = defaultMaxBatches
	}
	return &Service{
		uow:          uow,
		ledger:       ledger,
		idGenerator:  idGenerator,
		timeProvider: timeProvider,
		metrics:      metrics,
		logger:       logger,
		config:       config,
	}
}

// EnsureOpenCycle returns the open cycle whose window contains now.
// An open cycle whose window has ended is closed and left for settlement.
func (s *Service) EnsureOpenCycle(ctx context.Context, userID uint64, now time.Time) (*entity.PostpaidCycle, error) {
	var cycle *entity.PostpaidCycle
	err := s.uow.WithinTransaction(ctx, "billing.ensure_cycle", func(txCtx context.Context) error {
		repo := s.uow.GetCycleRepository(txCtx)

		open, err := repo.GetOpenByUser(txCtx, userID)
		switch {
		case err == nil:
			// A clock behind the start of a cycle opened elsewhere keeps charging it,
			// a window starting at now would overlap it
			if open.AcceptsCharges(now) || now.Before(open.WindowStart) {
				cycle = open
				return nil
			}
			expected := open.Version
			open.Status = entity.CycleClosed
			open.UpdatedAt = now
			if err := repo.Update(txCtx, open, expected); err != nil {
				return err
			}
		case !errors.Is(err, errs.ErrCycleNotFound):
			return err
		}

		cycle = &entity.PostpaidCycle{
			ID:          s.idGenerator.NextID(),
			UserID:      userID,
			WindowStart: now,
			WindowEnd:   now.Add(s.config.CyclePeriod),
			Status:      entity.CycleOpen,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return repo.Create(txCtx, cycle)
	})
	if err != nil {
		return nil, err
	}
	return cycle, nil
}

// Accrue adds a charge to the user's open cycle
func (s *Service) Accrue(ctx context.Context, userID uint64, amountMicro int64) (*entity.PostpaidCycle, error) {
	if amountMicro < 0 {
		return nil, errs.NewValidationError(errs.ErrInvalidAmount, "amountMicro", "must not be negative")
	}

	var cycle *entity.PostpaidCycle
	err := s.uow.WithinTransaction(ctx, "billing.accrue", func(txCtx context.Context) error {
		now := s.timeProvider.Now()
		open, err := s.EnsureOpenCycle(txCtx, userID, now)
		if err != nil {
			return err
		}

		charges, err := entity.AddMicro(open.ChargesMicro, amountMicro)
		if err != nil {
			return err
		}
		expected := open.Version
		open.ChargesMicro = charges
		open.UpdatedAt = now
		if err := s.uow.GetCycleRepository(txCtx).Update(txCtx, open, expected); err != nil {
			return err
		}
		cycle = open
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cycle, nil
}

// CanAccrue is false while any of the user's cycles is past due
func (s *Service) CanAccrue(ctx context.Context, userID uint64) (bool, error) {
	pastDue, err := s.uow.GetCycleRepository(ctx).CountPastDue(ctx, userID)
	if err != nil {
		return false, err
	}
	return pastDue == 0, nil
}

// CloseDueCycles works through settlement candidates in batches until a short batch,
// a batch with nothing new, or the per-run batch limit
func (s *Service) CloseDueCycles(ctx context.Context, batchSize int) (*entity.CloseReport, error) {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	report := &entity.CloseReport{}
	seen := make(map[uint64]struct{})
	for batch := 0; batch < s.config.MaxBatches; batch++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		now := s.timeProvider.Now()
		ids, err := s.uow.GetCycleRepository(ctx).ListSettlementCandidates(ctx, now, batchSize)
		if err != nil {
			return report, err
		}

		fresh := 0
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			fresh++
			report.Add(s.settleCycle(ctx, id, now))
		}

		if len(ids) < batchSize || fresh == 0 {
			break
		}
	}

	s.logger.Info("Postpaid close run finished", map[string]any{
		"scanned":  report.Scanned,
		"closed":   report.Closed,
		"settled":  report.Settled,
		"past_due": report.PastDue,
		"skipped":  report.Skipped,
		"failed":   report.Failed,
	})
	return report, nil
}

// ListCycles returns a user's cycles, newest first
func (s *Service) ListCycles(ctx context.Context, userID uint64) ([]entity.PostpaidCycle, error) {
	if userID == 0 {
		return nil, errs.NewValidationError(errs.ErrInvalidUserID, "userId", "must be positive")
	}
	return s.uow.GetCycleRepository(ctx).ListByUser(ctx, userID, cycleListLimit)
}

// settleCycle closes and settles one cycle in its own unit of work
func (s *Service) settleCycle(ctx context.Context, cycleID uint64, now time.Time) entity.CloseReport {
	var outcome entity.CloseReport
	var shortfall error

	err := s.uow.WithinTransaction(ctx, "billing.settle", func(txCtx context.Context) error {
		outcome = entity.CloseReport{Scanned: 1}
		shortfall = nil

		repo := s.uow.GetCycleRepository(txCtx)
		cycle, err := repo.GetByID(txCtx, cycleID)
		if err != nil {
			return err
		}

		if cycle.IsDue(now) {
			expected := cycle.Version
			cycle.Status = entity.CycleClosed
			cycle.UpdatedAt = now
			if err := repo.Update(txCtx, cycle, expected); err != nil {
				return err
			}
			outcome.Closed = 1
		}

		if !cycle.NeedsSettlement() ||
			(cycle.Status == entity.CyclePastDue && cycle.LastAttemptAt != nil && !cycle.LastAttemptAt.Before(now)) {
			outcome.Skipped = 1
			return nil
		}

		attemptAt := now
		cycle.Attempts++
		cycle.LastAttemptAt = &attemptAt
		cycle.UpdatedAt = now

		if cycle.ChargesMicro > 0 {
			wallet, err := s.uow.GetWalletRepository(txCtx).GetByUserID(txCtx, cycle.UserID)
			if err != nil {
				return err
			}
			if !wallet.CanCover(cycle.ChargesMicro) {
				cycle.Status = entity.CyclePastDue
				outcome.PastDue = 1
				shortfall = errs.NewSettlementError(cycle.ID, cycle.UserID, cycle.ChargesMicro, wallet.BalanceMicro,
					errs.NewInsufficientFundsError(cycle.UserID, cycle.ChargesMicro, wallet.BalanceMicro))
				return repo.Update(txCtx, cycle, cycle.Version)
			}

			result, err := s.ledger.ApplyTransaction(txCtx, usecase.ApplyRequest{
				UserID:      cycle.UserID,
				AmountMicro: -cycle.ChargesMicro,
				Source:      entity.SourcePostpaid,
				RefID:       cycle.SettlementRef(),
			})
			if err != nil {
				return err
			}
			cycle.SettledTransactionID = result.TransactionID
		}

		settledAt := now
		cycle.Status = entity.CycleSettled
		cycle.SettledAt = &settledAt
		outcome.Settled = 1
		return repo.Update(txCtx, cycle, cycle.Version)
	})

	switch {
	case err != nil:
		s.metrics.IncSettlement(outcomeFailed)
		s.logger.Error("Failed to settle postpaid cycle", map[string]any{
			"cycle_id": cycleID,
			"error":    err.Error(),
		})
		return entity.CloseReport{Scanned: 1, Failed: 1}
	case shortfall != nil:
		s.metrics.IncSettlement(outcomePastDue)
		var settlementErr *errs.SettlementError
		if errors.As(shortfall, &settlementErr) {
			s.logger.Warn("Postpaid cycle is past due", settlementErr.LogFields())
		}
	case outcome.Settled == 1:
		s.metrics.IncSettlement(outcomeSettled)
	}
	return outcome
}

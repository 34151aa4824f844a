package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	coreport "github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/repository"
	"gorm.io/gorm"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// Context keys
const txKey contextKey = "tx"

// UnitOfWork implements the unit of work pattern for database transactions
type UnitOfWork struct {
	db           *gorm.DB
	logger       coreport.Logger
	timeProvider coreport.TimeProvider
	metrics      coreport.Metrics
	retryConfig  RetryConfig
	classifier   *repository.ErrorClassifier
}

// NewUnitOfWork creates a new UnitOfWork instance
func NewUnitOfWork(
	db *gorm.DB,
	logger coreport.Logger,
	timeProvider coreport.TimeProvider,
	metrics coreport.Metrics,
	retryConfig RetryConfig,
) persistence.UnitOfWork {
	return &UnitOfWork{
		db:           db,
		logger:       logger,
		timeProvider: timeProvider,
		metrics:      metrics,
		retryConfig:  retryConfig,
		classifier:   repository.NewErrorClassifier(),
	}
}

// Begin starts a new database transaction.
// PostgreSQL transactions run SERIALIZABLE; SQLite serializes writers on its own.
func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	var opts []*sql.TxOptions
	if u.db.Dialector.Name() == DriverPostgres {
		opts = append(opts, &sql.TxOptions{Isolation: sql.LevelSerializable})
	}

	tx := u.db.WithContext(ctx).Begin(opts...)
	if tx.Error != nil {
		u.logger.Error("Failed to begin transaction", map[string]any{"error": tx.Error.Error()})
		return ctx, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	return context.WithValue(ctx, txKey, tx), nil
}

// Commit commits the current transaction
func (u *UnitOfWork) Commit(ctx context.Context) error {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	if !ok || tx == nil {
		return fmt.Errorf("no transaction found in context")
	}

	if err := tx.Commit().Error; err != nil {
		u.logger.Warn("Failed to commit transaction", map[string]any{"error": err.Error()})
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Rollback rolls back the current transaction
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	if !ok || tx == nil {
		return fmt.Errorf("no transaction found in context")
	}

	err := tx.Rollback().Error
	if err != nil && strings.Contains(err.Error(), "already been committed or rolled back") {
		return nil
	}
	if err != nil {
		u.logger.Error("Failed to rollback transaction", map[string]any{
			"error": err.Error(),
		})
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	return nil
}

// WithinTransaction runs fn in a transaction, re-running the whole unit on retryable errors.
// A transaction already present in ctx is joined instead.
func (u *UnitOfWork) WithinTransaction(ctx context.Context, operation string, fn func(txCtx context.Context) error) error {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok && tx != nil {
		return fn(ctx)
	}

	return RetryOnTransientError(ctx, u.retryConfig, func(attempt int) error {
		if attempt > 0 {
			u.metrics.IncTransactionRetry(operation)
		}
		return u.runOnce(ctx, fn)
	}, u.classifier, u.logger)
}

func (u *UnitOfWork) runOnce(ctx context.Context, fn func(txCtx context.Context) error) (err error) {
	txCtx, err := u.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = u.Rollback(txCtx)
			panic(p)
		}
	}()

	if err = fn(txCtx); err != nil {
		if rbErr := u.Rollback(txCtx); rbErr != nil {
			u.logger.Error("Rollback after failed unit of work", map[string]any{"error": rbErr.Error()})
		}
		return err
	}

	return u.Commit(txCtx)
}

// GetUserRepository returns a user repository in the current transaction
func (u *UnitOfWork) GetUserRepository(ctx context.Context) persistence.UserRepository {
	return repository.NewUserRepository(u.getDbFromContext(ctx), u.timeProvider, u.logger)
}

// GetWalletRepository returns a wallet repository in the current transaction
func (u *UnitOfWork) GetWalletRepository(ctx context.Context) persistence.WalletRepository {
	return repository.NewWalletRepository(u.getDbFromContext(ctx), u.logger)
}

// GetTransactionRepository returns a transaction repository in the current transaction
func (u *UnitOfWork) GetTransactionRepository(ctx context.Context) persistence.TransactionRepository {
	return repository.NewTransactionRepository(u.getDbFromContext(ctx), u.logger)
}

// GetUsageEventRepository returns a usage event repository in the current transaction
func (u *UnitOfWork) GetUsageEventRepository(ctx context.Context) persistence.UsageEventRepository {
	return repository.NewUsageEventRepository(u.getDbFromContext(ctx))
}

// GetRateRepository returns a rate repository in the current transaction
func (u *UnitOfWork) GetRateRepository(ctx context.Context) persistence.RateRepository {
	return repository.NewRateRepository(u.getDbFromContext(ctx))
}

// GetLimitsRepository returns a limits repository in the current transaction
func (u *UnitOfWork) GetLimitsRepository(ctx context.Context) persistence.LimitsRepository {
	return repository.NewLimitsRepository(u.getDbFromContext(ctx))
}

// GetCycleRepository returns a postpaid cycle repository in the current transaction
func (u *UnitOfWork) GetCycleRepository(ctx context.Context) persistence.CycleRepository {
	return repository.NewCycleRepository(u.getDbFromContext(ctx))
}

// GetReferralRepository returns a referral repository in the current transaction
func (u *UnitOfWork) GetReferralRepository(ctx context.Context) persistence.ReferralRepository {
	return repository.NewReferralRepository(u.getDbFromContext(ctx))
}

// GetGrantRepository returns a grant repository in the current transaction
func (u *UnitOfWork) GetGrantRepository(ctx context.Context) persistence.GrantRepository {
	return repository.NewGrantRepository(u.getDbFromContext(ctx))
}

// GetWebhookEventRepository returns a webhook event repository in the current transaction
func (u *UnitOfWork) GetWebhookEventRepository(ctx context.Context) persistence.WebhookEventRepository {
	return repository.NewWebhookEventRepository(u.getDbFromContext(ctx))
}

// getDbFromContext retrieves the database instance from context
func (u *UnitOfWork) getDbFromContext(ctx context.Context) *gorm.DB {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	if ok && tx != nil {
		return tx
	}
	return u.db.WithContext(ctx)
}

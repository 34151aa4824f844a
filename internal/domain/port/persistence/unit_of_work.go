package persistence

import (
	"context"
)

// UnitOfWork defines an interface for coordinating transaction operations
// across multiple repositories to maintain data consistency
type UnitOfWork interface {
	// Begin starts a new transaction and returns a transactional context
	Begin(ctx context.Context) (context.Context, error)

	// Commit commits the transaction in the given context
	Commit(ctx context.Context) error

	// Rollback rolls back the transaction in the given context
	Rollback(ctx context.Context) error

	// WithinTransaction runs fn inside one transaction and commits it when fn returns nil.
	// When ctx already carries a transaction, fn joins it and no retry happens at this level.
	// Otherwise the whole unit is re-run on concurrency conflicts and serialization failures,
	// up to a bounded number of attempts, after which ErrConcurrencyConflict is returned.
	WithinTransaction(ctx context.Context, operation string, fn func(txCtx context.Context) error) error

	// GetUserRepository returns a user repository bound to the current transaction
	GetUserRepository(ctx context.Context) UserRepository

	// GetWalletRepository returns a wallet repository bound to the current transaction
	GetWalletRepository(ctx context.Context) WalletRepository

	// GetTransactionRepository returns a credit transaction repository bound to the current transaction
	GetTransactionRepository(ctx context.Context) TransactionRepository

	// GetUsageEventRepository returns a usage event repository bound to the current transaction
	GetUsageEventRepository(ctx context.Context) UsageEventRepository

	// GetRateRepository returns a model rate repository bound to the current transaction
	GetRateRepository(ctx context.Context) RateRepository

	// GetLimitsRepository returns a limits repository bound to the current transaction
	GetLimitsRepository(ctx context.Context) LimitsRepository

	// GetCycleRepository returns a postpaid cycle repository bound to the current transaction
	GetCycleRepository(ctx context.Context) CycleRepository

	// GetReferralRepository returns a referral repository bound to the current transaction
	GetReferralRepository(ctx context.Context) ReferralRepository

	// GetGrantRepository returns a grant repository bound to the current transaction
	GetGrantRepository(ctx context.Context) GrantRepository

	// GetWebhookEventRepository returns a webhook event repository bound to the current transaction
	GetWebhookEventRepository(ctx context.Context) WebhookEventRepository
}

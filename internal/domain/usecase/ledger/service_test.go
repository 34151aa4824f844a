package ledger

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/database"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/idgen"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/metrics"
	timeprovider "github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/time"
)

func newTestService(t *testing.T) (*Service, *database.TestDB) {
	t.Helper()
	clock := timeprovider.NewFakeTimeProvider(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	tdb := database.NewTestDB(t, clock)
	gen, err := idgen.NewSnowflakeGenerator(1)
	require.NoError(t, err)
	return NewLedgerService(tdb.UnitOfWork, gen, clock, metrics.NewNoopMetrics(), logger.NewNoopLogger()), tdb
}

func TestService_ApplyTransaction(t *testing.T) {
	svc, tdb := newTestService(t)
	tdb.CreateTestUser(t, 1, 0, 0)
	ctx := context.Background()

	res, err := svc.ApplyTransaction(ctx, usecase.ApplyRequest{
		UserID: 1, AmountMicro: 10_000_000, Source: entity.SourcePurchase, RefID: "pay_1",
	})
	require.NoError(t, err)
	assert.False(t, res.Replayed)
	assert.Equal(t, int64(10_000_000), res.BalanceMicro)

	res, err = svc.ApplyTransaction(ctx, usecase.ApplyRequest{
		UserID: 1, AmountMicro: -2_500_000, Source: entity.SourceUsage, RefID: "gw_1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7_500_000), res.BalanceMicro)

	balance, err := svc.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(7_500_000), balance)

	txns, err := svc.ListTransactions(ctx, 1, 10, 0)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, entity.SourceUsage, txns[0].Source)
	assert.Equal(t, int64(7_500_000), txns[0].BalanceAfterMicro)
	assert.Equal(t, int64(10_000_000), txns[1].BalanceAfterMicro)

	older, err := svc.ListTransactions(ctx, 1, 10, txns[0].ID)
	require.NoError(t, err)
	require.Len(t, older, 1)
	assert.Equal(t, txns[1].ID, older[0].ID)
}

func TestService_ApplyTransaction_Idempotent(t *testing.T) {
	svc, tdb := newTestService(t)
	tdb.CreateTestUser(t, 1, 0, 0)
	ctx := context.Background()
	req := usecase.ApplyRequest{UserID: 1, AmountMicro: 10_000_000, Source: entity.SourcePurchase, RefID: "pay_1"}

	first, err := svc.ApplyTransaction(ctx, req)
	require.NoError(t, err)

	// A later movement must not change what the replay reports
	_, err = svc.ApplyTransaction(ctx, usecase.ApplyRequest{UserID: 1, AmountMicro: 1_000_000, Source: entity.SourceAdjustment})
	require.NoError(t, err)

	second, err := svc.ApplyTransaction(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.TransactionID, second.TransactionID)
	assert.Equal(t, first.BalanceMicro, second.BalanceMicro)

	balance, err := svc.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(11_000_000), balance)

	// Same key under another source is a different movement
	_, err = svc.ApplyTransaction(ctx, usecase.ApplyRequest{UserID: 1, AmountMicro: 5, Source: entity.SourceAutoRecharge, RefID: "pay_1"})
	assert.NoError(t, err)
}

func TestService_ApplyTransaction_KeyReuse(t *testing.T) {
	svc, tdb := newTestService(t)
	tdb.CreateTestUser(t, 1, 0, 0)
	tdb.CreateTestUser(t, 2, 0, 0)
	ctx := context.Background()

	_, err := svc.ApplyTransaction(ctx, usecase.ApplyRequest{UserID: 1, AmountMicro: 100, Source: entity.SourcePurchase, RefID: "pay_1"})
	require.NoError(t, err)

	_, err = svc.ApplyTransaction(ctx, usecase.ApplyRequest{UserID: 1, AmountMicro: 200, Source: entity.SourcePurchase, RefID: "pay_1"})
	assert.ErrorIs(t, err, errs.ErrIdempotencyKeyReuse)
	assert.True(t, errs.IsValidationError(err))

	_, err = svc.ApplyTransaction(ctx, usecase.ApplyRequest{UserID: 2, AmountMicro: 100, Source: entity.SourcePurchase, RefID: "pay_1"})
	assert.ErrorIs(t, err, errs.ErrIdempotencyKeyReuse)
}

func TestService_ApplyTransaction_Validation(t *testing.T) {
	svc, tdb := newTestService(t)
	tdb.CreateTestUser(t, 1, math.MaxInt64-10, 0)
	ctx := context.Background()

	testCases := []struct {
		name string
		req  usecase.ApplyRequest
		err  error
	}{
		{"zero amount", usecase.ApplyRequest{UserID: 1, Source: entity.SourcePurchase}, errs.ErrInvalidAmount},
		{"unknown source", usecase.ApplyRequest{UserID: 1, AmountMicro: 1, Source: "gift"}, errs.ErrInvalidSource},
		{"zero user", usecase.ApplyRequest{AmountMicro: 1, Source: entity.SourcePurchase}, errs.ErrInvalidUserID},
		{"overflow", usecase.ApplyRequest{UserID: 1, AmountMicro: 11, Source: entity.SourcePurchase}, errs.ErrAmountOverflow},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ApplyTransaction(ctx, tc.req)
			assert.ErrorIs(t, err, tc.err)
			assert.True(t, errs.IsValidationError(err))
		})
	}

	txns, err := svc.ListTransactions(ctx, 1, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestService_ApplyTransaction_NegativeBalanceAllowed(t *testing.T) {
	svc, tdb := newTestService(t)
	tdb.CreateTestUser(t, 1, 0, 0)

	res, err := svc.ApplyTransaction(context.Background(), usecase.ApplyRequest{
		UserID: 1, AmountMicro: -3, Source: entity.SourceAdjustment,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(-3), res.BalanceMicro)
}

func TestService_ApplyTransaction_UnknownWallet(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ApplyTransaction(context.Background(), usecase.ApplyRequest{
		UserID: 99, AmountMicro: 1, Source: entity.SourcePurchase,
	})
	assert.ErrorIs(t, err, errs.ErrWalletNotFound)
}

func TestService_ApplyTransaction_ConcurrentDebitsSumExactly(t *testing.T) {
	svc, tdb := newTestService(t)
	tdb.CreateTestUser(t, 1, 0, 0)
	ctx := context.Background()

	const workers = 10
	var wg sync.WaitGroup
	errCh := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ApplyTransaction(ctx, usecase.ApplyRequest{UserID: 1, AmountMicro: 1_000, Source: entity.SourceAdjustment})
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		assert.NoError(t, err)
	}

	balance, err := svc.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(workers*1_000), balance)
}

func TestService_GetWalletSummary(t *testing.T) {
	svc, tdb := newTestService(t)
	tdb.CreateTestUser(t, 1, 12_500_000, 0)

	summary, err := svc.GetWalletSummary(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "12.500000", summary.Balance)
	assert.Equal(t, int64(12_500_000), summary.BalanceMicro)
}

func TestService_ReconcileWallet(t *testing.T) {
	svc, tdb := newTestService(t)
	// The seeded balance has no ledger entry behind it
	tdb.CreateTestUser(t, 1, 5_000_000, 0)
	ctx := context.Background()

	_, err := svc.ApplyTransaction(ctx, usecase.ApplyRequest{UserID: 1, AmountMicro: 2_000_000, Source: entity.SourcePurchase})
	require.NoError(t, err)

	res, err := svc.ReconcileWallet(ctx, 1)
	require.NoError(t, err)
	assert.True(t, res.Corrected)
	assert.Equal(t, int64(7_000_000), res.StoredMicro)
	assert.Equal(t, int64(2_000_000), res.LedgerMicro)

	balance, err := svc.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2_000_000), balance)

	res, err = svc.ReconcileWallet(ctx, 1)
	require.NoError(t, err)
	assert.False(t, res.Corrected)
}

func TestClampPageSize(t *testing.T) {
	assert.Equal(t, defaultPageSize, clampPageSize(0))
	assert.Equal(t, 10, clampPageSize(10))
	assert.Equal(t, maxPageSize, clampPageSize(10_000))
}

package billing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/usecase/ledger"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/database"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/idgen"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/metrics"
	timeprovider "github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/time"
)

const period = 24 * time.Hour

type fixture struct {
	billing *Service
	ledger  *ledger.Service
	db      *database.TestDB
	clock   *timeprovider.FakeTimeProvider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := timeprovider.NewFakeTimeProvider(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	tdb := database.NewTestDB(t, clock)
	gen, err := idgen.NewSnowflakeGenerator(1)
	require.NoError(t, err)
	log := logger.NewNoopLogger()
	m := metrics.NewNoopMetrics()

	ledgerSvc := ledger.NewLedgerService(tdb.UnitOfWork, gen, clock, m, log)
	billingSvc := NewBillingService(tdb.UnitOfWork, ledgerSvc, gen, clock, m, log, Config{CyclePeriod: period, MaxBatches: 10})
	return &fixture{billing: billingSvc, ledger: ledgerSvc, db: tdb, clock: clock}
}

func TestService_EnsureOpenCycle(t *testing.T) {
	f := newFixture(t)
	f.db.CreateTestUser(t, 1, 0, 0)
	ctx := context.Background()
	start := f.clock.Now()

	first, err := f.billing.EnsureOpenCycle(ctx, 1, start)
	require.NoError(t, err)
	assert.Equal(t, entity.CycleOpen, first.Status)
	assert.True(t, first.WindowEnd.Equal(start.Add(period)))

	same, err := f.billing.EnsureOpenCycle(ctx, 1, start.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, first.ID, same.ID)

	// An earlier clock reading does not open an overlapping window
	earlier, err := f.billing.EnsureOpenCycle(ctx, 1, start.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, first.ID, earlier.ID)

	// The window end is exclusive
	next, err := f.billing.EnsureOpenCycle(ctx, 1, first.WindowEnd)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, next.ID)
	assert.True(t, next.WindowStart.Equal(first.WindowEnd))

	cycles, err := f.billing.ListCycles(ctx, 1)
	require.NoError(t, err)
	require.Len(t, cycles, 2)
	statuses := map[uint64]entity.CycleStatus{}
	for _, c := range cycles {
		statuses[c.ID] = c.Status
	}
	assert.Equal(t, entity.CycleClosed, statuses[first.ID])
	assert.Equal(t, entity.CycleOpen, statuses[next.ID])
}

func TestService_Accrue(t *testing.T) {
	f := newFixture(t)
	f.db.CreateTestUser(t, 1, 0, 0)
	ctx := context.Background()

	_, err := f.billing.Accrue(ctx, 1, 1_500_000)
	require.NoError(t, err)
	cycle, err := f.billing.Accrue(ctx, 1, 500_000)
	require.NoError(t, err)
	assert.Equal(t, int64(2_000_000), cycle.ChargesMicro)

	_, err = f.billing.Accrue(ctx, 1, -1)
	assert.ErrorIs(t, err, errs.ErrInvalidAmount)
}

func TestService_CloseDueCycles_SettleAndPastDue(t *testing.T) {
	f := newFixture(t)
	f.db.CreateTestUser(t, 1, 10_000_000, 0)
	f.db.CreateTestUser(t, 2, 1_000_000, 0)
	ctx := context.Background()

	_, err := f.billing.Accrue(ctx, 1, 4_000_000)
	require.NoError(t, err)
	_, err = f.billing.Accrue(ctx, 2, 5_000_000)
	require.NoError(t, err)

	// Nothing is due before the window ends
	report, err := f.billing.CloseDueCycles(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Scanned)

	f.clock.Advance(period)
	report, err = f.billing.CloseDueCycles(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 2, report.Closed)
	assert.Equal(t, 1, report.Settled)
	assert.Equal(t, 1, report.PastDue)

	balance, err := f.ledger.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(6_000_000), balance)

	settled, err := f.billing.ListCycles(ctx, 1)
	require.NoError(t, err)
	require.Len(t, settled, 1)
	assert.Equal(t, entity.CycleSettled, settled[0].Status)
	assert.NotZero(t, settled[0].SettledTransactionID)
	assert.NotNil(t, settled[0].SettledAt)

	// Past due keeps the full amount and the wallet untouched
	pastDue, err := f.billing.ListCycles(ctx, 2)
	require.NoError(t, err)
	require.Len(t, pastDue, 1)
	assert.Equal(t, entity.CyclePastDue, pastDue[0].Status)
	assert.Equal(t, int64(5_000_000), pastDue[0].ChargesMicro)
	assert.Equal(t, 1, pastDue[0].Attempts)

	balance, err = f.ledger.GetBalance(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), balance)

	canAccrue, err := f.billing.CanAccrue(ctx, 2)
	require.NoError(t, err)
	assert.False(t, canAccrue)

	// A rerun at the same instant does not retry the past due cycle
	report, err = f.billing.CloseDueCycles(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Scanned)

	// After a top-up the next run settles it
	_, err = f.ledger.ApplyTransaction(ctx, usecase.ApplyRequest{
		UserID: 2, AmountMicro: 9_000_000, Source: entity.SourcePurchase, RefID: "pay_2",
	})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)

	report, err = f.billing.CloseDueCycles(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Settled)

	balance, err = f.ledger.GetBalance(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000_000), balance)

	canAccrue, err = f.billing.CanAccrue(ctx, 2)
	require.NoError(t, err)
	assert.True(t, canAccrue)

	cycles, err := f.billing.ListCycles(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, cycles[0].Attempts)
}

func TestService_CloseDueCycles_ZeroCharges(t *testing.T) {
	f := newFixture(t)
	f.db.CreateTestUser(t, 1, 0, 0)
	ctx := context.Background()

	_, err := f.billing.EnsureOpenCycle(ctx, 1, f.clock.Now())
	require.NoError(t, err)
	f.clock.Advance(period)

	report, err := f.billing.CloseDueCycles(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Settled)

	txns, err := f.ledger.ListTransactions(ctx, 1, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, txns)

	cycles, err := f.billing.ListCycles(ctx, 1)
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.Equal(t, entity.CycleSettled, cycles[0].Status)
	assert.Zero(t, cycles[0].SettledTransactionID)
}

func TestService_CloseDueCycles_Batches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for id := uint64(1); id <= 5; id++ {
		f.db.CreateTestUser(t, id, 5_000_000, 0)
		_, err := f.billing.Accrue(ctx, id, 1_000_000)
		require.NoError(t, err)
	}
	f.clock.Advance(period)

	report, err := f.billing.CloseDueCycles(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, report.Scanned)
	assert.Equal(t, 5, report.Settled)
	assert.Equal(t, 0, report.Failed)
}

func TestService_CloseDueCycles_BatchLimit(t *testing.T) {
	f := newFixture(t)
	f.billing.config.MaxBatches = 1
	ctx := context.Background()
	for id := uint64(1); id <= 3; id++ {
		f.db.CreateTestUser(t, id, 5_000_000, 0)
		_, err := f.billing.Accrue(ctx, id, 1_000_000)
		require.NoError(t, err)
	}
	f.clock.Advance(period)

	report, err := f.billing.CloseDueCycles(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Settled)

	// The remainder is picked up by the next tick
	report, err = f.billing.CloseDueCycles(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Settled)
}

func TestService_CloseDueCycles_ConcurrentRunsSettleOnce(t *testing.T) {
	// The test database has one connection, so these callers serialize on it
	f := newFixture(t)
	f.db.CreateTestUser(t, 1, 10_000_000, 0)
	ctx := context.Background()

	_, err := f.billing.Accrue(ctx, 1, 4_000_000)
	require.NoError(t, err)
	f.clock.Advance(period)

	var wg sync.WaitGroup
	reports := make([]*entity.CloseReport, 2)
	for i := range reports {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			report, err := f.billing.CloseDueCycles(ctx, 10)
			assert.NoError(t, err)
			reports[i] = report
		}(i)
	}
	wg.Wait()

	settled := 0
	for _, report := range reports {
		require.NotNil(t, report)
		settled += report.Settled
	}
	assert.Equal(t, 1, settled)

	txns, err := f.ledger.ListTransactions(ctx, 1, 10, 0)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, entity.SourcePostpaid, txns[0].Source)
	assert.Equal(t, int64(-4_000_000), txns[0].AmountMicro)

	balance, err := f.ledger.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(6_000_000), balance)
}

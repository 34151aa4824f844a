package webhook

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/usecase/ledger"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/database"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/idgen"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/metrics"
	timeprovider "github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/time"
)

func newTestService(t *testing.T) (*Service, *ledger.Service, *database.TestDB) {
	t.Helper()
	clock := timeprovider.NewFakeTimeProvider(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	tdb := database.NewTestDB(t, clock)
	gen, err := idgen.NewSnowflakeGenerator(1)
	require.NoError(t, err)
	log := logger.NewNoopLogger()
	m := metrics.NewNoopMetrics()
	ledgerSvc := ledger.NewLedgerService(tdb.UnitOfWork, gen, clock, m, log)
	return NewWebhookService(tdb.UnitOfWork, ledgerSvc, gen, clock, m, log), ledgerSvc, tdb
}

func payment(id, user, amount string) entity.PaymentEvent {
	return entity.PaymentEvent{
		Provider:        "stripe",
		Type:            entity.EventPaymentSucceeded,
		ExternalEventID: id,
		UserIdentifier:  user,
		Amount:          amount,
		Payload:         []byte(`{"id":"` + id + `"}`),
	}
}

func TestService_Handle_CreditsOnce(t *testing.T) {
	svc, ledgerSvc, tdb := newTestService(t)
	tdb.CreateTestUser(t, 1, 0, 0)
	ctx := context.Background()

	result, err := svc.Handle(ctx, payment("evt_1", "auth|1", "12.50"))
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	assert.Equal(t, entity.WebhookProcessed, result.Event.Status)
	assert.Equal(t, uint64(1), result.Event.UserID)
	assert.Equal(t, int64(12_500_000), result.Event.AmountMicro)
	assert.NotZero(t, result.Event.TransactionID)
	assert.NotNil(t, result.Event.ProcessedAt)

	replay, err := svc.Handle(ctx, payment("evt_1", "auth|1", "12.50"))
	require.NoError(t, err)
	assert.True(t, replay.Duplicate)
	assert.Equal(t, result.Event.ID, replay.Event.ID)
	assert.Equal(t, entity.WebhookProcessed, replay.Event.Status)

	balance, err := ledgerSvc.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(12_500_000), balance)

	txns, err := ledgerSvc.ListTransactions(ctx, 1, 10, 0)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, entity.SourcePurchase, txns[0].Source)
	assert.Equal(t, "evt_1", txns[0].RefID)
}

func TestService_Handle_MatchesEmail(t *testing.T) {
	svc, ledgerSvc, tdb := newTestService(t)
	tdb.CreateTestUser(t, 7, 0, 0)
	ctx := context.Background()

	event := payment("evt_1", "User7@Example.com", "5")
	event.Type = entity.EventAutoRechargeSucceeded
	result, err := svc.Handle(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, entity.WebhookProcessed, result.Event.Status)

	txns, err := ledgerSvc.ListTransactions(ctx, 7, 10, 0)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, entity.SourceAutoRecharge, txns[0].Source)
}

func TestService_Handle_Ignored(t *testing.T) {
	svc, _, _ := newTestService(t)

	event := payment("evt_9", "auth|1", "1")
	event.Type = "customer.updated"
	result, err := svc.Handle(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, entity.WebhookIgnored, result.Event.Status)
	assert.Zero(t, result.Event.TransactionID)
}

func TestService_Handle_FailuresAreAcknowledged(t *testing.T) {
	svc, ledgerSvc, tdb := newTestService(t)
	tdb.CreateTestUser(t, 1, 0, 0)
	ctx := context.Background()

	testCases := []struct {
		name   string
		event  entity.PaymentEvent
		reason string
	}{
		{"unknown user", payment("evt_a", "nobody@example.com", "10"), reasonUnknownUser},
		{"malformed amount", payment("evt_b", "auth|1", "ten"), reasonMalformedAmount},
		{"negative amount", payment("evt_c", "auth|1", "-3"), reasonMalformedAmount},
		{"too precise", payment("evt_d", "auth|1", "1.0000001"), reasonMalformedAmount},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := svc.Handle(ctx, tc.event)
			require.NoError(t, err)
			assert.Equal(t, entity.WebhookFailed, result.Event.Status)
			assert.Equal(t, tc.reason, result.Event.FailureReason)
		})
	}

	balance, err := ledgerSvc.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}

func TestService_Handle_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Handle(ctx, entity.PaymentEvent{ExternalEventID: "evt_1"})
	assert.True(t, errs.IsValidationError(err))

	_, err = svc.Handle(ctx, entity.PaymentEvent{Type: entity.EventPaymentSucceeded})
	assert.True(t, errs.IsValidationError(err))
}

func TestService_ReprocessFailed(t *testing.T) {
	svc, ledgerSvc, tdb := newTestService(t)
	ctx := context.Background()

	// The payment arrives before the user signs up
	result, err := svc.Handle(ctx, payment("evt_1", "auth|5", "20"))
	require.NoError(t, err)
	require.Equal(t, entity.WebhookFailed, result.Event.Status)

	processed, err := svc.ReprocessFailed(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, processed)

	tdb.CreateTestUser(t, 5, 0, 0)
	processed, err = svc.ReprocessFailed(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	stored, err := tdb.UnitOfWork.GetWebhookEventRepository(ctx).GetByID(ctx, result.Event.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.WebhookProcessed, stored.Status)
	assert.Equal(t, 3, stored.Attempts)
	assert.Empty(t, stored.FailureReason)

	balance, err := ledgerSvc.GetBalance(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(20_000_000), balance)

	processed, err = svc.ReprocessFailed(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, processed)
}

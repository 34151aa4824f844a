package handler

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/usecase"
)

type mockUserUseCase struct{ mock.Mock }

func (m *mockUserUseCase) EnsureUser(ctx context.Context, externalAuthID, email string) (*entity.User, bool, error) {
	args := m.Called(ctx, externalAuthID, email)
	user, _ := args.Get(0).(*entity.User)
	return user, args.Bool(1), args.Error(2)
}

func (m *mockUserUseCase) GetUser(ctx context.Context, userID uint64) (*entity.User, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*entity.User)
	return user, args.Error(1)
}

func (m *mockUserUseCase) SetPostpaid(ctx context.Context, userID uint64, enabled bool) error {
	return m.Called(ctx, userID, enabled).Error(0)
}

type mockLedgerUseCase struct{ mock.Mock }

func (m *mockLedgerUseCase) ApplyTransaction(ctx context.Context, req usecase.ApplyRequest) (*entity.ApplyResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*entity.ApplyResult)
	return result, args.Error(1)
}

func (m *mockLedgerUseCase) GetBalance(ctx context.Context, userID uint64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockLedgerUseCase) GetWalletSummary(ctx context.Context, userID uint64) (*entity.WalletSummary, error) {
	args := m.Called(ctx, userID)
	summary, _ := args.Get(0).(*entity.WalletSummary)
	return summary, args.Error(1)
}

func (m *mockLedgerUseCase) ListTransactions(ctx context.Context, userID uint64, limit int, beforeID uint64) ([]entity.CreditTransaction, error) {
	args := m.Called(ctx, userID, limit, beforeID)
	txs, _ := args.Get(0).([]entity.CreditTransaction)
	return txs, args.Error(1)
}

func (m *mockLedgerUseCase) ReconcileWallet(ctx context.Context, userID uint64) (*entity.ReconcileResult, error) {
	args := m.Called(ctx, userID)
	result, _ := args.Get(0).(*entity.ReconcileResult)
	return result, args.Error(1)
}

type mockQuotaUseCase struct{ mock.Mock }

func (m *mockQuotaUseCase) Consume(ctx context.Context, userID uint64, amountMicro int64) (bool, error) {
	args := m.Called(ctx, userID, amountMicro)
	return args.Bool(0), args.Error(1)
}

func (m *mockQuotaUseCase) GetLimitsSummary(ctx context.Context, userID uint64) (*entity.LimitsSummary, error) {
	args := m.Called(ctx, userID)
	summary, _ := args.Get(0).(*entity.LimitsSummary)
	return summary, args.Error(1)
}

func (m *mockQuotaUseCase) SetDailyQuota(ctx context.Context, userID uint64, amountMicro int64) error {
	return m.Called(ctx, userID, amountMicro).Error(0)
}

type mockUsageUseCase struct{ mock.Mock }

func (m *mockUsageUseCase) RecordUsage(ctx context.Context, report entity.UsageReport) (*entity.UsageEvent, error) {
	args := m.Called(ctx, report)
	event, _ := args.Get(0).(*entity.UsageEvent)
	return event, args.Error(1)
}

func (m *mockUsageUseCase) ListUsage(ctx context.Context, userID uint64, limit int) ([]entity.UsageEvent, error) {
	args := m.Called(ctx, userID, limit)
	events, _ := args.Get(0).([]entity.UsageEvent)
	return events, args.Error(1)
}

type mockRateUseCase struct{ mock.Mock }

func (m *mockRateUseCase) GetActiveRate(ctx context.Context, modelID string, at time.Time) (*entity.ModelRate, error) {
	args := m.Called(ctx, modelID, at)
	rate, _ := args.Get(0).(*entity.ModelRate)
	return rate, args.Error(1)
}

func (m *mockRateUseCase) PublishRate(ctx context.Context, req usecase.PublishRateRequest) (*usecase.PublishResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*usecase.PublishResult)
	return result, args.Error(1)
}

func (m *mockRateUseCase) ListPricedModels(ctx context.Context, at time.Time) ([]entity.ModelRate, error) {
	args := m.Called(ctx, at)
	rates, _ := args.Get(0).([]entity.ModelRate)
	return rates, args.Error(1)
}

func (m *mockRateUseCase) RateHistory(ctx context.Context, modelID string) ([]entity.ModelRate, error) {
	args := m.Called(ctx, modelID)
	rates, _ := args.Get(0).([]entity.ModelRate)
	return rates, args.Error(1)
}

func (m *mockRateUseCase) RetireModel(ctx context.Context, modelID string) error {
	return m.Called(ctx, modelID).Error(0)
}

func (m *mockRateUseCase) PublishFromPriceList(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockReferralUseCase struct{ mock.Mock }

func (m *mockReferralUseCase) GenerateCode(ctx context.Context, userID uint64) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *mockReferralUseCase) Redeem(ctx context.Context, userID uint64, code string) (*entity.RedeemResult, error) {
	args := m.Called(ctx, userID, code)
	result, _ := args.Get(0).(*entity.RedeemResult)
	return result, args.Error(1)
}

func (m *mockReferralUseCase) IssueWelcomeGrant(ctx context.Context, userID uint64) (*entity.Grant, error) {
	args := m.Called(ctx, userID)
	grant, _ := args.Get(0).(*entity.Grant)
	return grant, args.Error(1)
}

type mockWebhookUseCase struct{ mock.Mock }

func (m *mockWebhookUseCase) Handle(ctx context.Context, event entity.PaymentEvent) (*entity.WebhookResult, error) {
	args := m.Called(ctx, event)
	result, _ := args.Get(0).(*entity.WebhookResult)
	return result, args.Error(1)
}

func (m *mockWebhookUseCase) ReprocessFailed(ctx context.Context, batchSize int) (int, error) {
	args := m.Called(ctx, batchSize)
	return args.Int(0), args.Error(1)
}

type mockBillingUseCase struct{ mock.Mock }

func (m *mockBillingUseCase) EnsureOpenCycle(ctx context.Context, userID uint64, now time.Time) (*entity.PostpaidCycle, error) {
	args := m.Called(ctx, userID, now)
	cycle, _ := args.Get(0).(*entity.PostpaidCycle)
	return cycle, args.Error(1)
}

func (m *mockBillingUseCase) Accrue(ctx context.Context, userID uint64, amountMicro int64) (*entity.PostpaidCycle, error) {
	args := m.Called(ctx, userID, amountMicro)
	cycle, _ := args.Get(0).(*entity.PostpaidCycle)
	return cycle, args.Error(1)
}

func (m *mockBillingUseCase) CanAccrue(ctx context.Context, userID uint64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockBillingUseCase) CloseDueCycles(ctx context.Context, batchSize int) (*entity.CloseReport, error) {
	args := m.Called(ctx, batchSize)
	report, _ := args.Get(0).(*entity.CloseReport)
	return report, args.Error(1)
}

func (m *mockBillingUseCase) ListCycles(ctx context.Context, userID uint64) ([]entity.PostpaidCycle, error) {
	args := m.Called(ctx, userID)
	cycles, _ := args.Get(0).([]entity.PostpaidCycle)
	return cycles, args.Error(1)
}

type mockJobRunner struct{ mock.Mock }

func (m *mockJobRunner) RunJob(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *mockJobRunner) JobNames() []string {
	args := m.Called()
	names, _ := args.Get(0).([]string)
	return names
}

var (
	_ usecase.UserUseCase     = (*mockUserUseCase)(nil)
	_ usecase.LedgerUseCase   = (*mockLedgerUseCase)(nil)
	_ usecase.QuotaUseCase    = (*mockQuotaUseCase)(nil)
	_ usecase.UsageUseCase    = (*mockUsageUseCase)(nil)
	_ usecase.RateUseCase     = (*mockRateUseCase)(nil)
	_ usecase.ReferralUseCase = (*mockReferralUseCase)(nil)
	_ usecase.WebhookUseCase  = (*mockWebhookUseCase)(nil)
	_ usecase.BillingUseCase  = (*mockBillingUseCase)(nil)
	_ usecase.JobRunner       = (*mockJobRunner)(nil)
)

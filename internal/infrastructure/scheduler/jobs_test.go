package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/usecase"
	timeprovider "github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/time"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/config"
)

type stubRates struct {
	usecase.RateUseCase
	calls int
}

func (s *stubRates) PublishFromPriceList(context.Context) (int, error) {
	s.calls++
	return 0, nil
}

type stubBilling struct {
	usecase.BillingUseCase
	batchSize int
}

func (s *stubBilling) CloseDueCycles(_ context.Context, batchSize int) (*entity.CloseReport, error) {
	s.batchSize = batchSize
	return &entity.CloseReport{}, nil
}

type stubWebhooks struct {
	usecase.WebhookUseCase
	batchSize int
}

func (s *stubWebhooks) ReprocessFailed(_ context.Context, batchSize int) (int, error) {
	s.batchSize = batchSize
	return 0, nil
}

func TestRegisterJobs(t *testing.T) {
	clock := timeprovider.NewFakeTimeProvider(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	s := newScheduler(nil, clock)

	cfg := &config.Config{}
	cfg.Billing.CloseBatchSize = 25
	cfg.Webhook.BatchSize = 10
	cfg.Scheduler.Jobs = map[string]config.JobSpec{
		config.JobCloseCycles: {Interval: 6 * time.Hour, Timeout: time.Minute},
	}

	rates := &stubRates{}
	billing := &stubBilling{}
	webhooks := &stubWebhooks{}
	require.NoError(t, RegisterJobs(s, cfg, rates, billing, webhooks))

	assert.Equal(t, []string{config.JobCloseCycles, config.JobPublishRates, config.JobReprocessWebhooks}, s.JobNames())
	assert.Equal(t, 6*time.Hour, s.jobs[config.JobCloseCycles].Interval)
	assert.Equal(t, time.Minute, s.jobs[config.JobCloseCycles].Timeout)
	assert.Equal(t, defaultDailyInterval, s.jobs[config.JobPublishRates].Interval)
	assert.Equal(t, defaultHourlyInterval, s.jobs[config.JobReprocessWebhooks].Interval)
	assert.Equal(t, defaultJobTimeout, s.jobs[config.JobReprocessWebhooks].Timeout)

	ctx := context.Background()
	require.NoError(t, s.RunJob(ctx, config.JobPublishRates))
	require.NoError(t, s.RunJob(ctx, config.JobCloseCycles))
	require.NoError(t, s.RunJob(ctx, config.JobReprocessWebhooks))
	assert.Equal(t, 1, rates.calls)
	assert.Equal(t, 25, billing.batchSize)
	assert.Equal(t, 10, webhooks.batchSize)

	assert.Error(t, RegisterJobs(s, cfg, rates, billing, webhooks), "names are unique")
}

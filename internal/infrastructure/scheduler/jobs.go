package scheduler

import (
	"context"
	"time"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/config"
)

// Default job timings
const (
	defaultDailyInterval  = 24 * time.Hour
	defaultHourlyInterval = time.Hour
	defaultJobTimeout     = 5 * time.Minute
)

// RegisterJobs wires the periodic use case entry points using the configured timings
func RegisterJobs(
	s *Scheduler,
	cfg *config.Config,
	rates usecase.RateUseCase,
	billing usecase.BillingUseCase,
	webhooks usecase.WebhookUseCase,
) error {
	jobs := []Job{
		{
			Name: config.JobPublishRates,
			Run: func(ctx context.Context) error {
				_, err := rates.PublishFromPriceList(ctx)
				return err
			},
		},
		{
			Name: config.JobCloseCycles,
			Run: func(ctx context.Context) error {
				_, err := billing.CloseDueCycles(ctx, cfg.Billing.CloseBatchSize)
				return err
			},
		},
		{
			Name: config.JobReprocessWebhooks,
			Run: func(ctx context.Context) error {
				_, err := webhooks.ReprocessFailed(ctx, cfg.Webhook.BatchSize)
				return err
			},
		},
	}

	for _, job := range jobs {
		spec := cfg.Scheduler.Jobs[job.Name]
		job.Interval = spec.Interval
		job.Timeout = spec.Timeout
		if job.Interval <= 0 {
			job.Interval = defaultDailyInterval
			if job.Name == config.JobReprocessWebhooks {
				job.Interval = defaultHourlyInterval
			}
		}
		if job.Timeout <= 0 {
			job.Timeout = defaultJobTimeout
		}
		if err := s.Register(job); err != nil {
			return err
		}
	}
	return nil
}

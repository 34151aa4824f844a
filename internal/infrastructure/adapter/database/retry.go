package database

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/repository"
)

// RetryConfig holds configuration for retry operations
type RetryConfig struct {
	MaxRetries    int
	RetryInterval time.Duration
	MaxInterval   time.Duration
	JitterFactor  float64 // Factor to add randomness to retry intervals (0.0-1.0)
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    5,
		RetryInterval: 20 * time.Millisecond,
		MaxInterval:   time.Second,
		JitterFactor:  0.2,
	}
}

// RetryOnTransientError runs operation until it succeeds, fails with a non-retryable
// error or exhausts config.MaxRetries attempts. Exhaustion is reported as
// ErrConcurrencyConflict wrapping the last error.
func RetryOnTransientError(
	ctx context.Context,
	config RetryConfig,
	operation func(attempt int) error,
	classifier *repository.ErrorClassifier,
	logger coreport.Logger,
) error {
	var err error

	for attempt := 0; attempt < config.MaxRetries; attempt++ {
		err = operation(attempt)
		if err == nil {
			return nil
		}

		if !classifier.IsRetryable(err) {
			return err
		}

		if attempt == config.MaxRetries-1 {
			break
		}

		backoff := calculateBackoffWithJitter(attempt, config)
		logger.Debug("Retryable database error, retrying unit of work", map[string]any{
			"attempt":     attempt + 1,
			"max_retries": config.MaxRetries,
			"error":       err.Error(),
			"retry_after": backoff.String(),
		})

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	logger.Warn("All retry attempts failed", map[string]any{
		"max_retries": config.MaxRetries,
		"error":       err.Error(),
	})

	if errs.IsConcurrencyConflict(err) {
		return err
	}
	return fmt.Errorf("%w: %w", errs.ErrConcurrencyConflict, err)
}

// calculateBackoffWithJitter computes the backoff duration with exponential increase and jitter
func calculateBackoffWithJitter(attempt int, config RetryConfig) time.Duration {
	backoff := config.RetryInterval * (1 << uint(attempt))
	if backoff > config.MaxInterval {
		backoff = config.MaxInterval
	}

	if config.JitterFactor > 0 {
		jitter := time.Duration(float64(backoff) * config.JitterFactor * rand.Float64())
		backoff += jitter
	}

	return backoff
}

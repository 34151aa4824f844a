package core

import (
	"context"
	"time"
)

// Duration wraps time.Duration so use cases stay free of wall-clock calls
type Duration time.Duration

// Std converts to time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// TimeProvider is the only clock the ledger reads. All times are UTC.
type TimeProvider interface {
	Now() time.Time
	Since(t time.Time) Duration
	// Today is the current UTC epoch day, the key of daily quota windows
	Today() int64
	WithTimeout(ctx context.Context, timeout Duration) (context.Context, context.CancelFunc)
}

package time

import (
	"context"
	"time"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
)

// RealTimeProvider reads the wall clock in UTC
type RealTimeProvider struct{}

func NewRealTimeProvider() core.TimeProvider {
	return &RealTimeProvider{}
}

func (p *RealTimeProvider) Now() time.Time {
	return time.Now().UTC()
}

func (p *RealTimeProvider) Since(t time.Time) core.Duration {
	return core.Duration(time.Since(t))
}

func (p *RealTimeProvider) Today() int64 {
	return entity.EpochDay(p.Now())
}

func (p *RealTimeProvider) WithTimeout(ctx context.Context, timeout core.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout.Std())
}

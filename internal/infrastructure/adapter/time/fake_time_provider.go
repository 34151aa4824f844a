package time

import (
	"context"
	"sync"
	"time"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
)

// FakeTimeProvider is a manually driven clock for tests and replays.
type FakeTimeProvider struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeTimeProvider creates a clock frozen at start
func NewFakeTimeProvider(start time.Time) *FakeTimeProvider {
	return &FakeTimeProvider{now: start.UTC()}
}

// Now returns the frozen time
func (p *FakeTimeProvider) Now() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.now
}

// Set moves the clock to t
func (p *FakeTimeProvider) Set(t time.Time) {
	p.mu.Lock()
	p.now = t.UTC()
	p.mu.Unlock()
}

// Advance moves the clock forward by d
func (p *FakeTimeProvider) Advance(d time.Duration) {
	p.mu.Lock()
	p.now = p.now.Add(d)
	p.mu.Unlock()
}

// Since returns the fake time elapsed since t
func (p *FakeTimeProvider) Since(t time.Time) core.Duration {
	return core.Duration(p.Now().Sub(t))
}

// Today returns the epoch day of the fake time
func (p *FakeTimeProvider) Today() int64 {
	return entity.EpochDay(p.Now())
}

// WithTimeout delegates to the real context timeout
func (p *FakeTimeProvider) WithTimeout(ctx context.Context, timeout core.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout.Std())
}

package time

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
)

func TestFakeTimeProvider(t *testing.T) {
	start := time.Date(2026, 5, 1, 22, 30, 0, 0, time.FixedZone("X", -3600))
	clock := NewFakeTimeProvider(start)

	assert.Equal(t, time.UTC, clock.Now().Location())
	assert.True(t, clock.Now().Equal(start))
	assert.Equal(t, entity.EpochDay(start), clock.Today())

	clock.Advance(time.Hour)
	assert.Equal(t, core.Duration(time.Hour), clock.Since(start))
	assert.Equal(t, entity.EpochDay(start)+1, clock.Today())

	clock.Set(start)
	assert.True(t, clock.Now().Equal(start))
}

func TestRealTimeProvider(t *testing.T) {
	clock := NewRealTimeProvider()
	assert.Equal(t, time.UTC, clock.Now().Location())
	assert.Equal(t, entity.EpochDay(time.Now()), clock.Today())
}

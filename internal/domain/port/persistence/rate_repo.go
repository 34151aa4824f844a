package persistence

import (
	"context"
	"time"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
)

// RateRepository stores versioned model pricing. Rows are never deleted and prices are never rewritten.
type RateRepository interface {
	// Create stores a new version
	//
	// Possible errors:
	// - ErrDuplicateRecord: If the (model, version) pair exists or another version is active
	Create(ctx context.Context, rate *entity.ModelRate) error

	// GetEffective returns the version of a model in effect at the given time
	//
	// Possible errors:
	// - ErrRateNotFound: If no version covers the time
	GetEffective(ctx context.Context, modelID string, at time.Time) (*entity.ModelRate, error)

	// GetCurrent returns the version that has not been superseded
	//
	// Possible errors:
	// - ErrRateNotFound: If the model has no open version
	GetCurrent(ctx context.Context, modelID string) (*entity.ModelRate, error)

	// MaxVersion returns the highest version number of a model, zero when none exists
	MaxVersion(ctx context.Context, modelID string) (int64, error)

	// Supersede ends an open version at the given time and deactivates it
	//
	// Possible errors:
	// - ErrConcurrencyConflict: If the version was already superseded
	Supersede(ctx context.Context, rateID uint64, at time.Time) error

	// ListActive returns every active version ordered by model
	ListActive(ctx context.Context) ([]entity.ModelRate, error)

	// ListHistory returns every version of a model, oldest first
	ListHistory(ctx context.Context, modelID string) ([]entity.ModelRate, error)
}

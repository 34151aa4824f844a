package usecase

import (
	"context"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
)

// UserUseCase defines methods for user-related business operations
type UserUseCase interface {
	// EnsureUser returns the user for an external identity, creating the user with
	// wallet, limits and welcome grant on first access
	// This is the method used by the POST /v1/users endpoint
	EnsureUser(ctx context.Context, externalAuthID, email string) (*entity.User, bool, error)

	// GetUser retrieves a user by ID
	GetUser(ctx context.Context, userID uint64) (*entity.User, error)

	// SetPostpaid toggles postpaid accrual for a user
	SetPostpaid(ctx context.Context, userID uint64, enabled bool) error
}

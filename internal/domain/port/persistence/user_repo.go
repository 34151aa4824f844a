package persistence

import (
	"context"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
)

// UserRepository defines essential methods to interact with user data
type UserRepository interface {
	// GetByID retrieves a user by ID
	//
	// Possible errors:
	// - ErrUserNotFound: If user with specified ID doesn't exist
	// - ErrDatabaseConnection: If database connection fails
	GetByID(ctx context.Context, id uint64) (*entity.User, error)

	// GetByExternalAuthID retrieves a user by the identity provider's identifier
	//
	// Possible errors:
	// - ErrUserNotFound: If no user carries the identifier
	// - ErrDatabaseConnection: If database connection fails
	GetByExternalAuthID(ctx context.Context, externalAuthID string) (*entity.User, error)

	// GetByEmail retrieves a user by email address
	//
	// Possible errors:
	// - ErrUserNotFound: If no user carries the address
	// - ErrDatabaseConnection: If database connection fails
	GetByEmail(ctx context.Context, email string) (*entity.User, error)

	// Create creates a new user
	//
	// Possible errors:
	// - ErrDuplicateRecord: If the ID or external auth ID is taken
	// - ErrDatabaseConnection: If database connection fails
	Create(ctx context.Context, user *entity.User) error

	// SetPostpaid toggles postpaid accrual for a user
	//
	// Possible errors:
	// - ErrUserNotFound: If user doesn't exist
	// - ErrDatabaseConnection: If database connection fails
	SetPostpaid(ctx context.Context, id uint64, enabled bool) error

	// SetReferralCode stores the code a user owns
	SetReferralCode(ctx context.Context, id uint64, code string) error

	// SetJoinedWithCode stores the code a user redeemed
	SetJoinedWithCode(ctx context.Context, id uint64, code string) error
}

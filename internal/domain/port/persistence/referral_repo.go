package persistence

import (
	"context"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
)

// ReferralRepository stores referral codes and redemptions
type ReferralRepository interface {
	// Create stores a new code
	//
	// Possible errors:
	// - ErrDuplicateRecord: If the code or the owner already exists
	Create(ctx context.Context, referral *entity.Referral) error

	// GetByCode returns the referral for a code
	//
	// Possible errors:
	// - ErrReferralCodeNotFound: If the code is unknown
	GetByCode(ctx context.Context, code string) (*entity.Referral, error)

	// GetByOwner returns the code owned by a user or ErrNotFound
	GetByOwner(ctx context.Context, ownerUserID uint64) (*entity.Referral, error)

	// IncrementUses bumps usesCount if the stored version equals expectedVersion
	//
	// Possible errors:
	// - ErrConcurrencyConflict: If another redemption won the race
	IncrementUses(ctx context.Context, referralID uint64, expectedVersion int64) error

	// CreateRedemption records a redemption
	//
	// Possible errors:
	// - ErrDuplicateRecord: If the redeemer already redeemed a code
	CreateRedemption(ctx context.Context, redemption *entity.ReferralRedemption) error

	// GetRedemptionByRedeemer returns a user's redemption or ErrNotFound
	GetRedemptionByRedeemer(ctx context.Context, redeemerUserID uint64) (*entity.ReferralRedemption, error)
}

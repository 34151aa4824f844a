package usecase

import (
	"context"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
)

// ReferralUseCase issues grants and referral codes
type ReferralUseCase interface {
	// GenerateCode returns the user's code, creating it on first call
	GenerateCode(ctx context.Context, userID uint64) (string, error)

	// Redeem credits the redeemer and the code owner once
	//
	// Possible errors:
	// - ErrInvalidReferralCode: malformed code
	// - ErrReferralCodeNotFound: unknown code
	// - ErrSelfReferral: the user owns the code
	// - ErrReferralAlreadyRedeemed: the user redeemed before
	Redeem(ctx context.Context, userID uint64, code string) (*entity.RedeemResult, error)

	// IssueWelcomeGrant credits the one-time welcome amount.
	// Returns nil without error when the configured amount is zero.
	IssueWelcomeGrant(ctx context.Context, userID uint64) (*entity.Grant, error)
}

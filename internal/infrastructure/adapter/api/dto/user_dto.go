package dto

import (
	"time"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
)

// EnsureUserRequest identifies a user by the identity provider's ID
type EnsureUserRequest struct {
	ExternalAuthID string `json:"externalAuthId" binding:"required,max=128"`
	Email          string `json:"email" binding:"omitempty,email"`
}

// UserResponse is the public view of a user
type UserResponse struct {
	ID              uint64    `json:"id"`
	ExternalAuthID  string    `json:"externalAuthId"`
	Email           string    `json:"email,omitempty"`
	ReferralCode    string    `json:"referralCode,omitempty"`
	JoinedWithCode  string    `json:"joinedWithCode,omitempty"`
	PostpaidEnabled bool      `json:"postpaidEnabled"`
	Created         bool      `json:"created"`
	CreatedAt       time.Time `json:"createdAt"`
}

// PostpaidRequest toggles postpaid accrual
type PostpaidRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// QuotaRequest sets the daily free allowance in currency units
type QuotaRequest struct {
	DailyQuota string `json:"dailyQuota" binding:"required"`
}

// ReconcileResponse reports a wallet check against the ledger
type ReconcileResponse struct {
	UserID    uint64 `json:"userId"`
	Stored    string `json:"stored"`
	Ledger    string `json:"ledger"`
	Corrected bool   `json:"corrected"`
}

// NewUserResponse maps a user
func NewUserResponse(u *entity.User, created bool) UserResponse {
	return UserResponse{
		ID:              u.ID,
		ExternalAuthID:  u.ExternalAuthID,
		Email:           u.Email,
		ReferralCode:    u.ReferralCode,
		JoinedWithCode:  u.JoinedWithCode,
		PostpaidEnabled: u.PostpaidEnabled,
		Created:         created,
		CreatedAt:       u.CreatedAt,
	}
}

// NewReconcileResponse maps a reconcile result
func NewReconcileResponse(r *entity.ReconcileResult) ReconcileResponse {
	return ReconcileResponse{
		UserID:    r.UserID,
		Stored:    entity.FormatMicro(r.StoredMicro),
		Ledger:    entity.FormatMicro(r.LedgerMicro),
		Corrected: r.Corrected,
	}
}

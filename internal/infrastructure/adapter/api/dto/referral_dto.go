package dto

import "github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"

// ReferralCodeResponse carries a user's referral code
type ReferralCodeResponse struct {
	UserID uint64 `json:"userId"`
	Code   string `json:"code"`
}

// RedeemRequest names the code being redeemed
type RedeemRequest struct {
	Code string `json:"code" binding:"required"`
}

// RedeemResponse reports both grants of a redemption
type RedeemResponse struct {
	Code        string `json:"code"`
	OwnerUserID uint64 `json:"ownerUserId"`
	FriendGrant string `json:"friendGrant"`
	SelfGrant   string `json:"selfGrant"`
}

// NewRedeemResponse maps a redemption
func NewRedeemResponse(r *entity.RedeemResult) RedeemResponse {
	return RedeemResponse{
		Code:        r.Code,
		OwnerUserID: r.OwnerUserID,
		FriendGrant: entity.FormatMicro(r.FriendGrant.AmountMicro),
		SelfGrant:   entity.FormatMicro(r.SelfGrant.AmountMicro),
	}
}

package entity

import (
	"fmt"
	"strconv"
	"time"
)

// Referral is a shareable code owned by one user
type Referral struct {
	ID          uint64
	Code        string
	OwnerUserID uint64
	UsesCount   int64
	Version     int64
	CreatedAt   time.Time
}

// ReferralRedemption records that a user joined with someone else's code.
// A user redeems at most once.
type ReferralRedemption struct {
	ID             uint64
	ReferralID     uint64
	OwnerUserID    uint64
	RedeemerUserID uint64
	CreatedAt      time.Time
}

// GrantType is the kind of one-time credit
type GrantType string

// Grant types
const (
	GrantWelcome        GrantType = "welcome"
	GrantReferralSelf   GrantType = "referral_self"
	GrantReferralFriend GrantType = "referral_friend"
)

// Grant is a one-time credit. (Type, RefKey) is unique.
type Grant struct {
	ID            uint64
	UserID        uint64
	Type          GrantType
	AmountMicro   int64
	RefKey        string
	TransactionID uint64
	CreatedAt     time.Time
}

// WelcomeRef is the grant key and ledger reference of a user's welcome credit
func WelcomeRef(userID uint64) string {
	return "welcome:" + formatID(userID)
}

// ReferralGrantRef is the ledger reference of one side of a redemption
func ReferralGrantRef(grantType GrantType, redemptionID uint64) string {
	return fmt.Sprintf("%s:%d", grantType, redemptionID)
}

// RedeemResult is the outcome of a successful redemption
type RedeemResult struct {
	Code           string
	OwnerUserID    uint64
	RedeemerUserID uint64
	UsesCount      int64
	FriendGrant    Grant
	SelfGrant      Grant
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

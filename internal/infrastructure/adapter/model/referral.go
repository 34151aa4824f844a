package model

import (
	"time"
)

// Referral is a code owned by one user
type Referral struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement:false"`
	Code        string    `gorm:"size:32;not null;uniqueIndex"`
	OwnerUserID uint64    `gorm:"not null;uniqueIndex"`
	UsesCount   int64     `gorm:"not null;default:0"`
	Version     int64     `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"not null"`
}

// TableName specifies the table name for Referral
func (Referral) TableName() string {
	return "referrals"
}

// ReferralRedemption records one use of a code; a user redeems once
type ReferralRedemption struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement:false"`
	ReferralID     uint64    `gorm:"not null;index"`
	OwnerUserID    uint64    `gorm:"not null"`
	RedeemerUserID uint64    `gorm:"not null;uniqueIndex"`
	CreatedAt      time.Time `gorm:"not null"`
}

// TableName specifies the table name for ReferralRedemption
func (ReferralRedemption) TableName() string {
	return "referral_redemptions"
}

// Grant is a one-time credit keyed by (type, ref_key)
type Grant struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement:false"`
	UserID        uint64    `gorm:"not null;index"`
	Type          string    `gorm:"size:32;not null;uniqueIndex:idx_grants_type_ref,priority:1"`
	AmountMicro   int64     `gorm:"not null"`
	RefKey        string    `gorm:"size:128;not null;uniqueIndex:idx_grants_type_ref,priority:2"`
	TransactionID uint64    `gorm:"not null;default:0"`
	CreatedAt     time.Time `gorm:"not null"`
}

// TableName specifies the table name for Grant
func (Grant) TableName() string {
	return "grants"
}

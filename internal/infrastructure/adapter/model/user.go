package model

import (
	"time"
)

// User represents the database model for users
type User struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement:false"`
	ExternalAuthID  string    `gorm:"size:255;not null;uniqueIndex"`
	Email           string    `gorm:"size:320;index"`
	ReferralCode    string    `gorm:"size:32"`
	JoinedWithCode  string    `gorm:"size:32"`
	PostpaidEnabled bool      `gorm:"not null;default:false"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// Wallet is the materialized balance of a user's ledger
type Wallet struct {
	UserID       uint64    `gorm:"primaryKey;autoIncrement:false"`
	BalanceMicro int64     `gorm:"not null;default:0"`
	Version      int64     `gorm:"not null;default:0"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName specifies the table name for Wallet
func (Wallet) TableName() string {
	return "wallets"
}

// Limits holds the daily free-mode allowance of a user
type Limits struct {
	UserID          uint64    `gorm:"primaryKey;autoIncrement:false"`
	DailyQuotaMicro int64     `gorm:"not null;default:0"`
	UsedTodayMicro  int64     `gorm:"not null;default:0"`
	RollupDay       int64     `gorm:"not null"`
	Version         int64     `gorm:"not null;default:0"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName specifies the table name for Limits
func (Limits) TableName() string {
	return "user_limits"
}

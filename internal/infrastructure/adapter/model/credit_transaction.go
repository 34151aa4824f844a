package model

import (
	"time"
)

// CreditTransaction is one append-only ledger row. RefID is NULL when the
// movement carries no idempotency key so the composite unique index ignores it.
type CreditTransaction struct {
	ID                uint64    `gorm:"primaryKey;autoIncrement:false"`
	UserID            uint64    `gorm:"not null;index:idx_credit_transactions_user_id"`
	AmountMicro       int64     `gorm:"not null"`
	Source            string    `gorm:"size:32;not null;uniqueIndex:idx_credit_transactions_source_ref"`
	RefID             *string   `gorm:"size:255;uniqueIndex:idx_credit_transactions_source_ref"`
	BalanceAfterMicro int64     `gorm:"not null"`
	CreatedAt         time.Time `gorm:"not null"`
}

// TableName specifies the table name for CreditTransaction
func (CreditTransaction) TableName() string {
	return "credit_transactions"
}

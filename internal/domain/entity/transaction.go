package entity

import (
	"time"
)

// TransactionSource represents where a credit transaction originated
type TransactionSource string

// Transaction sources
const (
	SourcePurchase     TransactionSource = "purchase"
	SourceUsage        TransactionSource = "usage"
	SourceWelcome      TransactionSource = "welcome"
	SourceReferral     TransactionSource = "referral"
	SourceAutoRecharge TransactionSource = "autorecharge"
	SourcePostpaid     TransactionSource = "postpaid"
	SourceAdjustment   TransactionSource = "adjustment"
)

// IsValid reports whether the source is one of the known values
func (s TransactionSource) IsValid() bool {
	switch s {
	case SourcePurchase, SourceUsage, SourceWelcome, SourceReferral,
		SourceAutoRecharge, SourcePostpaid, SourceAdjustment:
		return true
	}
	return false
}

// CreditTransaction is an immutable entry of the append-only ledger
type CreditTransaction struct {
	ID                uint64            // Snowflake identifier
	UserID            uint64            // Owner of the wallet this entry applies to
	AmountMicro       int64             // Signed amount, negative for debits
	Source            TransactionSource // Origin of the movement
	RefID             string            // Optional idempotency key, unique per source
	BalanceAfterMicro int64             // Wallet balance right after this entry
	CreatedAt         time.Time
}

// HasRef reports whether the transaction carries an idempotency key
func (t *CreditTransaction) HasRef() bool {
	return t.RefID != ""
}

// ApplyResult is the outcome of appending (or replaying) a ledger transaction
type ApplyResult struct {
	TransactionID uint64
	BalanceMicro  int64
	Replayed      bool
}

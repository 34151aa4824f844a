package entity

import (
	"time"
)

// User is the account identity that owns a wallet
type User struct {
	ID              uint64    // Stable internal identifier
	ExternalAuthID  string    // Identifier issued by the identity provider
	Email           string    // Contact address used to match payment events
	ReferralCode    string    // Code this user owns, empty until generated
	JoinedWithCode  string    // Code this user redeemed, empty if none
	PostpaidEnabled bool      // Whether usage may accrue to a postpaid cycle
	CreatedAt       time.Time // When the user was created
}

// Wallet is the materialized balance of a user's transaction log
type Wallet struct {
	UserID       uint64
	BalanceMicro int64
	Version      int64
	UpdatedAt    time.Time
}

// CanCover reports whether the balance covers a charge
func (w *Wallet) CanCover(costMicro int64) bool {
	return w.BalanceMicro >= costMicro
}

// WalletSummary is the read model returned to collaborators
type WalletSummary struct {
	UserID       uint64    `json:"userId"`
	BalanceMicro int64     `json:"balanceMicro"`
	Balance      string    `json:"balance"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ToSummary converts a wallet into its read model
func (w *Wallet) ToSummary() WalletSummary {
	return WalletSummary{
		UserID:       w.UserID,
		BalanceMicro: w.BalanceMicro,
		Balance:      FormatMicro(w.BalanceMicro),
		UpdatedAt:    w.UpdatedAt,
	}
}

// ReconcileResult reports the outcome of rebuilding a wallet from its log
type ReconcileResult struct {
	UserID      uint64
	StoredMicro int64
	LedgerMicro int64
	Corrected   bool
}

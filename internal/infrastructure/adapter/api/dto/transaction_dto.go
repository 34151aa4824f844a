package dto

import (
	"strconv"
	"time"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
)

// AdjustmentRequest is an operator credit or debit in currency units
type AdjustmentRequest struct {
	Amount    string `json:"amount" binding:"required"`
	Reference string `json:"reference" binding:"required,max=128"`
}

// TransactionResponse is one ledger entry
type TransactionResponse struct {
	ID           string    `json:"id"`
	UserID       uint64    `json:"userId"`
	Amount       string    `json:"amount"`
	AmountMicro  int64     `json:"amountMicro"`
	Source       string    `json:"source"`
	RefID        string    `json:"refId,omitempty"`
	BalanceAfter string    `json:"balanceAfter"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TransactionListResponse is a page of the ledger, newest first
type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextBefore   string                `json:"nextBefore,omitempty"`
}

// ApplyResponse reports the outcome of a ledger movement
type ApplyResponse struct {
	TransactionID string `json:"transactionId"`
	Balance       string `json:"balance"`
	BalanceMicro  int64  `json:"balanceMicro"`
	Replayed      bool   `json:"replayed"`
}

// NewTransactionResponse maps a ledger entry
func NewTransactionResponse(tx entity.CreditTransaction) TransactionResponse {
	return TransactionResponse{
		ID:           strconv.FormatUint(tx.ID, 10),
		UserID:       tx.UserID,
		Amount:       entity.FormatMicro(tx.AmountMicro),
		AmountMicro:  tx.AmountMicro,
		Source:       string(tx.Source),
		RefID:        tx.RefID,
		BalanceAfter: entity.FormatMicro(tx.BalanceAfterMicro),
		CreatedAt:    tx.CreatedAt,
	}
}

// NewTransactionListResponse maps a page and sets the cursor when the page is full
func NewTransactionListResponse(txs []entity.CreditTransaction, limit int) TransactionListResponse {
	resp := TransactionListResponse{Transactions: make([]TransactionResponse, 0, len(txs))}
	for _, tx := range txs {
		resp.Transactions = append(resp.Transactions, NewTransactionResponse(tx))
	}
	if limit > 0 && len(txs) == limit {
		resp.NextBefore = strconv.FormatUint(txs[len(txs)-1].ID, 10)
	}
	return resp
}

// NewApplyResponse maps an apply result
func NewApplyResponse(result *entity.ApplyResult) ApplyResponse {
	return ApplyResponse{
		TransactionID: strconv.FormatUint(result.TransactionID, 10),
		Balance:       entity.FormatMicro(result.BalanceMicro),
		BalanceMicro:  result.BalanceMicro,
		Replayed:      result.Replayed,
	}
}

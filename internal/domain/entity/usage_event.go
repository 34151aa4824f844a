package entity

import (
	"time"
)

// UsageStatus is the funding decision recorded on a usage event
type UsageStatus string

// Usage statuses
const (
	UsageChargedPrepaid  UsageStatus = "charged_prepaid"
	UsageChargedFree     UsageStatus = "charged_free"
	UsageAccruedPostpaid UsageStatus = "accrued_postpaid"
	UsageRejected        UsageStatus = "rejected"
)

// RejectReason explains why a usage event was rejected
type RejectReason string

// Reject reasons
const (
	RejectNone              RejectReason = ""
	RejectRateNotFound      RejectReason = "rate_not_found"
	RejectInsufficientFunds RejectReason = "insufficient_funds"
)

// UsageEvent records one metered tool invocation. It is never updated after creation.
type UsageEvent struct {
	ID               uint64
	UserID           uint64
	ToolSlug         string
	ModelID          string
	PromptTokens     int64
	CompletionTokens int64
	CostMicro        int64
	MarginMicro      int64
	GatewayRequestID string
	RateVersion      int64
	Status           UsageStatus
	RejectReason     RejectReason
	TransactionID    uint64 // set for charged_prepaid with a ledger debit
	CycleID          uint64 // set for accrued_postpaid
	CreatedAt        time.Time
}

// IsRejected reports whether the event produced no financial effect
func (e *UsageEvent) IsRejected() bool {
	return e.Status == UsageRejected
}

// UsageReport is the input reported by the tool-invocation collaborator
type UsageReport struct {
	UserID           uint64
	ToolSlug         string
	ModelID          string
	PromptTokens     int64
	CompletionTokens int64
	GatewayRequestID string
}

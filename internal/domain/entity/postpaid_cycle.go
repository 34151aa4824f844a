package entity

import (
	"time"
)

// CycleStatus is the lifecycle state of a postpaid cycle
type CycleStatus string

// Cycle statuses
const (
	CycleOpen    CycleStatus = "open"
	CycleClosed  CycleStatus = "closed"
	CycleSettled CycleStatus = "settled"
	CyclePastDue CycleStatus = "past_due"
)

// PostpaidCycle accumulates postpaid charges over a time window
type PostpaidCycle struct {
	ID                   uint64
	UserID               uint64
	WindowStart          time.Time
	WindowEnd            time.Time
	ChargesMicro         int64
	Status               CycleStatus
	SettledTransactionID uint64
	Attempts             int
	LastAttemptAt        *time.Time
	SettledAt            *time.Time
	Version              int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// AcceptsCharges reports whether the open window [WindowStart, WindowEnd) contains now
func (c *PostpaidCycle) AcceptsCharges(now time.Time) bool {
	return c.Status == CycleOpen && !now.Before(c.WindowStart) && now.Before(c.WindowEnd)
}

// IsDue reports whether an open cycle's window has ended
func (c *PostpaidCycle) IsDue(now time.Time) bool {
	return c.Status == CycleOpen && !now.Before(c.WindowEnd)
}

// NeedsSettlement reports whether the cycle still owes a settlement attempt
func (c *PostpaidCycle) NeedsSettlement() bool {
	return c.Status == CycleClosed || c.Status == CyclePastDue
}

// SettlementRef is the ledger idempotency key used to settle this cycle
func (c *PostpaidCycle) SettlementRef() string {
	return formatID(c.ID)
}

// CloseReport summarizes one batch of the close job
type CloseReport struct {
	Scanned int
	Closed  int
	Settled int
	PastDue int
	Skipped int
	Failed  int
}

// Add accumulates another report into r
func (r *CloseReport) Add(other CloseReport) {
	r.Scanned += other.Scanned
	r.Closed += other.Closed
	r.Settled += other.Settled
	r.PastDue += other.PastDue
	r.Skipped += other.Skipped
	r.Failed += other.Failed
}

package entity

import (
	"time"
)

const secondsPerDay = 24 * 60 * 60

// EpochDay returns the number of whole UTC days since the Unix epoch
func EpochDay(t time.Time) int64 {
	secs := t.UTC().Unix()
	day := secs / secondsPerDay
	if secs < 0 && secs%secondsPerDay != 0 {
		day--
	}
	return day
}

// Limits holds a user's daily free-mode allowance.
// UsedTodayMicro only counts for RollupDay; on any later day it reads as zero.
type Limits struct {
	UserID          uint64
	DailyQuotaMicro int64
	UsedTodayMicro  int64
	RollupDay       int64
	Version         int64
	UpdatedAt       time.Time
}

// UsedOn returns the amount used on the given epoch day
func (l *Limits) UsedOn(today int64) int64 {
	if l.RollupDay < today {
		return 0
	}
	return l.UsedTodayMicro
}

// RemainingOn returns the unused allowance on the given epoch day
func (l *Limits) RemainingOn(today int64) int64 {
	remaining := l.DailyQuotaMicro - l.UsedOn(today)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Rollover resets the counter when the stored day is stale
func (l *Limits) Rollover(today int64) {
	if l.RollupDay < today {
		l.UsedTodayMicro = 0
		l.RollupDay = today
	}
}

// TryConsume rolls over and then takes amount from the allowance if it fits.
// It reports whether the state changed in a way that must be persisted.
func (l *Limits) TryConsume(today, amountMicro int64) (consumed bool, dirty bool) {
	stale := l.RollupDay < today
	l.Rollover(today)
	if amountMicro < 0 || l.UsedTodayMicro+amountMicro > l.DailyQuotaMicro || l.UsedTodayMicro+amountMicro < l.UsedTodayMicro {
		return false, stale
	}
	l.UsedTodayMicro += amountMicro
	return true, true
}

// LimitsSummary is the read model returned to collaborators
type LimitsSummary struct {
	UserID          uint64 `json:"userId"`
	DailyQuotaMicro int64  `json:"dailyQuotaMicro"`
	UsedTodayMicro  int64  `json:"usedTodayMicro"`
	RemainingMicro  int64  `json:"remainingMicro"`
	Exhausted       bool   `json:"exhausted"`
	RollupDay       int64  `json:"rollupDay"`
}

// SummaryOn builds the read model for the given day without mutating the limits
func (l *Limits) SummaryOn(today int64) LimitsSummary {
	remaining := l.RemainingOn(today)
	return LimitsSummary{
		UserID:          l.UserID,
		DailyQuotaMicro: l.DailyQuotaMicro,
		UsedTodayMicro:  l.UsedOn(today),
		RemainingMicro:  remaining,
		Exhausted:       remaining == 0,
		RollupDay:       today,
	}
}

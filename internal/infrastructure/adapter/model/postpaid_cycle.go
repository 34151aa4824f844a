package model

import (
	"time"
)

// PostpaidCycle accumulates postpaid charges of one user over a window
type PostpaidCycle struct {
	ID                   uint64    `gorm:"primaryKey;autoIncrement:false"`
	UserID               uint64    `gorm:"not null;index"`
	WindowStart          time.Time `gorm:"not null"`
	WindowEnd            time.Time `gorm:"not null;index:idx_postpaid_cycles_status_end,priority:2"`
	ChargesMicro         int64     `gorm:"not null;default:0"`
	Status               string    `gorm:"size:16;not null;index:idx_postpaid_cycles_status_end,priority:1"`
	SettledTransactionID uint64    `gorm:"not null;default:0"`
	Attempts             int       `gorm:"not null;default:0"`
	LastAttemptAt        *time.Time
	SettledAt            *time.Time
	Version              int64     `gorm:"not null;default:0"`
	CreatedAt            time.Time `gorm:"not null"`
	UpdatedAt            time.Time `gorm:"not null"`
}

// TableName specifies the table name for PostpaidCycle
func (PostpaidCycle) TableName() string {
	return "postpaid_cycles"
}

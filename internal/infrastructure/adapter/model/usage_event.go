package model

import (
	"time"
)

// UsageEvent is the immutable record of one metered invocation
type UsageEvent struct {
	ID               uint64    `gorm:"primaryKey;autoIncrement:false"`
	UserID           uint64    `gorm:"not null;index:idx_usage_events_user_created,priority:1"`
	ToolSlug         string    `gorm:"size:128;not null"`
	ModelID          string    `gorm:"size:128;not null"`
	PromptTokens     int64     `gorm:"not null"`
	CompletionTokens int64     `gorm:"not null"`
	CostMicro        int64     `gorm:"not null"`
	MarginMicro      int64     `gorm:"not null"`
	GatewayRequestID string    `gorm:"size:255;not null;uniqueIndex"`
	RateVersion      int64     `gorm:"not null;default:0"`
	Status           string    `gorm:"size:32;not null"`
	RejectReason     string    `gorm:"size:32"`
	TransactionID    uint64    `gorm:"not null;default:0"`
	CycleID          uint64    `gorm:"not null;default:0"`
	CreatedAt        time.Time `gorm:"not null;index:idx_usage_events_user_created,priority:2"`
}

// TableName specifies the table name for UsageEvent
func (UsageEvent) TableName() string {
	return "usage_events"
}

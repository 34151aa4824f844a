package model

import (
	"time"

	"gorm.io/datatypes"
)

// WebhookEvent is a received payment provider event, unique on (event_type, external_event_id)
type WebhookEvent struct {
	ID              uint64         `gorm:"primaryKey;autoIncrement:false"`
	Provider        string         `gorm:"size:64;not null"`
	EventType       string         `gorm:"size:64;not null;uniqueIndex:idx_webhook_events_type_external,priority:1"`
	ExternalEventID string         `gorm:"size:255;not null;uniqueIndex:idx_webhook_events_type_external,priority:2"`
	UserIdentifier  string         `gorm:"size:320"`
	Amount          string         `gorm:"size:64"`
	AmountMicro     int64          `gorm:"not null;default:0"`
	Status          string         `gorm:"size:16;not null;index:idx_webhook_events_status_received,priority:1"`
	UserID          uint64         `gorm:"not null;default:0"`
	TransactionID   uint64         `gorm:"not null;default:0"`
	FailureReason   string         `gorm:"type:text"`
	Attempts        int            `gorm:"not null;default:0"`
	Payload         datatypes.JSON `gorm:"type:json"`
	ReceivedAt      time.Time      `gorm:"not null;index:idx_webhook_events_status_received,priority:2"`
	ProcessedAt     *time.Time
}

// TableName specifies the table name for WebhookEvent
func (WebhookEvent) TableName() string {
	return "webhook_events"
}

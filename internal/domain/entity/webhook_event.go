package entity

import (
	"time"
)

// WebhookStatus is the processing state of a stored provider event
type WebhookStatus string

// Webhook statuses
const (
	WebhookReceived  WebhookStatus = "received"
	WebhookProcessed WebhookStatus = "processed"
	WebhookIgnored   WebhookStatus = "ignored"
	WebhookFailed    WebhookStatus = "failed"
)

// Recognized payment provider event types
const (
	EventPaymentSucceeded      = "payment.succeeded"
	EventAutoRechargeSucceeded = "autorecharge.succeeded"
)

// SourceForEventType maps a provider event type to the ledger source it credits
func SourceForEventType(eventType string) (TransactionSource, bool) {
	switch eventType {
	case EventPaymentSucceeded:
		return SourcePurchase, true
	case EventAutoRechargeSucceeded:
		return SourceAutoRecharge, true
	}
	return "", false
}

// PaymentEvent is the inbound webhook payload
type PaymentEvent struct {
	Provider        string
	Type            string
	ExternalEventID string
	UserIdentifier  string
	Amount          string
	Payload         []byte
}

// WebhookEvent is the durable record of a received provider event, unique on (EventType, ExternalEventID)
type WebhookEvent struct {
	ID              uint64
	Provider        string
	EventType       string
	ExternalEventID string
	UserIdentifier  string
	Amount          string
	AmountMicro     int64
	Status          WebhookStatus
	UserID          uint64
	TransactionID   uint64
	FailureReason   string
	Attempts        int
	Payload         []byte
	ReceivedAt      time.Time
	ProcessedAt     *time.Time
}

// WebhookResult is returned to the provider-facing handler
type WebhookResult struct {
	Event     *WebhookEvent
	Duplicate bool
}

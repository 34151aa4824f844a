package dto

import "github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"

// PaymentWebhookRequest is the payment provider's event body
type PaymentWebhookRequest struct {
	Type            string `json:"type" binding:"required"`
	ExternalEventID string `json:"externalEventId" binding:"required"`
	UserIdentifier  string `json:"userIdentifier"`
	Amount          string `json:"amount"`
}

// WebhookResponse acknowledges a webhook
type WebhookResponse struct {
	ExternalEventID string `json:"externalEventId"`
	Status          string `json:"status"`
	Duplicate       bool   `json:"duplicate"`
	FailureReason   string `json:"failureReason,omitempty"`
}

// NewWebhookResponse maps a handled event
func NewWebhookResponse(r *entity.WebhookResult) WebhookResponse {
	return WebhookResponse{
		ExternalEventID: r.Event.ExternalEventID,
		Status:          string(r.Event.Status),
		Duplicate:       r.Duplicate,
		FailureReason:   r.Event.FailureReason,
	}
}

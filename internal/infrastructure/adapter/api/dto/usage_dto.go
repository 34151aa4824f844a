package dto

import (
	"strconv"
	"time"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
)

// UsageReportRequest is sent by the gateway after each tool invocation
type UsageReportRequest struct {
	UserID           uint64 `json:"userId" binding:"required"`
	ToolSlug         string `json:"toolSlug" binding:"required"`
	ModelID          string `json:"modelId" binding:"required"`
	PromptTokens     int64  `json:"promptTokens" binding:"min=0"`
	CompletionTokens int64  `json:"completionTokens" binding:"min=0"`
	GatewayRequestID string `json:"gatewayRequestId" binding:"required"`
}

// ToReport maps the request to the domain report
func (r UsageReportRequest) ToReport() entity.UsageReport {
	return entity.UsageReport{
		UserID:           r.UserID,
		ToolSlug:         r.ToolSlug,
		ModelID:          r.ModelID,
		PromptTokens:     r.PromptTokens,
		CompletionTokens: r.CompletionTokens,
		GatewayRequestID: r.GatewayRequestID,
	}
}

// UsageEventResponse is one metered invocation
type UsageEventResponse struct {
	ID               string    `json:"id"`
	UserID           uint64    `json:"userId"`
	ToolSlug         string    `json:"toolSlug"`
	ModelID          string    `json:"modelId"`
	PromptTokens     int64     `json:"promptTokens"`
	CompletionTokens int64     `json:"completionTokens"`
	Cost             string    `json:"cost"`
	CostMicro        int64     `json:"costMicro"`
	GatewayRequestID string    `json:"gatewayRequestId"`
	RateVersion      int64     `json:"rateVersion,omitempty"`
	Status           string    `json:"status"`
	RejectReason     string    `json:"rejectReason,omitempty"`
	TransactionID    string    `json:"transactionId,omitempty"`
	CycleID          string    `json:"cycleId,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// NewUsageEventResponse maps a usage event; margin stays internal
func NewUsageEventResponse(e *entity.UsageEvent) UsageEventResponse {
	resp := UsageEventResponse{
		ID:               strconv.FormatUint(e.ID, 10),
		UserID:           e.UserID,
		ToolSlug:         e.ToolSlug,
		ModelID:          e.ModelID,
		PromptTokens:     e.PromptTokens,
		CompletionTokens: e.CompletionTokens,
		Cost:             entity.FormatMicro(e.CostMicro),
		CostMicro:        e.CostMicro,
		GatewayRequestID: e.GatewayRequestID,
		RateVersion:      e.RateVersion,
		Status:           string(e.Status),
		RejectReason:     string(e.RejectReason),
		CreatedAt:        e.CreatedAt,
	}
	if e.TransactionID != 0 {
		resp.TransactionID = strconv.FormatUint(e.TransactionID, 10)
	}
	if e.CycleID != 0 {
		resp.CycleID = strconv.FormatUint(e.CycleID, 10)
	}
	return resp
}

// NewUsageEventList maps a list of events
func NewUsageEventList(events []entity.UsageEvent) []UsageEventResponse {
	out := make([]UsageEventResponse, 0, len(events))
	for i := range events {
		out = append(out, NewUsageEventResponse(&events[i]))
	}
	return out
}

// UsageRejectedResponse is the error envelope of a rejected report, with the recorded event
type UsageRejectedResponse struct {
	Code    int                `json:"code"`
	Message string             `json:"message"`
	Event   UsageEventResponse `json:"event"`
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/provider"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/api/dto"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/api/middleware"
)

// Signature headers set by the payment provider
const (
	WebhookTimestampHeader = "X-Webhook-Timestamp"
	WebhookSignatureHeader = "X-Webhook-Signature"
)

const maxWebhookBody = 64 << 10

// WebhookHandler receives payment provider callbacks
type WebhookHandler struct {
	webhookUseCase usecase.WebhookUseCase
	verifier       provider.SignatureVerifier
	providerName   string
	metrics        coreport.Metrics
	logger         coreport.Logger
}

// NewWebhookHandler creates a webhook handler
func NewWebhookHandler(
	webhookUseCase usecase.WebhookUseCase,
	verifier provider.SignatureVerifier,
	providerName string,
	metrics coreport.Metrics,
	logger coreport.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		webhookUseCase: webhookUseCase,
		verifier:       verifier,
		providerName:   providerName,
		metrics:        metrics,
		logger:         logger,
	}
}

// PaymentWebhook handles POST /v1/webhooks/payments. The signature covers the raw body.
// Unrecognized event types are acknowledged with 202 so the provider stops retrying.
func (h *WebhookHandler) PaymentWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	body, err := c.GetRawData()
	if err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.verifier.Verify(c.GetHeader(WebhookTimestampHeader), c.GetHeader(WebhookSignatureHeader), body); err != nil {
		h.metrics.IncWebhookEvent("rejected")
		h.logger.Warn("Webhook signature rejected", map[string]any{
			"client_ip":  c.ClientIP(),
			"request_id": middleware.RequestIDFrom(c),
			"error":      err.Error(),
		})
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Code:      errs.ErrorCode(errs.ErrInvalidSignature),
			Message:   "Invalid webhook signature",
			RequestID: middleware.RequestIDFrom(c),
		})
		return
	}

	var req dto.PaymentWebhookRequest
	if err := binding.JSON.BindBody(body, &req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.webhookUseCase.Handle(c.Request.Context(), entity.PaymentEvent{
		Provider:        h.providerName,
		Type:            req.Type,
		ExternalEventID: req.ExternalEventID,
		UserIdentifier:  req.UserIdentifier,
		Amount:          req.Amount,
		Payload:         body,
	})
	if err != nil {
		respondError(c, h.logger, err, "payment_webhook")
		return
	}

	status := http.StatusOK
	if result.Event.Status == entity.WebhookIgnored {
		status = http.StatusAccepted
	}
	c.JSON(status, dto.NewWebhookResponse(result))
}

package handler

import (
	"net/http"

	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/api/dto"
	"github.com/gin-gonic/gin"
)

// UsageHandler serves the metering endpoints used by the gateway
type UsageHandler struct {
	usageUseCase usecase.UsageUseCase
	rateUseCase  usecase.RateUseCase
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewUsageHandler creates a usage handler
func NewUsageHandler(
	usageUseCase usecase.UsageUseCase,
	rateUseCase usecase.RateUseCase,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *UsageHandler {
	return &UsageHandler{
		usageUseCase: usageUseCase,
		rateUseCase:  rateUseCase,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// RecordUsage handles POST /v1/usage. A rejected report answers with the error
// status and still carries the recorded event.
func (h *UsageHandler) RecordUsage(c *gin.Context) {
	var req dto.UsageReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	event, err := h.usageUseCase.RecordUsage(c.Request.Context(), req.ToReport())
	if err != nil {
		if event == nil {
			respondError(c, h.logger, err, "record_usage")
			return
		}
		c.JSON(StatusCode(err), dto.UsageRejectedResponse{
			Code:    errs.ErrorCode(err),
			Message: err.Error(),
			Event:   dto.NewUsageEventResponse(event),
		})
		return
	}
	c.JSON(http.StatusOK, dto.NewUsageEventResponse(event))
}

// ListUsage handles GET /v1/users/:userId/usage?limit=
func (h *UsageHandler) ListUsage(c *gin.Context) {
	userID, err := userIDParam(c)
	if err != nil {
		respondError(c, h.logger, err, "list_usage")
		return
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		respondError(c, h.logger, err, "list_usage")
		return
	}

	events, err := h.usageUseCase.ListUsage(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, h.logger, err, "list_usage")
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": dto.NewUsageEventList(events)})
}

// ListModels handles GET /v1/models
func (h *UsageHandler) ListModels(c *gin.Context) {
	rates, err := h.rateUseCase.ListPricedModels(c.Request.Context(), h.timeProvider.Now())
	if err != nil {
		respondError(c, h.logger, err, "list_models")
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": dto.NewRateList(rates, false)})
}

package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/api/dto"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/api/middleware"
)

// AdminHandler serves operator endpoints behind the admin token
type AdminHandler struct {
	rates   usecase.RateUseCase
	users   usecase.UserUseCase
	quota   usecase.QuotaUseCase
	ledger  usecase.LedgerUseCase
	billing usecase.BillingUseCase
	jobs    usecase.JobRunner
	logger  coreport.Logger
}

// NewAdminHandler creates an admin handler
func NewAdminHandler(
	rates usecase.RateUseCase,
	users usecase.UserUseCase,
	quota usecase.QuotaUseCase,
	ledger usecase.LedgerUseCase,
	billing usecase.BillingUseCase,
	jobs usecase.JobRunner,
	logger coreport.Logger,
) *AdminHandler {
	return &AdminHandler{
		rates:   rates,
		users:   users,
		quota:   quota,
		ledger:  ledger,
		billing: billing,
		jobs:    jobs,
		logger:  logger,
	}
}

// PublishRate handles POST /v1/admin/rates
func (h *AdminHandler) PublishRate(c *gin.Context) {
	var req dto.PublishRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	input, err := entity.ParseMicro(req.InputPerMillion)
	if err != nil {
		respondError(c, h.logger, err, "publish_rate")
		return
	}
	output, err := entity.ParseMicro(req.OutputPerMillion)
	if err != nil {
		respondError(c, h.logger, err, "publish_rate")
		return
	}

	result, err := h.rates.PublishRate(c.Request.Context(), usecase.PublishRateRequest{
		ModelID:               req.ModelID,
		Provider:              req.Provider,
		InputPerMillionMicro:  input,
		OutputPerMillionMicro: output,
	})
	if err != nil {
		respondError(c, h.logger, err, "publish_rate")
		return
	}

	status := http.StatusOK
	if result.Published {
		status = http.StatusCreated
	}
	c.JSON(status, dto.PublishRateResponse{
		Rate:      dto.NewRateResponse(result.Rate, true),
		Published: result.Published,
	})
}

// RateHistory handles GET /v1/admin/rates/:modelId
func (h *AdminHandler) RateHistory(c *gin.Context) {
	rates, err := h.rates.RateHistory(c.Request.Context(), c.Param("modelId"))
	if err != nil {
		h.respondRateError(c, err, "rate_history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"versions": dto.NewRateList(rates, true)})
}

// RetireModel handles DELETE /v1/admin/rates/:modelId
func (h *AdminHandler) RetireModel(c *gin.Context) {
	if err := h.rates.RetireModel(c.Request.Context(), c.Param("modelId")); err != nil {
		h.respondRateError(c, err, "retire_model")
		return
	}
	c.Status(http.StatusNoContent)
}

// respondRateError answers 404 for a model addressed by path, the catalog's 422 is for usage reports
func (h *AdminHandler) respondRateError(c *gin.Context, err error, operation string) {
	if errors.Is(err, errs.ErrRateNotFound) {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Code:      errs.ErrorCode(err),
			Message:   err.Error(),
			RequestID: middleware.RequestIDFrom(c),
		})
		return
	}
	respondError(c, h.logger, err, operation)
}

// SetPostpaid handles PUT /v1/admin/users/:userId/postpaid
func (h *AdminHandler) SetPostpaid(c *gin.Context) {
	userID, err := userIDParam(c)
	if err != nil {
		respondError(c, h.logger, err, "set_postpaid")
		return
	}
	var req dto.PostpaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.users.SetPostpaid(c.Request.Context(), userID, *req.Enabled); err != nil {
		respondError(c, h.logger, err, "set_postpaid")
		return
	}
	c.Status(http.StatusNoContent)
}

// SetQuota handles PUT /v1/admin/users/:userId/quota
func (h *AdminHandler) SetQuota(c *gin.Context) {
	userID, err := userIDParam(c)
	if err != nil {
		respondError(c, h.logger, err, "set_quota")
		return
	}
	var req dto.QuotaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	quota, err := entity.ParseMicro(req.DailyQuota)
	if err != nil {
		respondError(c, h.logger, err, "set_quota")
		return
	}

	if err := h.quota.SetDailyQuota(c.Request.Context(), userID, quota); err != nil {
		respondError(c, h.logger, err, "set_quota")
		return
	}
	summary, err := h.quota.GetLimitsSummary(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err, "set_quota")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Adjust handles POST /v1/admin/users/:userId/adjustments; the reference makes retries safe
func (h *AdminHandler) Adjust(c *gin.Context) {
	userID, err := userIDParam(c)
	if err != nil {
		respondError(c, h.logger, err, "adjust_wallet")
		return
	}
	var req dto.AdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	amount, err := entity.ParseMicro(req.Amount)
	if err != nil {
		respondError(c, h.logger, err, "adjust_wallet")
		return
	}

	result, err := h.ledger.ApplyTransaction(c.Request.Context(), usecase.ApplyRequest{
		UserID:      userID,
		AmountMicro: amount,
		Source:      entity.SourceAdjustment,
		RefID:       req.Reference,
	})
	if err != nil {
		respondError(c, h.logger, err, "adjust_wallet")
		return
	}

	h.logger.Info("Wallet adjusted", map[string]any{
		"user_id":   userID,
		"amount":    req.Amount,
		"reference": req.Reference,
		"replayed":  result.Replayed,
	})
	c.JSON(http.StatusOK, dto.NewApplyResponse(result))
}

// Reconcile handles POST /v1/admin/users/:userId/reconcile
func (h *AdminHandler) Reconcile(c *gin.Context) {
	userID, err := userIDParam(c)
	if err != nil {
		respondError(c, h.logger, err, "reconcile_wallet")
		return
	}

	result, err := h.ledger.ReconcileWallet(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err, "reconcile_wallet")
		return
	}
	c.JSON(http.StatusOK, dto.NewReconcileResponse(result))
}

// ListCycles handles GET /v1/admin/users/:userId/cycles
func (h *AdminHandler) ListCycles(c *gin.Context) {
	userID, err := userIDParam(c)
	if err != nil {
		respondError(c, h.logger, err, "list_cycles")
		return
	}

	cycles, err := h.billing.ListCycles(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err, "list_cycles")
		return
	}
	c.JSON(http.StatusOK, gin.H{"cycles": dto.NewCycleList(cycles)})
}

// ListJobs handles GET /v1/admin/jobs
func (h *AdminHandler) ListJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": h.jobs.JobNames()})
}

// RunJob handles POST /v1/admin/jobs/:job/run
func (h *AdminHandler) RunJob(c *gin.Context) {
	name := c.Param("job")
	if err := h.jobs.RunJob(c.Request.Context(), name); err != nil {
		respondError(c, h.logger, err, "run_job")
		return
	}
	c.JSON(http.StatusOK, dto.JobRunResponse{Job: name, Status: "completed"})
}

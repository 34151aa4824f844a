package handler

import (
	"net/http"

	coreport "github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/api/dto"
	"github.com/gin-gonic/gin"
)

// ReferralHandler serves referral codes and redemptions
type ReferralHandler struct {
	referralUseCase usecase.ReferralUseCase
	logger          coreport.Logger
}

// NewReferralHandler creates a referral handler
func NewReferralHandler(referralUseCase usecase.ReferralUseCase, logger coreport.Logger) *ReferralHandler {
	return &ReferralHandler{referralUseCase: referralUseCase, logger: logger}
}

// GenerateCode handles POST /v1/users/:userId/referral-code
func (h *ReferralHandler) GenerateCode(c *gin.Context) {
	userID, err := userIDParam(c)
	if err != nil {
		respondError(c, h.logger, err, "generate_referral_code")
		return
	}

	code, err := h.referralUseCase.GenerateCode(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err, "generate_referral_code")
		return
	}
	c.JSON(http.StatusOK, dto.ReferralCodeResponse{UserID: userID, Code: code})
}

// Redeem handles POST /v1/users/:userId/referral-redemptions
func (h *ReferralHandler) Redeem(c *gin.Context) {
	userID, err := userIDParam(c)
	if err != nil {
		respondError(c, h.logger, err, "redeem_referral")
		return
	}
	var req dto.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.referralUseCase.Redeem(c.Request.Context(), userID, req.Code)
	if err != nil {
		respondError(c, h.logger, err, "redeem_referral")
		return
	}
	c.JSON(http.StatusCreated, dto.NewRedeemResponse(result))
}

package handler

import (
	"net/http"
	"strconv"

	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/api/dto"
	"github.com/gin-gonic/gin"
)

const (
	defaultTransactionPage = 50
	maxTransactionPage     = 500
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userUseCase   usecase.UserUseCase
	ledgerUseCase usecase.LedgerUseCase
	quotaUseCase  usecase.QuotaUseCase
	logger        coreport.Logger
}

// NewUserHandler creates a new user handler instance
func NewUserHandler(
	userUseCase usecase.UserUseCase,
	ledgerUseCase usecase.LedgerUseCase,
	quotaUseCase usecase.QuotaUseCase,
	logger coreport.Logger,
) *UserHandler {
	return &UserHandler{
		userUseCase:   userUseCase,
		ledgerUseCase: ledgerUseCase,
		quotaUseCase:  quotaUseCase,
		logger:        logger,
	}
}

// EnsureUser handles POST /v1/users
func (h *UserHandler) EnsureUser(c *gin.Context) {
	var req dto.EnsureUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, created, err := h.userUseCase.EnsureUser(c.Request.Context(), req.ExternalAuthID, req.Email)
	if err != nil {
		respondError(c, h.logger, err, "ensure_user")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, dto.NewUserResponse(user, created))
}

// GetWallet handles GET /v1/users/:userId/wallet
func (h *UserHandler) GetWallet(c *gin.Context) {
	userID, err := userIDParam(c)
	if err != nil {
		respondError(c, h.logger, err, "get_wallet")
		return
	}

	summary, err := h.ledgerUseCase.GetWalletSummary(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err, "get_wallet")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ListTransactions handles GET /v1/users/:userId/transactions?limit=&before=
func (h *UserHandler) ListTransactions(c *gin.Context) {
	userID, err := userIDParam(c)
	if err != nil {
		respondError(c, h.logger, err, "list_transactions")
		return
	}

	limit, err := queryInt(c, "limit", defaultTransactionPage)
	if err != nil {
		respondError(c, h.logger, err, "list_transactions")
		return
	}
	if limit == 0 {
		limit = defaultTransactionPage
	}
	limit = min(limit, maxTransactionPage)

	var before uint64
	if raw := c.Query("before"); raw != "" {
		before, err = strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, h.logger, errs.NewValidationError(errs.ErrValidation, "before", "must be a transaction ID"), "list_transactions")
			return
		}
	}

	txs, err := h.ledgerUseCase.ListTransactions(c.Request.Context(), userID, limit, before)
	if err != nil {
		respondError(c, h.logger, err, "list_transactions")
		return
	}
	c.JSON(http.StatusOK, dto.NewTransactionListResponse(txs, limit))
}

// GetLimits handles GET /v1/users/:userId/limits
func (h *UserHandler) GetLimits(c *gin.Context) {
	userID, err := userIDParam(c)
	if err != nil {
		respondError(c, h.logger, err, "get_limits")
		return
	}

	summary, err := h.quotaUseCase.GetLimitsSummary(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err, "get_limits")
		return
	}
	c.JSON(http.StatusOK, summary)
}

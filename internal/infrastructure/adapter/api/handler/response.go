package handler

import (
	"errors"
	"net/http"
	"strconv"

	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/api/dto"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/api/middleware"
	"github.com/gin-gonic/gin"
)

// StatusCode maps a domain error to its HTTP status
func StatusCode(err error) int {
	switch {
	case errors.Is(err, errs.ErrInvalidSignature), errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrIdempotencyKeyReuse):
		return http.StatusConflict
	case errs.IsValidationError(err),
		errors.Is(err, errs.ErrInvalidAmount),
		errors.Is(err, errs.ErrInvalidUserID),
		errors.Is(err, errs.ErrAmountOverflow),
		errors.Is(err, errs.ErrInvalidSource),
		errors.Is(err, errs.ErrInvalidUsageReport),
		errors.Is(err, errs.ErrInvalidReferralCode),
		errors.Is(err, errs.ErrInvalidRate):
		return http.StatusBadRequest
	case errs.IsInsufficientFundsError(err):
		return http.StatusPaymentRequired
	case errors.Is(err, errs.ErrSelfReferral):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrReferralCodeNotFound), errs.IsNotFoundError(err):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrRateNotFound):
		return http.StatusUnprocessableEntity
	case errs.IsConcurrencyConflict(err),
		errors.Is(err, errs.ErrReferralAlreadyRedeemed),
		errors.Is(err, errs.ErrDuplicateRecord),
		errors.Is(err, errs.ErrDuplicateTransaction):
		return http.StatusConflict
	case errors.Is(err, errs.ErrUnrecognizedWebhookEvent):
		return http.StatusAccepted
	case errors.Is(err, errs.ErrDatabaseConnection):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error envelope. Server errors are logged and their detail hidden.
func respondError(c *gin.Context, logger coreport.Logger, err error, operation string) {
	status := StatusCode(err)
	message := err.Error()

	fields := map[string]any{
		"operation":  operation,
		"error":      err.Error(),
		"status":     status,
		"request_id": middleware.RequestIDFrom(c),
	}
	var withFields interface{ LogFields() map[string]any }
	if errors.As(err, &withFields) {
		for k, v := range withFields.LogFields() {
			fields[k] = v
		}
	}

	if status >= http.StatusInternalServerError {
		message = "Internal server error"
		logger.Error("Request failed", fields)
	} else {
		logger.Debug("Request rejected", fields)
	}

	_ = c.Error(err)
	c.JSON(status, dto.ErrorResponse{
		Code:      errs.ErrorCode(err),
		Message:   message,
		RequestID: middleware.RequestIDFrom(c),
	})
}

// respondBindError reports a malformed request body
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Code:      errs.ErrorCode(errs.ErrValidation),
		Message:   "Invalid request format: " + err.Error(),
		RequestID: middleware.RequestIDFrom(c),
	})
}

// userIDParam parses the :userId path parameter
func userIDParam(c *gin.Context) (uint64, error) {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil || userID == 0 {
		return 0, errs.NewValidationError(errs.ErrInvalidUserID, "userId", "must be a positive integer")
	}
	return userID, nil
}

// queryInt reads a non-negative integer query parameter
func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errs.NewValidationError(errs.ErrValidation, name, "must be a non-negative integer")
	}
	return v, nil
}

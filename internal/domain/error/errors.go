package error

import (
	"errors"
	"fmt"
)

// Error codes for standardized API responses
const (
	// 2xxx - Acknowledged outcomes that are not failures
	CodeUnrecognizedWebhookEvent = 2020
	CodeDuplicateEvent           = 2080

	// 4xxx - Client errors
	CodeValidation              = 4000
	CodeInvalidAmount           = 4001
	CodeInvalidUserID           = 4002
	CodeAmountOverflow          = 4003
	CodeInvalidSource           = 4004
	CodeInvalidUsageReport      = 4005
	CodeInvalidReferralCode     = 4006
	CodeInvalidRate             = 4007
	CodeIdempotencyKeyReuse     = 4008
	CodeInvalidSignature        = 4010
	CodeUnauthorized            = 4011
	CodeInsufficientFunds       = 4020
	CodeSelfReferral            = 4030
	CodeNotFound                = 4040
	CodeReferralCodeNotFound    = 4041
	CodeConcurrencyConflict     = 4090
	CodeReferralAlreadyRedeemed = 4091
	CodeRateNotFound            = 4220

	// 5xxx - Server errors
	CodeInternalServer     = 5000
	CodeSettlementFailure  = 5020
	CodeDatabaseConnection = 5030
)

// Base error types
var (
	// ErrValidation is the parent of every malformed-input error; it is rejected before any side effect
	ErrValidation = errors.New("validation failed")

	// ErrInvalidAmount is returned when a monetary amount is zero, malformed or out of range
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidUserID is returned when the user ID is not a positive integer
	ErrInvalidUserID = errors.New("user ID must be positive")

	// ErrAmountOverflow is returned when an amount or balance would overflow int64 micro-units
	ErrAmountOverflow = errors.New("amount is too large and would cause overflow")

	// ErrInvalidSource is returned when a transaction source is not one of the allowed values
	ErrInvalidSource = errors.New("invalid transaction source")

	// ErrInvalidUsageReport is returned when a usage report is missing fields or carries negative token counts
	ErrInvalidUsageReport = errors.New("invalid usage report")

	// ErrInvalidReferralCode is returned when a referral code is syntactically invalid
	ErrInvalidReferralCode = errors.New("invalid referral code")

	// ErrInvalidRate is returned when a model rate is malformed
	ErrInvalidRate = errors.New("invalid model rate")

	// ErrIdempotencyKeyReuse is returned when an idempotency key is replayed with a different payload
	ErrIdempotencyKeyReuse = errors.New("idempotency key reused with a different payload")

	// ErrRateNotFound is returned when no rate version covers the requested model and time
	ErrRateNotFound = errors.New("rate not found")

	// ErrInsufficientFunds is returned when no funding source can cover a charge
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrDuplicateEvent marks an idempotent replay; callers treat it as success
	ErrDuplicateEvent = errors.New("duplicate event")

	// ErrConcurrencyConflict is returned when an optimistic update lost a race
	ErrConcurrencyConflict = errors.New("concurrent modification detected")

	// ErrSettlementFailure is returned when a postpaid cycle cannot be settled
	ErrSettlementFailure = errors.New("settlement failed")

	// ErrUnrecognizedWebhookEvent is returned for webhook event types the processor does not handle
	ErrUnrecognizedWebhookEvent = errors.New("unrecognized webhook event")

	// ErrInvalidSignature is returned when a webhook signature cannot be verified
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrUnauthorized is returned when a caller presents no valid service or admin token
	ErrUnauthorized = errors.New("unauthorized")

	// ErrReferralCodeNotFound is returned when a referral code does not exist
	ErrReferralCodeNotFound = errors.New("referral code not found")

	// ErrSelfReferral is returned when a user tries to redeem their own code
	ErrSelfReferral = errors.New("cannot redeem own referral code")

	// ErrReferralAlreadyRedeemed is returned when a user has already redeemed a code
	ErrReferralAlreadyRedeemed = errors.New("referral already redeemed")

	// ErrDuplicateTransaction is returned by storage when (source, refId) already exists
	ErrDuplicateTransaction = errors.New("transaction with this reference already exists")

	// ErrDuplicateRecord is returned by storage when a unique key other than a transaction reference is violated
	ErrDuplicateRecord = errors.New("record already exists")

	// ErrUserNotFound is returned when the requested user doesn't exist
	ErrUserNotFound = errors.New("user not found")

	// ErrWalletNotFound is returned when a user has no wallet
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrCycleNotFound is returned when a postpaid cycle doesn't exist
	ErrCycleNotFound = errors.New("postpaid cycle not found")

	// ErrNotFound is returned when a generic resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrDatabaseConnection is returned when there's a problem talking to the database
	ErrDatabaseConnection = errors.New("database connection error")

	// ErrInternalServer is returned for unexpected server-side errors
	ErrInternalServer = errors.New("internal server error")
)

// ErrorCode returns standardized error codes for known errors
func ErrorCode(err error) int {
	switch {
	case errors.Is(err, ErrInvalidAmount):
		return CodeInvalidAmount
	case errors.Is(err, ErrInvalidUserID):
		return CodeInvalidUserID
	case errors.Is(err, ErrAmountOverflow):
		return CodeAmountOverflow
	case errors.Is(err, ErrInvalidSource):
		return CodeInvalidSource
	case errors.Is(err, ErrInvalidUsageReport):
		return CodeInvalidUsageReport
	case errors.Is(err, ErrInvalidReferralCode):
		return CodeInvalidReferralCode
	case errors.Is(err, ErrInvalidRate):
		return CodeInvalidRate
	case errors.Is(err, ErrIdempotencyKeyReuse):
		return CodeIdempotencyKeyReuse
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrInvalidSignature):
		return CodeInvalidSignature
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrInsufficientFunds):
		return CodeInsufficientFunds
	case errors.Is(err, ErrSelfReferral):
		return CodeSelfReferral
	case errors.Is(err, ErrReferralCodeNotFound):
		return CodeReferralCodeNotFound
	case errors.Is(err, ErrReferralAlreadyRedeemed):
		return CodeReferralAlreadyRedeemed
	case IsNotFoundError(err):
		return CodeNotFound
	case errors.Is(err, ErrConcurrencyConflict):
		return CodeConcurrencyConflict
	case errors.Is(err, ErrRateNotFound):
		return CodeRateNotFound
	case errors.Is(err, ErrDuplicateEvent):
		return CodeDuplicateEvent
	case errors.Is(err, ErrUnrecognizedWebhookEvent):
		return CodeUnrecognizedWebhookEvent
	case errors.Is(err, ErrSettlementFailure):
		return CodeSettlementFailure
	case errors.Is(err, ErrDatabaseConnection):
		return CodeDatabaseConnection
	default:
		return CodeInternalServer
	}
}

// ValidationError describes malformed input
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

// Error implements the error interface for ValidationError
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s", e.Err, e.Reason)
	}
	return fmt.Sprintf("%v: %s %s", e.Err, e.Field, e.Reason)
}

// Unwrap returns the underlying error
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is reports every ValidationError as ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// LogFields returns a map of fields for structured logging
func (e *ValidationError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "validation_error",
		"field":      e.Field,
		"reason":     e.Reason,
		"error":      e.Err.Error(),
		"error_code": ErrorCode(e),
	}
}

// NewValidationError creates a validation error wrapping one of the specific sentinels
func NewValidationError(err error, field, reason string) error {
	if err == nil {
		err = ErrValidation
	}
	return &ValidationError{
		Field:  field,
		Reason: reason,
		Err:    err,
	}
}

// InsufficientFundsError provides detailed error information when a charge cannot be funded
type InsufficientFundsError struct {
	UserID         uint64
	RequiredMicro  int64
	AvailableMicro int64
}

// Error implements the error interface
func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds for user %d: required %d micro, available %d micro",
		e.UserID, e.RequiredMicro, e.AvailableMicro)
}

// Is checks if the target error is an ErrInsufficientFunds
func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// LogFields returns a map of fields for structured logging
func (e *InsufficientFundsError) LogFields() map[string]any {
	return map[string]any{
		"error_type":      "insufficient_funds",
		"user_id":         e.UserID,
		"required_micro":  e.RequiredMicro,
		"available_micro": e.AvailableMicro,
		"error_code":      CodeInsufficientFunds,
	}
}

// NewInsufficientFundsError creates a new detailed insufficient funds error
func NewInsufficientFundsError(userID uint64, required, available int64) error {
	return &InsufficientFundsError{
		UserID:         userID,
		RequiredMicro:  required,
		AvailableMicro: available,
	}
}

// SettlementError describes a postpaid cycle that could not be settled
type SettlementError struct {
	CycleID      uint64
	UserID       uint64
	ChargesMicro int64
	BalanceMicro int64
	Err          error
}

// Error implements the error interface for SettlementError
func (e *SettlementError) Error() string {
	return fmt.Sprintf("settlement of cycle %d for user %d failed (charges: %d, balance: %d): %v",
		e.CycleID, e.UserID, e.ChargesMicro, e.BalanceMicro, e.Err)
}

// Unwrap returns the underlying error
func (e *SettlementError) Unwrap() error {
	return e.Err
}

// Is reports every SettlementError as ErrSettlementFailure
func (e *SettlementError) Is(target error) bool {
	return target == ErrSettlementFailure
}

// LogFields returns a map of fields for structured logging
func (e *SettlementError) LogFields() map[string]any {
	return map[string]any{
		"error_type":    "settlement_failure",
		"cycle_id":      e.CycleID,
		"user_id":       e.UserID,
		"charges_micro": e.ChargesMicro,
		"balance_micro": e.BalanceMicro,
		"error":         e.Err.Error(),
		"error_code":    CodeSettlementFailure,
	}
}

// NewSettlementError creates a detailed settlement error
func NewSettlementError(cycleID, userID uint64, charges, balance int64, err error) error {
	return &SettlementError{
		CycleID:      cycleID,
		UserID:       userID,
		ChargesMicro: charges,
		BalanceMicro: balance,
		Err:          err,
	}
}

// ConflictError describes an optimistic update that affected no rows
type ConflictError struct {
	Entity string
	Key    string
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return fmt.Sprintf("concurrent modification of %s %s", e.Entity, e.Key)
}

// Is checks if the target error is an ErrConcurrencyConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConcurrencyConflict
}

// NewConflictError creates a new concurrency conflict error for the given entity
func NewConflictError(entity string, key any) error {
	return &ConflictError{
		Entity: entity,
		Key:    fmt.Sprint(key),
	}
}

// IsValidationError checks if the error is any kind of validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInsufficientFundsError checks if the error is related to insufficient funds
func IsInsufficientFundsError(err error) bool {
	return errors.Is(err, ErrInsufficientFunds)
}

// IsConcurrencyConflict checks if the error is a lost optimistic race
func IsConcurrencyConflict(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

// IsNotFoundError checks if the error is any "not found" type of error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrWalletNotFound) ||
		errors.Is(err, ErrCycleNotFound)
}

// IsReferralRuleViolation checks if the error is one of the referral business rules
func IsReferralRuleViolation(err error) bool {
	return errors.Is(err, ErrReferralCodeNotFound) ||
		errors.Is(err, ErrSelfReferral) ||
		errors.Is(err, ErrReferralAlreadyRedeemed)
}

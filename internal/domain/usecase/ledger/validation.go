package ledger

import (
	"fmt"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/usecase"
)

// maxRefIDLength bounds idempotency keys to the indexed column width
const maxRefIDLength = 128

// Validator checks ledger requests before any side effect
type Validator struct{}

// NewValidator creates a new Validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateApply validates all fields of an apply request
func (v *Validator) ValidateApply(req usecase.ApplyRequest) error {
	if err := v.ValidateUserID(req.UserID); err != nil {
		return err
	}
	if req.AmountMicro == 0 {
		return errs.NewValidationError(errs.ErrInvalidAmount, "amountMicro", "must not be zero")
	}
	if !req.Source.IsValid() {
		return errs.NewValidationError(errs.ErrInvalidSource, "source", fmt.Sprintf("%q is not a known source", req.Source))
	}
	if len(req.RefID) > maxRefIDLength {
		return errs.NewValidationError(errs.ErrValidation, "refId", fmt.Sprintf("exceeds %d characters", maxRefIDLength))
	}
	return nil
}

// ValidateUserID rejects the zero user ID
func (v *Validator) ValidateUserID(userID uint64) error {
	if userID == 0 {
		return errs.NewValidationError(errs.ErrInvalidUserID, "userId", "must be positive")
	}
	return nil
}

// sameMovement reports whether a stored transaction was produced by the same request
func sameMovement(stored *entity.CreditTransaction, req usecase.ApplyRequest) bool {
	return stored.UserID == req.UserID && stored.AmountMicro == req.AmountMicro
}

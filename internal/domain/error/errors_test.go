package error

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCode(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected int
	}{
		{"InvalidAmount", ErrInvalidAmount, CodeInvalidAmount},
		{"InvalidUserID", ErrInvalidUserID, CodeInvalidUserID},
		{"ValidationWrapsSpecific", NewValidationError(ErrInvalidSource, "source", "is unknown"), CodeInvalidSource},
		{"BareValidation", NewValidationError(nil, "body", "is empty"), CodeValidation},
		{"InsufficientFunds", NewInsufficientFundsError(7, 10, 5), CodeInsufficientFunds},
		{"RateNotFound", fmt.Errorf("pricing gpt-x: %w", ErrRateNotFound), CodeRateNotFound},
		{"Conflict", NewConflictError("wallet", 12), CodeConcurrencyConflict},
		{"UserNotFound", ErrUserNotFound, CodeNotFound},
		{"WalletNotFound", ErrWalletNotFound, CodeNotFound},
		{"SelfReferral", ErrSelfReferral, CodeSelfReferral},
		{"AlreadyRedeemed", ErrReferralAlreadyRedeemed, CodeReferralAlreadyRedeemed},
		{"Settlement", NewSettlementError(1, 2, 10, 3, ErrInsufficientFunds), CodeInsufficientFunds},
		{"UnknownError", errors.New("unknown error"), CodeInternalServer},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			code := ErrorCode(tc.err)
			if code != tc.expected {
				t.Errorf("ErrorCode(%v) = %d, want %d", tc.err, code, tc.expected)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError(ErrInvalidAmount, "amountMicro", "must not be zero")

	if !errors.Is(err, ErrValidation) {
		t.Error("validation error should match ErrValidation")
	}
	if !errors.Is(err, ErrInvalidAmount) {
		t.Error("validation error should unwrap to the specific sentinel")
	}
	if !IsValidationError(fmt.Errorf("wrapped: %w", err)) {
		t.Error("IsValidationError should see through wrapping")
	}

	expected := "invalid amount: amountMicro must not be zero"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatal("expected *ValidationError")
	}
	fields := vErr.LogFields()
	if fields["field"] != "amountMicro" || fields["error_code"] != CodeInvalidAmount {
		t.Errorf("unexpected log fields: %v", fields)
	}
}

func TestInsufficientFundsError(t *testing.T) {
	err := NewInsufficientFundsError(42, 2_000_000, 500_000)

	if !IsInsufficientFundsError(err) {
		t.Error("expected insufficient funds")
	}
	expected := "insufficient funds for user 42: required 2000000 micro, available 500000 micro"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestSettlementError(t *testing.T) {
	err := NewSettlementError(9, 42, 10_000_000, 3_000_000, NewInsufficientFundsError(42, 10_000_000, 3_000_000))

	if !errors.Is(err, ErrSettlementFailure) {
		t.Error("settlement error should match ErrSettlementFailure")
	}
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Error("settlement error should unwrap to its cause")
	}

	var sErr *SettlementError
	if !errors.As(err, &sErr) {
		t.Fatal("expected *SettlementError")
	}
	if sErr.LogFields()["cycle_id"] != uint64(9) {
		t.Errorf("unexpected cycle id in log fields: %v", sErr.LogFields())
	}
}

func TestConflictError(t *testing.T) {
	err := fmt.Errorf("apply: %w", NewConflictError("wallet", uint64(5)))

	if !IsConcurrencyConflict(err) {
		t.Error("expected concurrency conflict")
	}
	if IsNotFoundError(err) {
		t.Error("conflict is not a not-found error")
	}
}

func TestIsReferralRuleViolation(t *testing.T) {
	for _, err := range []error{ErrReferralCodeNotFound, ErrSelfReferral, ErrReferralAlreadyRedeemed} {
		if !IsReferralRuleViolation(fmt.Errorf("redeem: %w", err)) {
			t.Errorf("%v should be a referral rule violation", err)
		}
	}
	if IsReferralRuleViolation(ErrInsufficientFunds) {
		t.Error("insufficient funds is not a referral rule violation")
	}
}

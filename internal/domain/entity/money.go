package entity

import (
	"fmt"
	"math"
	"math/bits"
	"strings"

	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
	"github.com/shopspring/decimal"
)

// MicrosPerUnit is the number of micro-units in one currency unit
const MicrosPerUnit int64 = 1_000_000

// MicroDecimalPlaces is the number of decimal places a micro-unit amount carries
const MicroDecimalPlaces = 6

// ParseMicro converts a decimal amount string in currency units ("12.50") to micro-units.
// Amounts with more than six decimal places or outside the int64 micro-unit range are rejected.
func ParseMicro(amount string) (int64, error) {
	amount = strings.TrimSpace(amount)
	if len(amount) == 0 {
		return 0, errs.NewValidationError(errs.ErrInvalidAmount, "amount", "is empty")
	}

	value, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, errs.NewValidationError(errs.ErrInvalidAmount, "amount", fmt.Sprintf("%q is not a decimal number", amount))
	}

	micro := value.Shift(MicroDecimalPlaces)
	if !micro.IsInteger() {
		return 0, errs.NewValidationError(errs.ErrInvalidAmount, "amount",
			fmt.Sprintf("at most %d decimal places allowed", MicroDecimalPlaces))
	}
	if micro.GreaterThan(decimal.NewFromInt(math.MaxInt64)) || micro.LessThan(decimal.NewFromInt(math.MinInt64)) {
		return 0, errs.NewValidationError(errs.ErrAmountOverflow, "amount", "is out of range")
	}

	return micro.IntPart(), nil
}

// FormatMicro renders micro-units as a decimal string with six decimal places.
// For example 12_500_000 becomes "12.500000".
func FormatMicro(micro int64) string {
	return decimal.New(micro, -MicroDecimalPlaces).StringFixed(MicroDecimalPlaces)
}

// AddMicro adds two micro-unit amounts and reports int64 overflow instead of wrapping
func AddMicro(a, b int64) (int64, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, errs.NewValidationError(errs.ErrAmountOverflow, "amountMicro",
			fmt.Sprintf("%d + %d overflows", a, b))
	}
	return sum, nil
}

// MulDivCeil returns ceil(a*b/d) using a 128-bit intermediate product.
// Operands must be non-negative and d positive.
func MulDivCeil(a, b, d int64) (int64, error) {
	if a < 0 || b < 0 || d <= 0 {
		return 0, errs.NewValidationError(errs.ErrInvalidAmount, "amountMicro",
			fmt.Sprintf("cannot scale %d * %d / %d", a, b, d))
	}
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi >= uint64(d) {
		return 0, errs.NewValidationError(errs.ErrAmountOverflow, "amountMicro",
			fmt.Sprintf("%d * %d / %d overflows", a, b, d))
	}
	q, r := bits.Div64(hi, lo, uint64(d))
	if r != 0 {
		q++
	}
	if q > math.MaxInt64 {
		return 0, errs.NewValidationError(errs.ErrAmountOverflow, "amountMicro",
			fmt.Sprintf("%d * %d / %d overflows", a, b, d))
	}
	return int64(q), nil
}

package referral

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
)

const (
	// CodeLength is the length of generated codes
	CodeLength = 8

	minCodeLength = 4
	maxCodeLength = 16
)

// newCode takes the tail of a ULID's random component, which is Crockford base32
func newCode(now time.Time, entropy io.Reader) (string, error) {
	id, err := ulid.New(ulid.Timestamp(now), entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate referral code: %w", err)
	}
	s := id.String()
	return s[len(s)-CodeLength:], nil
}

// normalizeCode upper-cases a submitted code and checks its alphabet
func normalizeCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) < minCodeLength || len(code) > maxCodeLength {
		return "", errs.NewValidationError(errs.ErrInvalidReferralCode, "code",
			fmt.Sprintf("must be %d to %d characters", minCodeLength, maxCodeLength))
	}
	for _, r := range code {
		if (r < '0' || r > '9') && (r < 'A' || r > 'Z') {
			return "", errs.NewValidationError(errs.ErrInvalidReferralCode, "code", "must be alphanumeric")
		}
	}
	return code, nil
}

package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/provider"
)

// HMACVerifier checks hex HMAC-SHA256 signatures over "<timestamp>.<body>".
// The timestamp is in Unix seconds and must lie within the tolerance of now.
type HMACVerifier struct {
	secret       []byte
	tolerance    time.Duration
	timeProvider coreport.TimeProvider
}

var _ provider.SignatureVerifier = (*HMACVerifier)(nil)

// NewHMACVerifier creates a verifier; a zero tolerance disables the timestamp window
func NewHMACVerifier(secret string, tolerance time.Duration, timeProvider coreport.TimeProvider) *HMACVerifier {
	return &HMACVerifier{
		secret:       []byte(secret),
		tolerance:    tolerance,
		timeProvider: timeProvider,
	}
}

// Verify authenticates a webhook body
func (v *HMACVerifier) Verify(timestamp, signature string, body []byte) error {
	if len(v.secret) == 0 {
		return fmt.Errorf("%w: no webhook secret configured", errs.ErrInvalidSignature)
	}

	timestamp = strings.TrimSpace(timestamp)
	seconds, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: malformed timestamp", errs.ErrInvalidSignature)
	}
	if v.tolerance > 0 {
		skew := v.timeProvider.Now().Sub(time.Unix(seconds, 0))
		if skew < -v.tolerance || skew > v.tolerance {
			return fmt.Errorf("%w: timestamp outside tolerance", errs.ErrInvalidSignature)
		}
	}

	given, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return fmt.Errorf("%w: signature is not hex", errs.ErrInvalidSignature)
	}
	if !hmac.Equal(given, v.sign(timestamp, body)) {
		return fmt.Errorf("%w: signature mismatch", errs.ErrInvalidSignature)
	}
	return nil
}

// Sign returns the hex signature for a body, as a provider would send it
func (v *HMACVerifier) Sign(timestamp string, body []byte) string {
	return hex.EncodeToString(v.sign(timestamp, body))
}

func (v *HMACVerifier) sign(timestamp string, body []byte) []byte {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return mac.Sum(nil)
}

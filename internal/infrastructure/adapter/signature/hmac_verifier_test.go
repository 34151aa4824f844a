package signature

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
	timeprovider "github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/time"
)

func TestHMACVerifier_Verify(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := timeprovider.NewFakeTimeProvider(now)
	v := NewHMACVerifier("whsec_test", 5*time.Minute, clock)
	body := []byte(`{"type":"payment.succeeded","externalEventId":"evt_1"}`)
	ts := strconv.FormatInt(now.Unix(), 10)

	t.Run("valid signature", func(t *testing.T) {
		assert.NoError(t, v.Verify(ts, v.Sign(ts, body), body))
	})

	t.Run("tampered body", func(t *testing.T) {
		err := v.Verify(ts, v.Sign(ts, body), []byte(`{"type":"payment.succeeded","externalEventId":"evt_2"}`))
		assert.ErrorIs(t, err, errs.ErrInvalidSignature)
	})

	t.Run("other secret", func(t *testing.T) {
		other := NewHMACVerifier("whsec_other", 5*time.Minute, clock)
		assert.ErrorIs(t, v.Verify(ts, other.Sign(ts, body), body), errs.ErrInvalidSignature)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		old := strconv.FormatInt(now.Add(-10*time.Minute).Unix(), 10)
		assert.ErrorIs(t, v.Verify(old, v.Sign(old, body), body), errs.ErrInvalidSignature)
	})

	t.Run("malformed headers", func(t *testing.T) {
		assert.ErrorIs(t, v.Verify("yesterday", v.Sign(ts, body), body), errs.ErrInvalidSignature)
		assert.ErrorIs(t, v.Verify(ts, "not-hex", body), errs.ErrInvalidSignature)
		assert.ErrorIs(t, v.Verify(ts, "", body), errs.ErrInvalidSignature)
	})

	t.Run("missing secret rejects everything", func(t *testing.T) {
		empty := NewHMACVerifier("", 0, clock)
		assert.ErrorIs(t, empty.Verify(ts, empty.Sign(ts, body), body), errs.ErrInvalidSignature)
	})
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: 9090
database:
  driver: sqlite
  sqlitePath: /tmp/ledger.db
billing:
  markupBps: 2500
  cyclePeriod: 720
quota:
  defaultDailyMicro: 500000
referral:
  welcomeMicro: 1000000
scheduler:
  tickInterval: 30
  jobs:
    close_cycles:
      interval: 60
      timeout: 30
rates:
  - modelId: gpt-4o
    provider: openai
    inputPerMillionMicro: 2500000
    outputPerMillionMicro: 10000000
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t), Test)
	require.NoError(t, err)

	assert.Equal(t, Test, cfg.Environment)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 20*time.Millisecond, cfg.Database.TxRetryInterval)
	assert.Equal(t, int64(2500), cfg.Billing.MarkupBps)
	assert.Equal(t, 30*24*time.Hour, cfg.Billing.CyclePeriod)
	assert.Equal(t, int64(500_000), cfg.Quota.DefaultDailyMicro)
	assert.Equal(t, int64(1_000_000), cfg.Referral.WelcomeMicro)
	assert.Equal(t, 5*time.Minute, cfg.Webhook.Tolerance)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.TickInterval)

	require.Contains(t, cfg.Scheduler.Jobs, JobCloseCycles)
	assert.Equal(t, time.Hour, cfg.Scheduler.Jobs[JobCloseCycles].Interval)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.Jobs[JobCloseCycles].Timeout)
	require.Contains(t, cfg.Scheduler.Jobs, JobReprocessWebhooks)
	assert.Equal(t, time.Hour, cfg.Scheduler.Jobs[JobReprocessWebhooks].Interval)

	require.Len(t, cfg.Rates, 1)
	assert.Equal(t, "gpt-4o", cfg.Rates[0].ModelID)
	assert.Equal(t, int64(10_000_000), cfg.Rates[0].OutputPerMillionMicro)
}

func TestLoadFromFile_EnvOverrides(t *testing.T) {
	t.Setenv("UL_WEBHOOK_SECRET", "whsec")
	t.Setenv("UL_ADMIN_TOKEN", "admin")
	t.Setenv("UL_DB_TX_MAX_RETRIES", "9")
	t.Setenv("UL_BILLING_MARKUP_BPS", "0")

	cfg, err := LoadFromFile(writeConfig(t), Test)
	require.NoError(t, err)

	assert.Equal(t, "whsec", cfg.Webhook.Secret)
	assert.Equal(t, "admin", cfg.Auth.AdminToken)
	assert.Equal(t, 9, cfg.Database.TxMaxRetries)
	assert.Equal(t, int64(0), cfg.Billing.MarkupBps)
}

func TestGetEnvironment(t *testing.T) {
	t.Setenv("UL_ENV", "")
	assert.Equal(t, Development, getEnvironment())

	t.Setenv("UL_ENV", "PRODUCTION")
	assert.Equal(t, Production, getEnvironment())
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"), Test)
	assert.Error(t, err)
}

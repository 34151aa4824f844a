package metrics

import (
	"time"

	coreport "github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
)

// NoopMetrics discards every signal
type NoopMetrics struct{}

var _ coreport.Metrics = NoopMetrics{}

// NewNoopMetrics creates a metrics sink that records nothing
func NewNoopMetrics() NoopMetrics { return NoopMetrics{} }

func (NoopMetrics) IncLedgerTransaction(string)              {}
func (NoopMetrics) IncUsageEvent(string)                     {}
func (NoopMetrics) IncSettlement(string)                     {}
func (NoopMetrics) IncWebhookEvent(string)                   {}
func (NoopMetrics) IncTransactionRetry(string)               {}
func (NoopMetrics) IncJobRun(string)                         {}
func (NoopMetrics) IncJobError(string)                       {}
func (NoopMetrics) ObserveJobDuration(string, time.Duration) {}

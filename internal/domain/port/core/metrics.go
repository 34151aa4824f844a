package core

import "time"

// Metrics records business and scheduler signals
type Metrics interface {
	// IncLedgerTransaction counts appended ledger entries by source
	IncLedgerTransaction(source string)
	// IncUsageEvent counts recorded usage events by funding status
	IncUsageEvent(status string)
	// IncSettlement counts postpaid settlement outcomes (settled, past_due, failed)
	IncSettlement(outcome string)
	// IncWebhookEvent counts webhook outcomes (processed, ignored, failed, duplicate, rejected)
	IncWebhookEvent(outcome string)
	// IncTransactionRetry counts unit-of-work retries by operation
	IncTransactionRetry(operation string)
	// IncJobRun counts scheduler job executions
	IncJobRun(job string)
	// IncJobError counts failed scheduler job executions
	IncJobError(job string)
	// ObserveJobDuration records how long a scheduler job ran
	ObserveJobDuration(job string, d time.Duration)
}

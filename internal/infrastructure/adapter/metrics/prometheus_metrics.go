package metrics

import (
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	coreport "github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
)

// PrometheusMetrics exports ledger, billing and scheduler signals
type PrometheusMetrics struct {
	ledgerTransactions *prometheus.CounterVec
	usageEvents        *prometheus.CounterVec
	settlements        *prometheus.CounterVec
	webhookEvents      *prometheus.CounterVec
	txRetries          *prometheus.CounterVec
	jobRuns            *prometheus.CounterVec
	jobErrors          *prometheus.CounterVec
	jobDuration        *prometheus.HistogramVec
	poolOpen           prometheus.Gauge
	poolInUse          prometheus.Gauge
	poolIdle           prometheus.Gauge
	poolWaitCount      prometheus.Gauge
}

var _ coreport.Metrics = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics registers the collectors on registerer, the default registerer when nil
func NewPrometheusMetrics(registerer prometheus.Registerer, environment string) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": "usage-ledger",
		"env":     environment,
	}

	m := &PrometheusMetrics{
		ledgerTransactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "usage_ledger_transactions_total",
			Help:        "Ledger entries appended by source.",
			ConstLabels: constLabels,
		}, []string{"source"}),
		usageEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "usage_ledger_usage_events_total",
			Help:        "Usage events recorded by funding status.",
			ConstLabels: constLabels,
		}, []string{"status"}),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "usage_ledger_settlements_total",
			Help:        "Postpaid cycle settlement outcomes.",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "usage_ledger_webhook_events_total",
			Help:        "Payment webhook outcomes.",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		txRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "usage_ledger_transaction_retries_total",
			Help:        "Unit of work re-runs after conflicts or serialization failures.",
			ConstLabels: constLabels,
		}, []string{"operation"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "usage_ledger_scheduler_job_runs_total",
			Help:        "Scheduler job runs by name.",
			ConstLabels: constLabels,
		}, []string{"job"}),
		jobErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "usage_ledger_scheduler_job_errors_total",
			Help:        "Scheduler job failures by name.",
			ConstLabels: constLabels,
		}, []string{"job"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "usage_ledger_scheduler_job_duration_seconds",
			Help:        "Scheduler job latency.",
			Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			ConstLabels: constLabels,
		}, []string{"job"}),
		poolOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "usage_ledger_db_open_connections",
			Help:        "Open database connections.",
			ConstLabels: constLabels,
		}),
		poolInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "usage_ledger_db_in_use_connections",
			Help:        "Database connections currently in use.",
			ConstLabels: constLabels,
		}),
		poolIdle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "usage_ledger_db_idle_connections",
			Help:        "Idle database connections.",
			ConstLabels: constLabels,
		}),
		poolWaitCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "usage_ledger_db_wait_count",
			Help:        "Total connections waited for.",
			ConstLabels: constLabels,
		}),
	}

	registerer.MustRegister(
		m.ledgerTransactions,
		m.usageEvents,
		m.settlements,
		m.webhookEvents,
		m.txRetries,
		m.jobRuns,
		m.jobErrors,
		m.jobDuration,
		m.poolOpen,
		m.poolInUse,
		m.poolIdle,
		m.poolWaitCount,
	)

	return m
}

// IncLedgerTransaction counts appended ledger entries by source
func (m *PrometheusMetrics) IncLedgerTransaction(source string) {
	m.ledgerTransactions.WithLabelValues(source).Inc()
}

// IncUsageEvent counts recorded usage events by funding status
func (m *PrometheusMetrics) IncUsageEvent(status string) {
	m.usageEvents.WithLabelValues(status).Inc()
}

// IncSettlement counts settlement outcomes
func (m *PrometheusMetrics) IncSettlement(outcome string) {
	m.settlements.WithLabelValues(outcome).Inc()
}

// IncWebhookEvent counts webhook outcomes
func (m *PrometheusMetrics) IncWebhookEvent(outcome string) {
	m.webhookEvents.WithLabelValues(outcome).Inc()
}

// IncTransactionRetry counts unit of work retries
func (m *PrometheusMetrics) IncTransactionRetry(operation string) {
	m.txRetries.WithLabelValues(operation).Inc()
}

// IncJobRun increments the run counter for a scheduler job
func (m *PrometheusMetrics) IncJobRun(job string) {
	m.jobRuns.WithLabelValues(job).Inc()
}

// IncJobError increments the error counter for a scheduler job
func (m *PrometheusMetrics) IncJobError(job string) {
	m.jobErrors.WithLabelValues(job).Inc()
}

// ObserveJobDuration records scheduler job latency in seconds
func (m *PrometheusMetrics) ObserveJobDuration(job string, d time.Duration) {
	if d < 0 {
		d = 0
	}
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

// RecordPoolStats publishes a database/sql pool sample
func (m *PrometheusMetrics) RecordPoolStats(stats sql.DBStats) {
	m.poolOpen.Set(float64(stats.OpenConnections))
	m.poolInUse.Set(float64(stats.InUse))
	m.poolIdle.Set(float64(stats.Idle))
	m.poolWaitCount.Set(float64(stats.WaitCount))
}

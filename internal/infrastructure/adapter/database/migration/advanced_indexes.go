package migration

import (
	"context"

	coreport "github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
	"gorm.io/gorm"
)

// AdvancedIndexManager manages PostgreSQL-specific indexes and storage settings
type AdvancedIndexManager struct {
	db     *gorm.DB
	logger coreport.Logger
}

// NewAdvancedIndexManager creates a new advanced index manager
func NewAdvancedIndexManager(db *gorm.DB, logger coreport.Logger) *AdvancedIndexManager {
	return &AdvancedIndexManager{
		db:     db,
		logger: logger,
	}
}

// CreateAdvancedIndexes creates indexes only PostgreSQL supports
func (m *AdvancedIndexManager) CreateAdvancedIndexes(ctx context.Context) error {
	m.logger.Info("Creating advanced PostgreSQL indexes", nil)

	statements := map[string]string{
		// Ledger and usage rows are append-only, so created_at correlates with physical order
		"idx_credit_transactions_created_brin": `
			CREATE INDEX IF NOT EXISTS idx_credit_transactions_created_brin
			ON credit_transactions USING BRIN (created_at)
			WITH (pages_per_range = 32)`,
		"idx_usage_events_created_brin": `
			CREATE INDEX IF NOT EXISTS idx_usage_events_created_brin
			ON usage_events USING BRIN (created_at)
			WITH (pages_per_range = 32)`,
		"idx_postpaid_cycles_past_due": `
			CREATE INDEX IF NOT EXISTS idx_postpaid_cycles_past_due
			ON postpaid_cycles (last_attempt_at)
			WHERE status = 'past_due'`,
	}

	for name, stmt := range statements {
		if err := m.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			m.logger.Error("Failed to create index", map[string]any{
				"index": name,
				"error": err.Error(),
			})
			return err
		}
	}

	m.logger.Info("Advanced PostgreSQL indexes created successfully", nil)
	return nil
}

// CreatePerformanceTweaks applies storage settings; failures are logged and ignored
func (m *AdvancedIndexManager) CreatePerformanceTweaks(ctx context.Context) {
	m.logger.Info("Applying PostgreSQL performance tweaks", nil)

	// wallets, user_limits and postpaid_cycles are updated in place on every charge
	for _, table := range []string{"wallets", "user_limits", "postpaid_cycles"} {
		if err := m.db.WithContext(ctx).Exec("ALTER TABLE " + table + " SET (fillfactor = 80)").Error; err != nil {
			m.logger.Warn("Failed to set fillfactor", map[string]any{
				"table": table,
				"error": err.Error(),
			})
		}
	}
}

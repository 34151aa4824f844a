package migration

import (
	"context"
	"errors"
	"fmt"

	coreport "github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
)

const (
	// CurrentSchemaVersion represents the current database schema version
	CurrentSchemaVersion = "1.1.0"
)

// step is one schema change applied when upgrading past its version
type step struct {
	version string
	details string
	run     func(ctx context.Context, db *gorm.DB) error
}

// steps are applied in order; a database at version v runs every step after v
var steps = []step{
	{version: "1.0.0", details: "ledger, usage, billing and referral tables", run: createBaseIndexes},
	{version: "1.1.0", details: "webhook reprocessing index", run: createWebhookIndexes},
}

// MigrationManager manages database migrations
type MigrationManager struct {
	db               *gorm.DB
	logger           coreport.Logger
	timeProvider     coreport.TimeProvider
	advancedIndexMgr *AdvancedIndexManager
}

// NewMigrationManager creates a new migration manager
func NewMigrationManager(db *gorm.DB, logger coreport.Logger, timeProvider coreport.TimeProvider) *MigrationManager {
	return &MigrationManager{
		db:               db,
		logger:           logger,
		timeProvider:     timeProvider,
		advancedIndexMgr: NewAdvancedIndexManager(db, logger),
	}
}

// MigrateAll brings the schema to CurrentSchemaVersion. It is safe to run on every start.
func (m *MigrationManager) MigrateAll(ctx context.Context) error {
	m.logger.Info("Starting database migrations", map[string]any{
		"target_version": CurrentSchemaVersion,
		"dialect":        m.db.Dialector.Name(),
	})

	if err := m.db.WithContext(ctx).AutoMigrate(&model.MigrationVersion{}); err != nil {
		return fmt.Errorf("failed to create migration version table: %w", err)
	}

	currentVersion, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to check current schema version: %w", err)
	}

	if currentVersion == CurrentSchemaVersion {
		m.logger.Info("Database already at target version, skipping migration", map[string]any{
			"version": currentVersion,
		})
		return nil
	}

	if err := m.autoMigrateModels(ctx); err != nil {
		return fmt.Errorf("failed to auto-migrate models: %w", err)
	}

	for _, s := range pendingSteps(currentVersion) {
		m.logger.Info("Applying schema step", map[string]any{
			"version": s.version,
			"details": s.details,
		})
		if err := s.run(ctx, m.db.WithContext(ctx)); err != nil {
			return fmt.Errorf("schema step %s: %w", s.version, err)
		}
		if err := m.setVersion(ctx, s.version, s.details); err != nil {
			return fmt.Errorf("failed to record schema version %s: %w", s.version, err)
		}
	}

	if m.db.Dialector.Name() == "postgres" {
		if err := m.advancedIndexMgr.CreateAdvancedIndexes(ctx); err != nil {
			return fmt.Errorf("failed to create advanced indexes: %w", err)
		}
		m.advancedIndexMgr.CreatePerformanceTweaks(ctx)
	}

	m.logger.Info("Database migrations completed successfully", map[string]any{
		"version": CurrentSchemaVersion,
	})
	return nil
}

// pendingSteps returns the steps newer than current, all of them for a fresh database
func pendingSteps(current string) []step {
	if current == "" {
		return steps
	}
	for i, s := range steps {
		if s.version == current {
			return steps[i+1:]
		}
	}
	return steps
}

// GetCurrentVersion gets the current migration version
func (m *MigrationManager) GetCurrentVersion(ctx context.Context) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	var version model.MigrationVersion
	result := m.db.WithContext(ctx).Order("applied_at desc").Order("id desc").First(&version)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", result.Error
	}

	return version.Version, nil
}

func (m *MigrationManager) setVersion(ctx context.Context, version string, details string) error {
	return m.db.WithContext(ctx).Create(&model.MigrationVersion{
		Version:   version,
		AppliedAt: m.timeProvider.Now().UTC(),
		Details:   details,
	}).Error
}

func (m *MigrationManager) autoMigrateModels(ctx context.Context) error {
	return m.db.WithContext(ctx).AutoMigrate(
		&model.User{},
		&model.Wallet{},
		&model.Limits{},
		&model.CreditTransaction{},
		&model.UsageEvent{},
		&model.ModelRate{},
		&model.PostpaidCycle{},
		&model.Referral{},
		&model.ReferralRedemption{},
		&model.Grant{},
		&model.WebhookEvent{},
	)
}

// createBaseIndexes adds the partial unique indexes struct tags cannot express.
// Both PostgreSQL and SQLite accept this syntax.
func createBaseIndexes(_ context.Context, db *gorm.DB) error {
	statements := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_postpaid_cycles_one_open ON postpaid_cycles (user_id) WHERE status = 'open'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_model_rates_one_active ON model_rates (model_id) WHERE is_active`,
		`CREATE INDEX IF NOT EXISTS idx_model_rates_model_from ON model_rates (model_id, effective_from)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

func createWebhookIndexes(_ context.Context, db *gorm.DB) error {
	return db.Exec(`CREATE INDEX IF NOT EXISTS idx_webhook_events_failed ON webhook_events (received_at) WHERE status = 'failed'`).Error
}

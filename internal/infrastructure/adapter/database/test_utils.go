package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/metrics"
)

// TestDB is a migrated, private in-memory SQLite database for tests
type TestDB struct {
	Manager      *Manager
	Config       *Config
	DB           *gorm.DB
	UnitOfWork   persistence.UnitOfWork
	TimeProvider coreport.TimeProvider
}

// NewTestDB opens a fresh in-memory database, runs the migrations and closes it on cleanup.
// The pool holds a single connection, so statements inside a unit of work must use its context.
// Goroutines sharing a TestDB therefore run their units of work one after another; stale
// version updates are covered by TestRepositories_StaleVersionIsConflict instead.
func NewTestDB(t *testing.T, timeProvider coreport.TimeProvider) *TestDB {
	t.Helper()

	config := &Config{
		Driver:          DriverSQLite,
		SQLitePath:      "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: time.Hour,
		QueryTimeout:    5 * time.Second,
		LogLevel:        "silent",
		RetryAttempts:   1,
		TxMaxRetries:    8,
		TxRetryInterval: time.Millisecond,
	}

	log := logger.NewNoopLogger()
	manager := NewManager(config, log, timeProvider, metrics.NewNoopMetrics())

	db, err := manager.Connect(nil)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := manager.Close(); err != nil {
			t.Logf("Warning: Failed to close test database connection: %v", err)
		}
	})

	if err := manager.MigrationManager().MigrateAll(context.Background()); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return &TestDB{
		Manager:      manager,
		Config:       config,
		DB:           db,
		UnitOfWork:   manager.CreateUnitOfWork(),
		TimeProvider: timeProvider,
	}
}

// CreateTestUser stores a user with a wallet holding balanceMicro and an untouched daily quota.
// The wallet starts without a backing ledger entry.
func (d *TestDB) CreateTestUser(t *testing.T, id uint64, balanceMicro, dailyQuotaMicro int64) *entity.User {
	t.Helper()

	ctx := context.Background()
	now := d.TimeProvider.Now()
	user := &entity.User{
		ID:             id,
		ExternalAuthID: fmt.Sprintf("auth|%d", id),
		Email:          fmt.Sprintf("user%d@example.com", id),
		CreatedAt:      now,
	}

	err := d.UnitOfWork.WithinTransaction(ctx, "test.create_user", func(txCtx context.Context) error {
		if err := d.UnitOfWork.GetUserRepository(txCtx).Create(txCtx, user); err != nil {
			return err
		}
		if err := d.UnitOfWork.GetWalletRepository(txCtx).Create(txCtx, &entity.Wallet{
			UserID: id, BalanceMicro: balanceMicro, UpdatedAt: now,
		}); err != nil {
			return err
		}
		return d.UnitOfWork.GetLimitsRepository(txCtx).Create(txCtx, &entity.Limits{
			UserID: id, DailyQuotaMicro: dailyQuotaMicro, RollupDay: entity.EpochDay(now), UpdatedAt: now,
		})
	})
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

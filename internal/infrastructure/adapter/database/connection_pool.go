package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	coreport "github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
	"gorm.io/gorm"
)

// PoolStatsRecorder receives periodic connection pool samples
type PoolStatsRecorder interface {
	RecordPoolStats(stats sql.DBStats)
}

// ConnectionPoolMonitor samples database/sql pool statistics and pings the database
type ConnectionPoolMonitor struct {
	db       *gorm.DB
	logger   coreport.Logger
	recorder PoolStatsRecorder

	mutex    sync.RWMutex
	last     sql.DBStats
	healthy  bool
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewConnectionPoolMonitor creates a new connection pool monitor. recorder may be nil.
func NewConnectionPoolMonitor(db *gorm.DB, logger coreport.Logger, recorder PoolStatsRecorder) *ConnectionPoolMonitor {
	return &ConnectionPoolMonitor{
		db:       db,
		logger:   logger,
		recorder: recorder,
		stopChan: make(chan struct{}),
	}
}

// Start takes a first sample and keeps sampling every interval until Stop
func (m *ConnectionPoolMonitor) Start(interval time.Duration) error {
	if err := m.collect(); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := m.collect(); err != nil {
					m.logger.Error("Failed to collect connection pool metrics", map[string]any{
						"error": err.Error(),
					})
				}
			case <-m.stopChan:
				return
			}
		}
	}()

	return nil
}

// Stop stops the monitoring goroutine; it is safe to call more than once
func (m *ConnectionPoolMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

// Stats returns the last collected sample
func (m *ConnectionPoolMonitor) Stats() sql.DBStats {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.last
}

// Healthy reports whether the last ping succeeded
func (m *ConnectionPoolMonitor) Healthy() bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.healthy
}

func (m *ConnectionPoolMonitor) collect() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pingErr := sqlDB.PingContext(ctx)
	if pingErr != nil {
		m.logger.Error("Database ping failed", map[string]any{"error": pingErr.Error()})
	}

	stats := sqlDB.Stats()

	m.mutex.Lock()
	m.last = stats
	m.healthy = pingErr == nil
	m.mutex.Unlock()

	if m.recorder != nil {
		m.recorder.RecordPoolStats(stats)
	}

	threshold := float64(stats.MaxOpenConnections) * 0.8
	if stats.MaxOpenConnections > 0 && float64(stats.InUse) > threshold {
		m.logger.Warn("Database connection pool nearly exhausted", map[string]any{
			"in_use":     stats.InUse,
			"max_open":   stats.MaxOpenConnections,
			"idle":       stats.Idle,
			"wait_count": stats.WaitCount,
			"wait_time":  stats.WaitDuration.String(),
		})
	}

	return nil
}

package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	coreport "github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DatabaseLogger routes GORM output through the core logger
type DatabaseLogger struct {
	coreLogger    coreport.Logger
	logLevel      logger.LogLevel
	slowThreshold time.Duration
	timeProvider  coreport.TimeProvider
}

// NewDatabaseLogger creates a GORM logger for the configured level name
func NewDatabaseLogger(coreLogger coreport.Logger, timeProvider coreport.TimeProvider, level string) logger.Interface {
	return &DatabaseLogger{
		coreLogger:    coreLogger,
		logLevel:      parseGormLevel(level),
		slowThreshold: 200 * time.Millisecond,
		timeProvider:  timeProvider,
	}
}

func parseGormLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	default:
		return logger.Info
	}
}

// LogMode sets the log level for the logger
func (l *DatabaseLogger) LogMode(level logger.LogLevel) logger.Interface {
	newLogger := *l
	newLogger.logLevel = level
	return &newLogger
}

// WithSlowThreshold returns a new logger with updated slow threshold
func (l *DatabaseLogger) WithSlowThreshold(threshold time.Duration) logger.Interface {
	newLogger := *l
	newLogger.slowThreshold = threshold
	return &newLogger
}

// Info logs info messages
func (l *DatabaseLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Info {
		l.coreLogger.Info(fmt.Sprintf(msg, data...), map[string]any{"source": "database"})
	}
}

// Warn logs warn messages
func (l *DatabaseLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Warn {
		l.coreLogger.Warn(fmt.Sprintf(msg, data...), map[string]any{"source": "database"})
	}
}

// Error logs error messages
func (l *DatabaseLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Error {
		l.coreLogger.Error(fmt.Sprintf(msg, data...), map[string]any{"source": "database"})
	}
}

// Trace logs SQL statements.
// Not-found lookups and unique violations are expected on idempotent paths and stay at debug.
func (l *DatabaseLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.logLevel <= logger.Silent {
		return
	}

	elapsed := l.timeProvider.Since(begin).Std()
	sql, rows := fc()

	fields := map[string]any{
		"elapsed": elapsed.String(),
		"rows":    rows,
		"sql":     sql,
		"source":  "database",
	}
	if queryType := extractQueryType(sql); queryType != "" {
		fields["type"] = queryType
	}
	if tableName := extractTableName(sql); tableName != "" {
		fields["table"] = tableName
	}
	if err != nil {
		fields["error"] = err.Error()
	}

	expected := errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, gorm.ErrDuplicatedKey)

	switch {
	case err != nil && !expected && l.logLevel >= logger.Error:
		l.coreLogger.Error("SQL Error", fields)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.logLevel >= logger.Warn:
		l.coreLogger.Warn("Slow SQL Query", fields)
	case l.logLevel >= logger.Info:
		l.coreLogger.Debug("SQL Query", fields)
	}
}

// extractQueryType returns the leading SQL verb
func extractQueryType(sql string) string {
	sqlUpper := strings.ToUpper(strings.TrimSpace(sql))
	for _, verb := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(sqlUpper, verb) {
			return verb
		}
	}
	return ""
}

// extractTableName returns the first identifier after FROM, INTO or UPDATE
func extractTableName(sql string) string {
	sqlUpper := strings.ToUpper(strings.TrimSpace(sql))

	var start int
	switch {
	case strings.Contains(sqlUpper, " FROM "):
		start = strings.Index(sqlUpper, " FROM ") + 6
	case strings.Contains(sqlUpper, " INTO "):
		start = strings.Index(sqlUpper, " INTO ") + 6
	case strings.HasPrefix(sqlUpper, "UPDATE "):
		start = 7
	default:
		return ""
	}

	remainder := strings.TrimSpace(sqlUpper[start:])
	if end := strings.IndexAny(remainder, " ("); end != -1 {
		remainder = remainder[:end]
	}
	return strings.ToLower(strings.Trim(remainder, `"`+"`"))
}

package logger

import (
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
)

// NoopLogger discards everything. Used by tests and the load-test script.
type NoopLogger struct{}

func NewNoopLogger() core.Logger {
	return NoopLogger{}
}

func (NoopLogger) Debug(string, map[string]any)      {}
func (NoopLogger) Info(string, map[string]any)       {}
func (NoopLogger) Warn(string, map[string]any)       {}
func (NoopLogger) Error(string, map[string]any)      {}
func (l NoopLogger) With(map[string]any) core.Logger { return l }
func (NoopLogger) Flush() error                      { return nil }

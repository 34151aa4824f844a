package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
)

func TestZapLogger_LevelFiltering(t *testing.T) {
	obsCore, logs := observer.New(zap.DebugLevel)
	log := NewZapLoggerWithCore(obsCore, core.LogLevelWarn)

	log.Debug("debug", nil)
	log.Info("info", nil)
	log.Warn("warn", map[string]any{"userId": uint64(7)})
	log.Error("error", map[string]any{"error": errors.New("boom")})

	require.Equal(t, 2, logs.Len())
	entries := logs.All()
	assert.Equal(t, "warn", entries[0].Message)
	assert.Equal(t, uint64(7), entries[0].ContextMap()["userId"])
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])

	log.SetLevel(core.LogLevelDebug)
	assert.Equal(t, core.LogLevelDebug, log.GetLevel())
	log.Debug("now visible", nil)
	assert.Equal(t, 3, logs.Len())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, core.LogLevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, core.LogLevelWarn, ParseLevel("warning"))
	assert.Equal(t, core.LogLevelError, ParseLevel("error"))
	assert.Equal(t, core.LogLevelInfo, ParseLevel("verbose"))
}

func TestZapLogger_With(t *testing.T) {
	obsCore, logs := observer.New(zap.DebugLevel)
	parent := NewZapLoggerWithCore(obsCore, core.LogLevelInfo)
	child := parent.With(map[string]any{"job": "close_cycles"})

	child.Debug("hidden", nil)
	child.Info("finished", map[string]any{"duration_ms": int64(12)})
	parent.SetLevel(core.LogLevelDebug)
	child.Debug("visible", nil)

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "close_cycles", logs.All()[0].ContextMap()["job"])
	assert.Equal(t, int64(12), logs.All()[0].ContextMap()["duration_ms"])
	assert.Equal(t, "visible", logs.All()[1].Message)
	assert.Same(t, parent, parent.With(nil))
}

package log

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultConfig(t *testing.T) {
	t.Parallel()

	assert.NotNil(t, New(nil))
}

func TestNew_TextOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(&Config{Output: &buf, Level: slog.LevelInfo})
	logger.Info("outfit worn", "outfit_id", 7)

	assert.Contains(t, buf.String(), "msg=\"outfit worn\"")
	assert.Contains(t, buf.String(), "outfit_id=7")
}

func TestNew_JSONOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(&Config{Output: &buf, Level: slog.LevelInfo, JSON: true})
	logger.Info("test message", "key", "value")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Contains(t, entry, "ts")
	assert.NotContains(t, entry, "time")
	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, "value", entry["key"])
}

func TestNew_DebugOverridesLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(&Config{Output: &buf, Level: slog.LevelError, Debug: true})
	logger.Debug("debug message")

	assert.Contains(t, buf.String(), "debug message")
}

func TestNew_WarnHidesInfo(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(&Config{Output: &buf})
	logger.Info("quiet")
	logger.Warn("loud")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestNew_DynamicLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	level := new(slog.LevelVar)
	level.Set(slog.LevelError)
	logger := New(&Config{Output: &buf, Level: level})

	logger.Warn("hidden")
	level.Set(slog.LevelInfo)
	logger.Info("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelWarn,
		"":        slog.LevelWarn,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestLogHelpers(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(&Config{Output: &buf, Debug: true})

	LogOpen(logger, OpenInfo{Version: "1.0.0", DatabasePath: "/tmp/w.db", SchemaVersion: 1})
	LogWeatherFallback(logger, "Oslo", errors.New("timeout"))
	LogSQLiteError(logger, "insert", errors.New("disk full"))

	out := buf.String()
	assert.Contains(t, out, "database_path=/tmp/w.db")
	assert.Contains(t, out, "schema_version=1")
	assert.Contains(t, out, "city=Oslo")
	assert.Contains(t, out, "error=\"disk full\"")
}

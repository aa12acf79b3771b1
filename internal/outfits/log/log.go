// Package log builds the structured logger used by the wardrobe CLI.
// Text output goes to a terminal; JSON lines are available for scripting.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config configures the structured logger.
type Config struct {
	// Output is the writer for log output (default: os.Stderr).
	Output io.Writer

	// Level is the minimum log level. Nil means slog.LevelWarn.
	Level slog.Leveler

	// Debug forces debug level logging.
	Debug bool

	// JSON switches from key=value text to JSON lines.
	JSON bool
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() *Config {
	return &Config{
		Output: os.Stderr,
		Level:  slog.LevelWarn,
	}
}

// ParseLevel maps debug, info, warn and error to slog levels. Anything
// else is warn.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// New creates a logger. JSON output renames the time key to "ts".
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	var level slog.Leveler = slog.LevelWarn
	if cfg.Level != nil {
		level = cfg.Level
	}
	if cfg.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.JSON {
		opts.ReplaceAttr = func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "ts"
			}
			return a
		}
		return slog.New(slog.NewJSONHandler(output, opts))
	}
	return slog.New(slog.NewTextHandler(output, opts))
}

// OpenInfo describes the database a command opened.
type OpenInfo struct {
	Version       string
	ConfigPath    string
	DatabasePath  string
	SchemaVersion int
}

// LogOpen logs which config and database a command is using.
func LogOpen(logger *slog.Logger, info OpenInfo) {
	logger.Debug("wardrobe opened",
		"version", info.Version,
		"config_path", info.ConfigPath,
		"database_path", info.DatabasePath,
		"schema_version", info.SchemaVersion,
	)
}

// LogWeatherFallback logs that suggestions use the neutral default weather.
func LogWeatherFallback(logger *slog.Logger, city string, err error) {
	logger.Warn("weather unavailable, using default", "city", city, "error", err)
}

// LogSQLiteError logs SQLite errors.
func LogSQLiteError(logger *slog.Logger, operation string, err error) {
	logger.Error("sqlite error", "operation", operation, "error", err)
}

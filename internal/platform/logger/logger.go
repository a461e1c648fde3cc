// Package logger provides structured logging functionality for the application
// using Go's standard library log/slog package.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/tasktrackhq/tasktrack-api/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup initializes the application's logging system from configuration.
// It creates a structured JSON logger at the configured level, optionally
// teeing output into a size-rotated log file, and installs it as the
// process default so slog package functions use it too.
func Setup(cfg config.ServerConfig, fileCfg config.LogConfig) (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo

		tmpLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		tmpLogger.Warn("invalid log level configured, using default level",
			"configured_level", cfg.LogLevel,
			"default_level", "info")
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var out io.Writer = os.Stdout
	if fileCfg.File != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   fileCfg.File,
			MaxSize:    fileCfg.MaxSizeMB,
			MaxBackups: fileCfg.MaxBackups,
			MaxAge:     fileCfg.MaxAgeDays,
			Compress:   fileCfg.Compress,
		})
	}

	logger := slog.New(slog.NewJSONHandler(out, opts))
	slog.SetDefault(logger)

	return logger, nil
}

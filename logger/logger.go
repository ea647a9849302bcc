package logger

import (
	"go.uber.org/zap"
)

// Log is the process-wide logger. It is a no-op until Initialize is called,
// so packages can log from tests without any setup.
var Log *zap.Logger = zap.NewNop()

// Initialize builds a production JSON logger at the given level
// ("debug", "info", "warn", "error").
func Initialize(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	cfg.DisableStacktrace = true

	zl, err := cfg.Build()
	if err != nil {
		return err
	}

	Log = zl
	return nil
}

// Sync flushes any buffered log entries.
func Sync() {
	_ = Log.Sync()
}

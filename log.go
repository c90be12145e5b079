package arbor

import (
	"log/slog"
)

// logger receives configuration warnings, structural errors and debug-mode
// statistics. Replace it with SetLogger.
var logger = slog.Default().With("component", "arbor")

// SetLogger replaces the package logger. A nil logger restores the default.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	logger = l.With("component", "arbor")
}

// Logger returns the package logger.
func Logger() *slog.Logger {
	return logger
}

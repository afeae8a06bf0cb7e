package logging

import (
	"go.uber.org/zap"
)

// Logger is the application logger. Arguments after the message are
// alternating key/value pairs.
type Logger struct {
	sugar *zap.SugaredLogger
}

// NewLogger creates a new production Logger.
func NewLogger() *Logger {
	base, err := zap.NewProduction()
	if err != nil {
		// zap.NewProduction only fails on bad sink configuration, which we
		// never pass; fall back to a no-op logger rather than crash.
		base = zap.NewNop()
	}
	return &Logger{sugar: base.Sugar()}
}

// NewNopLogger creates a Logger that discards everything. Used in tests.
func NewNopLogger() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) {
	l.sugar.Debugw(msg, args...)
}

// Info logs an informational message.
func (l *Logger) Info(msg string, args ...any) {
	l.sugar.Infow(msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) {
	l.sugar.Warnw(msg, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) {
	l.sugar.Errorw(msg, args...)
}

// Sync flushes buffered log entries.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

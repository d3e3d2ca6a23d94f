// Package logging contains the structured logger used across pointpca. Entries are built as
// zap entries and handed to any number of appenders.
package logging

import (
	"os"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var (
	globalMu     sync.RWMutex
	globalLogger = NewLogger("pointpca")
)

// Logger is the logging interface handed to every long running operation.
type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Error(args ...interface{})

	// With returns a logger that adds keysAndValues to every entry. The parent is unchanged.
	With(keysAndValues ...interface{}) Logger
	AddAppender(appender Appender)
	SetLevel(level Level)
}

// ReplaceGlobal replaces the global logger.
func ReplaceGlobal(logger Logger) {
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
}

// Global returns the global logger.
func Global() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// NewLogger returns a logger that writes Info+ entries to stdout.
func NewLogger(name string) Logger {
	logger := newLogger(name, INFO)
	logger.AddAppender(NewWriterAppender(os.Stdout))
	return logger
}

// NewBlankLogger returns a Debug+ logger with no appenders; nothing is written until one is
// added.
func NewBlankLogger(name string) Logger {
	return newLogger(name, DEBUG)
}

// NewTestLogger returns a Debug+ logger that writes through tb.
func NewTestLogger(tb testing.TB) Logger {
	logger, _ := NewObservedTestLogger(tb)
	return logger
}

// NewObservedTestLogger is like NewTestLogger but also records every entry in memory.
func NewObservedTestLogger(tb testing.TB) (Logger, *observer.ObservedLogs) {
	logger := newLogger("", DEBUG)
	logger.AddAppender(NewTestAppender(tb))
	core, logs := observer.New(zap.LevelEnablerFunc(zapcore.DebugLevel.Enabled))
	logger.AddAppender(core)
	return logger, logs
}

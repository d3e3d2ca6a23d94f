package logging

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// appenders is shared by a logger and every logger derived from it with With.
type appenders struct {
	mu   sync.RWMutex
	list []Appender
}

type zapLogger struct {
	name   string
	level  zap.AtomicLevel
	fields []zapcore.Field
	out    *appenders
}

func newLogger(name string, level Level) *zapLogger {
	return &zapLogger{
		name:  name,
		level: zap.NewAtomicLevelAt(level.AsZap()),
		out:   &appenders{},
	}
}

func (l *zapLogger) AddAppender(appender Appender) {
	l.out.mu.Lock()
	l.out.list = append(l.out.list, appender)
	l.out.mu.Unlock()
}

func (l *zapLogger) SetLevel(level Level) {
	l.level.SetLevel(level.AsZap())
}

func (l *zapLogger) With(keysAndValues ...interface{}) Logger {
	fields := make([]zapcore.Field, 0, len(l.fields)+len(keysAndValues)/2)
	fields = append(fields, l.fields...)
	return &zapLogger{
		name:   l.name,
		level:  l.level,
		fields: append(fields, toFields(keysAndValues)...),
		out:    l.out,
	}
}

func (l *zapLogger) Debugw(msg string, keysAndValues ...interface{}) {
	l.write(zapcore.DebugLevel, msg, keysAndValues)
}

func (l *zapLogger) Infow(msg string, keysAndValues ...interface{}) {
	l.write(zapcore.InfoLevel, msg, keysAndValues)
}

func (l *zapLogger) Warnw(msg string, keysAndValues ...interface{}) {
	l.write(zapcore.WarnLevel, msg, keysAndValues)
}

func (l *zapLogger) Error(args ...interface{}) {
	l.write(zapcore.ErrorLevel, fmt.Sprint(args...), nil)
}

// callerSkip steps over write and the exported method that called it.
const callerSkip = 2

func (l *zapLogger) write(level zapcore.Level, msg string, keysAndValues []interface{}) {
	if !l.level.Enabled(level) {
		return
	}
	entry := zapcore.Entry{
		Level:      level,
		Time:       time.Now().UTC(),
		LoggerName: l.name,
		Message:    msg,
	}
	if pc, file, line, ok := runtime.Caller(callerSkip); ok {
		entry.Caller = zapcore.EntryCaller{Defined: true, PC: pc, File: file, Line: line}
	}
	fields := l.fields
	if len(keysAndValues) > 0 {
		fields = append(append(make([]zapcore.Field, 0, len(l.fields)+len(keysAndValues)/2), l.fields...),
			toFields(keysAndValues)...)
	}

	l.out.mu.RLock()
	defer l.out.mu.RUnlock()
	for _, appender := range l.out.list {
		if err := appender.Write(entry, fields); err != nil {
			fmt.Fprintln(os.Stderr, err) //nolint:errcheck
		}
	}
}

// toFields pairs up keys and values. A trailing key without a value is kept with an error
// value so the mistake shows up in the output.
func toFields(keysAndValues []interface{}) []zapcore.Field {
	fields := make([]zapcore.Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		if i+1 == len(keysAndValues) {
			fields = append(fields, zap.Any(key, errors.New("unpaired log key")))
			break
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}

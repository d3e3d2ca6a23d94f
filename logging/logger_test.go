package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

type point struct {
	X, Y   float64
	hidden string
}

// readLine splits the next output line into its tab separated parts and checks the time
// stamp has the shape of a UTC time in DefaultTimeFormatStr.
func readLine(t *testing.T, buf *bytes.Buffer) []string {
	t.Helper()
	line, err := buf.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)
	parts := strings.Split(strings.TrimSuffix(line, "\n"), "\t")
	stamp := time.Now().UTC().Format(DefaultTimeFormatStr)
	test.That(t, len(parts[0]), test.ShouldEqual, len(stamp))
	test.That(t, parts[0], test.ShouldEndWith, "Z")
	_, err = time.Parse(DefaultTimeFormatStr, parts[0])
	test.That(t, err, test.ShouldBeNil)
	return parts
}

func fieldsOf(t *testing.T, encoded string) map[string]any {
	t.Helper()
	out := map[string]any{}
	test.That(t, json.Unmarshal([]byte(encoded), &out), test.ShouldBeNil)
	return out
}

func TestWriterAppenderFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewBlankLogger("engine")
	logger.AddAppender(NewWriterAppender(&buf))

	logger.Infow("built index")
	parts := readLine(t, &buf)
	test.That(t, parts, test.ShouldHaveLength, 5)
	test.That(t, parts[1], test.ShouldEqual, "INFO")
	test.That(t, parts[2], test.ShouldEqual, "engine")
	test.That(t, parts[3], test.ShouldStartWith, "logging/logger_test.go:")
	test.That(t, parts[4], test.ShouldEqual, "built index")

	logger.Debugw("descriptor", "index", 7, "point", point{1, 2, "x"})
	parts = readLine(t, &buf)
	test.That(t, parts, test.ShouldHaveLength, 6)
	test.That(t, parts[1], test.ShouldEqual, "DEBUG")
	test.That(t, fieldsOf(t, parts[5]), test.ShouldResemble, map[string]any{
		"index": 7.,
		"point": map[string]any{"X": 1., "Y": 2.},
	})

	logger.Warnw("unpaired", "lonely")
	parts = readLine(t, &buf)
	test.That(t, parts[1], test.ShouldEqual, "WARN")
	test.That(t, parts[5], test.ShouldContainSubstring, "unpaired log key")

	logger.Error("failed: ", "disk full")
	parts = readLine(t, &buf)
	test.That(t, parts[1], test.ShouldEqual, "ERROR")
	test.That(t, parts[4], test.ShouldEqual, "failed: disk full")
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewBlankLogger("")
	logger.AddAppender(NewWriterAppender(&buf))

	run := logger.With("run_id", "abc")
	run.Infow("stage", "points", 3)
	parts := readLine(t, &buf)
	test.That(t, parts[3], test.ShouldEqual, "stage")
	test.That(t, fieldsOf(t, parts[4]), test.ShouldResemble, map[string]any{"run_id": "abc", "points": 3.})

	// the parent keeps no bound fields
	logger.Infow("plain")
	parts = readLine(t, &buf)
	test.That(t, parts, test.ShouldHaveLength, 4)

	// level and appenders are shared with derived loggers
	logger.SetLevel(WARN)
	run.Infow("hidden")
	test.That(t, buf.Len(), test.ShouldEqual, 0)
	var other bytes.Buffer
	logger.AddAppender(NewWriterAppender(&other))
	run.Warnw("shown")
	test.That(t, other.String(), test.ShouldContainSubstring, `{"run_id":"abc"}`)
}

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewBlankLogger("")
	logger.AddAppender(NewWriterAppender(&buf))
	logger.SetLevel(WARN)

	logger.Debugw("hidden")
	logger.Infow("hidden")
	test.That(t, buf.Len(), test.ShouldEqual, 0)
	logger.Error("shown")
	test.That(t, buf.String(), test.ShouldContainSubstring, "ERROR")

	for _, tc := range []struct {
		input    string
		expected Level
		zap      zapcore.Level
	}{
		{"debug", DEBUG, zapcore.DebugLevel},
		{"INFO", INFO, zapcore.InfoLevel},
		{"Warning", WARN, zapcore.WarnLevel},
		{"error", ERROR, zapcore.ErrorLevel},
	} {
		level, err := LevelFromString(tc.input)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, tc.expected)
		test.That(t, level.AsZap(), test.ShouldEqual, tc.zap)
	}
	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestObservedTestLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.With("run_id", "r1").Debugw("built", "count", 3)

	entries := logs.All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].Level, test.ShouldEqual, zapcore.DebugLevel)
	test.That(t, entries[0].ContextMap(), test.ShouldResemble, map[string]interface{}{"run_id": "r1", "count": int64(3)})
}

func TestGlobal(t *testing.T) {
	orig := Global()
	defer ReplaceGlobal(orig)

	var buf bytes.Buffer
	logger := NewBlankLogger("cli")
	logger.AddAppender(NewWriterAppender(&buf))
	ReplaceGlobal(logger)
	Global().Warnw("closing", "file", "a.pcd")
	test.That(t, buf.String(), test.ShouldContainSubstring, `{"file":"a.pcd"}`)
}

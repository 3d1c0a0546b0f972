package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testLogger struct {
	entries []string
}

func (l *testLogger) Debug(_ map[string]any, msg string) { l.entries = append(l.entries, "DEBUG:"+msg) }
func (l *testLogger) Info(_ map[string]any, msg string)  { l.entries = append(l.entries, "INFO:"+msg) }
func (l *testLogger) Warn(_ map[string]any, msg string)  { l.entries = append(l.entries, "WARN:"+msg) }
func (l *testLogger) Error(_ map[string]any, msg string) { l.entries = append(l.entries, "ERROR:"+msg) }
func (l *testLogger) With(map[string]any) Logger         { return l }

func TestSetLoggerAndGlobalLogging(t *testing.T) {
	orig := GetLogger()
	defer SetLogger(orig)
	tlog := &testLogger{}
	SetLogger(tlog)

	Debug(nil, "debug msg")
	Warn(nil, "warn msg")

	assert.Equal(t, []string{"DEBUG:debug msg", "WARN:warn msg"}, tlog.entries)
}

func TestZapLogger_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZapLogger(zap.New(core))

	l.Debug(nil, "d")
	l.Info(nil, "i")
	l.Warn(nil, "w")
	l.Error(nil, "e")

	require.Equal(t, 4, logs.Len())
	levels := make([]zapcore.Level, 0, 4)
	for _, e := range logs.All() {
		levels = append(levels, e.Level)
	}
	assert.Equal(t, []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}, levels)
}

func TestZapLogger_FieldsAndWith(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZapLogger(zap.New(core))

	child := l.With(map[string]any{"component": "api"})
	child.Warn(map[string]any{"status": 500}, "request failed")
	l.Debug(nil, "plain")

	require.Equal(t, 2, logs.Len())
	first := logs.All()[0]
	assert.Equal(t, "request failed", first.Message)
	assert.Equal(t, zapcore.WarnLevel, first.Level)
	ctx := first.ContextMap()
	assert.Equal(t, "api", ctx["component"])
	assert.EqualValues(t, 500, ctx["status"])
	assert.Empty(t, logs.All()[1].ContextMap())
}

func TestConfigure(t *testing.T) {
	orig := GetLogger()
	defer SetLogger(orig)

	assert.NoError(t, Configure("dev", "debug"))
	assert.NoError(t, Configure("prod", "INFO"))
	assert.Error(t, Configure("dev", "notalevel"))
}

func TestNoopLogger(t *testing.T) {
	l := NewNoopLogger()
	l.Debug(nil, "debug message")
	l.Info(nil, "info message")
	l.Warn(nil, "warn message")
	l.Error(nil, "error message")
	assert.Equal(t, l, l.With(map[string]any{"a": 1}))
}

package logger

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// observe swaps the global logger for an in-memory one until the test ends.
func observe(t *testing.T, level zapcore.LevelEnabler) *observer.ObservedLogs {
	t.Helper()

	core, logs := observer.New(level)

	previous := Logger()
	SetLogger(zap.New(core).Sugar())
	t.Cleanup(func() { SetLogger(previous) })

	return logs
}

// TestNew tests that New builds a logger for any level, including the shared one.
func TestNew(t *testing.T) {
	t.Parallel()

	for _, level := range []zapcore.LevelEnabler{zapcore.DebugLevel, zapcore.ErrorLevel, nil} {
		assert.NotNil(t, New(level))
	}

	assert.NotNil(t, Logger())
}

// TestParseLogLevel tests the ParseLogLevel function.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected zapcore.Level
		valid    bool
	}{
		{"debug", zapcore.DebugLevel, true},
		{"info", zapcore.InfoLevel, true},
		{"warn", zapcore.WarnLevel, true},
		{"error", zapcore.ErrorLevel, true},
		{"fatal", zapcore.FatalLevel, true},
		{"DEBUG", zapcore.DebugLevel, true},
		{" Warn ", zapcore.WarnLevel, true},
		{"verbose", zapcore.InfoLevel, false},
		{"", zapcore.InfoLevel, false},
		{"   ", zapcore.InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			level, valid := ParseLogLevel(tt.input)
			assert.Equal(t, tt.expected, level)
			assert.Equal(t, tt.valid, valid)
		})
	}
}

// TestSetLevel tests that the shared level gates debug output.
//
//nolint:paralleltest // Mutates the global level.
func TestSetLevel(t *testing.T) {
	previous := Level()
	t.Cleanup(func() { SetLevel(previous) })

	SetLevel(zapcore.DebugLevel)
	assert.Equal(t, zapcore.DebugLevel, Level())
	assert.True(t, IsDebugLevel())

	SetLevel(zapcore.WarnLevel)
	assert.Equal(t, zapcore.WarnLevel, Level())
	assert.False(t, IsDebugLevel())
}

// TestLevels tests that every helper writes at its own level with the expected message.
//
//nolint:paralleltest // Replaces the global logger.
func TestLevels(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)
	ctx := context.Background()

	Debug(ctx, "plain debug")
	Debugf(ctx, "debug %d", 1)
	DebugKV(ctx, "debug kv", "key", "value")
	Info(ctx, "plain info")
	Infof(ctx, "info %s", "formatted")
	InfoKV(ctx, "info kv", "count", 2)
	Warn(ctx, "plain warn")
	Warnf(ctx, "warn %s", "formatted")
	WarnKV(ctx, "warn kv")
	Error(ctx, "plain error")
	Errorf(ctx, "error %v", assert.AnError)
	ErrorKV(ctx, "error kv", "error", "boom")

	entries := logs.AllUntimed()
	require.Len(t, entries, 12)

	expected := []struct {
		level   zapcore.Level
		message string
	}{
		{zapcore.DebugLevel, "plain debug"},
		{zapcore.DebugLevel, "debug 1"},
		{zapcore.DebugLevel, "debug kv"},
		{zapcore.InfoLevel, "plain info"},
		{zapcore.InfoLevel, "info formatted"},
		{zapcore.InfoLevel, "info kv"},
		{zapcore.WarnLevel, "plain warn"},
		{zapcore.WarnLevel, "warn formatted"},
		{zapcore.WarnLevel, "warn kv"},
		{zapcore.ErrorLevel, "plain error"},
		{zapcore.ErrorLevel, "error " + assert.AnError.Error()},
		{zapcore.ErrorLevel, "error kv"},
	}

	for i, want := range expected {
		assert.Equal(t, want.level, entries[i].Level, want.message)
		assert.Equal(t, want.message, entries[i].Message)
	}

	assert.Equal(t, map[string]any{"count": int64(2)}, entries[5].ContextMap())
}

// TestWithKV tests that context fields accumulate and reach every record.
//
//nolint:paralleltest // Replaces the global logger.
func TestWithKV(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	base := WithKV(context.Background(), "request_id", "abc")
	ctx := WithKV(base, "route", "/api/download/tasks")

	InfoKV(ctx, "handled", "status", 200)
	Info(base, "parent untouched")
	Debug(ctx, "filtered")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	assert.Equal(t, map[string]any{
		"request_id": "abc",
		"route":      "/api/download/tasks",
		"status":     int64(200),
	}, entries[0].ContextMap())
	assert.Equal(t, map[string]any{"request_id": "abc"}, entries[1].ContextMap())
}

// TestConcurrentLogging tests that logging from many goroutines keeps every record.
//
//nolint:paralleltest // Replaces the global logger.
func TestConcurrentLogging(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	var wg sync.WaitGroup

	for i := range 10 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			InfoKV(WithKV(context.Background(), "worker", i), "concurrent message")
		}()
	}

	wg.Wait()

	assert.Equal(t, 10, logs.FilterMessage("concurrent message").Len())
}

package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/config"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestNewLogger_InjectsTraceID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "info")

	ctx := WithTraceID(context.Background(), "trace-123")
	logger.InfoContext(ctx, "report built", slog.Int("rows", 3))
	logger.Info("no context")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "trace-123", lines[0]["trace_id"])
	assert.Equal(t, float64(3), lines[0]["rows"])
	assert.NotContains(t, lines[1], "trace_id")
	assert.Contains(t, lines[0], "source")
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn")

	logger.Info("hidden")
	logger.Warn("shown")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["msg"])
}

func TestNewLogger_WithAttrsKeepsTraceID(t *testing.T) {
	var buf bytes.Buffer
	logger := WithComponent(NewLogger(&buf, "debug"), "parser").WithGroup("req")

	logger.DebugContext(WithTraceID(context.Background(), "abc"), "parsed")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "parser", lines[0]["component"])
	assert.NotNil(t, lines[0]["req"])
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, parseLogLevel(in))
		})
	}
}

func TestGetTraceID(t *testing.T) {
	//nolint:staticcheck // nil context is handled explicitly
	assert.Empty(t, GetTraceID(nil))
	assert.Empty(t, GetTraceID(context.Background()))

	reqCtx := context.WithValue(context.Background(), middleware.RequestIDKey, "host/req-000001")
	assert.Equal(t, "host/req-000001", GetTraceID(reqCtx))

	explicit := WithTraceID(reqCtx, "explicit")
	assert.Equal(t, "explicit", GetTraceID(explicit))
}

func TestEnsureTraceID(t *testing.T) {
	ctx := EnsureTraceID(context.Background())
	id := GetTraceID(ctx)
	assert.Len(t, id, 36)

	assert.Equal(t, id, GetTraceID(EnsureTraceID(ctx)))
}

func TestLoggerWithContext(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(&buf, "info")

	LoggerWithContext(WithTraceID(context.Background(), "t-1"), base).Info("hello")
	WithError(base, assert.AnError).Error("failed")
	WithError(base, nil).Info("clean")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)
	assert.Equal(t, "t-1", lines[0]["trace_id"])
	assert.Equal(t, assert.AnError.Error(), lines[1]["error"])
	assert.NotContains(t, lines[2], "error")
}

func TestInitializeLogger_File(t *testing.T) {
	ResetLoggerForTesting()
	t.Cleanup(ResetLoggerForTesting)
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	path := filepath.Join(t.TempDir(), "logs", "app.log")
	cfg := config.LoggingConfig{Level: "info", Format: "json", Output: "file", FilePath: path}

	logger, err := InitializeLogger(cfg)
	require.NoError(t, err)
	require.Same(t, logger, GetLogger())

	logger.Info("written to file")
	require.NoError(t, CloseLogFile())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestInitializeLogger_BothOutputs(t *testing.T) {
	ResetLoggerForTesting()
	t.Cleanup(ResetLoggerForTesting)
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	path := filepath.Join(t.TempDir(), "app.log")
	logger, err := InitializeLogger(config.LoggingConfig{Level: "warning", Output: "BOTH", FilePath: path})
	require.NoError(t, err)

	logger.Info("below threshold")
	logger.Warn("kept")
	require.NoError(t, CloseLogFile())
	require.NoError(t, CloseLogFile(), "second close is a no-op")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "kept")
	assert.NotContains(t, string(data), "below threshold")
}

func TestInitializeLogger_BadFilePath(t *testing.T) {
	ResetLoggerForTesting()
	t.Cleanup(ResetLoggerForTesting)

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	logger, err := InitializeLogger(config.LoggingConfig{Output: "file", FilePath: filepath.Join(blocker, "app.log")})
	assert.Error(t, err)
	assert.Nil(t, logger)
	assert.NotNil(t, GetLogger(), "falls back to slog.Default")
}

func TestInitializeLogger_OnlyOnce(t *testing.T) {
	ResetLoggerForTesting()
	t.Cleanup(ResetLoggerForTesting)
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	first, err := InitializeLogger(config.Default().Logging)
	require.NoError(t, err)
	second, err := InitializeLogger(config.LoggingConfig{Level: "debug", Output: "console"})
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Same(t, first, GetLogger())
}

func TestOpenLogFile_BadDirectory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := openLogFile(filepath.Join(blocker, "app.log"))
	assert.Error(t, err)
}

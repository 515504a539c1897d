package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures log records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("test message", slog.String("key", "value"))
		logger.Error("error message", slog.Int("code", 500))

		assert.Equal(t, 2, handler.Count())
		assert.True(t, handler.ContainsMessage("test message"))
		assert.True(t, handler.ContainsAttr("key", "value"))
	})

	t.Run("filters by level", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Debug("debug msg")
		logger.Info("info msg")
		logger.Warn("warn msg")

		assert.Len(t, handler.GetRecordsByLevel(slog.LevelInfo), 1)
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelDebug), 1)
	})

	t.Run("derived loggers share records and keep attrs", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		component := logger.With(slog.String("component", "parser"))
		component.Info("parsed", slog.Int("rows", 3))

		records := handler.GetRecords()
		require.Len(t, records, 1)
		assert.Equal(t, "parser", records[0].Attrs["component"])
		assert.True(t, handler.ContainsAttr("component", "parser"))
	})

	t.Run("groups prefix keys", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.WithGroup("filter").Info("applied", slog.Int("kept", 2))

		assert.True(t, handler.ContainsAttr("filter.kept", int64(2)))
	})

	t.Run("clear removes records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)
		logger.Info("one")
		handler.Clear()
		assert.Zero(t, handler.Count())
	})
}

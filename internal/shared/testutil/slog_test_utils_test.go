package testutil

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("batch loaded", slog.String("source", "enero.xlsx"))
		logger.Error("upload failed", slog.Int("status", 422))

		require.Equal(t, 2, handler.Count())
		assert.True(t, handler.ContainsMessage("batch loaded"))
		assert.True(t, handler.ContainsAttr("source", "enero.xlsx"))
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
	})

	t.Run("derived loggers share records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.With(slog.String("component", "pipeline")).
			WithGroup("batch").
			Info("normalized", slog.Int("rows", 3))

		require.Equal(t, 1, handler.Count())
		AssertLogAttr(t, handler, "component", "pipeline")
		AssertLogAttr(t, handler, "batch.rows", int64(3))
	})

	t.Run("clear", func(t *testing.T) {
		logger, handler := NewTestLogger(nil)
		logger.Info("one")
		logger.Info("two")

		handler.Clear()
		assert.Zero(t, handler.Count())
	})

	t.Run("assertion helpers", func(t *testing.T) {
		logger, handler := NewTestLogger(t)
		logger.Warn("rows dropped", slog.String("code", "invalid_dates_dropped"))

		AssertLogContains(t, handler, slog.LevelWarn, "dropped")
		AssertNoErrors(t, handler)
	})

	t.Run("concurrent logging", func(t *testing.T) {
		logger, handler := NewTestLogger(nil)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				logger.Info("session created", slog.Int("n", n))
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 10, handler.Count())
	})
}

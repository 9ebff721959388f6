package logger_test

import (
	"log/slog"
	"testing"

	"github.com/phrazzld/brainace/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestLogBuffer(t *testing.T) {
	buf, log := logger.NewTestLogger(t)

	log.Debug("item rated", slog.String("item_id", "abc"), slog.String("rating", "good"))
	log.Info("review session started", slog.Int("total", 3))
	log.Debug("item rated", slog.String("item_id", "def"))

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	rated := buf.FindEntries(t, "item rated")
	require.Len(t, rated, 2)
	assert.Equal(t, "abc", rated[0]["item_id"])
	assert.Equal(t, "DEBUG", rated[0]["level"])
	assert.Equal(t, "def", rated[1]["item_id"])

	assert.Empty(t, buf.FindEntries(t, "no such message"))
}

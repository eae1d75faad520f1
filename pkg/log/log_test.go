package log

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	require.Equal(t, slog.LevelError, ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "narrator.log")

	logger, closer := New(Config{Format: "json", Level: "debug", File: path})

	logger.Debug("chunk synthesized", "chunk", 3)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))

	require.Equal(t, "chunk synthesized", entry["msg"])
	require.Equal(t, float64(3), entry["chunk"])
}

func TestConsoleLevel(t *testing.T) {
	logger, closer := New(Config{Level: "warn"})
	defer closer.Close()

	require.False(t, logger.Enabled(t.Context(), slog.LevelInfo))
	require.True(t, logger.Enabled(t.Context(), slog.LevelWarn))
}

package cli

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("info"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel(""))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("bogus"))
}

func TestNewLogger_FansOutToFile(t *testing.T) {
	var stderr bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "motherai.log")

	logger, closer, err := newLogger(&stderr, "warn", path)
	require.NoError(t, err)
	logger.Debug("only in file")
	logger.Warn("everywhere")
	require.NoError(t, closer.Close())

	assert.NotContains(t, stderr.String(), "only in file")
	assert.Contains(t, stderr.String(), "everywhere")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "only in file")
	assert.Contains(t, string(data), "everywhere")
}

func TestLogFileWriter_TruncatesToNewestBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capped.log")
	w, err := newLogFileWriter(path)
	require.NoError(t, err)
	w.maxSize = 100
	w.keepSize = 40

	_, err = w.Write([]byte(strings.Repeat("a", 90)))
	require.NoError(t, err)
	_, err = w.Write([]byte(strings.Repeat("b", 20)))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", 20)+strings.Repeat("b", 20), string(data))
}

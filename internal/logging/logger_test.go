package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDualSink(t *testing.T) {
	var console bytes.Buffer
	logPath := filepath.Join(t.TempDir(), "app.log")

	logger, closer, err := New(Options{Console: &console, FilePath: logPath})
	require.NoError(t, err)

	logger.Debug().Msg("debug only in file")
	logger.Info().Msg("info everywhere")
	logger.Warn().Msg("warn everywhere")
	require.NoError(t, closer.Close())

	assert.NotContains(t, console.String(), "debug only in file")
	assert.Contains(t, console.String(), "info everywhere")
	assert.Contains(t, console.String(), "warn everywhere")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "debug only in file")
	assert.Contains(t, string(data), "info everywhere")
}

func TestNewAppendsToExistingFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(logPath, []byte("previous run\n"), 0644))

	logger, closer, err := New(Options{Console: &bytes.Buffer{}, FilePath: logPath})
	require.NoError(t, err)
	logger.Info().Msg("next run")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "previous run")
	assert.Contains(t, string(data), "next run")
}

func TestNewVerboseConsole(t *testing.T) {
	var console bytes.Buffer
	logger, closer, err := New(Options{Console: &console, Verbose: true})
	require.NoError(t, err)
	defer closer.Close()

	logger.Debug().Msg("visible with verbose")
	assert.Contains(t, console.String(), "visible with verbose")
}

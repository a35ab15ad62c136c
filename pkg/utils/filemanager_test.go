package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOutputFileName(t *testing.T) {
	name := GenerateOutputFileName("{timestamp}_{bucket}.xlsx", map[string]string{
		"timestamp": "20241029_181500",
		"bucket":    "failed",
	})
	assert.Equal(t, "20241029_181500_failed.xlsx", name)
}

func TestGenerateOutputFileNameDefaults(t *testing.T) {
	name := GenerateOutputFileName("{timestamp}_{bucket}", map[string]string{"bucket": "successful"})
	assert.Regexp(t, regexp.MustCompile(`^\d{8}_\d{6}_successful\.xlsx$`), name)
}

func TestEnsureDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDirectory(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	err := WriteSummary(&buf, RunSummary{
		RunID:            "run-1",
		InputFile:        "umsatz.xlsx",
		TotalRows:        3,
		Successful:       1,
		FailedTransform:  2,
		SuccessfulFile:   "20241029_181500_successful.xlsx",
		FailedFile:       "20241029_181500_failed.xlsx",
		Duration:         2 * time.Second,
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Total rows:        3")
	assert.Contains(t, out, "Failed:            2")
	assert.Contains(t, out, "Failed rows     -> 20241029_181500_failed.xlsx")
	assert.NotContains(t, out, "dry run")
}

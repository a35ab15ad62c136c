// =============================================================================
// Ledger Import - File Manager Utility
// =============================================================================
//
// This module provides file utilities for the importer:
//   - Output directory management
//   - Output file naming
//   - The end-of-run summary printed to the operator
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the run timestamp format used in output file names.
const TimestampLayout = "20060102_150405"

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectory creates dir (and parents) if it does not exist.
func EnsureDirectory(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// =============================================================================
// FILE NAMING UTILITIES
// =============================================================================

// GenerateOutputFileName generates a file name from a format string.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Current date (YYYYMMDD)
//               {time}      - Current time (HHMMSS)
//               {uuid}      - A random UUID
//             Any key in params is also a placeholder, and overrides the
//             built-ins (pass "timestamp" to share one timestamp between files).
//   - params: A map of placeholder values.
//
// EXAMPLE:
//   format: "{timestamp}_{bucket}.xlsx"
//   params: {"timestamp": "20241029_181500", "bucket": "failed"}
//   output: "20241029_181500_failed.xlsx"
func GenerateOutputFileName(format string, params map[string]string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format(TimestampLayout),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	// Ensure .xlsx extension.
	if !strings.HasSuffix(strings.ToLower(result), ".xlsx") {
		result += ".xlsx"
	}

	return result
}

// =============================================================================
// RUN SUMMARY
// =============================================================================

// RunSummary is the operator-facing summary of one import run.
type RunSummary struct {
	RunID            string
	InputFile        string
	DryRun           bool
	TotalRows        int
	Successful       int
	FailedTransform  int
	FailedSubmission int
	SuccessfulFile   string
	FailedFile       string
	Duration         time.Duration
}

// WriteSummary writes the summary as a plain-text block.
func WriteSummary(w io.Writer, summary RunSummary) error {
	writer := bufio.NewWriter(w)

	fmt.Fprintf(writer, "\n=== Import Complete ===\n")
	fmt.Fprintf(writer, "Run ID:            %s\n", summary.RunID)
	fmt.Fprintf(writer, "Input file:        %s\n", summary.InputFile)
	if summary.DryRun {
		fmt.Fprintf(writer, "Mode:              dry run (nothing submitted)\n")
	}
	fmt.Fprintf(writer, "Total rows:        %d\n", summary.TotalRows)
	fmt.Fprintf(writer, "Successful:        %d\n", summary.Successful)
	fmt.Fprintf(writer, "Failed:            %d\n", summary.FailedTransform+summary.FailedSubmission)
	fmt.Fprintf(writer, "  transform:       %d\n", summary.FailedTransform)
	fmt.Fprintf(writer, "  submission:      %d\n", summary.FailedSubmission)
	fmt.Fprintf(writer, "Time elapsed:      %s\n", summary.Duration)
	if summary.SuccessfulFile != "" {
		fmt.Fprintf(writer, "Successful rows -> %s\n", summary.SuccessfulFile)
	}
	if summary.FailedFile != "" {
		fmt.Fprintf(writer, "Failed rows     -> %s\n", summary.FailedFile)
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

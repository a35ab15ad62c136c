// =============================================================================
// Ledger Import - Batch Orchestrator
// =============================================================================
//
// This module drives one import run, from the category snapshot to the two
// output workbooks.
//
// RUN STATES:
//   Init -> CategoriesLoaded -> Processing -> Finalized
//     \-> Aborted   (login or category listing failed; nothing is written)
//
// PER-ROW PIPELINE:
//   1. Transform the row (Transformer)
//   2. If accepted, submit the entry (LedgerAPI.SubmitEntry)
//   3. Record the outcome (Tracker)
//
//   A failing row never stops the batch. Rows are processed one at a time, in
//   file order.
//
// OUTPUT:
//   {timestamp}_successful.xlsx and {timestamp}_failed.xlsx, both starting
//   with the original header row. An empty failed file means a clean run.
//
// =============================================================================

package converter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ginjaninja78/ledger-import/internal/ledger"
	"github.com/ginjaninja78/ledger-import/internal/types"
	"github.com/ginjaninja78/ledger-import/internal/xlsxparser"
	"github.com/ginjaninja78/ledger-import/internal/xlsxwriter"
	"github.com/ginjaninja78/ledger-import/pkg/utils"
)

// =============================================================================
// RUN STATE
// =============================================================================

// State is the orchestrator's position in a run.
type State int

const (
	StateInit State = iota
	StateCategoriesLoaded
	StateProcessing
	StateFinalized
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateCategoriesLoaded:
		return "categories_loaded"
	case StateProcessing:
		return "processing"
	case StateFinalized:
		return "finalized"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Output bucket names, used in file names and summaries.
const (
	BucketSuccessful = "successful"
	BucketFailed     = "failed"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of one run.
type Result struct {
	// RunID identifies the run in logs and summaries.
	RunID string

	// State is the final state: StateFinalized, or StateAborted when the
	// categories could not be loaded.
	State State

	// Reconciliation holds the successful/failed partition.
	Reconciliation ReconciliationResult

	// SuccessfulFile and FailedFile are the written workbooks. Both are
	// empty in dry-run mode, for aborted runs and when writing failed.
	SuccessfulFile string
	FailedFile     string

	// Timestamp is the run timestamp used in the file names.
	Timestamp string

	// ProcessingTime is the wall time of the run.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Options controls a Converter.
type Options struct {
	// OutputDir is where the two workbooks are written.
	OutputDir string

	// NameFormat is the output file name format, see utils.GenerateOutputFileName.
	// Default: "{timestamp}_{bucket}.xlsx"
	NameFormat string

	// DryRun transforms and classifies rows without submitting them or
	// writing any file. Accepted rows count as succeeded.
	DryRun bool

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Converter runs the import pipeline for one sheet.
type Converter struct {
	api         LedgerAPI
	creds       ledger.Credentials
	writer      xlsxwriter.Writer
	transformer *Transformer
	logger      zerolog.Logger
	options     Options
	state       State
}

// New creates a Converter. The logger receives every diagnostic of the run.
func New(api LedgerAPI, creds ledger.Credentials, writer xlsxwriter.Writer, logger zerolog.Logger, options Options) *Converter {
	if options.NameFormat == "" {
		options.NameFormat = "{timestamp}_{bucket}.xlsx"
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	return &Converter{
		api:         api,
		creds:       creds,
		writer:      writer,
		transformer: NewTransformer(logger),
		logger:      logger,
		options:     options,
		state:       StateInit,
	}
}

// State returns the current run state.
func (c *Converter) State() State {
	return c.state
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run imports every data row of sheet. columns maps logical fields to
// positions in the sheet's rows.
//
// The returned error is non-nil only for fatal failures: the category
// snapshot could not be taken (the result is then StateAborted), or an output
// workbook could not be written. In the latter case any workbook already
// written for the run is removed, so both output files exist or neither does.
// Row failures are reported through the result's Failed bucket.
func (c *Converter) Run(ctx context.Context, sheet *xlsxparser.Sheet, columns types.ColumnIndexMap) (*Result, error) {
	startTime := c.options.Now()
	result := &Result{RunID: uuid.NewString()}
	logger := c.logger.With().Str("run_id", result.RunID).Logger()
	c.transformer = NewTransformer(logger)

	logger.Info().
		Str("file", sheet.SourceFile).
		Int("rows", len(sheet.Rows)).
		Interface("columns", columns).
		Bool("dry_run", c.options.DryRun).
		Msg("Starting import")

	// =========================================================================
	// STEP 1: CATEGORY SNAPSHOT
	// =========================================================================

	categories, session, err := LoadCategories(ctx, c.api, c.creds)
	if err != nil {
		c.state = StateAborted
		result.State = c.state
		logger.Error().Err(err).Msg("Aborting run")
		return result, err
	}
	c.state = StateCategoriesLoaded
	logger.Info().Int("categories", len(categories)).Msg("Loaded categories")

	// =========================================================================
	// STEP 2: PROCESS ROWS
	// =========================================================================

	c.state = StateProcessing
	tracker := NewTracker()

	for i, row := range sheet.Rows {
		if err := ctx.Err(); err != nil {
			logger.Error().Err(err).Int("remaining", len(sheet.Rows)-i).Msg("Run cancelled, remaining rows marked failed")
			for _, rest := range sheet.Rows[i:] {
				tracker.Record(rest, FailedSubmission)
			}
			break
		}
		tracker.Record(row, c.processRow(ctx, logger, session, row, categories, columns))
	}

	result.Reconciliation = tracker.Result()

	// =========================================================================
	// STEP 3: FINALIZE
	// =========================================================================

	result.Timestamp = c.options.Now().Format(utils.TimestampLayout)
	if !c.options.DryRun {
		if err := c.writeOutputs(logger, sheet.Header, result); err != nil {
			result.State = c.state
			return result, err
		}
	}

	c.state = StateFinalized
	result.State = c.state
	result.ProcessingTime = c.options.Now().Sub(startTime)

	logger.Info().
		Int("successful", len(result.Reconciliation.Successful)).
		Int("failed", len(result.Reconciliation.Failed)).
		Int("failed_transform", result.Reconciliation.Counts[FailedTransform]).
		Int("failed_submission", result.Reconciliation.Counts[FailedSubmission]).
		Dur("elapsed", result.ProcessingTime).
		Msg("Import finished")

	return result, nil
}

// processRow runs one row through transform and submission.
func (c *Converter) processRow(ctx context.Context, logger zerolog.Logger, session ledger.Session, row types.RawRow, categories types.CategoryTable, columns types.ColumnIndexMap) Outcome {
	entry, rejection := c.transformer.Transform(row, categories, columns)
	if rejection != nil {
		return FailedTransform
	}

	if c.options.DryRun {
		logger.Debug().
			Str("recipient_sender", truncate(entry.RecipientSender, 40)).
			Int64("amount", entry.Amount).
			Msg("Entry would be submitted")
		return Succeeded
	}

	if _, err := c.api.SubmitEntry(ctx, session, *entry); err != nil {
		logger.Error().Err(err).Stringer("row", row).Msg("Error sending entry")
		return FailedSubmission
	}

	logger.Debug().
		Str("recipient_sender", truncate(entry.RecipientSender, 40)).
		Str("description", truncate(entry.Description, 60)).
		Msg("Entry processed successfully")
	return Succeeded
}

// writeOutputs writes both bucket workbooks with the same timestamp.
func (c *Converter) writeOutputs(logger zerolog.Logger, header types.RawRow, result *Result) error {
	buckets := []struct {
		name string
		rows []types.RawRow
		path *string
	}{
		{BucketSuccessful, result.Reconciliation.Successful, &result.SuccessfulFile},
		{BucketFailed, result.Reconciliation.Failed, &result.FailedFile},
	}

	if err := utils.EnsureDirectory(c.options.OutputDir); err != nil {
		return err
	}

	for _, b := range buckets {
		fileName := utils.GenerateOutputFileName(c.options.NameFormat, map[string]string{
			"timestamp": result.Timestamp,
			"bucket":    b.name,
			"run_id":    result.RunID,
		})
		path := filepath.Join(c.options.OutputDir, fileName)

		logger.Debug().Int("entries", len(b.rows)).Str("file", path).Msg("Saving entries")
		if err := c.writer.Write(path, header, b.rows); err != nil {
			logger.Error().Err(err).Str("file", path).Msg("Failed to write output")
			c.removeOutputs(logger, result)
			return fmt.Errorf("failed to write %s rows: %w", b.name, err)
		}
		logger.Info().Str("file", path).Msg("Saved " + b.name + " rows")
		*b.path = path
	}
	return nil
}

// removeOutputs deletes the workbooks already written for result, so a
// failed finalize never leaves one bucket without the other.
func (c *Converter) removeOutputs(logger zerolog.Logger, result *Result) {
	for _, path := range []*string{&result.SuccessfulFile, &result.FailedFile} {
		if *path == "" {
			continue
		}
		if err := os.Remove(*path); err != nil && !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("file", *path).Msg("Failed to remove partial output")
		}
		*path = ""
	}
}

// truncate shortens s to max runes, marking the cut with "...".
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

// =============================================================================
// Ledger Import - Import Command
// =============================================================================
//
// This file defines the 'import' command, the main command of the tool. It
// wires configuration, logging, the sheet reader, the ledger client and the
// output writer together and runs one import.
//
// COMMAND USAGE:
//   ledger-import import [flags]
//
// FLAGS:
//   --file    : Input workbook, overrides input_file from the config
//   --dry-run : Transform and classify rows without submitting or writing
//
// PROCESSING PIPELINE:
//   1. Load configuration (YAML, .env, environment)
//   2. Set up console + file logging
//   3. Read the input sheet and resolve the column mapping
//   4. Run the converter (login, categories, rows, output workbooks)
//   5. Print the run summary
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/ledger-import/internal/converter"
	"github.com/ginjaninja78/ledger-import/internal/ledger"
	"github.com/ginjaninja78/ledger-import/internal/logging"
	"github.com/ginjaninja78/ledger-import/internal/xlsxparser"
	"github.com/ginjaninja78/ledger-import/internal/xlsxwriter"
	"github.com/ginjaninja78/ledger-import/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// dryRun transforms rows without submitting them or writing output files.
var dryRun bool

// inputFile overrides the input_file config setting.
var inputFile string

// =============================================================================
// IMPORT COMMAND DEFINITION
// =============================================================================

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import an .xlsx bank export into the ledger",
	Long: `The import command logs in to the ledger, loads the category list once,
and then submits every row of the input sheet as a ledger entry, one row at
a time in file order.

A row that cannot be transformed or is rejected by the ledger never stops
the run. It is logged and written to the failed workbook instead.

The run is aborted before any row is processed when the login or the
category listing fails. No output files are written in that case.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runImport(ctx, cmd)
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(
		&inputFile,
		"file",
		"",
		"Path to the input workbook (overrides input_file)",
	)

	importCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Classify rows without submitting them or writing output files",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runImport(ctx context.Context, cmd *cobra.Command) error {
	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	mainConfig, err := loadConfig(inputFile)
	if err != nil {
		return err
	}
	if err := mainConfig.Validate(); err != nil {
		return err
	}

	// =========================================================================
	// STEP 2: LOGGING
	// =========================================================================

	logger, closer, err := logging.New(logging.Options{
		Console:  cmd.OutOrStdout(),
		FilePath: mainConfig.LogFile,
		Verbose:  verbose,
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	// =========================================================================
	// STEP 3: READ THE SHEET
	// =========================================================================

	sheet, err := xlsxparser.ParseSheet(mainConfig.InputFile, mainConfig.SheetName)
	if err != nil {
		logger.Error().Err(err).Str("file", mainConfig.InputFile).Msg("Failed to read input")
		return err
	}
	columns := xlsxparser.BuildColumnIndex(sheet.Header, mainConfig.ColumnMapping)

	// =========================================================================
	// STEP 4: RUN
	// =========================================================================

	client := ledger.NewClient(mainConfig.Ledger.Endpoint, mainConfig.Ledger.Timeout())
	conv := converter.New(
		client,
		ledger.Credentials{Username: mainConfig.Ledger.Username, Password: mainConfig.Ledger.Password},
		xlsxwriter.New(),
		logger,
		converter.Options{
			OutputDir:  mainConfig.OutputDir,
			NameFormat: mainConfig.OutputNameFormat,
			DryRun:     dryRun,
		},
	)

	result, err := conv.Run(ctx, sheet, columns)
	if err != nil {
		return fmt.Errorf("import aborted: %w", err)
	}

	// =========================================================================
	// STEP 5: SUMMARY
	// =========================================================================

	rec := result.Reconciliation
	return utils.WriteSummary(cmd.OutOrStdout(), utils.RunSummary{
		RunID:            result.RunID,
		InputFile:        mainConfig.InputFile,
		DryRun:           dryRun,
		TotalRows:        rec.Total(),
		Successful:       len(rec.Successful),
		FailedTransform:  rec.Counts[converter.FailedTransform],
		FailedSubmission: rec.Counts[converter.FailedSubmission],
		SuccessfulFile:   result.SuccessfulFile,
		FailedFile:       result.FailedFile,
		Duration:         result.ProcessingTime,
	})
}

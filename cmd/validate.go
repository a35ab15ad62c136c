// =============================================================================
// Ledger Import - Validate Command
// =============================================================================
//
// This file defines the 'validate' command. It checks the configuration and
// the input sheet's header against the column mapping, without contacting the
// ledger.
//
// COMMAND USAGE:
//   ledger-import validate [--file input.xlsx]
//
// OUTPUT:
//   One line per logical field, with the header column it maps to. The
//   command fails when any field is unmapped, since every row of such a sheet
//   would be rejected.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/ledger-import/internal/types"
	"github.com/ginjaninja78/ledger-import/internal/xlsxparser"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and the input sheet's column mapping",
	RunE: func(cmd *cobra.Command, args []string) error {
		mainConfig, err := loadConfig(inputFile)
		if err != nil {
			return err
		}
		if mainConfig.InputFile == "" {
			return fmt.Errorf("no input file: set input_file or pass --file")
		}

		sheet, err := xlsxparser.ParseSheet(mainConfig.InputFile, mainConfig.SheetName)
		if err != nil {
			return err
		}
		columns := xlsxparser.BuildColumnIndex(sheet.Header, mainConfig.ColumnMapping)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Sheet:     %s (%s)\n", sheet.SourceFile, sheet.SheetName)
		fmt.Fprintf(out, "Data rows: %d\n", len(sheet.Rows))

		var unmapped []string
		for _, field := range types.LogicalFields {
			idx, ok := columns[field]
			if !ok {
				unmapped = append(unmapped, field)
				fmt.Fprintf(out, "  ✗ %-17s not found in header\n", field)
				continue
			}
			fmt.Fprintf(out, "  ✓ %-17s -> column %d %q\n", field, idx+1, sheet.Header[idx].String())
		}

		if len(unmapped) > 0 {
			return fmt.Errorf("%d field(s) not mapped: %v", len(unmapped), unmapped)
		}
		fmt.Fprintln(out, "Configuration OK")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(
		&inputFile,
		"file",
		"",
		"Path to the input workbook (overrides input_file)",
	)
}

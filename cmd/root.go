// =============================================================================
// Ledger Import - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (ledger-import)
//   ├── importCmd     (ledger-import import)
//   ├── validateCmd   (ledger-import validate)
//   ├── stubLedgerCmd (ledger-import stub-ledger)
//   └── versionCmd    (ledger-import version)
//
// GLOBAL FLAGS:
//   --config  : Path to the YAML configuration file
//   --verbose : Debug output on the console (the log file always gets debug)
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/ledger-import/internal/config"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose enables debug output on the console.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ledger-import",
	Short: "Ledger Import - Bulk-load bank statement rows into the ledger",
	Long: `Ledger Import reads transaction rows from an .xlsx bank export, turns each
row into a ledger entry and submits it to the ledger's HTTP API.

Every input row ends up in exactly one of two output workbooks:
  {timestamp}_successful.xlsx  rows the ledger accepted
  {timestamp}_failed.xlsx      rows that could not be transformed or submitted

The failed workbook keeps the original header, so it can be fixed and
imported again.

Example Usage:
  ledger-import import --file umsatz.xlsx     # Import one bank export
  ledger-import import --dry-run              # Classify rows, submit nothing
  ledger-import validate                      # Check config and column mapping
  ledger-import stub-ledger --category Office=1`,

	// Bad input should print the error, not the usage text.
	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	// Persistent flags are available to this command and all subcommands.
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultConfigFile,
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// loadConfig loads the configuration and applies the --file override shared
// by import and validate.
func loadConfig(fileOverride string) (*config.MainConfig, error) {
	mainConfig, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load main config: %w", err)
	}
	if fileOverride != "" {
		mainConfig.InputFile = fileOverride
	}
	return mainConfig, nil
}

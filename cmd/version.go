// =============================================================================
// Ledger Import - Version Command
// =============================================================================
//
// COMMAND USAGE:
//   ledger-import version
//
// OUTPUT:
//   Ledger Import
//   Version:    0.3.0
//   Build Date: 2024-10-29
//   Go Version: go1.24.11
//
// =============================================================================

package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version and BuildDate are set at build time:
//   go build -ldflags "-X 'github.com/ginjaninja78/ledger-import/cmd.Version=0.3.0'"
var (
	Version   = "0.3.0"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the application version",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Ledger Import")
		fmt.Fprintf(out, "Version:    %s\n", Version)
		fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
		fmt.Fprintf(out, "Go Version: %s\n", runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

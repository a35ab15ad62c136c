// =============================================================================
// Ledger Import - Main Entry Point
// =============================================================================
//
// USAGE:
//   ledger-import import        - Import an .xlsx bank export into the ledger
//   ledger-import validate      - Check configuration and column mapping
//   ledger-import stub-ledger   - Serve an in-memory ledger for local runs
//   ledger-import version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Core logic (sheet I/O, transform, ledger client)
//   - pkg/           : Shared utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/ledger-import/cmd"
)

func main() {
	cmd.Execute()
}

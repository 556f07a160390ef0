// =============================================================================
// Sales Analytics - Main Entry Point
// =============================================================================
//
// USAGE:
//   sales process       - Analyse the sales export and write the report
//   sales validate      - Check the configuration and input only
//   sales version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Pipeline stages and their supporting packages
//   - pkg/           : Shared file utilities
//   - config.yaml    : Default configuration
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/sales-analytics/cmd"
)

func main() {
	cmd.Execute()
}

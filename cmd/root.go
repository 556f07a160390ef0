// =============================================================================
// Sales Analytics - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (sales)
//   ├── processCmd  (sales process)
//   ├── validateCmd (sales validate)
//   └── versionCmd  (sales version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading the configuration (defaults, YAML file, SALES_* env)
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/sales-analytics/internal/config"
	"github.com/ginjaninja78/sales-analytics/internal/logger"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging regardless of the configured level.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "sales",
	Short: "Sales Analytics - Clean, analyse and enrich sales exports",
	Long: `Sales Analytics reads a pipe-delimited sales export, cleans and validates
each transaction, computes revenue statistics, enriches products with a
category from a product catalogue, and writes a formatted text report.

Key Features:
  - Encoding fallback (utf-8, latin-1, cp1252)
  - Region and amount filters, from config, flags or an interactive prompt
  - Cached, rate-limited category lookups
  - Optional XLSX workbook, Prometheus metrics and validation error log

Example Usage:
  sales process                         # Run the full pipeline
  sales process --interactive           # Choose filters at the prompt
  sales process --region North --xlsx output/report.xlsx
  sales validate                        # Check the input without writing anything`,

	SilenceUsage:  true,
	SilenceErrors: true,

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
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultPath,
		"Path to the configuration file (a missing file means built-in defaults)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// loadConfig loads the configuration named by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// newLogger builds the diagnostic logger described by cfg, along with the
// cleanup that flushes it and closes any log file.
func newLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	log, cleanup, err := logger.New(cfg.Log.LoggerConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return log, cleanup, nil
}

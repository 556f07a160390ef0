// =============================================================================
// Sales Analytics - Process Command
// =============================================================================
//
// This file defines the 'process' command, which runs the full analytics
// pipeline over one sales export.
//
// COMMAND USAGE:
//   sales process [flags]
//
// FLAGS:
//   --input        : Sales export to read
//   --report       : Text report path ({uuid}, {timestamp}, {date} expand)
//   --enriched     : Enriched data path (empty disables it)
//   --xlsx         : Workbook path (empty disables it)
//   --region       : Keep only this region
//   --min-amount   : Drop records with revenue below this
//   --max-amount   : Drop records with revenue above this
//   --interactive  : Ask for filters at the prompt
//   --no-enrich    : Skip category lookups (every category is Unknown)
//   --workers      : Concurrent enrichment workers
//
// Flags override the config file and SALES_* environment values.
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/sales-analytics/internal/config"
	"github.com/ginjaninja78/sales-analytics/internal/csvparser"
	"github.com/ginjaninja78/sales-analytics/internal/pipeline"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	inputFile    string
	reportFile   string
	enrichedFile string
	xlsxFile     string
	region       string
	minAmount    float64
	maxAmount    float64
	interactive  bool
	noEnrich     bool
	workers      int
)

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Analyse a sales export and write the report",
	Long: `The process command reads the sales export, cleans and validates every
transaction, applies the region and amount filters, computes the report
statistics, looks up a category for every product and writes the outputs.

The run stops without writing anything when the input cannot be read or
decoded, holds no data, or no transaction survives validation and filtering.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := applyProcessFlags(cmd, cfg); err != nil {
			return err
		}
		return runProcess(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	flags := processCmd.Flags()
	flags.StringVar(&inputFile, "input", "", "Sales export to read (overrides input_file)")
	flags.StringVar(&reportFile, "report", "", "Text report path (overrides report_file)")
	flags.StringVar(&enrichedFile, "enriched", "", "Enriched data path, empty to skip (overrides enriched_file)")
	flags.StringVar(&xlsxFile, "xlsx", "", "Workbook path, empty to skip (overrides xlsx_report_file)")
	flags.StringVar(&region, "region", "", "Keep only records from this region")
	flags.Float64Var(&minAmount, "min-amount", 0, "Drop records whose revenue is below this amount")
	flags.Float64Var(&maxAmount, "max-amount", 0, "Drop records whose revenue is above this amount")
	flags.BoolVarP(&interactive, "interactive", "i", false, "Choose filters at the prompt")
	flags.BoolVar(&noEnrich, "no-enrich", false, "Skip category lookups")
	flags.IntVar(&workers, "workers", 0, "Concurrent enrichment workers (overrides lookup.workers)")
}

// applyProcessFlags copies every flag the user set onto cfg and validates
// the result.
func applyProcessFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("input") {
		cfg.InputFile = inputFile
	}
	if flags.Changed("report") {
		cfg.ReportFile = reportFile
	}
	if flags.Changed("enriched") {
		cfg.EnrichedFile = enrichedFile
	}
	if flags.Changed("xlsx") {
		cfg.XLSXReportFile = xlsxFile
	}
	if flags.Changed("region") {
		cfg.Filter.Region = region
	}
	if flags.Changed("min-amount") {
		v := minAmount
		cfg.Filter.MinAmount = &v
	}
	if flags.Changed("max-amount") {
		v := maxAmount
		cfg.Filter.MaxAmount = &v
	}
	if flags.Changed("workers") {
		cfg.Lookup.Workers = workers
	}
	if noEnrich {
		cfg.Lookup.Enabled = false
		cfg.Lookup.Overrides = nil
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess builds the pipeline from cfg and runs it, printing progress to
// out. Filters are read from in when --interactive is set.
func runProcess(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	log, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(out, "==================================================")
	fmt.Fprintln(out, "              SALES ANALYTICS SYSTEM              ")
	fmt.Fprintln(out, "==================================================")

	p := pipeline.New(pipeline.OptionsFromConfig(cfg), pipeline.NewLookup(cfg.Lookup, log), log)
	p.Progress = consoleProgress{out: out}
	if interactive {
		p.FilterPrompt = newFilterPrompter(in, out, cfg.CurrencySymbol).Prompt
	}

	result, err := p.Run(ctx)
	switch {
	case errors.Is(err, csvparser.ErrNoData), errors.Is(err, csvparser.ErrUndecodable):
		fmt.Fprintln(out, "CRITICAL ERROR: No data found. Exiting.")
		return err
	case errors.Is(err, pipeline.ErrNoValidTransactions):
		fmt.Fprintln(out, "No valid transactions found after filtering. Exiting.")
		return err
	case err != nil:
		log.Error("run failed", zap.Error(err))
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Run ID:       %s\n", result.RunID)
	fmt.Fprintf(out, "Valid:        %d of %d parsed\n", result.Stats.Valid, result.Stats.Parsed)
	fmt.Fprintf(out, "Time elapsed: %s\n", result.Stats.ProcessingTime)
	fmt.Fprintln(out, "\nSuccess! System finished execution.")

	return nil
}

// =============================================================================
// Sales Analytics - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which checks the configuration
// and the input file without enriching or writing anything.
//
// COMMAND USAGE:
//   sales validate [--input path] [--errors]
//
// EXIT STATUS:
//   Non-zero when the configuration is invalid, the input cannot be read, or
//   no transaction passes validation.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sales-analytics/internal/config"
	"github.com/ginjaninja78/sales-analytics/internal/pipeline"
	"github.com/ginjaninja78/sales-analytics/internal/validation"
)

var (
	validateInput string
	showErrors    bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and input without writing outputs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("input") {
			cfg.InputFile = validateInput
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
		}
		return runValidate(cmd.Context(), cfg, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateInput, "input", "", "Sales export to check (overrides input_file)")
	validateCmd.Flags().BoolVar(&showErrors, "errors", false, "List every validation error")
}

func runValidate(ctx context.Context, cfg *config.Config, out io.Writer) error {
	log, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	fmt.Fprintln(out, "Configuration OK")

	p := pipeline.New(pipeline.OptionsFromConfig(cfg), nil, log)
	p.Progress = consoleProgress{out: out}

	result, err := p.Check(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Encoding:            %s\n", result.Encoding)
	fmt.Fprintf(out, "Lines:               %d\n", result.Parse.Lines)
	fmt.Fprintf(out, "Malformed (skipped): %d\n", result.Parse.DroppedStructural)
	fmt.Fprintf(out, "Parsed:              %d\n", result.Parse.Parsed)
	fmt.Fprintf(out, "Invalid:             %d\n", result.Validation.InvalidCount)
	fmt.Fprintf(out, "Filtered by region:  %d\n", result.Validation.FilterStats.FilteredByRegion)
	fmt.Fprintf(out, "Filtered by amount:  %d\n", result.Validation.FilterStats.FilteredByAmount)
	fmt.Fprintf(out, "Valid:               %d\n", len(result.Validation.Valid))

	for _, rule := range validation.Rules {
		if n := result.Validation.RuleViolations[rule]; n > 0 {
			fmt.Fprintf(out, "  %-28s %d\n", rule, n)
		}
	}

	if showErrors {
		fmt.Fprintln(out)
		fmt.Fprintln(out, validation.FormatErrors(result.Validation.Errors))
	}

	if len(result.Validation.Valid) == 0 {
		return pipeline.ErrNoValidTransactions
	}
	return nil
}

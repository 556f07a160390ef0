// =============================================================================
// Sales Analytics - Console Interaction
// =============================================================================
//
// This file holds the user-facing console pieces of the process command:
//   - consoleProgress prints the "[n/10] ..." step lines
//   - filterPrompter asks the interactive filter questions
//
// PROMPT FLOW:
//   Do you want to filter data? (y/n)   anything but "y" means no filters
//   Enter Region                        blank means any region
//   Enter Min Amount                    blank means no lower bound
//   Enter Max Amount                    blank means no upper bound
//
//   A number that does not parse skips the amount filter entirely; the
//   region answer is kept.
//
// =============================================================================

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ginjaninja78/sales-analytics/internal/pipeline"
	"github.com/ginjaninja78/sales-analytics/internal/types"
)

var printer = message.NewPrinter(language.English)

// =============================================================================
// PROGRESS OUTPUT
// =============================================================================

// consoleProgress prints pipeline steps the way the run log reads.
type consoleProgress struct {
	out io.Writer
}

func (p consoleProgress) Step(n int, title string) {
	fmt.Fprintf(p.out, "\n[%d/%d] %s\n", n, pipeline.TotalSteps, title)
}

func (p consoleProgress) Detail(msg string) {
	fmt.Fprintf(p.out, "✓ %s\n", msg)
}

// =============================================================================
// FILTER PROMPT
// =============================================================================

// filterPrompter asks for filters on in and echoes questions to out.
type filterPrompter struct {
	in       *bufio.Reader
	out      io.Writer
	currency string
}

func newFilterPrompter(in io.Reader, out io.Writer, currency string) *filterPrompter {
	return &filterPrompter{in: bufio.NewReader(in), out: out, currency: currency}
}

// Prompt shows the available regions and amount range, then asks for
// filters. End of input is treated as a blank answer.
func (fp *filterPrompter) Prompt(ctx context.Context, options pipeline.FilterOptions) (types.Criteria, error) {
	var criteria types.Criteria

	if len(options.Regions) > 0 {
		fmt.Fprintf(fp.out, "Regions: %s\n", strings.Join(options.Regions, ", "))
	}
	if options.HasAmount {
		fmt.Fprintf(fp.out, "Amount Range: %s%s - %s%s\n",
			fp.currency, printer.Sprintf("%.0f", options.MinAmount),
			fp.currency, printer.Sprintf("%.0f", options.MaxAmount))
	}

	answer, err := fp.ask(ctx, "\nDo you want to filter data? (y/n): ")
	if err != nil || strings.ToLower(answer) != "y" {
		return criteria, err
	}

	if criteria.Region, err = fp.ask(ctx, "Enter Region (Leave blank for none): "); err != nil {
		return criteria, err
	}

	// A bad max leaves an already accepted min in place.
	minAmount, ok, err := fp.askAmount(ctx, "Enter Min Amount (Leave blank for none): ")
	if err != nil || !ok {
		return criteria, err
	}
	criteria.MinAmount = minAmount

	maxAmount, _, err := fp.askAmount(ctx, "Enter Max Amount (Leave blank for none): ")
	if err != nil {
		return criteria, err
	}
	criteria.MaxAmount = maxAmount
	return criteria, nil
}

// ask prints question and returns the trimmed answer line.
func (fp *filterPrompter) ask(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(fp.out, question)

	line, err := fp.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// askAmount asks for an optional number. ok is false when the answer did
// not parse, in which case the message has already been printed.
func (fp *filterPrompter) askAmount(ctx context.Context, question string) (amount *float64, ok bool, err error) {
	answer, err := fp.ask(ctx, question)
	if err != nil {
		return nil, false, err
	}
	if answer == "" {
		return nil, true, nil
	}

	v, err := strconv.ParseFloat(answer, 64)
	if err != nil {
		fmt.Fprintln(fp.out, "Invalid number entered. Skipping amount filter.")
		return nil, false, nil
	}
	return &v, true, nil
}

// =============================================================================
// Sales Analytics - Pipeline Module
// =============================================================================
//
// This module orchestrates one analytics run end to end.
//
// PIPELINE:
//   1. Read the input file (encoding fallback, or an .xlsx workbook)
//   2. Parse lines into transactions
//   3. Choose filters (configured, or asked interactively)
//   4. Validate and filter
//   5. Analyse the survivors
//   6. Collect the distinct products to look up
//   7. Enrich with categories
//   8. Save the enriched data
//   9. Write the report
//  10. Write the optional outputs (workbook, metrics, error log)
//
// FATAL CONDITIONS:
//   The run stops before anything is written when the input cannot be
//   decoded, has no data lines, or no transaction survives step 4.
//   Everything written in steps 8-10 is rendered in memory first, and each
//   file is replaced atomically.
//
// =============================================================================

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ginjaninja78/sales-analytics/internal/analytics"
	"github.com/ginjaninja78/sales-analytics/internal/csvparser"
	"github.com/ginjaninja78/sales-analytics/internal/enrichment"
	"github.com/ginjaninja78/sales-analytics/internal/lookup"
	"github.com/ginjaninja78/sales-analytics/internal/metrics"
	"github.com/ginjaninja78/sales-analytics/internal/report"
	"github.com/ginjaninja78/sales-analytics/internal/types"
	"github.com/ginjaninja78/sales-analytics/internal/validation"
	"github.com/ginjaninja78/sales-analytics/internal/xlsxparser"
	"github.com/ginjaninja78/sales-analytics/internal/xlsxreport"
	"github.com/ginjaninja78/sales-analytics/pkg/utils"
)

// TotalSteps is the number of progress steps in a full run.
const TotalSteps = 10

// ErrNoValidTransactions means validation and filtering left nothing to
// analyse.
var ErrNoValidTransactions = errors.New("no valid transactions found after filtering")

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a Pipeline.
type Options struct {
	InputFile    string
	InputSheet   string // workbook input only; empty means the first sheet
	EnrichedFile string // empty skips the enriched file
	ReportFile   string
	XLSXFile     string // empty skips the workbook
	MetricsFile  string // empty skips the metrics textfile
	ErrorLogDir  string // empty skips the validation error log

	Delimiter      string
	Encodings      []string
	CurrencySymbol string
	EnrichedFormat string

	// Criteria are the filters used when no FilterPrompt is set.
	Criteria types.Criteria

	// Enrich turns category lookups on. When off every record is Unknown.
	Enrich     bool
	Enrichment enrichment.Options
}

// FilterOptions describes the parsed data so a user can choose filters.
type FilterOptions struct {
	Regions   []string
	MinAmount float64
	MaxAmount float64
	HasAmount bool
}

// FilterPrompt chooses the filters for a run after parsing.
type FilterPrompt func(ctx context.Context, options FilterOptions) (types.Criteria, error)

// Progress receives user-facing step notifications.
type Progress interface {
	// Step announces that step n of TotalSteps has started.
	Step(n int, title string)

	// Detail reports an outcome of the current step.
	Detail(msg string)
}

type nopProgress struct{}

func (nopProgress) Step(int, string) {}
func (nopProgress) Detail(string)    {}

// =============================================================================
// RESULT STRUCTURES
// =============================================================================

// Result is the outcome of a successful run.
type Result struct {
	RunID     uuid.UUID
	StartedAt time.Time

	// Encoding is the encoding that decoded the input.
	Encoding string

	Parse      csvparser.ParseStats
	Validation validation.Result
	Criteria   types.Criteria
	Enrichment *enrichment.Result
	Report     report.Data

	// Outputs lists every file written, in write order.
	Outputs []string

	Stats ProcessingStats
}

// ProcessingStats summarises a run.
type ProcessingStats struct {
	LinesRead      int
	Parsed         int
	Invalid        int
	Valid          int
	ProcessingTime time.Duration
}

// CheckResult is the outcome of Check.
type CheckResult struct {
	Encoding   string
	Parse      csvparser.ParseStats
	Validation validation.Result
}

// =============================================================================
// PIPELINE STRUCTURE
// =============================================================================

// Pipeline runs the analytics stages.
type Pipeline struct {
	opts   Options
	lookup lookup.Lookup
	logger *zap.Logger

	// FilterPrompt, when set, replaces Options.Criteria.
	FilterPrompt FilterPrompt

	// Progress receives step notifications. Defaults to a no-op.
	Progress Progress

	now      func() time.Time
	newRunID func() uuid.UUID
}

// New creates a Pipeline. l may be nil when Options.Enrich is false.
func New(opts Options, l lookup.Lookup, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Delimiter == "" {
		opts.Delimiter = csvparser.DefaultDelimiter
	}
	if opts.EnrichedFormat == "" {
		opts.EnrichedFormat = report.FormatJSONL
	}
	return &Pipeline{
		opts:     opts,
		lookup:   l,
		logger:   logger.Named("pipeline"),
		Progress: nopProgress{},
		now:      time.Now,
		newRunID: uuid.New,
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the full pipeline.
//
// RETURNS:
//   - The run result, including every output path written.
//   - csvparser.ErrUndecodable, csvparser.ErrNoData or ErrNoValidTransactions
//     (wrapped) for the fatal conditions, a context error on cancellation,
//     or an I/O error while writing outputs.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		RunID:     p.newRunID(),
		StartedAt: p.now(),
	}
	log := p.logger.With(zap.String("run_id", result.RunID.String()))
	log.Info("starting run", zap.String("input", p.opts.InputFile))

	// =========================================================================
	// STEPS 1-2: READ AND PARSE
	// =========================================================================

	transactions, err := p.readAndParse(result)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// =========================================================================
	// STEP 3: CHOOSE FILTERS
	// =========================================================================

	p.Progress.Step(3, "Filter Options Available:")
	criteria := p.opts.Criteria
	if p.FilterPrompt != nil {
		criteria, err = p.FilterPrompt(ctx, filterOptions(transactions))
		if err != nil {
			return nil, fmt.Errorf("failed to choose filters: %w", err)
		}
	} else if criteria.IsZero() {
		p.Progress.Detail("No filters applied")
	} else {
		p.Progress.Detail("Filters: " + report.DescribeCriteria(criteria))
	}
	result.Criteria = criteria
	log.Debug("filters chosen",
		zap.String("region", criteria.Region),
		zap.Bool("min_amount", criteria.MinAmount != nil),
		zap.Bool("max_amount", criteria.MaxAmount != nil))

	// =========================================================================
	// STEP 4: VALIDATE AND FILTER
	// =========================================================================

	p.Progress.Step(4, "Validating transactions...")
	result.Validation = validation.NewValidator(p.logger).ValidateAndFilter(transactions, criteria)
	valid := result.Validation.Valid
	p.Progress.Detail(fmt.Sprintf("Valid: %d | Invalid: %d", len(valid), result.Validation.InvalidCount))

	for rule, n := range result.Validation.RuleViolations {
		log.Debug("rule violations", zap.String("rule", string(rule)), zap.Int("count", n))
	}

	if len(valid) == 0 {
		return nil, ErrNoValidTransactions
	}

	// =========================================================================
	// STEP 5: ANALYSE
	// =========================================================================

	p.Progress.Step(5, "Analyzing sales data...")
	summary := analytics.SummaryStats(valid)
	log.Info("analysis complete",
		zap.Int("transactions", summary.TotalTransactions),
		zap.Float64("revenue", summary.TotalRevenue),
		zap.String("date_range", summary.DateRange.String()))
	p.Progress.Detail("Analysis complete")

	// =========================================================================
	// STEPS 6-7: ENRICH
	// =========================================================================

	enriched, err := p.enrich(ctx, valid)
	if err != nil {
		return nil, err
	}
	result.Enrichment = enriched

	// =========================================================================
	// RENDER EVERYTHING IN MEMORY
	// =========================================================================

	result.Report = report.Build(valid, enriched.Records, report.Quality{
		Source:            p.opts.InputFile,
		Encoding:          result.Encoding,
		Lines:             result.Parse.Lines,
		Blank:             result.Parse.Blank,
		DroppedStructural: result.Parse.DroppedStructural,
		Parsed:            result.Parse.Parsed,
		Invalid:           result.Validation.InvalidCount,
		Filter:            result.Validation.FilterStats,
		Criteria:          criteria,
	}, report.Meta{
		RunID:          result.RunID.String(),
		GeneratedAt:    result.StartedAt,
		CurrencySymbol: p.opts.CurrencySymbol,
	})

	var enrichedBuf, reportBuf bytes.Buffer
	if p.opts.EnrichedFile != "" {
		if err := report.WriteEnriched(&enrichedBuf, enriched.Records, p.opts.EnrichedFormat); err != nil {
			return nil, fmt.Errorf("failed to render enriched data: %w", err)
		}
	}
	if err := report.Render(&reportBuf, result.Report); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// =========================================================================
	// STEPS 8-10: WRITE OUTPUTS
	// =========================================================================

	if err := p.writeOutputs(result, &enrichedBuf, &reportBuf); err != nil {
		return nil, err
	}

	result.Stats = ProcessingStats{
		LinesRead:      result.Parse.Lines,
		Parsed:         result.Parse.Parsed,
		Invalid:        result.Validation.InvalidCount,
		Valid:          len(valid),
		ProcessingTime: time.Since(result.StartedAt),
	}

	if p.opts.MetricsFile != "" {
		path := p.expand(p.opts.MetricsFile, result)
		if err := p.writeMetrics(path, result); err != nil {
			return nil, err
		}
		result.Outputs = append(result.Outputs, path)
	}

	log.Info("run complete",
		zap.Strings("outputs", result.Outputs),
		zap.Duration("elapsed", result.Stats.ProcessingTime))

	return result, nil
}

// Check reads, parses and validates the input without enriching or writing
// anything.
func (p *Pipeline) Check(ctx context.Context) (*CheckResult, error) {
	scratch := &Result{}
	transactions, err := p.readAndParse(scratch)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.Progress.Step(4, "Validating transactions...")
	res := validation.NewValidator(p.logger).ValidateAndFilter(transactions, p.opts.Criteria)
	p.Progress.Detail(fmt.Sprintf("Valid: %d | Invalid: %d", len(res.Valid), res.InvalidCount))

	return &CheckResult{
		Encoding:   scratch.Encoding,
		Parse:      scratch.Parse,
		Validation: res,
	}, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func (p *Pipeline) readAndParse(result *Result) ([]types.Transaction, error) {
	p.Progress.Step(1, "Reading sales data...")
	lines, encoding, err := p.readLines()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p.opts.InputFile, err)
	}
	result.Encoding = encoding
	p.Progress.Detail(fmt.Sprintf("Successfully read %d lines using %s", len(lines), encoding))

	p.Progress.Step(2, "Parsing and cleaning data...")
	transactions, stats := csvparser.NewParser(p.opts.Delimiter, p.logger).Parse(lines)
	result.Parse = stats
	p.Progress.Detail(fmt.Sprintf("Parsed %d records", len(transactions)))
	if stats.DroppedStructural > 0 {
		p.logger.Warn("skipped malformed lines", zap.Int("count", stats.DroppedStructural))
	}

	return transactions, nil
}

// readLines reads the input as text lines. Workbooks are read through the
// xlsx reader and report "xlsx" as their encoding.
func (p *Pipeline) readLines() ([]string, string, error) {
	if xlsxparser.IsWorkbook(p.opts.InputFile) {
		lines, err := xlsxparser.ReadLines(p.opts.InputFile, p.opts.InputSheet, p.opts.Delimiter)
		return lines, xlsxparser.SourceName, err
	}
	return csvparser.ReadFile(p.opts.InputFile, p.opts.Encodings)
}

func (p *Pipeline) enrich(ctx context.Context, valid []types.Transaction) (*enrichment.Result, error) {
	p.Progress.Step(6, "Fetching product data from API...")
	if !p.opts.Enrich || p.lookup == nil {
		p.Progress.Detail("Enrichment disabled, every category is " + types.UnknownCategory)
		records := make([]types.EnrichedTransaction, len(valid))
		for i, tx := range valid {
			records[i] = types.EnrichedTransaction{Transaction: tx, Category: types.UnknownCategory}
		}
		p.Progress.Step(7, "Enriching sales data...")
		return &enrichment.Result{
			Records:        records,
			Total:          len(records),
			UniqueProducts: countProducts(valid),
		}, nil
	}
	p.Progress.Detail(fmt.Sprintf("Found %d unique products to look up", countProducts(valid)))

	p.Progress.Step(7, "Enriching sales data...")
	res, err := enrichment.New(p.lookup, p.opts.Enrichment, p.logger).Enrich(ctx, valid)
	if err != nil {
		return nil, err
	}
	p.Progress.Detail(fmt.Sprintf("Enriched %d/%d transactions (%.1f%%)", res.Enriched, res.Total, res.SuccessRate()))
	return res, nil
}

func (p *Pipeline) writeOutputs(result *Result, enriched, rendered io.Reader) error {
	// The enriched file and the report are staged together and only moved
	// into place once both are written.
	p.Progress.Step(8, "Saving enriched data...")
	var staged []*utils.StagedFile
	if p.opts.EnrichedFile != "" {
		file, err := stageFrom(p.expand(p.opts.EnrichedFile, result), enriched)
		if err != nil {
			return fmt.Errorf("failed to save enriched data: %w", err)
		}
		staged = append(staged, file)
	}

	p.Progress.Step(9, "Generating report...")
	reportFile, err := stageFrom(p.expand(p.opts.ReportFile, result), rendered)
	if err != nil {
		discard(staged)
		return fmt.Errorf("failed to write report: %w", err)
	}
	staged = append(staged, reportFile)

	for i, file := range staged {
		if err := file.Commit(); err != nil {
			discard(staged[i+1:])
			return err
		}
		result.Outputs = append(result.Outputs, file.Path())
	}
	if p.opts.EnrichedFile != "" {
		p.Progress.Detail("Saved to: " + staged[0].Path())
	}
	p.Progress.Detail("Report saved to: " + reportFile.Path())

	p.Progress.Step(10, "Writing additional outputs...")
	if p.opts.XLSXFile != "" {
		path := p.expand(p.opts.XLSXFile, result)
		if err := xlsxreport.Write(path, result.Report); err != nil {
			return fmt.Errorf("failed to write workbook: %w", err)
		}
		result.Outputs = append(result.Outputs, path)
		p.Progress.Detail("Workbook saved to: " + path)
	}
	if p.opts.ErrorLogDir != "" && len(result.Validation.Errors) > 0 {
		path, err := validation.WriteErrorLog(result.Validation.Errors, p.opts.ErrorLogDir, p.opts.InputFile, result.StartedAt)
		if err != nil {
			return err
		}
		result.Outputs = append(result.Outputs, path)
		p.Progress.Detail("Validation errors logged to: " + path)
	}
	return nil
}

func (p *Pipeline) writeMetrics(path string, result *Result) error {
	rec := metrics.NewRecorder()
	rec.ObserveRun(metrics.RunStats{
		LinesRead:         result.Parse.Lines,
		DroppedStructural: result.Parse.DroppedStructural,
		Parsed:            result.Parse.Parsed,
		Invalid:           result.Validation.InvalidCount,
		FilteredByRegion:  result.Validation.FilterStats.FilteredByRegion,
		FilteredByAmount:  result.Validation.FilterStats.FilteredByAmount,
		Valid:             len(result.Validation.Valid),
		UniqueProducts:    result.Enrichment.UniqueProducts,
		Lookups:           result.Enrichment.Lookups,
		CacheHits:         result.Enrichment.CacheHits,
		Enriched:          result.Enrichment.Enriched,
		Revenue:           result.Report.Summary.TotalRevenue,
		Duration:          result.Stats.ProcessingTime,
		CompletedAt:       p.now(),
	})
	if err := utils.EnsureDirectories(filepath.Dir(path)); err != nil {
		return err
	}
	return rec.WriteTextfile(path)
}

func (p *Pipeline) expand(pattern string, result *Result) string {
	return utils.ExpandFileName(pattern, result.RunID, result.StartedAt)
}

func stageFrom(path string, r io.Reader) (*utils.StagedFile, error) {
	return utils.StageFile(path, func(w io.Writer) error {
		_, err := io.Copy(w, r)
		return err
	})
}

func discard(files []*utils.StagedFile) {
	for _, file := range files {
		file.Discard()
	}
}

// filterOptions lists the regions and revenue range of the records that
// would pass validation.
func filterOptions(transactions []types.Transaction) FilterOptions {
	var opts FilterOptions
	seen := make(map[string]bool)

	for _, tx := range transactions {
		if !validation.IsValid(tx) {
			continue
		}
		if !seen[tx.Region] {
			seen[tx.Region] = true
			opts.Regions = append(opts.Regions, tx.Region)
		}
		revenue := tx.Revenue()
		if !opts.HasAmount || revenue < opts.MinAmount {
			opts.MinAmount = revenue
		}
		if !opts.HasAmount || revenue > opts.MaxAmount {
			opts.MaxAmount = revenue
		}
		opts.HasAmount = true
	}

	sort.Strings(opts.Regions)
	return opts
}

func countProducts(transactions []types.Transaction) int {
	names := make(map[string]struct{}, len(transactions))
	for _, tx := range transactions {
		names[tx.ProductName] = struct{}{}
	}
	return len(names)
}

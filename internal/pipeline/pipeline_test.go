package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/ginjaninja78/sales-analytics/internal/config"
	"github.com/ginjaninja78/sales-analytics/internal/csvparser"
	"github.com/ginjaninja78/sales-analytics/internal/lookup"
	"github.com/ginjaninja78/sales-analytics/internal/types"
)

var sampleLines = []string{
	"TransactionID|Date|ProductID|ProductName|Quantity|UnitPrice|CustomerID|Region",
	"T001|2024-12-01|P101|Laptop|2|45,000|C001|North",
	"T002|2024-12-01|P102|Mouse|5|500|C002|South",
	"T003|2024-12-02|P101|Laptop|1|45000|C003|North",
	"T004|2024-12-02|P103|Keyboard|0|1500|C004|East",
	"X005|2024-12-03|P104|Monitor|1|12000|C005|West",
	"T006|2024-12-03|P102|Mouse|3|500|C001|North",
	"T007|broken",
}

var (
	fixedTime  = time.Date(2024, 12, 5, 9, 30, 0, 0, time.UTC)
	fixedRunID = uuid.MustParse("6f1c2f0e-3b8d-4a57-9d3e-2a0c5b7e9f11")
)

type recordedProgress struct {
	mu      sync.Mutex
	steps   []int
	details []string
}

func (p *recordedProgress) Step(n int, _ string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.steps = append(p.steps, n)
}

func (p *recordedProgress) Detail(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.details = append(p.details, msg)
}

func writeInput(t *testing.T, dir string, lines []string) string {
	t.Helper()
	path := filepath.Join(dir, "sales.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	return path
}

func newTestPipeline(opts Options, l lookup.Lookup) *Pipeline {
	p := New(opts, l, zap.NewNop())
	p.now = func() time.Time { return fixedTime }
	p.newRunID = func() uuid.UUID { return fixedRunID }
	return p
}

func baseOptions(dir string) Options {
	return Options{
		InputFile:      filepath.Join(dir, "sales.txt"),
		EnrichedFile:   filepath.Join(dir, "data", "enriched.jsonl"),
		ReportFile:     filepath.Join(dir, "output", "report_{date}.txt"),
		CurrencySymbol: "$",
		Enrich:         true,
	}
}

var categories = lookup.Static{
	"Laptop": "laptops",
	"Mouse":  "accessories",
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, sampleLines)

	opts := baseOptions(dir)
	opts.XLSXFile = filepath.Join(dir, "output", "report_{uuid}.xlsx")
	opts.MetricsFile = filepath.Join(dir, "metrics", "sales.prom")
	opts.ErrorLogDir = filepath.Join(dir, "errors")

	progress := &recordedProgress{}
	p := newTestPipeline(opts, categories)
	p.Progress = progress

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	t.Run("counts", func(t *testing.T) {
		assert.Equal(t, "utf-8", result.Encoding)
		assert.Equal(t, 8, result.Parse.Lines)
		assert.Equal(t, 1, result.Parse.DroppedStructural)
		assert.Equal(t, 7, result.Parse.Parsed)
		assert.Equal(t, 3, result.Validation.InvalidCount)
		assert.Len(t, result.Validation.Valid, 4)
		assert.Equal(t, ProcessingStats{
			LinesRead:      8,
			Parsed:         7,
			Invalid:        3,
			Valid:          4,
			ProcessingTime: result.Stats.ProcessingTime,
		}, result.Stats)
	})

	t.Run("enrichment", func(t *testing.T) {
		require.NotNil(t, result.Enrichment)
		assert.Equal(t, 4, result.Enrichment.Total)
		assert.Equal(t, 4, result.Enrichment.Enriched)
		assert.Equal(t, 2, result.Enrichment.UniqueProducts)
		assert.Equal(t, 2, result.Enrichment.Lookups)
	})

	t.Run("summary", func(t *testing.T) {
		summary := result.Report.Summary
		assert.InDelta(t, 139000.0, summary.TotalRevenue, 1e-9)
		assert.Equal(t, 4, summary.TotalTransactions)
		assert.Equal(t, "2024-12-01 to 2024-12-03", summary.DateRange.String())
	})

	t.Run("outputs", func(t *testing.T) {
		want := []string{
			filepath.Join(dir, "data", "enriched.jsonl"),
			filepath.Join(dir, "output", "report_20241205.txt"),
			filepath.Join(dir, "output", "report_"+fixedRunID.String()+".xlsx"),
			filepath.Join(dir, "errors", "validation_errors_20241205_093000.txt"),
			filepath.Join(dir, "metrics", "sales.prom"),
		}
		assert.Equal(t, want, result.Outputs)
		for _, path := range want {
			assert.FileExists(t, path)
		}
	})

	t.Run("report", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(dir, "output", "report_20241205.txt"))
		require.NoError(t, err)
		report := string(data)

		assert.Contains(t, report, "SALES ANALYTICS REPORT")
		assert.Contains(t, report, "Run ID: "+fixedRunID.String())
		assert.Contains(t, report, "Records Processed: 4")
		assert.Contains(t, report, "$139,000.00")
	})

	t.Run("enriched file keeps input order", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(dir, "data", "enriched.jsonl"))
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		require.Len(t, lines, 4)

		var ids, cats []string
		for _, line := range lines {
			var rec struct {
				TransactionID string
				Category      string
			}
			require.NoError(t, json.Unmarshal([]byte(line), &rec))
			ids = append(ids, rec.TransactionID)
			cats = append(cats, rec.Category)
		}
		assert.Equal(t, []string{"T001", "T002", "T003", "T006"}, ids)
		assert.Equal(t, []string{"laptops", "accessories", "laptops", "accessories"}, cats)
	})

	t.Run("progress", func(t *testing.T) {
		assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, progress.steps)
		assert.Contains(t, progress.details, "Successfully read 8 lines using utf-8")
		assert.Contains(t, progress.details, "Parsed 7 records")
		assert.Contains(t, progress.details, "No filters applied")
		assert.Contains(t, progress.details, "Valid: 4 | Invalid: 3")
		assert.Contains(t, progress.details, "Found 2 unique products to look up")
		assert.Contains(t, progress.details, "Enriched 4/4 transactions (100.0%)")
	})
}

func TestRunWithCriteria(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, sampleLines)

	minAmount := 1000.0
	opts := baseOptions(dir)
	opts.Criteria = types.Criteria{Region: "north", MinAmount: &minAmount}

	progress := &recordedProgress{}
	p := newTestPipeline(opts, categories)
	p.Progress = progress

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Validation.Valid, 3)
	for _, tx := range result.Validation.Valid {
		assert.Equal(t, "North", tx.Region)
	}
	assert.Equal(t, 1, result.Validation.FilterStats.FilteredByRegion)
	assert.Equal(t, 0, result.Validation.FilterStats.FilteredByAmount)
	assert.Equal(t, opts.Criteria, result.Criteria)
	assert.NotContains(t, progress.details, "No filters applied")
	require.NotEmpty(t, progress.details)
	var filterDetail string
	for _, d := range progress.details {
		if strings.HasPrefix(d, "Filters: ") {
			filterDetail = d
		}
	}
	assert.Contains(t, filterDetail, "region=north")
}

func TestRunFilterPrompt(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, sampleLines)

	var offered FilterOptions
	p := newTestPipeline(baseOptions(dir), categories)
	p.FilterPrompt = func(_ context.Context, options FilterOptions) (types.Criteria, error) {
		offered = options
		return types.Criteria{Region: "South"}, nil
	}

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"North", "South"}, offered.Regions)
	assert.True(t, offered.HasAmount)
	assert.InDelta(t, 1500.0, offered.MinAmount, 1e-9)
	assert.InDelta(t, 90000.0, offered.MaxAmount, 1e-9)

	require.Len(t, result.Validation.Valid, 1)
	assert.Equal(t, "T002", result.Validation.Valid[0].TransactionID)
}

func TestRunEnrichmentDisabled(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, sampleLines)

	opts := baseOptions(dir)
	opts.Enrich = false

	called := false
	l := lookup.Func(func(context.Context, string) string {
		called = true
		return "never"
	})

	result, err := newTestPipeline(opts, l).Run(context.Background())
	require.NoError(t, err)

	assert.False(t, called)
	assert.Zero(t, result.Enrichment.Lookups)
	assert.Zero(t, result.Enrichment.Enriched)
	for _, rec := range result.Enrichment.Records {
		assert.Equal(t, types.UnknownCategory, rec.Category)
	}
}

func TestRunFatalConditions(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		opts    func(*Options)
		wantErr error
	}{
		{
			name:    "blank input",
			content: []byte("\n  \n\n"),
			wantErr: csvparser.ErrNoData,
		},
		{
			name:    "undecodable input",
			content: []byte{0x81, 0xff, 0xfe},
			opts:    func(o *Options) { o.Encodings = []string{"utf-8"} },
			wantErr: csvparser.ErrUndecodable,
		},
		{
			name:    "nothing valid",
			content: []byte("X1|2024-01-01|P1|Mouse|1|10|C1|North\n"),
			wantErr: ErrNoValidTransactions,
		},
		{
			name:    "filters remove everything",
			content: []byte("T1|2024-01-01|P1|Mouse|1|10|C1|North\n"),
			opts:    func(o *Options) { o.Criteria = types.Criteria{Region: "South"} },
			wantErr: ErrNoValidTransactions,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			opts := baseOptions(dir)
			require.NoError(t, os.WriteFile(opts.InputFile, tt.content, 0644))
			if tt.opts != nil {
				tt.opts(&opts)
			}

			result, err := newTestPipeline(opts, categories).Run(context.Background())

			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, result)
			assert.NoDirExists(t, filepath.Join(dir, "output"))
			assert.NoDirExists(t, filepath.Join(dir, "data"))
		})
	}
}

func TestRunMissingInput(t *testing.T) {
	dir := t.TempDir()

	_, err := newTestPipeline(baseOptions(dir), categories).Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunReportFailureLeavesNoEnrichedFile(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, sampleLines)

	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	opts := baseOptions(dir)
	opts.ReportFile = filepath.Join(blocker, "report.txt")

	result, err := newTestPipeline(opts, categories).Run(context.Background())

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorContains(t, err, "failed to write report")

	entries, err := os.ReadDir(filepath.Join(dir, "data"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunCancelled(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, sampleLines)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestPipeline(baseOptions(dir), categories).Run(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.NoDirExists(t, filepath.Join(dir, "output"))
}

func TestRunTextFormat(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, sampleLines)

	opts := baseOptions(dir)
	opts.EnrichedFile = filepath.Join(dir, "enriched.txt")
	opts.EnrichedFormat = "text"

	_, err := newTestPipeline(opts, categories).Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(opts.EnrichedFile)
	require.NoError(t, err)
	first := strings.SplitN(string(data), "\n", 2)[0]
	assert.True(t, strings.HasPrefix(first, "TransactionID=T001"))
	assert.Contains(t, first, "Category=laptops")
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, sampleLines)

	progress := &recordedProgress{}
	p := newTestPipeline(baseOptions(dir), nil)
	p.Progress = progress

	result, err := p.Check(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "utf-8", result.Encoding)
	assert.Equal(t, 7, result.Parse.Parsed)
	assert.Len(t, result.Validation.Valid, 4)
	assert.Equal(t, 3, result.Validation.InvalidCount)
	assert.Equal(t, []int{1, 2, 4}, progress.steps)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFilterOptionsSkipsInvalid(t *testing.T) {
	txs := csvparser.Parse(sampleLines)

	got := filterOptions(txs)

	assert.Equal(t, []string{"North", "South"}, got.Regions)
	assert.InDelta(t, 1500.0, got.MinAmount, 1e-9)
	assert.InDelta(t, 90000.0, got.MaxAmount, 1e-9)
}

func TestFilterOptionsEmpty(t *testing.T) {
	got := filterOptions(nil)

	assert.False(t, got.HasAmount)
	assert.Empty(t, got.Regions)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.XLSXReportFile = "out.xlsx"
	cfg.Filter.Region = "  East "
	cfg.Lookup.Workers = 4

	opts := OptionsFromConfig(&cfg)

	assert.Equal(t, cfg.InputFile, opts.InputFile)
	assert.Equal(t, "out.xlsx", opts.XLSXFile)
	assert.Equal(t, "East", opts.Criteria.Region)
	assert.Equal(t, 4, opts.Enrichment.Workers)
	assert.Equal(t, cfg.Lookup.Pacing, opts.Enrichment.Pacing)
	assert.True(t, opts.Enrich)

	cfg.Lookup.Enabled = false
	assert.False(t, OptionsFromConfig(&cfg).Enrich)

	cfg.Lookup.Overrides = map[string]string{"Mouse": "accessories"}
	assert.True(t, OptionsFromConfig(&cfg).Enrich)
}

func TestNewLookup(t *testing.T) {
	t.Run("nothing configured", func(t *testing.T) {
		assert.Nil(t, NewLookup(config.LookupConfig{}, zap.NewNop()))
	})

	t.Run("overrides only", func(t *testing.T) {
		l := NewLookup(config.LookupConfig{Overrides: map[string]string{"Mouse": "accessories"}}, zap.NewNop())

		require.NotNil(t, l)
		assert.Equal(t, "accessories", l.Category(context.Background(), "Mouse"))
		assert.Equal(t, types.UnknownCategory, l.Category(context.Background(), "Laptop"))
	})

	t.Run("remote only", func(t *testing.T) {
		l := NewLookup(config.LookupConfig{Enabled: true, BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, zap.NewNop())

		assert.IsType(t, &lookup.Client{}, l)
	})
}

func TestRunWorkbookInput(t *testing.T) {
	dir := t.TempDir()

	f := excelize.NewFile()
	for i, line := range sampleLines {
		cells := strings.Split(line, "|")
		row := make([]any, len(cells))
		for j, c := range cells {
			row[j] = c
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	input := filepath.Join(dir, "sales.xlsx")
	require.NoError(t, f.SaveAs(input))
	require.NoError(t, f.Close())

	opts := baseOptions(dir)
	opts.InputFile = input

	result, err := newTestPipeline(opts, categories).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "xlsx", result.Encoding)
	assert.Equal(t, 1, result.Parse.DroppedStructural)
	assert.Len(t, result.Validation.Valid, 4)
	assert.InDelta(t, 139000.0, result.Report.Summary.TotalRevenue, 1e-9)
}

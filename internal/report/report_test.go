package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sales-analytics/internal/csvparser"
	"github.com/ginjaninja78/sales-analytics/internal/types"
)

var generatedAt = time.Date(2024, 12, 1, 10, 30, 0, 0, time.UTC)

func scenario() ([]types.Transaction, []types.EnrichedTransaction) {
	txs := csvparser.Parse([]string{
		"T1|2024-01-01|P1|Mouse|2|500|C1|North",
		"T2|2024-01-01|P2|Mouse|1|500|C2|South",
	})
	records := []types.EnrichedTransaction{
		{Transaction: txs[0], Category: "accessories"},
		{Transaction: txs[1], Category: types.UnknownCategory},
	}
	return txs, records
}

func render(t *testing.T, d Data) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, d))
	return buf.String()
}

func TestRender(t *testing.T) {
	txs, records := scenario()
	d := Build(txs, records, Quality{Lines: 3, Parsed: 3, Invalid: 1}, Meta{
		RunID:          "run-1",
		GeneratedAt:    generatedAt,
		CurrencySymbol: "₹",
	})

	out := render(t, d)

	for _, want := range []string{
		"                   SALES ANALYTICS REPORT                   \n",
		"           Generated: 2024-12-01 10:30:00\n",
		"           Run ID: run-1\n",
		"           Records Processed: 2\n",
		"Total Revenue:      ₹1,500.00\n",
		"Total Transactions: 2\n",
		"Average Order Value: ₹750.00\n",
		"Date Range:         2024-01-01 to 2024-01-01\n",
		"North           ₹1,000          66.7     % 1         \n",
		"South           ₹500            33.3     % 1         \n",
		"1      Mouse                     3          ₹1,500         \n",
		"1      C1              ₹1,000          1         \n",
		"2024-01-01      ₹1,500          2          2         \n",
		"Best Selling Day:     2024-01-01 (₹1,500)\n",
		"Avg Txn Value (North): ₹1,000.00\n",
		"Total Products Enriched: 1\n",
		"Success Rate:            50.0%\n",
		"Invalid Records:          1\n",
	} {
		assert.Contains(t, out, want)
	}

	// Sections appear in a fixed order.
	sections := []string{
		"OVERALL SUMMARY",
		"REGION-WISE PERFORMANCE",
		"TOP 5 PRODUCTS",
		"TOP 5 CUSTOMERS",
		"DAILY SALES TREND (Recent 5 Days)",
		"PRODUCT PERFORMANCE ANALYSIS",
		"API ENRICHMENT SUMMARY",
		"DATA QUALITY",
	}
	last := -1
	for _, s := range sections {
		i := strings.Index(out, s)
		require.Greater(t, i, last, s)
		last = i
	}
}

func TestRenderRegionsByRevenue(t *testing.T) {
	txs := csvparser.Parse([]string{
		"T1|2024-01-01|P1|Cable|1|100|C1|East",
		"T2|2024-01-02|P2|Laptop|1|90000|C2|West",
		"T3|2024-01-03|P3|Mouse|1|500|C3|North",
	})

	out := render(t, Build(txs, nil, Quality{}, Meta{CurrencySymbol: "₹", GeneratedAt: generatedAt}))

	west := strings.Index(out, "West ")
	north := strings.Index(out, "North ")
	east := strings.Index(out, "East ")
	assert.True(t, west < north && north < east)
	assert.Contains(t, out, "₹90,000")
}

func TestRenderInvalidDates(t *testing.T) {
	txs := csvparser.Parse([]string{
		"T1|2024-01-01|P1|Mouse|1|100|C1|South",
		"T2|2024-13-40|P2|Cable|1|50|C2|South",
	})

	out := render(t, Build(txs, nil, Quality{}, Meta{CurrencySymbol: "₹", GeneratedAt: generatedAt}))

	assert.Contains(t, out, "Date Range:         Invalid Dates Found\n")
	assert.Contains(t, out, "Total Revenue:      ₹150.00\n")
	// No North transactions.
	assert.Contains(t, out, "Avg Txn Value (North): ₹0.00\n")
	assert.Contains(t, out, "Success Rate:            0.0%\n")
}

func TestRenderTruncatesProductNames(t *testing.T) {
	long := "Ultra Wide Curved Gaming Monitor 49in"
	txs := csvparser.Parse([]string{"T1|2024-01-01|P1|" + long + "|1|100|C1|North"})

	out := render(t, Build(txs, nil, Quality{}, Meta{CurrencySymbol: "$", GeneratedAt: generatedAt}))

	assert.Contains(t, out, "1      Ultra Wide Curved Gaming  1          $100           \n")
	assert.NotContains(t, out, long)
}

func TestRenderRecentDays(t *testing.T) {
	var lines []string
	for day := 1; day <= 7; day++ {
		lines = append(lines, "T"+string(rune('0'+day))+"|2024-03-0"+string(rune('0'+day))+"|P1|Mouse|1|100|C1|North")
	}

	out := render(t, Build(csvparser.Parse(lines), nil, Quality{}, Meta{GeneratedAt: generatedAt}))

	assert.Contains(t, out, "2024-03-07")
	assert.Contains(t, out, "2024-03-03")
	assert.NotContains(t, out, "2024-03-02      ")
	assert.Less(t, strings.Index(out, "2024-03-07"), strings.Index(out, "2024-03-03"))
}

func TestRenderActiveFilters(t *testing.T) {
	txs, _ := scenario()
	minAmount := 1200.5
	q := Quality{
		Source:   "data/sales.txt",
		Encoding: "latin-1",
		Criteria: types.Criteria{Region: "North", MinAmount: &minAmount},
		Filter:   types.FilterStats{TotalInput: 3, FilteredByRegion: 1},
	}

	out := render(t, Build(txs, nil, q, Meta{GeneratedAt: generatedAt}))

	assert.Contains(t, out, "Source File:              data/sales.txt\n")
	assert.Contains(t, out, "Encoding:                 latin-1\n")
	assert.Contains(t, out, "Filtered by Region:       1\n")
	assert.Contains(t, out, "Active Filters:           region=North, min=1,200.50\n")
}

func TestWriteEnriched(t *testing.T) {
	_, records := scenario()

	t.Run("jsonl", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteEnriched(&buf, records, FormatJSONL))

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 2)

		var first map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
		assert.Equal(t, "T1", first["TransactionID"])
		assert.Equal(t, float64(2), first["Quantity"])
		assert.Equal(t, float64(500), first["UnitPrice"])
		assert.Equal(t, "accessories", first["Category"])
		assert.Contains(t, lines[1], `"Category":"Unknown"`)
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteEnriched(&buf, records, FormatText))

		assert.Equal(t,
			"TransactionID=T1 | Date=2024-01-01 | ProductID=P1 | ProductName=Mouse | Quantity=2 | UnitPrice=500 | CustomerID=C1 | Region=North | Category=accessories\n"+
				"TransactionID=T2 | Date=2024-01-01 | ProductID=P2 | ProductName=Mouse | Quantity=1 | UnitPrice=500 | CustomerID=C2 | Region=South | Category=Unknown\n",
			buf.String())
	})

	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteEnriched(&buf, nil, FormatJSONL))
		assert.Empty(t, buf.String())
	})

	t.Run("xml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteEnriched(&buf, records, FormatXML))

		out := buf.String()
		assert.Contains(t, out, "<sales count=\"2\">")
		assert.Contains(t, out, "<Category>accessories</Category>")
		assert.Contains(t, out, "<Category>Unknown</Category>")
	})

	t.Run("unknown format", func(t *testing.T) {
		assert.Error(t, WriteEnriched(&bytes.Buffer{}, records, "csv"))
	})
}

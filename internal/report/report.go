// =============================================================================
// Sales Analytics - Text Report
// =============================================================================
//
// Render writes the human-readable report. Section order:
//   1. Header
//   2. Overall summary
//   3. Region-wise performance (by revenue, descending)
//   4. Top 5 products
//   5. Top 5 customers
//   6. Daily sales trend (5 most recent dates)
//   7. Product performance analysis
//   8. API enrichment summary
//   9. Data quality
//
// Monetary values use English digit grouping ("1,500.00").
//
// =============================================================================

package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ginjaninja78/sales-analytics/internal/types"
)

const (
	heavyRule = "============================================================"
	lightRule = "------------------------------------------------------------"

	productNameWidth = 24
	timestampLayout  = "2006-01-02 15:04:05"
)

var printer = message.NewPrinter(language.English)

// Render writes the text report for d to w.
func Render(w io.Writer, d Data) error {
	bw := bufio.NewWriter(w)
	r := &renderer{w: bw, currency: d.Meta.CurrencySymbol}

	r.header(d)
	r.summary(d)
	r.regions(d)
	r.products(d)
	r.customers(d)
	r.trend(d)
	r.performance(d)
	r.enrichment(d)
	r.quality(d)

	return bw.Flush()
}

type renderer struct {
	w        *bufio.Writer
	currency string
}

func (r *renderer) printf(format string, args ...any) {
	fmt.Fprintf(r.w, format, args...)
}

func (r *renderer) section(title string) {
	r.printf("%s\n%s\n", title, lightRule)
}

// money formats v with two decimals and digit grouping.
func (r *renderer) money(v float64) string {
	return r.currency + printer.Sprintf("%.2f", v)
}

// wholeMoney formats v rounded to a whole number, padded to width.
func (r *renderer) wholeMoney(v float64, width int) string {
	return r.currency + fmt.Sprintf("%-*s", width, printer.Sprintf("%.0f", v))
}

func (r *renderer) header(d Data) {
	r.printf("%s\n", heavyRule)
	r.printf("                   SALES ANALYTICS REPORT                   \n")
	r.printf("           Generated: %s\n", d.Meta.GeneratedAt.Format(timestampLayout))
	if d.Meta.RunID != "" {
		r.printf("           Run ID: %s\n", d.Meta.RunID)
	}
	r.printf("           Records Processed: %d\n", d.Summary.TotalTransactions)
	r.printf("%s\n\n", heavyRule)
}

func (r *renderer) summary(d Data) {
	r.section("OVERALL SUMMARY")
	r.printf("Total Revenue:      %s\n", r.money(d.Summary.TotalRevenue))
	r.printf("Total Transactions: %d\n", d.Summary.TotalTransactions)
	r.printf("Average Order Value: %s\n", r.money(d.Summary.AvgOrderValue))
	r.printf("Date Range:         %s\n\n", d.Summary.DateRange)
}

func (r *renderer) regions(d Data) {
	r.section("REGION-WISE PERFORMANCE")
	r.printf("%-15s %-15s %-10s %-10s\n", "Region", "Revenue", "% Total", "Count")
	r.printf("%s\n", strings.Repeat("-", 55))
	for _, s := range d.Regions {
		r.printf("%-15s %s %-9.1f%% %-10d\n", s.Region, r.wholeMoney(s.Revenue, 14), s.Percentage, s.Count)
	}
	r.printf("\n")
}

func (r *renderer) products(d Data) {
	r.section("TOP 5 PRODUCTS")
	r.printf("%-6s %-25s %-10s %-15s\n", "Rank", "Product Name", "Qty", "Revenue")
	r.printf("%s\n", strings.Repeat("-", 60))
	for i, p := range d.TopProducts {
		r.printf("%-6d %-25s %-10d %s\n", i+1, truncate(p.ProductName, productNameWidth), p.Quantity, r.wholeMoney(p.Revenue, 14))
	}
	r.printf("\n")
}

func (r *renderer) customers(d Data) {
	r.section("TOP 5 CUSTOMERS")
	r.printf("%-6s %-15s %-15s %-10s\n", "Rank", "Customer ID", "Total Spent", "Orders")
	r.printf("%s\n", strings.Repeat("-", 50))
	for i, c := range d.TopCustomers {
		r.printf("%-6d %-15s %s %-10d\n", i+1, c.CustomerID, r.wholeMoney(c.Revenue, 14), c.Count)
	}
	r.printf("\n")
}

func (r *renderer) trend(d Data) {
	r.section(fmt.Sprintf("DAILY SALES TREND (Recent %d Days)", RecentDayCount))
	r.printf("%-15s %-15s %-10s %-10s\n", "Date", "Revenue", "Orders", "Unique Cust")
	r.printf("%s\n", strings.Repeat("-", 55))
	for _, day := range d.RecentDays {
		r.printf("%-15s %s %-10d %-10d\n", day.Date, r.wholeMoney(day.Revenue, 14), day.Transactions, day.UniqueCustomers())
	}
	r.printf("\n")
}

func (r *renderer) performance(d Data) {
	r.section("PRODUCT PERFORMANCE ANALYSIS")
	if d.HasBestDay {
		r.printf("Best Selling Day:     %s (%s)\n", d.BestDay.Date, r.currency+printer.Sprintf("%.0f", d.BestDay.Revenue))
	} else {
		r.printf("Best Selling Day:     N/A\n")
	}
	r.printf("Avg Txn Value (%s): %s\n\n", FocusRegion, r.money(d.FocusAverage))
}

func (r *renderer) enrichment(d Data) {
	r.section("API ENRICHMENT SUMMARY")
	r.printf("Total Products Enriched: %d\n", d.Enrichment.Enriched)
	r.printf("Success Rate:            %.1f%%\n\n", d.Enrichment.SuccessRate)
}

func (r *renderer) quality(d Data) {
	q := d.Quality
	row := func(label string, value any) {
		r.printf("%-25s %v\n", label+":", value)
	}

	r.section("DATA QUALITY")
	if q.Source != "" {
		row("Source File", q.Source)
	}
	if q.Encoding != "" {
		row("Encoding", q.Encoding)
	}
	row("Lines Read", q.Lines)
	row("Malformed Lines Skipped", q.DroppedStructural)
	row("Records Parsed", q.Parsed)
	row("Invalid Records", q.Invalid)
	row("Filtered by Region", q.Filter.FilteredByRegion)
	row("Filtered by Amount", q.Filter.FilteredByAmount)
	if filters := DescribeCriteria(q.Criteria); filters != "" {
		row("Active Filters", filters)
	}
}

// DescribeCriteria renders the active filters as "region=X, min=Y, max=Z",
// or "" when none are set.
func DescribeCriteria(c types.Criteria) string {
	var parts []string
	if c.Region != "" {
		parts = append(parts, "region="+c.Region)
	}
	if c.MinAmount != nil {
		parts = append(parts, printer.Sprintf("min=%.2f", *c.MinAmount))
	}
	if c.MaxAmount != nil {
		parts = append(parts, printer.Sprintf("max=%.2f", *c.MaxAmount))
	}
	return strings.Join(parts, ", ")
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

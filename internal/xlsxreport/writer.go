// =============================================================================
// Sales Analytics - XLSX Report Export
// =============================================================================
//
// This module writes the report tables to a workbook, one sheet per table.
//
// SHEETS:
//   | Sheet          | Columns                                              |
//   |----------------|------------------------------------------------------|
//   | Summary        | Metric, Value                                        |
//   | Regions        | Region, Revenue, % Total, Count                      |
//   | Top Products   | Rank, Product Name, Quantity, Revenue                |
//   | Top Customers  | Rank, Customer ID, Total Spent, Orders               |
//   | Daily Trend    | Date, Revenue, Orders, Unique Customers              |
//   | Enriched       | every Transaction field plus Category                |
//
// Unlike the text report, the Daily Trend sheet lists every date and product
// names are never truncated.
//
// =============================================================================

package xlsxreport

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/sales-analytics/internal/report"
	"github.com/ginjaninja78/sales-analytics/pkg/utils"
)

// Sheet names, in workbook order.
const (
	SheetSummary      = "Summary"
	SheetRegions      = "Regions"
	SheetTopProducts  = "Top Products"
	SheetTopCustomers = "Top Customers"
	SheetDailyTrend   = "Daily Trend"
	SheetEnriched     = "Enriched"
)

// Sheets lists every sheet Write creates, in order.
var Sheets = []string{SheetSummary, SheetRegions, SheetTopProducts, SheetTopCustomers, SheetDailyTrend, SheetEnriched}

// numFmtMoney is the built-in "#,##0.00" format.
const numFmtMoney = 4

// Write renders d as a workbook at path, replacing any existing file
// atomically.
func Write(path string, d report.Data) error {
	f, err := Build(d)
	if err != nil {
		return err
	}
	defer f.Close()

	return utils.WriteFileAtomic(path, func(w io.Writer) error {
		if err := f.Write(w); err != nil {
			return fmt.Errorf("failed to write workbook: %w", err)
		}
		return nil
	})
}

// Build creates the workbook in memory. The caller must Close it.
func Build(d report.Data) (*excelize.File, error) {
	f := excelize.NewFile()
	b := &builder{f: f}

	if err := b.init(); err != nil {
		f.Close()
		return nil, err
	}

	b.summary(d)
	b.regions(d)
	b.products(d)
	b.customers(d)
	b.trend(d)
	b.enriched(d)

	if b.err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to build workbook: %w", b.err)
	}

	f.SetActiveSheet(0)
	return f, nil
}

// builder records the first error and turns later calls into no-ops.
type builder struct {
	f          *excelize.File
	headStyle  int
	moneyStyle int
	err        error
}

func (b *builder) init() error {
	// A new file starts with "Sheet1".
	if err := b.f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	for _, name := range Sheets[1:] {
		if _, err := b.f.NewSheet(name); err != nil {
			return err
		}
	}

	var err error
	if b.headStyle, err = b.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return err
	}
	if b.moneyStyle, err = b.f.NewStyle(&excelize.Style{NumFmt: numFmtMoney}); err != nil {
		return err
	}
	return nil
}

// row writes values starting at column A of the given 1-based row.
func (b *builder) row(sheet string, n int, values ...any) {
	if b.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		b.err = err
		return
	}
	b.err = b.f.SetSheetRow(sheet, cell, &values)
}

// header writes a bold header row and sizes the columns.
func (b *builder) header(sheet string, widths []float64, titles ...any) {
	b.row(sheet, 1, titles...)
	if b.err != nil {
		return
	}
	last, _ := excelize.CoordinatesToCellName(len(titles), 1)
	b.err = b.f.SetCellStyle(sheet, "A1", last, b.headStyle)
	for i, w := range widths {
		if b.err != nil {
			return
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		b.err = b.f.SetColWidth(sheet, col, col, w)
	}
}

// money applies the currency format to one column over rows 2..lastRow.
func (b *builder) money(sheet string, col, lastRow int) {
	if b.err != nil || lastRow < 2 {
		return
	}
	top, _ := excelize.CoordinatesToCellName(col, 2)
	bottom, _ := excelize.CoordinatesToCellName(col, lastRow)
	b.err = b.f.SetCellStyle(sheet, top, bottom, b.moneyStyle)
}

func (b *builder) summary(d report.Data) {
	b.header(SheetSummary, []float64{24, 40}, "Metric", "Value")
	rows := [][]any{
		{"Run ID", d.Meta.RunID},
		{"Generated", d.Meta.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Total Revenue", d.Summary.TotalRevenue},
		{"Total Transactions", d.Summary.TotalTransactions},
		{"Average Order Value", d.Summary.AvgOrderValue},
		{"Date Range", d.Summary.DateRange.String()},
		{"Avg Txn Value (" + report.FocusRegion + ")", d.FocusAverage},
		{"Products Enriched", d.Enrichment.Enriched},
		{"Enrichment Success Rate (%)", d.Enrichment.SuccessRate},
		{"Invalid Records", d.Quality.Invalid},
		{"Filtered by Region", d.Quality.Filter.FilteredByRegion},
		{"Filtered by Amount", d.Quality.Filter.FilteredByAmount},
		{"Malformed Lines Skipped", d.Quality.DroppedStructural},
	}
	if d.HasBestDay {
		rows = append(rows, []any{"Best Selling Day", d.BestDay.Date})
	}
	for i, r := range rows {
		b.row(SheetSummary, i+2, r...)
	}
}

func (b *builder) regions(d report.Data) {
	b.header(SheetRegions, []float64{18, 16, 10, 10}, "Region", "Revenue", "% Total", "Count")
	for i, s := range d.Regions {
		b.row(SheetRegions, i+2, s.Region, s.Revenue, s.Percentage, s.Count)
	}
	b.money(SheetRegions, 2, len(d.Regions)+1)
}

func (b *builder) products(d report.Data) {
	b.header(SheetTopProducts, []float64{6, 36, 10, 16}, "Rank", "Product Name", "Quantity", "Revenue")
	for i, p := range d.TopProducts {
		b.row(SheetTopProducts, i+2, i+1, p.ProductName, p.Quantity, p.Revenue)
	}
	b.money(SheetTopProducts, 4, len(d.TopProducts)+1)
}

func (b *builder) customers(d report.Data) {
	b.header(SheetTopCustomers, []float64{6, 16, 16, 10}, "Rank", "Customer ID", "Total Spent", "Orders")
	for i, c := range d.TopCustomers {
		b.row(SheetTopCustomers, i+2, i+1, c.CustomerID, c.Revenue, c.Count)
	}
	b.money(SheetTopCustomers, 3, len(d.TopCustomers)+1)
}

func (b *builder) trend(d report.Data) {
	b.header(SheetDailyTrend, []float64{14, 16, 10, 18}, "Date", "Revenue", "Orders", "Unique Customers")
	for i, day := range d.Trend {
		b.row(SheetDailyTrend, i+2, day.Date, day.Revenue, day.Transactions, day.UniqueCustomers())
	}
	b.money(SheetDailyTrend, 2, len(d.Trend)+1)
}

func (b *builder) enriched(d report.Data) {
	b.header(SheetEnriched, []float64{14, 12, 10, 36, 10, 12, 12, 10, 18},
		"TransactionID", "Date", "ProductID", "ProductName", "Quantity", "UnitPrice", "CustomerID", "Region", "Category")
	for i, r := range d.Records {
		b.row(SheetEnriched, i+2,
			r.TransactionID, r.Date, r.ProductID, r.ProductName,
			r.Quantity.Value, r.UnitPrice.Value, r.CustomerID, r.Region, r.Category)
	}
	b.money(SheetEnriched, 6, len(d.Records)+1)
}

// =============================================================================
// Sales Analytics - XLSX Input Reader
// =============================================================================
//
// This module reads a sales export saved as an Excel workbook and turns each
// row into a delimited line, so workbooks flow through the same parser as
// the text export.
//
// EXPECTED LAYOUT:
//   One row per transaction, eight columns in the text export's order:
//
//   | TransactionID | Date | ProductID | ProductName | Quantity | UnitPrice | CustomerID | Region |
//
//   A header row is allowed; it fails validation like any other bad row.
//
// CONVERSION RULES:
//   - Cell values are read as displayed (so "45,000" stays "45,000")
//   - A delimiter inside a cell is replaced with a space
//   - Rows with no non-blank cell are skipped
//   - Short rows are padded with empty cells to the full field count, since
//     trailing blank cells are not stored in the sheet
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/sales-analytics/internal/csvparser"
	"github.com/ginjaninja78/sales-analytics/internal/types"
)

// SourceName is reported in place of an encoding for workbook input.
const SourceName = "xlsx"

// IsWorkbook reports whether path names an Excel workbook.
func IsWorkbook(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return true
	default:
		return false
	}
}

// ReadLines reads one sheet of a workbook as delimited lines.
//
// PARAMETERS:
//   - path: The workbook file.
//   - sheet: The sheet to read. Empty means the first sheet.
//   - delimiter: The separator placed between cells.
//
// RETURNS:
//   - One line per non-blank row, in sheet order.
//   - csvparser.ErrNoData when every row is blank, or an error if the file
//     cannot be opened or the sheet does not exist.
func ReadLines(path, sheet, delimiter string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
		if sheet == "" {
			return nil, fmt.Errorf("workbook has no sheets")
		}
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("workbook has no sheet %q", sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		if isRowEmpty(row) {
			continue
		}
		lines = append(lines, joinRow(row, delimiter))
	}

	if len(lines) == 0 {
		return nil, csvparser.ErrNoData
	}
	return lines, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// joinRow joins the cells of one row, padding it to types.FieldCount.
func joinRow(row []string, delimiter string) string {
	cells := make([]string, max(len(row), types.FieldCount))
	for i, cell := range row {
		cells[i] = strings.ReplaceAll(cell, delimiter, " ")
	}
	return strings.Join(cells, delimiter)
}

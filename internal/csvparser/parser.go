// =============================================================================
// Sales Analytics - Record Parser
// =============================================================================
//
// This module turns raw delimited lines into Transaction records.
//
// RECORD FORMAT:
//   TransactionID|Date|ProductID|ProductName|Quantity|UnitPrice|CustomerID|Region
//
// PARSING RULES:
//   - Lines that are blank after trimming are skipped
//   - Lines with fewer than 8 segments are dropped silently (counted only in
//     ParseStats.DroppedStructural, never as invalid records)
//   - Segments beyond the eighth are ignored
//   - Quantity and UnitPrice have thousands separators removed and are
//     coerced to numbers; on failure the trimmed text is kept so validation
//     can reject the record later
//
// =============================================================================

package csvparser

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ginjaninja78/sales-analytics/internal/types"
)

// DefaultDelimiter separates fields in the sales export.
const DefaultDelimiter = "|"

// =============================================================================
// PARSE STATISTICS
// =============================================================================

// ParseStats describes what happened to each input line.
type ParseStats struct {
	// Lines is the number of lines handed to the parser.
	Lines int

	// Blank is the number of lines skipped because they were empty.
	Blank int

	// DroppedStructural is the number of lines with too few fields.
	DroppedStructural int

	// Parsed is the number of Transactions produced.
	Parsed int

	// QuantityCoercionFailures counts records whose Quantity stayed text.
	QuantityCoercionFailures int

	// PriceCoercionFailures counts records whose UnitPrice stayed text.
	PriceCoercionFailures int
}

// =============================================================================
// PARSER
// =============================================================================

// Parser splits delimited sales lines into Transactions.
type Parser struct {
	delimiter string
	logger    *zap.Logger
}

// NewParser creates a Parser. An empty delimiter falls back to "|".
func NewParser(delimiter string, logger *zap.Logger) *Parser {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{
		delimiter: delimiter,
		logger:    logger.Named("parser"),
	}
}

// Parse converts lines to Transactions using the default delimiter.
func Parse(lines []string) []types.Transaction {
	transactions, _ := NewParser(DefaultDelimiter, nil).Parse(lines)
	return transactions
}

// Parse converts lines to Transactions, preserving input order.
//
// PARAMETERS:
//   - lines: Raw text lines, one record per line.
//
// RETURNS:
//   - The parsed Transactions.
//   - Statistics about skipped and dropped lines.
func (p *Parser) Parse(lines []string) ([]types.Transaction, ParseStats) {
	stats := ParseStats{Lines: len(lines)}
	transactions := make([]types.Transaction, 0, len(lines))

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			stats.Blank++
			continue
		}

		segments := strings.Split(line, p.delimiter)
		if len(segments) < types.FieldCount {
			stats.DroppedStructural++
			p.logger.Debug("dropping line with too few fields",
				zap.Int("line", i+1),
				zap.Int("fields", len(segments)))
			continue
		}

		tx := parseRecord(segments)
		if !tx.Quantity.Parsed {
			stats.QuantityCoercionFailures++
		}
		if !tx.UnitPrice.Parsed {
			stats.PriceCoercionFailures++
		}

		transactions = append(transactions, tx)
	}

	stats.Parsed = len(transactions)
	p.logger.Debug("parse complete",
		zap.Int("lines", stats.Lines),
		zap.Int("parsed", stats.Parsed),
		zap.Int("dropped_structural", stats.DroppedStructural))

	return transactions, stats
}

// parseRecord maps the first eight trimmed segments onto a Transaction.
func parseRecord(segments []string) types.Transaction {
	field := func(i int) string { return strings.TrimSpace(segments[i]) }

	return types.Transaction{
		TransactionID: field(0),
		Date:          field(1),
		ProductID:     field(2),
		ProductName:   field(3),
		Quantity:      coerceQuantity(field(4)),
		UnitPrice:     coercePrice(field(5)),
		CustomerID:    field(6),
		Region:        field(7),
	}
}

// =============================================================================
// NUMERIC COERCION
// =============================================================================

// coerceQuantity strips thousands separators and parses an integer.
func coerceQuantity(raw string) types.Numeric[int] {
	n := types.Numeric[int]{Raw: raw}

	value, err := strconv.Atoi(stripThousands(raw))
	if err != nil {
		return n
	}

	n.Value = value
	n.Parsed = true
	return n
}

// coercePrice strips thousands separators and parses a decimal number.
// decimal rejects "NaN" and "Inf", which strconv.ParseFloat would accept.
func coercePrice(raw string) types.Numeric[float64] {
	n := types.Numeric[float64]{Raw: raw}

	value, err := decimal.NewFromString(stripThousands(raw))
	if err != nil {
		return n
	}

	n.Value = value.InexactFloat64()
	n.Parsed = true
	return n
}

func stripThousands(s string) string {
	return strings.ReplaceAll(s, ",", "")
}

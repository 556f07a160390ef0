// =============================================================================
// Sales Analytics - Shared Types
// =============================================================================
//
// This package contains the domain types shared by every pipeline stage. They
// live here to avoid import cycles between:
//   - csvparser   (produces Transactions)
//   - validation  (filters Transactions)
//   - analytics   (aggregates Transactions)
//   - enrichment  (produces EnrichedTransactions)
//   - report      (renders everything)
//
// =============================================================================

package types

import "strconv"

// UnknownCategory is the category assigned when a product cannot be looked up.
const UnknownCategory = "Unknown"

// TransactionIDPrefix is the marker every valid TransactionID starts with.
const TransactionIDPrefix = "T"

// FieldCount is the number of positional fields in one input record.
const FieldCount = 8

// =============================================================================
// LOOSELY-TYPED NUMERIC FIELD
// =============================================================================

// Numeric holds a field that the parser tried to coerce to a number.
// When coercion fails, Parsed is false and only Raw is meaningful.
type Numeric[T int | float64] struct {
	// Value is the coerced number. Zero when Parsed is false.
	Value T

	// Raw is the trimmed source text (thousands separators still present).
	Raw string

	// Parsed reports whether Raw was successfully coerced.
	Parsed bool
}

// String returns the number when parsed, otherwise the raw text.
func (n Numeric[T]) String() string {
	if !n.Parsed {
		return n.Raw
	}
	switch v := any(n.Value).(type) {
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return n.Raw
}

// =============================================================================
// TRANSACTION TYPES
// =============================================================================

// Transaction is one parsed sales record. Field order matches the input
// column order.
type Transaction struct {
	TransactionID string
	Date          string // YYYY-MM-DD, not checked at parse time
	ProductID     string
	ProductName   string
	Quantity      Numeric[int]
	UnitPrice     Numeric[float64]
	CustomerID    string
	Region        string
}

// Revenue is Quantity × UnitPrice. It is only meaningful for transactions
// that passed validation.
func (t Transaction) Revenue() float64 {
	return float64(t.Quantity.Value) * t.UnitPrice.Value
}

// EnrichedTransaction is a Transaction plus the product category resolved
// during enrichment.
type EnrichedTransaction struct {
	Transaction
	Category string
}

// IsEnriched reports whether a real category was found.
func (e EnrichedTransaction) IsEnriched() bool {
	return e.Category != "" && e.Category != UnknownCategory
}

// =============================================================================
// FILTER TYPES
// =============================================================================

// Criteria holds the optional user-supplied filters. A blank Region and nil
// amounts mean "no filter".
type Criteria struct {
	Region    string
	MinAmount *float64
	MaxAmount *float64
}

// IsZero reports whether no filter is set.
func (c Criteria) IsZero() bool {
	return c.Region == "" && c.MinAmount == nil && c.MaxAmount == nil
}

// FilterStats counts how many validated records each filter excluded.
type FilterStats struct {
	TotalInput       int
	FilteredByRegion int
	FilteredByAmount int
}

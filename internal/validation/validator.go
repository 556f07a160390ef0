// =============================================================================
// Sales Analytics - Validation Engine
// =============================================================================
//
// This module applies the fixed business rules to parsed transactions and then
// the optional user filters.
//
// VALIDATION RULES (a record failing ANY rule is invalid):
//   1. TransactionID must start with "T"
//   2. CustomerID and Region must both be non-empty
//   3. Quantity must be an integer greater than zero
//   4. UnitPrice must be a number greater than zero
//
// FILTERS (applied only to valid records, in this order):
//   1. Region      - case-insensitive equality
//   2. Min amount  - revenue below the minimum is excluded
//   3. Max amount  - revenue above the maximum is excluded
//
// ERROR HANDLING:
//   - Every rule is evaluated, so a record reports all of its violations
//   - Invalid records are counted and dropped; they never reach the filters
//   - Errors are collected for diagnostics, never returned as failures
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ginjaninja78/sales-analytics/internal/types"
	"github.com/ginjaninja78/sales-analytics/pkg/utils"
)

// =============================================================================
// VALIDATION RULES
// =============================================================================

// Rule identifies one business rule.
type Rule string

const (
	RuleTransactionID  Rule = "transaction_id_prefix"
	RuleRequiredFields Rule = "customer_and_region_required"
	RulePositiveQty    Rule = "quantity_positive_integer"
	RulePositivePrice  Rule = "unit_price_positive_number"
)

// Rules lists every rule in evaluation order.
var Rules = []Rule{RuleTransactionID, RuleRequiredFields, RulePositiveQty, RulePositivePrice}

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError describes one rule a transaction violated.
type ValidationError struct {
	// Rule is the violated rule.
	Rule Rule

	// TransactionID is the ID of the offending record (may itself be bad).
	TransactionID string

	// Field is the name of the field that failed.
	Field string

	// Value is the offending value as text.
	Value string

	// Message is a human-readable explanation.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] Transaction '%s', Field '%s': %s (value: '%s')",
		e.Rule,
		e.TransactionID,
		e.Field,
		e.Message,
		e.Value,
	)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// Result is the outcome of ValidateAndFilter.
type Result struct {
	// Valid holds the survivors of validation and filtering, in input order.
	Valid []types.Transaction

	// InvalidCount is the number of records that failed at least one rule.
	InvalidCount int

	// FilterStats counts records excluded by the optional filters.
	FilterStats types.FilterStats

	// Errors holds every rule violation found.
	Errors []*ValidationError

	// RuleViolations counts violations per rule. A record failing two rules
	// is counted under both.
	RuleViolations map[Rule]int
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator runs the rules and filters.
type Validator struct {
	logger *zap.Logger
}

// NewValidator creates a Validator. A nil logger discards output.
func NewValidator(logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{logger: logger.Named("validation")}
}

// ValidateAndFilter is a convenience wrapper around Validator.ValidateAndFilter.
func ValidateAndFilter(transactions []types.Transaction, criteria types.Criteria) Result {
	return NewValidator(nil).ValidateAndFilter(transactions, criteria)
}

// ValidateAndFilter validates every transaction and applies the filters.
//
// PARAMETERS:
//   - transactions: The parsed transactions.
//   - criteria: Optional region and amount filters.
//
// RETURNS:
//   - A Result with the survivors, the invalid count and filter statistics.
//     FilterStats.TotalInput is always len(transactions).
func (v *Validator) ValidateAndFilter(transactions []types.Transaction, criteria types.Criteria) Result {
	result := Result{
		Valid:          make([]types.Transaction, 0, len(transactions)),
		FilterStats:    types.FilterStats{TotalInput: len(transactions)},
		RuleViolations: make(map[Rule]int),
	}

	for _, tx := range transactions {
		if errs := ValidateTransaction(tx); len(errs) > 0 {
			result.InvalidCount++
			result.Errors = append(result.Errors, errs...)
			for _, e := range errs {
				result.RuleViolations[e.Rule]++
			}
			continue
		}

		switch applyFilters(tx, criteria) {
		case filteredByRegion:
			result.FilterStats.FilteredByRegion++
			continue
		case filteredByAmount:
			result.FilterStats.FilteredByAmount++
			continue
		}

		result.Valid = append(result.Valid, tx)
	}

	v.logger.Debug("validation complete",
		zap.Int("input", len(transactions)),
		zap.Int("valid", len(result.Valid)),
		zap.Int("invalid", result.InvalidCount),
		zap.Int("filtered_by_region", result.FilterStats.FilteredByRegion),
		zap.Int("filtered_by_amount", result.FilterStats.FilteredByAmount))

	return result
}

// ValidateTransaction evaluates every rule against one transaction and
// returns one error per violated rule. An empty result means the record is
// valid.
func ValidateTransaction(tx types.Transaction) []*ValidationError {
	var errs []*ValidationError

	add := func(rule Rule, field, value, message string) {
		errs = append(errs, &ValidationError{
			Rule:          rule,
			TransactionID: tx.TransactionID,
			Field:         field,
			Value:         value,
			Message:       message,
		})
	}

	// Rule 1: TransactionID prefix.
	if !strings.HasPrefix(tx.TransactionID, types.TransactionIDPrefix) {
		add(RuleTransactionID, "TransactionID", tx.TransactionID,
			fmt.Sprintf("must start with %q", types.TransactionIDPrefix))
	}

	// Rule 2: required join keys.
	if tx.CustomerID == "" || tx.Region == "" {
		field := "CustomerID"
		if tx.CustomerID != "" {
			field = "Region"
		}
		add(RuleRequiredFields, field, "", "CustomerID and Region are required")
	}

	// Rule 3: quantity.
	if !tx.Quantity.Parsed || tx.Quantity.Value <= 0 {
		add(RulePositiveQty, "Quantity", tx.Quantity.String(), "must be a positive integer")
	}

	// Rule 4: unit price.
	if !tx.UnitPrice.Parsed || !(tx.UnitPrice.Value > 0) {
		add(RulePositivePrice, "UnitPrice", tx.UnitPrice.String(), "must be a positive number")
	}

	return errs
}

// IsValid reports whether tx passes every rule.
func IsValid(tx types.Transaction) bool {
	return len(ValidateTransaction(tx)) == 0
}

// =============================================================================
// FILTERS
// =============================================================================

type filterOutcome int

const (
	kept filterOutcome = iota
	filteredByRegion
	filteredByAmount
)

// applyFilters decides whether a valid transaction survives the criteria.
func applyFilters(tx types.Transaction, criteria types.Criteria) filterOutcome {
	if criteria.Region != "" && !strings.EqualFold(tx.Region, criteria.Region) {
		return filteredByRegion
	}

	revenue := tx.Revenue()
	if criteria.MinAmount != nil && revenue < *criteria.MinAmount {
		return filteredByAmount
	}
	if criteria.MaxAmount != nil && revenue > *criteria.MaxAmount {
		return filteredByAmount
	}

	return kept
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors renders validation errors one per line.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d validation error(s):\n", len(errors))
	for i, e := range errors {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, e.Error())
	}
	return sb.String()
}

// WriteErrorLog writes an itemised log of errs into dir and returns its path.
// Nothing is written when errs is empty.
func WriteErrorLog(errs []*ValidationError, dir, source string, now time.Time) (string, error) {
	entries := make([]utils.ErrorLogEntry, 0, len(errs))
	for _, e := range errs {
		entries = append(entries, utils.ErrorLogEntry{
			TransactionID: e.TransactionID,
			ErrorType:     string(e.Rule),
			ErrorMessage:  e.Message,
			FieldName:     e.Field,
			FieldValue:    e.Value,
		})
	}
	return utils.WriteErrorLog(entries, dir, source, now)
}

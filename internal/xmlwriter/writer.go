// =============================================================================
// Sales Analytics - XML Writer Module
// =============================================================================
//
// This module writes enriched transactions as an XML document, one element
// per record in input order.
//
// XML STRUCTURE:
//
//   <?xml version="1.0" encoding="UTF-8"?>
//   <sales count="2">                         <!-- Root element -->
//     <transaction n="1">                     <!-- Record with 1-based index -->
//       <TransactionID>T001</TransactionID>
//       <Date>2024-12-01</Date>
//       ...
//       <Category>laptops</Category>
//     </transaction>
//     <transaction n="2">
//       <TransactionID>T002</TransactionID>
//       <CustomerID/>                         <!-- Empty values self-close -->
//       ...
//     </transaction>
//   </sales>
//
// Quantity and UnitPrice keep the raw text when coercion failed, the same
// way the text format does.
//
// =============================================================================

package xmlwriter

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ginjaninja78/sales-analytics/internal/types"
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// Options contains options for XML generation.
type Options struct {
	// Indent is the string used for indentation.
	// Default: "  " (two spaces)
	Indent string

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	// Default: true
	IncludeXMLDeclaration bool

	// RootElement names the document root.
	// Default: "sales"
	RootElement string

	// RecordElement names each transaction element.
	// Default: "transaction"
	RecordElement string

	// IndexAttribute is the attribute carrying the 1-based record index.
	// Default: "n"
	IndexAttribute string
}

// DefaultOptions returns the default generation options.
func DefaultOptions() Options {
	return Options{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
		RootElement:           "sales",
		RecordElement:         "transaction",
		IndexAttribute:        "n",
	}
}

// =============================================================================
// XML GENERATION FUNCTIONS
// =============================================================================

// Write writes records as an XML document with the default options.
func Write(w io.Writer, records []types.EnrichedTransaction) error {
	return WriteWithOptions(w, records, DefaultOptions())
}

// WriteWithOptions writes records as an XML document.
//
// PARAMETERS:
//   - w: The destination.
//   - records: Enriched transactions, written in order.
//   - options: Element names and formatting.
//
// RETURNS:
//   - An error if writing fails.
func WriteWithOptions(w io.Writer, records []types.EnrichedTransaction, options Options) error {
	bw := bufio.NewWriter(w)

	if options.IncludeXMLDeclaration {
		bw.WriteString(xml.Header)
	}

	fmt.Fprintf(bw, "<%s count=\"%d\">\n", options.RootElement, len(records))
	for i, rec := range records {
		if err := writeRecord(bw, rec, i+1, options); err != nil {
			return fmt.Errorf("failed to write %s: %w", rec.TransactionID, err)
		}
	}
	fmt.Fprintf(bw, "</%s>\n", options.RootElement)

	return bw.Flush()
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// field is one child element of a record.
type field struct {
	tag   string
	value string
}

func recordFields(e types.EnrichedTransaction) []field {
	return []field{
		{"TransactionID", e.TransactionID},
		{"Date", e.Date},
		{"ProductID", e.ProductID},
		{"ProductName", e.ProductName},
		{"Quantity", e.Quantity.String()},
		{"UnitPrice", e.UnitPrice.String()},
		{"Revenue", strconv.FormatFloat(e.Revenue(), 'f', 2, 64)},
		{"CustomerID", e.CustomerID},
		{"Region", e.Region},
		{"Category", e.Category},
	}
}

// writeRecord writes one record element at depth 1.
func writeRecord(w *bufio.Writer, rec types.EnrichedTransaction, index int, options Options) error {
	fmt.Fprintf(w, "%s<%s %s=\"%d\">\n", options.Indent, options.RecordElement, options.IndexAttribute, index)

	childIndent := strings.Repeat(options.Indent, 2)
	for _, f := range recordFields(rec) {
		if f.value == "" {
			fmt.Fprintf(w, "%s<%s/>\n", childIndent, f.tag)
			continue
		}
		fmt.Fprintf(w, "%s<%s>", childIndent, f.tag)
		if err := xml.EscapeText(w, []byte(f.value)); err != nil {
			return err
		}
		fmt.Fprintf(w, "</%s>\n", f.tag)
	}

	_, err := fmt.Fprintf(w, "%s</%s>\n", options.Indent, options.RecordElement)
	return err
}

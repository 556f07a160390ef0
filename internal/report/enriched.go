package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ginjaninja78/sales-analytics/internal/types"
	"github.com/ginjaninja78/sales-analytics/internal/xmlwriter"
)

// Enriched file formats.
const (
	FormatJSONL = "jsonl"
	FormatText  = "text"
	FormatXML   = "xml"
)

// enrichedRecord is the field-labelled form of one enriched transaction.
type enrichedRecord struct {
	TransactionID string  `json:"TransactionID"`
	Date          string  `json:"Date"`
	ProductID     string  `json:"ProductID"`
	ProductName   string  `json:"ProductName"`
	Quantity      int     `json:"Quantity"`
	UnitPrice     float64 `json:"UnitPrice"`
	CustomerID    string  `json:"CustomerID"`
	Region        string  `json:"Region"`
	Category      string  `json:"Category"`
}

func toRecord(e types.EnrichedTransaction) enrichedRecord {
	return enrichedRecord{
		TransactionID: e.TransactionID,
		Date:          e.Date,
		ProductID:     e.ProductID,
		ProductName:   e.ProductName,
		Quantity:      e.Quantity.Value,
		UnitPrice:     e.UnitPrice.Value,
		CustomerID:    e.CustomerID,
		Region:        e.Region,
		Category:      e.Category,
	}
}

// WriteEnriched writes one line per record, in order.
//
// Formats:
//   - jsonl: a JSON object per line
//   - text:  "Field=value | Field=value | ..."
//   - xml:   a <sales> document with one <transaction> per record
func WriteEnriched(w io.Writer, records []types.EnrichedTransaction, format string) error {
	bw := bufio.NewWriter(w)

	switch format {
	case FormatJSONL, "":
		enc := json.NewEncoder(bw)
		enc.SetEscapeHTML(false)
		for _, rec := range records {
			if err := enc.Encode(toRecord(rec)); err != nil {
				return fmt.Errorf("failed to encode %s: %w", rec.TransactionID, err)
			}
		}
	case FormatText:
		for _, rec := range records {
			if _, err := io.WriteString(bw, textLine(rec)+"\n"); err != nil {
				return err
			}
		}
	case FormatXML:
		if err := xmlwriter.Write(bw, records); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown enriched format %q", format)
	}

	return bw.Flush()
}

func textLine(e types.EnrichedTransaction) string {
	fields := []string{
		"TransactionID=" + e.TransactionID,
		"Date=" + e.Date,
		"ProductID=" + e.ProductID,
		"ProductName=" + e.ProductName,
		"Quantity=" + e.Quantity.String(),
		"UnitPrice=" + e.UnitPrice.String(),
		"CustomerID=" + e.CustomerID,
		"Region=" + e.Region,
		"Category=" + e.Category,
	}
	return strings.Join(fields, " | ")
}

// Package export renders catalog and sales data as downloadable documents:
// an xlsx workbook, a paginated PDF report and a PDF sale receipt.
package export

import (
	"time"

	"github.com/shopspring/decimal"

	"kairos/ent"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
)

// Data is the input of every report export.
type Data struct {
	Products  []ent.Product
	Lines     []ent.SaleLine
	Generated time.Time
	// Location renders timestamps; nil means UTC.
	Location *time.Location
	// LowStock is the threshold used by the summary counters.
	LowStock int64
}

func (d Data) loc() *time.Location {
	if d.Location == nil {
		return time.UTC
	}
	return d.Location
}

// Filename returns the download name for a report generated at t.
func Filename(ext string, t time.Time) string {
	return "kairos-report-" + t.Format("20060102-150405") + "." + ext
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func productName(name string) string {
	if name == "" {
		return "(removed product)"
	}
	return name
}

func barcode(b *string) string {
	if b == nil {
		return ""
	}
	return *b
}

package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"kairos/report"
)

const (
	SheetProducts = "Products"
	SheetSales    = "Sales"
	SheetSummary  = "Summary"
)

var (
	productHeader = []interface{}{"ID", "Name", "Barcode", "Price", "Quantity", "Stock value"}
	salesHeader   = []interface{}{
		"Sale", "Date", "Customer", "Payment", "Product", "Barcode",
		"Quantity", "Unit price", "Subtotal", "Sale total",
	}
)

// Workbook writes the products, the sale lines and a summary as three
// sheets of one xlsx document.
func Workbook(w io.Writer, d Data) error {
	f := excelize.NewFile()
	defer f.Close()

	err := f.SetSheetName("Sheet1", SheetProducts)
	if err != nil {
		return err
	}
	if _, err = f.NewSheet(SheetSales); err != nil {
		return err
	}
	if _, err = f.NewSheet(SheetSummary); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(d.Products))
	for _, p := range d.Products {
		value := decimal.Zero
		if p.Quantity > 0 {
			value = p.Price.Mul(decimal.NewFromInt(p.Quantity))
		}
		rows = append(rows, []interface{}{
			p.ID, p.Name, barcode(p.Barcode),
			p.Price.InexactFloat64(), p.Quantity, value.InexactFloat64(),
		})
	}
	if err = writeSheet(f, SheetProducts, productHeader, rows, bold); err != nil {
		return err
	}

	loc := d.loc()
	rows = rows[:0]
	for _, l := range d.Lines {
		rows = append(rows, []interface{}{
			l.SaleID,
			l.CreatedAt.In(loc).Format("2006-01-02 15:04"),
			l.CustomerName,
			string(l.PaymentMethod),
			productName(l.ProductName),
			l.Barcode,
			l.Quantity,
			l.UnitPrice.InexactFloat64(),
			l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity)).InexactFloat64(),
			l.Total.InexactFloat64(),
		})
	}
	if err = writeSheet(f, SheetSales, salesHeader, rows, bold); err != nil {
		return err
	}

	st := report.Summarize(d.Products, d.Lines, d.LowStock)
	rows = [][]interface{}{
		{"Products", st.Products},
		{"Out of stock", st.OutOfStock},
		{"Low stock", st.LowStock},
		{"Stock value", st.StockValue.InexactFloat64()},
		{"Transactions", st.Transactions},
		{"Items sold", st.ItemsSold},
		{"Sales total", st.SalesTotal.InexactFloat64()},
		{"Generated", d.Generated.In(loc).Format("2006-01-02 15:04:05")},
	}
	if err = writeSheet(f, SheetSummary, []interface{}{"Metric", "Value"}, rows, bold); err != nil {
		return err
	}

	f.SetActiveSheet(0)

	_, err = f.WriteTo(w)
	return err
}

func writeSheet(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}, style int) error {
	err := f.SetSheetRow(sheet, "A1", &header)
	if err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}

	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err = f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err = f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}

	return f.SetColWidth(sheet, "A", lastCol, 16)
}

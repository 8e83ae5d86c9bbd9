package export

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"kairos/ent"
	"kairos/report"
)

type column struct {
	title string
	width float64
	align string
}

type pdfDoc struct {
	*fpdf.Fpdf
	tr func(string) string
}

func newPDF(orientation string, title string) *pdfDoc {
	pdf := fpdf.New(orientation, "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetCreator("kairos", true)
	pdf.AliasNbPages("")
	pdf.SetAutoPageBreak(true, 15)

	d := &pdfDoc{Fpdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	return d
}

func (d *pdfDoc) heading(text string, size float64) {
	d.SetFont("Helvetica", "B", size)
	d.CellFormat(0, size*0.6, d.tr(text), "", 1, "L", false, 0, "")
	d.Ln(2)
}

func (d *pdfDoc) table(cols []column, rows [][]string) {
	d.SetFont("Helvetica", "B", 9)
	d.SetFillColor(230, 230, 230)
	for _, c := range cols {
		d.CellFormat(c.width, 7, d.tr(c.title), "1", 0, "C", true, 0, "")
	}
	d.Ln(-1)

	d.SetFont("Helvetica", "", 9)
	for _, r := range rows {
		for i, c := range cols {
			d.CellFormat(c.width, 6, d.tr(r[i]), "1", 0, c.align, false, 0, "")
		}
		d.Ln(-1)
	}
	d.Ln(4)
}

func (d *pdfDoc) output(w io.Writer) error {
	if d.Err() {
		return d.Error()
	}
	return d.Output(w)
}

// ReportPDF writes the summary counters, the grouped sales and the stock
// listing as a landscape A4 document.
func ReportPDF(w io.Writer, data Data) error {
	loc := data.loc()

	d := newPDF("L", "Kairos report")
	d.AddPage()

	d.heading("Kairos report", 16)
	d.SetFont("Helvetica", "", 10)
	d.CellFormat(0, 6, "Generated "+data.Generated.In(loc).Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	d.Ln(4)

	st := report.Summarize(data.Products, data.Lines, data.LowStock)
	d.table([]column{
		{"Products", 35, "R"}, {"Out of stock", 35, "R"}, {"Low stock", 35, "R"},
		{"Stock value", 40, "R"}, {"Transactions", 35, "R"}, {"Items sold", 35, "R"},
		{"Sales total", 40, "R"},
	}, [][]string{{
		itoa(st.Products), itoa(st.OutOfStock), itoa(st.LowStock),
		money(st.StockValue), itoa(st.Transactions), itoa(st.ItemsSold),
		money(st.SalesTotal),
	}})

	d.heading("Sales", 12)
	sales := report.GroupSales(data.Lines)
	rows := make([][]string, 0, len(sales))
	for _, s := range sales {
		rows = append(rows, []string{
			itoa(s.SaleID),
			s.CreatedAt.In(loc).Format("2006-01-02 15:04"),
			s.CustomerName,
			string(s.PaymentMethod),
			itoa(s.Items),
			money(s.Total),
		})
	}
	d.table([]column{
		{"Sale", 25, "R"}, {"Date", 45, "C"}, {"Customer", 80, "L"},
		{"Payment", 35, "C"}, {"Items", 25, "R"}, {"Total", 40, "R"},
	}, rows)

	d.heading("Stock", 12)
	rows = make([][]string, 0, len(data.Products))
	for _, p := range data.Products {
		rows = append(rows, []string{
			itoa(p.ID), p.Name, barcode(p.Barcode), money(p.Price), itoa(p.Quantity),
		})
	}
	d.table([]column{
		{"ID", 25, "R"}, {"Name", 110, "L"}, {"Barcode", 55, "L"},
		{"Price", 35, "R"}, {"Quantity", 30, "R"},
	}, rows)

	return d.output(w)
}

// Receipt holds what a printed sale receipt shows.
type Receipt struct {
	Sale     *ent.SaleDetail
	Shop     string
	Location *time.Location
}

// ReceiptPDF writes a single sale as a narrow till receipt.
func ReceiptPDF(w io.Writer, r Receipt) error {
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	s := r.Sale

	height := 90 + 10*float64(len(s.Items))
	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "mm",
		Size:    fpdf.SizeType{Wd: 80, Ht: height},
	})
	pdf.SetTitle(fmt.Sprintf("Receipt %d", s.ID), true)
	pdf.SetMargins(5, 5, 5)
	pdf.SetAutoPageBreak(false, 5)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 6, tr(r.Shop), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(0, 4, fmt.Sprintf("Sale #%d", s.ID), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 4, s.CreatedAt.In(loc).Format("2006-01-02 15:04:05"), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 4, tr("Customer: "+s.CustomerName), "", 1, "C", false, 0, "")
	pdf.Ln(2)
	pdf.Line(5, pdf.GetY(), 75, pdf.GetY())
	pdf.Ln(2)

	for _, it := range s.Items {
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(0, 4, tr(productName(it.ProductName)), "", 1, "L", false, 0, "")
		pdf.CellFormat(40, 4, fmt.Sprintf("%d x %s", it.Quantity, money(it.UnitPrice)), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 4, money(it.Subtotal()), "", 1, "R", false, 0, "")
		pdf.Ln(1)
	}

	pdf.Line(5, pdf.GetY(), 75, pdf.GetY())
	pdf.Ln(2)

	summary := [][2]string{
		{"Total", money(s.Total)},
		{"Payment", string(s.PaymentMethod)},
		{"Tendered", money(s.AmountTendered)},
		{"Change", money(s.ChangeDue)},
	}
	for i, kv := range summary {
		style := ""
		if i == 0 {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 9)
		pdf.CellFormat(35, 5, kv[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, kv[1], "", 1, "R", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(0, 4, "Thank you!", "", 1, "C", false, 0, "")

	if pdf.Err() {
		return pdf.Error()
	}
	return pdf.Output(w)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

package api

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"kairos/ent"
	"kairos/export"
	"kairos/report"
	"kairos/store"
)

const (
	dateLayout = "2006-01-02"

	dashboardRecent    = 5
	dashboardMovements = 10
)

// reportQuery is the body of the history and report filters. Dates are
// calendar days, both ends inclusive.
type reportQuery struct {
	DateFrom   string `json:"date_from"`
	DateTo     string `json:"date_to"`
	CustomerID *int64 `json:"customer_id"`
	ReportType string `json:"report_type"`
}

func parseDate(field, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil, &store.ValidationError{Field: field, Message: "expected YYYY-MM-DD"}
	}
	return &t, nil
}

func (q reportQuery) filter() (ent.ReportFilter, error) {
	from, err := parseDate("date_from", clean(q.DateFrom))
	if err != nil {
		return ent.ReportFilter{}, err
	}
	to, err := parseDate("date_to", clean(q.DateTo))
	if err != nil {
		return ent.ReportFilter{}, err
	}
	if from != nil && to != nil && from.After(*to) {
		return ent.ReportFilter{}, &store.ValidationError{
			Field:   "date_from",
			Message: "must not be after date_to",
		}
	}

	return ent.ReportFilter{From: from, To: to, CustomerID: q.CustomerID}, nil
}

func queryFilter(c *fiber.Ctx) (ent.ReportFilter, error) {
	q := reportQuery{
		DateFrom: c.Query("date_from"),
		DateTo:   c.Query("date_to"),
	}
	if v := c.Query("customer_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return ent.ReportFilter{}, &store.ValidationError{Field: "customer_id", Message: "must be a number"}
		}
		q.CustomerID = &id
	}
	return q.filter()
}

type dashboardData struct {
	Stats          ent.Stats           `json:"stats"`
	RecentProducts []ent.Product       `json:"recent_products"`
	Movements      []ent.StockMovement `json:"movements"`
}

func (s *Server) loadDashboard(ctx context.Context) report.Result[dashboardData] {
	empty := dashboardData{
		RecentProducts: []ent.Product{},
		Movements:      []ent.StockMovement{},
	}

	st, err := s.store.Stats(ctx, s.cfg.LowStock)
	if err != nil {
		return report.Failed(empty, err)
	}
	recent, err := s.store.RecentProducts(ctx, dashboardRecent)
	if err != nil {
		return report.Failed(empty, err)
	}
	mv, err := s.store.StockMovements(ctx, dashboardMovements)
	if err != nil {
		return report.Failed(empty, err)
	}

	return report.Ok(dashboardData{Stats: st, RecentProducts: recent, Movements: mv})
}

func (s *Server) dashboard(c *fiber.Ctx) error {
	return renderPage(s, c, s.loadDashboard(c.UserContext()), "could not load dashboard")
}

func (s *Server) loadReport(ctx context.Context, kind report.Kind, f ent.ReportFilter) report.Result[report.View] {
	ps, err := s.store.ListProducts(ctx)
	if err != nil {
		return report.Failed(report.EmptyView(kind), err)
	}

	var lines []ent.SaleLine
	if kind != report.KindStock {
		lines, err = s.store.SaleLines(ctx, f)
		if err != nil {
			return report.Failed(report.EmptyView(kind), err)
		}
	}

	return report.Ok(report.Build(kind, ps, lines, s.cfg.LowStock))
}

func (s *Server) reports(c *fiber.Ctx) error {
	kind, err := report.ParseKind(c.Query("report_type"))
	if err != nil {
		return &store.ValidationError{Field: "report_type", Message: err.Error()}
	}

	return renderPage(s, c, s.loadReport(c.UserContext(), kind, ent.ReportFilter{}), "could not load report")
}

func (s *Server) filterReports(c *fiber.Ctx) error {
	var in reportQuery
	err := decode(c, &in)
	if err != nil {
		return err
	}

	kind, err := report.ParseKind(clean(in.ReportType))
	if err != nil {
		return &store.ValidationError{Field: "report_type", Message: err.Error()}
	}
	f, err := in.filter()
	if err != nil {
		return err
	}

	return renderPage(s, c, s.loadReport(c.UserContext(), kind, f), "could not load report")
}

func (s *Server) exportData(c *fiber.Ctx) (export.Data, error) {
	f, err := queryFilter(c)
	if err != nil {
		return export.Data{}, err
	}

	ps, err := s.store.ListProducts(c.UserContext())
	if err != nil {
		return export.Data{}, err
	}
	lines, err := s.store.SaleLines(c.UserContext(), f)
	if err != nil {
		return export.Data{}, err
	}

	return export.Data{
		Products:  ps,
		Lines:     lines,
		Generated: time.Now(),
		Location:  s.cfg.Location,
		LowStock:  s.cfg.LowStock,
	}, nil
}

func (s *Server) sendExport(c *fiber.Ctx, ext, contentType string, render func(io.Writer, export.Data) error) error {
	d, err := s.exportData(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	err = render(&buf, d)
	if err != nil {
		return err
	}

	c.Attachment(export.Filename(ext, d.Generated.In(s.cfg.Location)))
	c.Set(fiber.HeaderContentType, contentType)

	return c.Send(buf.Bytes())
}

func (s *Server) exportXLSX(c *fiber.Ctx) error {
	return s.sendExport(c, "xlsx", export.ContentTypeXLSX, export.Workbook)
}

func (s *Server) exportPDF(c *fiber.Ctx) error {
	return s.sendExport(c, "pdf", export.ContentTypePDF, export.ReportPDF)
}

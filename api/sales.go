package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"kairos/ent"
	"kairos/export"
	"kairos/report"
	"kairos/store"
)

// scanMatches caps the name matches offered when a scanned code is unknown.
const scanMatches = 10

const (
	scanWeighable = "weighable"
	scanProduct   = "product"
	scanMatchList = "matches"
)

type searchRequest struct {
	Term string `json:"term"`
}

type salesData struct {
	Lines []ent.SaleLine    `json:"sales"`
	Sales []ent.SaleSummary `json:"grouped_sales"`
	Total decimal.Decimal   `json:"total"`
}

func (s *Server) checkoutPage(c *fiber.Ctx) error {
	ps, err := s.store.ListProducts(c.UserContext())
	if err != nil {
		return err
	}
	cs, err := s.store.ListCustomers(c.UserContext())
	if err != nil {
		return err
	}

	inStock := make([]ent.Product, 0, len(ps))
	for _, p := range ps {
		if p.Quantity > 0 {
			inStock = append(inStock, p)
		}
	}

	return c.JSON(fiber.Map{"success": true, "products": inStock, "customers": cs})
}

func (s *Server) checkoutSearch(c *fiber.Ctx) error {
	var in searchRequest
	err := decode(c, &in)
	if err != nil {
		return err
	}

	term := clean(in.Term)
	if term == "" {
		return c.JSON(fiber.Map{"success": true, "products": []ent.Product{}})
	}

	ps, err := s.store.SearchProducts(c.UserContext(), term)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "products": ps})
}

// checkoutScan handles a scanner read: a weighable code asks the till for a
// weight, a product code adds one unit, anything else falls back to a name
// search.
func (s *Server) checkoutScan(c *fiber.Ctx) error {
	var in codeRequest
	err := decode(c, &in)
	if err != nil {
		return err
	}
	code := clean(in.Code)

	l, err := s.store.LookupProduct(c.UserContext(), code)
	switch {
	case err == nil && l.IsWeighable():
		return c.JSON(fiber.Map{
			"success":   true,
			"kind":      scanWeighable,
			"product":   l.Product,
			"weighable": l.Weighable,
		})
	case err == nil:
		return c.JSON(fiber.Map{
			"success":  true,
			"kind":     scanProduct,
			"product":  l.Product,
			"quantity": 1,
		})
	case !errors.Is(err, store.ErrNotFound):
		return err
	}

	ps, err := s.store.SearchProducts(c.UserContext(), code)
	if err != nil {
		return err
	}
	if len(ps) == 0 {
		return fiber.NewError(http.StatusNotFound, "product not found")
	}
	if len(ps) > scanMatches {
		ps = ps[:scanMatches]
	}

	return c.JSON(fiber.Map{"success": true, "kind": scanMatchList, "products": ps})
}

func (s *Server) checkout(c *fiber.Ctx) error {
	var in ent.Checkout
	err := decode(c, &in)
	if err != nil {
		return err
	}

	id, err := s.store.RegisterSale(c.UserContext(), in)
	if err != nil {
		return err
	}

	s.publishSale(c.UserContext(), id, in)

	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("sale #%d registered", id),
		"sale_id": id,
	})
}

func (s *Server) loadSales(ctx context.Context, f ent.ReportFilter) report.Result[salesData] {
	lines, err := s.store.SaleLines(ctx, f)
	if err != nil {
		return report.Failed(salesData{
			Lines: []ent.SaleLine{},
			Sales: []ent.SaleSummary{},
			Total: decimal.Zero,
		}, err)
	}

	sales := report.GroupSales(lines)

	return report.Ok(salesData{
		Lines: lines,
		Sales: sales,
		Total: report.SalesTotal(sales),
	})
}

func (s *Server) listSales(c *fiber.Ctx) error {
	return renderPage(s, c, s.loadSales(c.UserContext(), ent.ReportFilter{}), "could not load sales history")
}

func (s *Server) filterSales(c *fiber.Ctx) error {
	var in reportQuery
	err := decode(c, &in)
	if err != nil {
		return err
	}

	f, err := in.filter()
	if err != nil {
		return err
	}

	return renderPage(s, c, s.loadSales(c.UserContext(), f), "could not load sales history")
}

func (s *Server) getSale(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	d, err := s.store.SaleByID(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "sale": d})
}

func (s *Server) revertSale(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	err = s.store.RevertSale(c.UserContext(), id)
	if err != nil {
		return err
	}

	s.publishRevert(id)

	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("sale #%d reverted", id),
	})
}

func (s *Server) saleReceipt(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	d, err := s.store.SaleByID(c.UserContext(), id)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	err = export.ReceiptPDF(&buf, export.Receipt{
		Sale:     d,
		Shop:     s.cfg.Shop,
		Location: s.cfg.Location,
	})
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, export.ContentTypePDF)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="receipt-%d.pdf"`, id))

	return c.Send(buf.Bytes())
}

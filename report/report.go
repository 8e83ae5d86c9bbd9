// Package report re-aggregates the typed rows read from the store into the
// views shown by the dashboard, the reports page and the exports. Nothing in
// here touches the database.
package report

import (
	"fmt"

	"github.com/shopspring/decimal"

	"kairos/ent"
)

type Kind string

const (
	KindFull      Kind = "full"
	KindStock     Kind = "stock"
	KindSales     Kind = "sales"
	KindMovements Kind = "movements"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case "":
		return KindFull, nil
	case KindFull, KindStock, KindSales, KindMovements:
		return k, nil
	}
	return "", fmt.Errorf("unknown report type %q", s)
}

// DefaultMovementLimit caps the movements derived for one view.
const DefaultMovementLimit = 100

// GroupSales collapses line rows into one summary per sale, in order of first
// appearance. A sale's total is its stored total, never the sum of its lines.
func GroupSales(lines []ent.SaleLine) []ent.SaleSummary {
	idx := map[int64]int{}
	ss := []ent.SaleSummary{}

	for _, l := range lines {
		i, ok := idx[l.SaleID]
		if !ok {
			i = len(ss)
			idx[l.SaleID] = i
			ss = append(ss, ent.SaleSummary{
				SaleID:        l.SaleID,
				CreatedAt:     l.CreatedAt,
				CustomerName:  l.CustomerName,
				PaymentMethod: l.PaymentMethod,
				Total:         l.Total,
			})
		}
		ss[i].Items += l.Quantity
	}

	return ss
}

func SalesTotal(ss []ent.SaleSummary) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range ss {
		sum = sum.Add(s.Total)
	}
	return sum
}

// Summarize computes the report counters from the catalog and a set of sale
// lines. Products with 0 < quantity <= lowStock count as low on stock; only
// positive stock is valued.
func Summarize(products []ent.Product, lines []ent.SaleLine, lowStock int64) ent.Stats {
	st := ent.Stats{
		StockValue: decimal.Zero,
		SalesTotal: decimal.Zero,
		Products:   int64(len(products)),
	}

	for _, p := range products {
		switch {
		case p.Quantity <= 0:
			st.OutOfStock++
		case p.Quantity <= lowStock:
			st.LowStock++
		}
		if p.Quantity > 0 {
			st.StockValue = st.StockValue.Add(p.Price.Mul(decimal.NewFromInt(p.Quantity)))
		}
	}

	ss := GroupSales(lines)
	st.SalesTotal = SalesTotal(ss)
	st.Transactions = int64(len(ss))
	for _, l := range lines {
		st.ItemsSold += l.Quantity
	}

	return st
}

// Movements derives outgoing stock movements from at most limit lines.
// Lines whose product no longer exists are left out.
func Movements(lines []ent.SaleLine, limit int) []ent.StockMovement {
	ms := []ent.StockMovement{}

	if limit > 0 && len(lines) > limit {
		lines = lines[:limit]
	}

	for _, l := range lines {
		if l.ProductName == "" {
			continue
		}
		ms = append(ms, ent.StockMovement{
			SaleID:      l.SaleID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			CreatedAt:   l.CreatedAt,
			Kind:        ent.MovementOut,
		})
	}

	return ms
}

// LowStock returns the products with at most threshold units left,
// out-of-stock ones included.
func LowStock(products []ent.Product, threshold int64) []ent.Product {
	ps := []ent.Product{}
	for _, p := range products {
		if p.Quantity <= threshold {
			ps = append(ps, p)
		}
	}
	return ps
}

// View is everything the reports page renders for one query.
type View struct {
	Kind      Kind                `json:"report_type"`
	Products  []ent.Product       `json:"products"`
	Lines     []ent.SaleLine      `json:"sales"`
	Sales     []ent.SaleSummary   `json:"grouped_sales"`
	Movements []ent.StockMovement `json:"movements"`
	Stats     ent.Stats           `json:"stats"`
}

// Build assembles a view. KindStock drops the sales side entirely, so its
// counters only describe the catalog.
func Build(kind Kind, products []ent.Product, lines []ent.SaleLine, lowStock int64) View {
	if products == nil {
		products = []ent.Product{}
	}
	if lines == nil || kind == KindStock {
		lines = []ent.SaleLine{}
	}

	return View{
		Kind:      kind,
		Products:  products,
		Lines:     lines,
		Sales:     GroupSales(lines),
		Movements: Movements(lines, DefaultMovementLimit),
		Stats:     Summarize(products, lines, lowStock),
	}
}

// EmptyView is the zeroed view served when the store cannot be read.
func EmptyView(kind Kind) View {
	return Build(kind, nil, nil, 0)
}

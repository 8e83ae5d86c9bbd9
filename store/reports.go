package store

import (
	"context"
	"strings"
	"time"

	"kairos/ent"
)

// dayBounds turns inclusive calendar dates into a half-open UTC interval.
// A nil bound leaves that side open.
func (s *Store) dayBounds(from, to *time.Time) (lo, hi *time.Time) {
	loc := s.opts.Location

	if from != nil {
		y, m, d := from.Date()
		t := time.Date(y, m, d, 0, 0, 0, 0, loc).UTC()
		lo = &t
	}
	if to != nil {
		y, m, d := to.Date()
		t := time.Date(y, m, d+1, 0, 0, 0, 0, loc).UTC()
		hi = &t
	}

	return lo, hi
}

// SaleLines returns one row per sold line item, newest sale first. Sales
// without a resolvable customer are labeled as walk-in.
func (s *Store) SaleLines(ctx context.Context, f ent.ReportFilter) ([]ent.SaleLine, error) {
	var (
		where []string
		args  []interface{}
	)

	lo, hi := s.dayBounds(f.From, f.To)
	if lo != nil {
		where = append(where, "s.created_at >= ?")
		args = append(args, *lo)
	}
	if hi != nil {
		where = append(where, "s.created_at < ?")
		args = append(args, *hi)
	}
	if f.CustomerID != nil {
		where = append(where, "s.customer_id = ?")
		args = append(args, *f.CustomerID)
	}

	q := `
		select s.id as sale_id, s.created_at, s.total, s.payment_method,
		       s.amount_tendered, s.change_due, s.customer_id,
		       coalesce(c.name, '') as customer_name,
		       i.product_id, coalesce(p.name, '') as product_name,
		       coalesce(p.barcode, '') as barcode,
		       i.quantity, i.unit_price
		from sales s
		    join sale_items i on i.sale_id = s.id
		    left join customers c on c.id = s.customer_id
		    left join products p on p.id = i.product_id
	`
	if len(where) > 0 {
		q += " where " + strings.Join(where, " and ")
	}
	q += " order by s.created_at desc, s.id desc, i.id asc"

	ls := []ent.SaleLine{}

	err := s.db.SelectContext(ctx, &ls, s.db.Rebind(q), args...)
	if err != nil {
		return nil, read("sale lines", err, nil)
	}

	for i := range ls {
		if ls[i].CustomerName == "" {
			ls[i].CustomerName = ent.WalkInCustomer
		}
	}

	return ls, nil
}

// Stats computes the dashboard counters in one round trip. Every aggregate
// is zero on an empty store. Products with 0 < quantity <= lowStock count as
// low on stock.
func (s *Store) Stats(ctx context.Context, lowStock int64) (ent.Stats, error) {
	var st ent.Stats

	err := s.db.GetContext(ctx, &st, s.db.Rebind(`
		select
		    (select coalesce(sum(price * quantity), 0) from products where quantity > 0) as stock_value,
		    (select count(*) from products) as products,
		    (select count(*) from customers) as customers,
		    (select coalesce(sum(total), 0) from sales) as sales_total,
		    (select count(*) from sales) as transactions,
		    (select count(*) from products where quantity > 0 and quantity <= ?) as low_stock,
		    (select count(*) from products where quantity <= 0) as out_of_stock,
		    (select cast(coalesce(sum(quantity), 0) as bigint) from sale_items) as items_sold
	`), lowStock)
	if err != nil {
		return ent.Stats{}, read("stats", err, nil)
	}

	// sqlite sums numeric columns as floating point.
	st.StockValue = st.StockValue.Round(2)
	st.SalesTotal = st.SalesTotal.Round(2)

	return st, nil
}

// StockMovements lists the most recent outgoing stock movements, one per
// sold line item.
func (s *Store) StockMovements(ctx context.Context, limit int) ([]ent.StockMovement, error) {
	ms := []ent.StockMovement{}

	err := s.db.SelectContext(ctx, &ms, s.db.Rebind(`
		select i.sale_id, coalesce(p.name, '') as product_name, i.quantity,
		       s.created_at, '`+ent.MovementOut+`' as kind
		from sale_items i
		    join sales s on s.id = i.sale_id
		    left join products p on p.id = i.product_id
		order by s.created_at desc, i.id desc
		limit ?
	`), limit)
	if err != nil {
		return nil, read("stock movements", err, nil)
	}

	return ms, nil
}

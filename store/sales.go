package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"kairos/ent"
)

type stockDelta struct {
	productID int64
	quantity  int64
}

// stockDeltas sums quantities per product, ordered by product id so that
// concurrent units of work lock product rows in the same order.
func stockDeltas(items []ent.CartLine) []stockDelta {
	sums := map[int64]int64{}
	for _, it := range items {
		sums[it.ProductID] += it.Quantity
	}

	ds := make([]stockDelta, 0, len(sums))
	for id, q := range sums {
		ds = append(ds, stockDelta{productID: id, quantity: q})
	}
	sort.Slice(ds, func(i, j int) bool { return ds[i].productID < ds[j].productID })

	return ds
}

// RegisterSale stores a completed checkout and decrements stock in one unit
// of work, returning the new sale id. Unit prices are stored as submitted.
func (s *Store) RegisterSale(ctx context.Context, c ent.Checkout) (int64, error) {
	const op = "register sale"

	err := ValidateCheckout(c, s.opts.VerifyTotal)
	if err != nil {
		return 0, err
	}

	var saleID int64

	err = s.withTx(ctx, op, func(tx *sqlx.Tx) error {
		if c.CustomerID != nil {
			ok, err := exists(ctx, tx, `select count(*) from customers where id = ?`, *c.CustomerID)
			if err != nil {
				return err
			}
			if !ok {
				return &PersistenceError{Op: op, Err: notFound("customer", *c.CustomerID)}
			}
		}

		err := tx.QueryRowxContext(ctx, tx.Rebind(`
			insert into sales(customer_id, created_at, total, payment_method,
			                  amount_tendered, change_due)
			values (?, ?, ?, ?, ?, ?)
			returning id
		`), c.CustomerID, s.now(), c.Total.Round(2), string(c.PaymentMethod),
			c.AmountTendered.Round(2), c.ChangeDue.Round(2)).Scan(&saleID)
		if err != nil {
			return err
		}

		for _, it := range c.Items {
			_, err = tx.ExecContext(ctx, tx.Rebind(`
				insert into sale_items(sale_id, product_id, quantity, unit_price)
				values (?, ?, ?, ?)
			`), saleID, it.ProductID, it.Quantity, it.UnitPrice.Round(2))
			if err != nil {
				return err
			}
		}

		for _, d := range stockDeltas(c.Items) {
			err = s.decrementStock(ctx, tx, op, d)
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.WithField("sale_id", saleID).Debug("sale registered")

	return saleID, nil
}

func (s *Store) decrementStock(ctx context.Context, tx *sqlx.Tx, op string, d stockDelta) error {
	q := `update products set quantity = quantity - ? where id = ?`
	args := []interface{}{d.quantity, d.productID}
	if s.opts.StrictStock {
		q += ` and quantity >= ?`
		args = append(args, d.quantity)
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(q), args...)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	ok, err := exists(ctx, tx, `select count(*) from products where id = ?`, d.productID)
	if err != nil {
		return err
	}
	if !ok {
		return &PersistenceError{Op: op, Err: notFound("product", d.productID)}
	}

	return &ValidationError{
		Field:   "items",
		Message: fmt.Sprintf("insufficient stock for product %d", d.productID),
	}
}

// RevertSale deletes a sale and its items and gives their quantities back to
// stock in one unit of work. Lines whose product was deleted since the sale
// are removed without restoring anything.
func (s *Store) RevertSale(ctx context.Context, id int64) error {
	const op = "revert sale"

	var skipped []int64

	err := s.withTx(ctx, op, func(tx *sqlx.Tx) error {
		ok, err := exists(ctx, tx, `select count(*) from sales where id = ?`, id)
		if err != nil {
			return err
		}
		if !ok {
			return notFound("sale", id)
		}

		var lines []ent.CartLine
		err = tx.SelectContext(ctx, &lines, tx.Rebind(`
			select product_id, quantity from sale_items where sale_id = ?
		`), id)
		if err != nil {
			return err
		}

		for _, d := range stockDeltas(lines) {
			res, err := tx.ExecContext(ctx, tx.Rebind(`
				update products set quantity = quantity + ? where id = ?
			`), d.quantity, d.productID)
			if err != nil {
				return err
			}

			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if n == 0 {
				skipped = append(skipped, d.productID)
			}
		}

		_, err = tx.ExecContext(ctx, tx.Rebind(`delete from sale_items where sale_id = ?`), id)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, tx.Rebind(`delete from sales where id = ?`), id)
		if err != nil {
			return err
		}

		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return notFound("sale", id)
		}

		return nil
	})
	if err != nil {
		return err
	}

	if len(skipped) > 0 {
		s.log.WithFields(logrus.Fields{"sale_id": id, "product_ids": skipped}).
			Warn("stock not restored for deleted products")
	}
	s.log.WithField("sale_id", id).Debug("sale reverted")

	return nil
}

// SaleByID returns the sale header with its captured line items.
func (s *Store) SaleByID(ctx context.Context, id int64) (*ent.SaleDetail, error) {
	const op = "sale by id"

	var d ent.SaleDetail

	err := s.db.GetContext(ctx, &d, s.db.Rebind(`
		select s.id, s.customer_id, s.created_at, s.total, s.payment_method,
		       s.amount_tendered, s.change_due, coalesce(c.name, '') as customer_name
		from sales s
		    left join customers c on c.id = s.customer_id
		where s.id = ?
	`), id)
	if err != nil {
		return nil, read(op, err, notFound("sale", id))
	}

	if d.CustomerName == "" {
		d.CustomerName = ent.WalkInCustomer
	}

	err = s.db.SelectContext(ctx, &d.Items, s.db.Rebind(`
		select i.id, i.sale_id, i.product_id, i.quantity, i.unit_price,
		       coalesce(p.name, '') as product_name,
		       coalesce(p.barcode, '') as barcode
		from sale_items i
		    left join products p on p.id = i.product_id
		where i.sale_id = ?
		order by i.id asc
	`), id)
	if err != nil {
		return nil, read(op, err, nil)
	}

	return &d, nil
}

func exists(ctx context.Context, tx *sqlx.Tx, q string, args ...interface{}) (bool, error) {
	var n int64
	err := tx.GetContext(ctx, &n, tx.Rebind(q), args...)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

package store

import (
	"context"

	"github.com/jmoiron/sqlx"

	"kairos/ent"
)

const weighableSelect = `
	select w.id, w.product_id, w.price_per_kg, w.custom_code,
	       p.name as product_name, p.price, p.quantity
	from weighable_products w
	    join products p on p.id = w.product_id
`

// CreateWeighable associates a product with a price per kg. A zero price
// per kg takes the product's current price.
func (s *Store) CreateWeighable(ctx context.Context, in ent.WeighableInput) (ent.WeighableProduct, error) {
	const op = "create weighable"

	err := ValidateWeighable(&in)
	if err != nil {
		return ent.WeighableProduct{}, err
	}

	var w ent.WeighableProduct

	err = s.withTx(ctx, op, func(tx *sqlx.Tx) error {
		var p ent.Product
		err := tx.GetContext(ctx, &p, tx.Rebind(`
			select `+productColumns+` from products where id = ?
		`), in.ProductID)
		if err != nil {
			return read(op, err, notFound("product", in.ProductID))
		}

		price := in.PricePerKg
		if price.IsZero() {
			price = p.Price
		}

		var id int64
		err = tx.QueryRowxContext(ctx, tx.Rebind(`
			insert into weighable_products(product_id, price_per_kg, custom_code)
			values (?, ?, ?)
			returning id
		`), in.ProductID, price, nullString(in.CustomCode)).Scan(&id)
		if err != nil {
			return duplicate(err, "custom_code", "product_id")
		}

		return tx.GetContext(ctx, &w, tx.Rebind(weighableSelect+` where w.id = ?`), id)
	})

	return w, err
}

// DeleteWeighable removes the association only; the product stays.
func (s *Store) DeleteWeighable(ctx context.Context, id int64) error {
	return s.withTx(ctx, "delete weighable", func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`delete from weighable_products where id = ?`), id)
		if err != nil {
			return err
		}

		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return notFound("weighable product", id)
		}
		return nil
	})
}

func (s *Store) ListWeighables(ctx context.Context) ([]ent.WeighableProduct, error) {
	ws := []ent.WeighableProduct{}

	err := s.db.SelectContext(ctx, &ws, weighableSelect+`
		where w.price_per_kg > 0
		order by p.name asc
	`)
	if err != nil {
		return nil, read("list weighables", err, nil)
	}

	return ws, nil
}

// ListWeighableCandidates returns the products not yet associated as
// weighable.
func (s *Store) ListWeighableCandidates(ctx context.Context) ([]ent.Product, error) {
	ps := []ent.Product{}

	err := s.db.SelectContext(ctx, &ps, `
		select p.id, p.name, p.price, p.quantity, p.barcode
		from products p
		    left join weighable_products w on w.product_id = p.id
		where w.id is null
		order by p.name asc
	`)
	if err != nil {
		return nil, read("list weighable candidates", err, nil)
	}

	return ps, nil
}

func (s *Store) weighableByCode(ctx context.Context, code string) (ent.WeighableProduct, error) {
	var w ent.WeighableProduct

	err := s.db.GetContext(ctx, &w, s.db.Rebind(weighableSelect+` where w.custom_code = ?`), code)

	return w, err
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"kairos/ent"
)

const productColumns = `id, name, price, quantity, barcode`

// CreateProduct adds a product; a positive PricePerKg also associates it as
// weighable in the same unit of work.
func (s *Store) CreateProduct(ctx context.Context, in ent.ProductInput) (ent.Product, error) {
	err := ValidateProduct(&in)
	if err != nil {
		return ent.Product{}, err
	}

	var p ent.Product

	err = s.withTx(ctx, "create product", func(tx *sqlx.Tx) error {
		var err error
		p, err = insertProduct(ctx, tx, in)
		return err
	})

	return p, err
}

func insertProduct(ctx context.Context, tx *sqlx.Tx, in ent.ProductInput) (ent.Product, error) {
	var p ent.Product

	err := tx.QueryRowxContext(ctx, tx.Rebind(`
		insert into products(name, price, quantity, barcode)
		values (?, ?, ?, ?)
		returning `+productColumns),
		in.Name, in.Price, in.Quantity, nullString(in.Barcode)).StructScan(&p)
	if err != nil {
		return p, duplicate(err, "barcode")
	}

	if in.PricePerKg.IsPositive() {
		_, err = tx.ExecContext(ctx, tx.Rebind(`
			insert into weighable_products(product_id, price_per_kg) values (?, ?)
		`), p.ID, in.PricePerKg)
		if err != nil {
			return p, err
		}
	}

	return p, nil
}

// ImportProducts inserts a whole catalog in one unit of work: either every
// row is stored or none is.
func (s *Store) ImportProducts(ctx context.Context, ins []ent.ProductInput) (int, error) {
	for i := range ins {
		err := ValidateProduct(&ins[i])
		if err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				ve.Field = "row " + strconv.Itoa(i+1) + ": " + ve.Field
			}
			return 0, err
		}
	}

	err := s.withTx(ctx, "import products", func(tx *sqlx.Tx) error {
		for _, in := range ins {
			_, err := insertProduct(ctx, tx, in)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(ins), nil
}

// UpdateProduct replaces the editable fields of product id, stock included.
func (s *Store) UpdateProduct(ctx context.Context, id int64, in ent.ProductInput) (ent.Product, error) {
	err := ValidateProduct(&in)
	if err != nil {
		return ent.Product{}, err
	}

	var p ent.Product

	err = s.withTx(ctx, "update product", func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, tx.Rebind(`
			update products set name = ?, price = ?, quantity = ?, barcode = ?
			where id = ?
			returning `+productColumns),
			in.Name, in.Price, in.Quantity, nullString(in.Barcode), id).StructScan(&p)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("product", id)
		}
		return duplicate(err, "barcode")
	})

	return p, err
}

// DeleteProduct removes a product without checking sales history; its
// weighable association goes with it.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	return s.withTx(ctx, "delete product", func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`delete from products where id = ?`), id)
		if err != nil {
			return err
		}

		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return notFound("product", id)
		}
		return nil
	})
}

func (s *Store) ProductByID(ctx context.Context, id int64) (ent.Product, error) {
	var p ent.Product

	err := s.db.GetContext(ctx, &p, s.db.Rebind(`
		select `+productColumns+` from products where id = ?
	`), id)

	return p, read("product by id", err, notFound("product", id))
}

func (s *Store) ListProducts(ctx context.Context) ([]ent.Product, error) {
	ps := []ent.Product{}

	err := s.db.SelectContext(ctx, &ps, `
		select `+productColumns+` from products order by name asc, id asc
	`)
	if err != nil {
		return nil, read("list products", err, nil)
	}

	return ps, nil
}

// RecentProducts returns the n most recently created products.
func (s *Store) RecentProducts(ctx context.Context, n int) ([]ent.Product, error) {
	ps := []ent.Product{}

	err := s.db.SelectContext(ctx, &ps, s.db.Rebind(`
		select `+productColumns+` from products order by id desc limit ?
	`), n)
	if err != nil {
		return nil, read("recent products", err, nil)
	}

	return ps, nil
}

// SearchProducts matches term against names and barcodes, case-insensitively.
func (s *Store) SearchProducts(ctx context.Context, term string) ([]ent.Product, error) {
	ps := []ent.Product{}

	like := "%" + strings.ToLower(strings.TrimSpace(term)) + "%"

	err := s.db.SelectContext(ctx, &ps, s.db.Rebind(`
		select `+productColumns+` from products
		where lower(name) like ? or lower(coalesce(barcode, '')) like ?
		order by name asc, id asc
	`), like, like)
	if err != nil {
		return nil, read("search products", err, nil)
	}

	return ps, nil
}

// LookupProduct resolves a scanned or typed code: an exact barcode first,
// then a weighable custom code, then a numeric product id.
func (s *Store) LookupProduct(ctx context.Context, code string) (ent.Lookup, error) {
	const op = "lookup product"

	code = strings.TrimSpace(code)
	if code == "" {
		return ent.Lookup{}, &ValidationError{Field: "code", Message: "is required"}
	}

	var p ent.Product
	err := s.db.GetContext(ctx, &p, s.db.Rebind(`
		select `+productColumns+` from products where barcode = ?
	`), code)
	if err == nil {
		return ent.Lookup{Product: p}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return ent.Lookup{}, read(op, err, nil)
	}

	w, err := s.weighableByCode(ctx, code)
	if err == nil {
		p, err = s.ProductByID(ctx, w.ProductID)
		if err != nil {
			return ent.Lookup{}, err
		}
		return ent.Lookup{Product: p, Weighable: &w}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return ent.Lookup{}, read(op, err, nil)
	}

	id, convErr := strconv.ParseInt(code, 10, 64)
	if convErr == nil {
		p, err = s.ProductByID(ctx, id)
		if err == nil {
			return ent.Lookup{Product: p}, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return ent.Lookup{}, err
		}
	}

	return ent.Lookup{}, &NotFoundError{Entity: "product", Key: code}
}

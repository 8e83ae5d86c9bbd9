package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"kairos/ent"
)

const customerColumns = `id, name, phone, email, tax_id, address`

func (s *Store) CreateCustomer(ctx context.Context, in ent.CustomerInput) (ent.Customer, error) {
	err := ValidateCustomer(&in)
	if err != nil {
		return ent.Customer{}, err
	}

	var c ent.Customer

	err = s.withTx(ctx, "create customer", func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, tx.Rebind(`
			insert into customers(name, phone, email, tax_id, address)
			values (?, ?, ?, ?, ?)
			returning `+customerColumns),
			in.Name, nullString(in.Phone), nullString(in.Email),
			nullString(in.TaxID), nullString(in.Address)).StructScan(&c)
		return duplicate(err, "tax_id")
	})

	return c, err
}

func (s *Store) UpdateCustomer(ctx context.Context, id int64, in ent.CustomerInput) (ent.Customer, error) {
	err := ValidateCustomer(&in)
	if err != nil {
		return ent.Customer{}, err
	}

	var c ent.Customer

	err = s.withTx(ctx, "update customer", func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, tx.Rebind(`
			update customers set name = ?, phone = ?, email = ?, tax_id = ?, address = ?
			where id = ?
			returning `+customerColumns),
			in.Name, nullString(in.Phone), nullString(in.Email),
			nullString(in.TaxID), nullString(in.Address), id).StructScan(&c)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("customer", id)
		}
		return duplicate(err, "tax_id")
	})

	return c, err
}

// DeleteCustomer removes a customer. Sales referencing it remain and read as
// walk-in sales.
func (s *Store) DeleteCustomer(ctx context.Context, id int64) error {
	return s.withTx(ctx, "delete customer", func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`delete from customers where id = ?`), id)
		if err != nil {
			return err
		}

		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return notFound("customer", id)
		}
		return nil
	})
}

func (s *Store) CustomerByID(ctx context.Context, id int64) (ent.Customer, error) {
	var c ent.Customer

	err := s.db.GetContext(ctx, &c, s.db.Rebind(`
		select `+customerColumns+` from customers where id = ?
	`), id)

	return c, read("customer by id", err, notFound("customer", id))
}

func (s *Store) ListCustomers(ctx context.Context) ([]ent.Customer, error) {
	cs := []ent.Customer{}

	err := s.db.SelectContext(ctx, &cs, `
		select `+customerColumns+` from customers order by name asc, id asc
	`)
	if err != nil {
		return nil, read("list customers", err, nil)
	}

	return cs, nil
}

package store

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// ZeroStockThen zeroes a product's stock inside a unit of work and then runs
// f before committing.
func ZeroStockThen(s *Store, ctx context.Context, productID int64, f func()) error {
	return s.withTx(ctx, "zero stock", func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(`update products set quantity = 0 where id = ?`), productID)
		if err != nil {
			return err
		}
		f()
		return nil
	})
}

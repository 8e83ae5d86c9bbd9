package store

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"kairos/ent"
)

// CreateUser stores an operator account. The password must already be
// hashed; username uniqueness is enforced by the schema.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (ent.User, error) {
	username = strings.TrimSpace(username)

	var u ent.User

	err := s.withTx(ctx, "create user", func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, tx.Rebind(`
			insert into users(username, password_hash) values (?, ?)
			returning id, username, password_hash
		`), username, passwordHash).StructScan(&u)
		return duplicate(err, "username")
	})

	return u, err
}

func (s *Store) UserByUsername(ctx context.Context, username string) (ent.User, error) {
	var u ent.User

	username = strings.TrimSpace(username)

	err := s.db.GetContext(ctx, &u, s.db.Rebind(`
		select id, username, password_hash from users where username = ?
	`), username)

	return u, read("user by username", err, &NotFoundError{Entity: "user", Key: username})
}

func (s *Store) UserByID(ctx context.Context, id int64) (ent.User, error) {
	var u ent.User

	err := s.db.GetContext(ctx, &u, s.db.Rebind(`
		select id, username, password_hash from users where id = ?
	`), id)

	return u, read("user by id", err, notFound("user", id))
}

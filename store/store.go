// Package store is the persistence layer: every read and write against the
// relational schema, with one unit of work per logical operation.
package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// Options tune the sale transactions and the report queries.
type Options struct {
	// StrictStock rejects a sale that would drive any product's stock
	// below zero. Off by default: overselling is allowed.
	StrictStock bool
	// VerifyTotal rejects a sale whose total differs from the sum of its
	// lines. Off by default: the submitted total is stored as given.
	VerifyTotal bool
	// Location interprets report date filters. Defaults to time.Local.
	Location *time.Location
	// Now is the server clock stamping new sales. Defaults to time.Now.
	Now    func() time.Time
	Logger logrus.FieldLogger
}

type Store struct {
	db   *sqlx.DB
	opts Options
	log  logrus.FieldLogger
}

// Open connects to driver ("postgres", "pgx" or "sqlite3"). sqlite
// connections get foreign keys enabled and a single connection.
func Open(driver, dsn string, opts Options) (*Store, error) {
	if driver == "sqlite3" {
		dsn = sqliteDSN(dsn)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return New(db, opts), nil
}

func New(db *sqlx.DB, opts Options) *Store {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	return &Store{db: db, opts: opts, log: opts.Logger}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) now() time.Time {
	return s.opts.Now().UTC()
}

// withTx runs fn as one unit of work. Any error or panic from fn rolls the
// transaction back before it propagates; errors that are not domain errors
// are wrapped in a *PersistenceError.
func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return &PersistenceError{Op: op, Err: err}
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.log.WithError(rbErr).WithField("op", op).Error("failed to rollback")
			}
		}
	}()

	err = fn(tx)
	if err != nil {
		if !isDomainError(err) {
			err = &PersistenceError{Op: op, Err: err}
		}
		return err
	}

	err = tx.Commit()
	if err != nil {
		return &PersistenceError{Op: op, Err: err}
	}

	return nil
}

// read wraps a failed query outside a unit of work; sql.ErrNoRows becomes nf
// when nf is not nil.
func read(op string, err error, nf *NotFoundError) error {
	if err == nil {
		return nil
	}
	if nf != nil && errors.Is(err, sql.ErrNoRows) {
		return nf
	}
	return &PersistenceError{Op: op, Err: err}
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=1"
	}
	return dsn + "?_foreign_keys=1"
}

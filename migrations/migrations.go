package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/httpfs"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed postgres/*.sql sqlite/*.sql
var migrations embed.FS

// embedFSDriver serves one dialect directory of the embedded migrations;
// the directory is the host part of the source URL (embed://postgres).
type embedFSDriver struct {
	httpfs.PartialDriver
}

func init() {
	source.Register("embed", &embedFSDriver{})
}

func (d *embedFSDriver) Open(rawURL string) (source.Driver, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse source URL: %w", err)
	}

	nd := &embedFSDriver{}
	err = nd.PartialDriver.Init(http.FS(migrations), u.Host)
	if err != nil {
		return nil, err
	}

	return nd, nil
}

// Dir returns the migration directory for a database/sql driver name.
func Dir(driver string) (string, error) {
	switch driver {
	case "postgres", "pgx":
		return "postgres", nil
	case "sqlite3":
		return "sqlite", nil
	}
	return "", fmt.Errorf("unsupported driver %q", driver)
}

// Migrate applies every pending up migration for driver on dsn.
func Migrate(driver, dsn string) error {
	dir, err := Dir(driver)
	if err != nil {
		return err
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("open DB: %w", err)
	}

	var d database.Driver
	switch dir {
	case "postgres":
		d, err = postgres.WithInstance(sqlDB, &postgres.Config{})
	case "sqlite":
		d, err = sqlite3.WithInstance(sqlDB, &sqlite3.Config{})
	}
	if err != nil {
		sqlDB.Close()
		return fmt.Errorf("create driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("embed://"+dir, dir, d)
	if err != nil {
		sqlDB.Close()
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate: %w", err)
	}

	return nil
}

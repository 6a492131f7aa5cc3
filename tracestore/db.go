// Package tracestore persists a record of every step invocation so a
// deployment can inspect what happened inside a bucket execution after the
// fact, independent of whatever the caller's own diagnostics.Subscriber
// does in-process.
package tracestore

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/golang-migrate/migrate/v4"
	migratesqlite3 "github.com/golang-migrate/migrate/v4/database/sqlite3"
	migrateiofs "github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/bucketrun/bucketrun/common/logger"
)

// DBDriver names the SQL driver backing a DB. sqlite3 is the only one
// wired up today; the type exists so a future driver can be added without
// changing every call site's signature.
type DBDriver string

const Sqlite3 DBDriver = "sqlite3"

// DatabaseConfig configures a DB connection.
type DatabaseConfig struct {
	Driver           DBDriver
	ConnectionString string
}

// DB wraps a sqlx connection pool along with the dialect used to build
// queries with goqu.
type DB struct {
	*sqlx.DB
	dialect *goqu.DialectWrapper
}

// Open connects to the configured database and applies any pending
// migrations before returning.
func Open(ctx context.Context, config DatabaseConfig, logFactory logger.LogFactory) (*DB, func(), error) {
	log := logFactory("tracestore")

	sqlxDB, err := sqlx.Open(string(config.Driver), config.ConnectionString)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening %s database: %w", config.Driver, err)
	}
	if err := sqlxDB.PingContext(ctx); err != nil {
		sqlxDB.Close()
		return nil, nil, fmt.Errorf("error pinging %s database: %w", config.Driver, err)
	}

	if config.Driver == Sqlite3 {
		// SQLite has no real concept of concurrent writers, and a second
		// connection to an in-memory database is a second, empty database;
		// a single connection avoids both problems.
		sqlxDB.SetMaxOpenConns(1)
	}

	if err := migrateUp(sqlxDB, log); err != nil {
		sqlxDB.Close()
		return nil, nil, fmt.Errorf("error running migrations: %w", err)
	}

	dialect := goqu.Dialect(string(config.Driver))
	db := &DB{DB: sqlxDB, dialect: &dialect}
	cleanup := func() { db.Close() }
	return db, cleanup, nil
}

func migrateUp(sqlxDB *sqlx.DB, log logger.Log) error {
	driver, err := migratesqlite3.WithInstance(sqlxDB.DB, &migratesqlite3.Config{})
	if err != nil {
		return fmt.Errorf("error creating migration driver: %w", err)
	}
	source, err := migrateiofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("error opening embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("error constructing migrator: %w", err)
	}
	log.Info("running tracestore migrations")
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

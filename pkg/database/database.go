// Package database opens the medicine store's *sql.DB for either PostgreSQL
// (pgx stdlib driver) or SQLite (modernc pure-Go driver) and wraps it with
// the transaction helper the repositories use.
package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"modernc.org/sqlite"

	"github.com/ghuser/medshelf/pkg/config"
	"github.com/ghuser/medshelf/pkg/logger"
)

// Driver names as reported by Database.Driver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// MemoryPath opens a private in-memory SQLite database.
const MemoryPath = ":memory:"

const pingTimeout = 8 * time.Second

// SQLiteLower is a Unicode-aware lower() for SQLite, whose builtin only folds
// ASCII letters. It uses the same case mapping as strings.ToLower, so a term
// lowered in Go matches a column lowered in SQL.
const SQLiteLower = "unicode_lower"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(SQLiteLower, 1, unicodeLower)
}

func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// Database is a *sql.DB tagged with the SQL dialect it speaks.
type Database struct {
	db     *sql.DB
	driver string
}

// Open connects to the store selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config, log logger.Logger) (*Database, error) {
	switch cfg.StoreDriver {
	case config.StoreSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath, log)
	case config.StorePostgres, "":
		return OpenPostgres(ctx, cfg.PostgresDSN(), log)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// OpenPostgres opens a pooled pgx-backed *sql.DB and fails fast if the
// server is unreachable.
func OpenPostgres(ctx context.Context, dsn string, log logger.Logger) (*Database, error) {
	pgCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	db := stdlib.OpenDB(*pgCfg)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	log.Info("database connected", "driver", DriverPostgres, "host", pgCfg.Host, "database", pgCfg.Database)
	return &Database{db: db, driver: DriverPostgres}, nil
}

// OpenSQLite opens the SQLite file at path, creating parent directories as
// needed. The pool is limited to one connection so writers never contend
// for the file lock; callers must not hold a *sql.Rows open while issuing
// another statement.
func OpenSQLite(ctx context.Context, path string, log logger.Logger) (*Database, error) {
	if path == "" {
		return nil, errors.New("sqlite path is empty")
	}

	dsn := "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	if path == MemoryPath {
		dsn = MemoryPath + "?_pragma=foreign_keys(1)"
	} else if dir := filepath.Dir(path); dir != "." && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	// An in-memory database lives exactly as long as its connection.
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	log.Info("database connected", "driver", DriverSQLite, "path", path)
	return &Database{db: db, driver: DriverSQLite}, nil
}

func ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return db.PingContext(ctx)
}

// DB exposes the underlying handle for migrations and the event bus.
func (d *Database) DB() *sql.DB { return d.db }

// Driver returns DriverPostgres or DriverSQLite.
func (d *Database) Driver() string { return d.driver }

// WithTx runs fn inside a transaction, committing on nil and rolling back
// on error or panic.
func (d *Database) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Ping satisfies httpx.HealthChecker.
func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *Database) Close() error {
	return d.db.Close()
}

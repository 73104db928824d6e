package migrator

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"github.com/ghuser/medshelf/pkg/database"
	"github.com/ghuser/medshelf/pkg/logger"
)

// Migrator applies the embedded goose migrations for one store.
type Migrator struct {
	provider *goose.Provider
	log      logger.Logger
}

// New builds a goose provider for db using the migration files in files.
// driver is database.DriverPostgres or database.DriverSQLite.
func New(db *sql.DB, driver string, files fs.FS, log logger.Logger) (*Migrator, error) {
	dialect, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	provider, err := goose.NewProvider(dialect, db, files)
	if err != nil {
		return nil, fmt.Errorf("failed to create goose provider: %w", err)
	}
	return &Migrator{provider: provider, log: log}, nil
}

func dialectFor(driver string) (goose.Dialect, error) {
	switch driver {
	case database.DriverPostgres:
		return goose.DialectPostgres, nil
	case database.DriverSQLite:
		return goose.DialectSQLite3, nil
	default:
		return "", fmt.Errorf("unsupported migration driver %q", driver)
	}
}

// Up applies every pending migration.
func (m *Migrator) Up(ctx context.Context) error {
	results, err := m.provider.Up(ctx)
	for _, r := range results {
		m.logResult(r)
	}
	if err != nil {
		return fmt.Errorf("failed to up migrations: %w", err)
	}
	if len(results) == 0 {
		m.log.Info("migrations up to date")
	}
	return nil
}

// Down rolls back the most recent migration.
func (m *Migrator) Down(ctx context.Context) error {
	r, err := m.provider.Down(ctx)
	if r != nil {
		m.logResult(r)
	}
	if err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	return nil
}

// Version returns the highest applied migration version.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	v, err := m.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read migration version: %w", err)
	}
	return v, nil
}

// Status logs the state of every known migration.
func (m *Migrator) Status(ctx context.Context) error {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}
	for _, s := range statuses {
		m.log.Info("migration",
			"version", s.Source.Version,
			"path", s.Source.Path,
			"state", string(s.State),
			"applied_at", s.AppliedAt,
		)
	}
	return nil
}

func (m *Migrator) logResult(r *goose.MigrationResult) {
	if r.Error != nil {
		m.log.Error("migration failed", "version", r.Source.Version, "path", r.Source.Path, "error", r.Error)
		return
	}
	m.log.Info("migration applied",
		"version", r.Source.Version,
		"path", r.Source.Path,
		"direction", r.Direction,
		"duration_ms", r.Duration.Milliseconds(),
	)
}

// Run is the one-shot form used at startup when AUTO_MIGRATE is on.
func Run(ctx context.Context, db *database.Database, files fs.FS, log logger.Logger) error {
	m, err := New(db.DB(), db.Driver(), files, log)
	if err != nil {
		return err
	}
	return m.Up(ctx)
}

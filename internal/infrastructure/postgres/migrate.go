package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/internal/config"
)

const migrationsTable = "schema_migrations"

// ErrDirtySchema means a previous migration failed half way and needs manual
// repair before the server may start.
var ErrDirtySchema = errors.New("database schema is dirty")

// RunMigrations brings the users/tasks schema up to date. It is a no-op when
// RUN_MIGRATIONS is off.
func RunMigrations(cfg *config.Config, logger *zap.Logger) error {
	if cfg == nil || !cfg.Migrations.Enabled {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("postgres", connString(cfg.Database))
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	m, err := newMigrator(db, cfg.Migrations.Path, cfg.Database.Name)
	if err != nil {
		return err
	}
	defer m.Close()

	if _, dirty, err := m.Version(); err == nil && dirty {
		return ErrDirtySchema
	}

	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Debug("schema already current")
	case err != nil:
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return err
	}
	logger.Info("schema ready", zap.Uint("version", version), zap.String("source", cfg.Migrations.Path))
	return nil
}

func newMigrator(db *sql.DB, path, dbName string) (*migrate.Migrate, error) {
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping migration connection: %w", err)
	}
	driver, err := migratepg.WithInstance(db, &migratepg.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}
	source := "file://" + filepath.ToSlash(path)
	m, err := migrate.NewWithDatabaseInstance(source, dbName, driver)
	if err != nil {
		return nil, fmt.Errorf("load migrations from %s: %w", path, err)
	}
	return m, nil
}

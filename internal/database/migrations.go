package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationStatus is the schema version after a migration run.
type MigrationStatus struct {
	Version uint
	Dirty   bool
	Changed bool
}

// ApplyMigrations brings the pool's database up to the latest embedded schema.
func ApplyMigrations(pool *pgxpool.Pool) (MigrationStatus, error) {
	return ApplyMigrationsDSN(pool.Config().ConnString())
}

// ApplyMigrationsDSN brings the database at dsn up to the latest embedded schema.
func ApplyMigrationsDSN(dsn string) (MigrationStatus, error) {
	return runMigrations(dsn, func(m *migrate.Migrate) error { return m.Up() })
}

// RollbackMigrations reverts every embedded migration. Used by tests.
func RollbackMigrations(dsn string) (MigrationStatus, error) {
	return runMigrations(dsn, func(m *migrate.Migrate) error { return m.Down() })
}

func runMigrations(dsn string, step func(*migrate.Migrate) error) (MigrationStatus, error) {
	var status MigrationStatus

	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return status, fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer sqlDB.Close()

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return status, fmt.Errorf("failed to create migration driver: %w", err)
	}
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return status, fmt.Errorf("failed to create migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return status, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	switch err := step(m); {
	case err == nil:
		status.Changed = true
	case errors.Is(err, migrate.ErrNoChange):
	default:
		return status, fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return status, fmt.Errorf("failed to read schema version: %w", err)
	}
	status.Version, status.Dirty = version, dirty
	return status, nil
}

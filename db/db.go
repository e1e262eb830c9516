// Package db provides database connectivity and migration functionality for BlogHub.
// It creates the pgx connection pool used by every store and applies the SQL
// migrations embedded in this package with golang-migrate.
package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-migrate/migrate/v4"
	// Registers the "postgres" database driver with golang-migrate (uses lib/pq).
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq" // database/sql driver behind migrate's postgres driver

	"github.com/user/bloghub-go/apperror"
	"github.com/user/bloghub-go/config"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// NewPool establishes the PostgreSQL connection pool and verifies it with a ping.
func NewPool(ctx context.Context, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error parsing DSN for database %s", cfg.DBName), err)
	}

	poolConfig.MaxConns = int32(cfg.MaxSize)
	poolConfig.MaxConnIdleTime = 10 * time.Minute
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement
	poolConfig.ConnConfig.StatementCacheCapacity = 256

	createCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(createCtx, poolConfig)
	if err != nil {
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error creating pgxpool for database %s", cfg.DBName), err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error connecting to the database %s", cfg.DBName), err)
	}

	return pool, nil
}

// RunMigrations applies every pending migration embedded under migrations/.
// Files follow golang-migrate naming: {version}_{title}.up.sql / .down.sql.
func RunMigrations(cfg *config.DatabaseConfig) error {
	return MigrateURL(cfg.DSN())
}

// MigrateURL is RunMigrations for a ready-made postgres:// URL.
func MigrateURL(dsn string) error {
	m, err := newMigrator(dsn)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return apperror.NewMigrationError("failed to run migrations", err)
	}
	version, dirty, err := m.Version()
	if err == nil {
		log.Printf("[db] schema at version %d (dirty=%t)", version, dirty)
	}
	return nil
}

// RollbackMigrations reverts the given number of migration steps.
func RollbackMigrations(cfg *config.DatabaseConfig, steps int) error {
	if steps <= 0 {
		return apperror.NewValidationError("rollback steps must be positive", nil)
	}
	m, err := newMigrator(cfg.DSN())
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return apperror.NewMigrationError("failed to roll back migrations", err)
	}
	return nil
}

func newMigrator(dsn string) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, apperror.NewMigrationError("failed to open embedded migrations", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		return nil, apperror.NewMigrationError("failed to create migrator", err)
	}
	return m, nil
}

// closeMigrator releases the source and database handles held by migrate.
func closeMigrator(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		log.Printf("[db] warning: error closing migration source: %v", srcErr)
	}
	if dbErr != nil {
		log.Printf("[db] warning: error closing migration database instance: %v", dbErr)
	}
}

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrSchemaVersionTooNew is returned when the database schema version
// exceeds the version supported by this code.
var ErrSchemaVersionTooNew = errors.New("database schema version is newer than supported; upgrade wardrobe")

// Migration represents a single database migration.
type Migration struct {
	Version int
	SQL     string
}

// Migrations returns the list of all migrations in order.
// Migrations are forward-only and must be applied in sequence.
func Migrations() []Migration {
	return []Migration{
		{Version: 1, SQL: schemaV1},
		{Version: 2, SQL: schemaV2},
		{Version: 3, SQL: schemaV3},
	}
}

// GetSchemaVersion returns the current schema version from the database.
// Returns 0 if no migrations have been applied yet.
func GetSchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var tableName string
	err := db.QueryRowContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_migrations'
	`).Scan(&tableName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to check for schema_migrations table: %w", err)
	}

	var version int
	err = db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version), 0) FROM schema_migrations
	`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}

	return version, nil
}

// RunMigrations applies all pending migrations to the database.
// Each migration runs in its own transaction.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	currentVersion, err := GetSchemaVersion(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	if currentVersion > SchemaVersion {
		return fmt.Errorf("%w: database version %d, supported version %d",
			ErrSchemaVersionTooNew, currentVersion, SchemaVersion)
	}

	for _, m := range Migrations() {
		if m.Version <= currentVersion {
			continue
		}
		if err := applyMigration(ctx, db, m); err != nil {
			return fmt.Errorf("migration v%d failed: %w", m.Version, err)
		}
	}

	return nil
}

// applyMigration applies a single migration within a transaction.
func applyMigration(ctx context.Context, db *sql.DB, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Best effort rollback on error

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO schema_migrations (version, applied_ts)
		VALUES (?, ?)
	`, m.Version, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	return nil
}

// ValidateSchema checks that all expected tables and indexes exist.
func ValidateSchema(ctx context.Context, db *sql.DB) error {
	for _, table := range AllTables {
		if err := checkObject(ctx, db, "table", table); err != nil {
			return err
		}
	}
	for _, index := range AllIndexes {
		if err := checkObject(ctx, db, "index", index); err != nil {
			return err
		}
	}
	return nil
}

func checkObject(ctx context.Context, db *sql.DB, kind, name string) error {
	var found string
	err := db.QueryRowContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type=? AND name=?
	`, kind, name).Scan(&found)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s %q does not exist", kind, name)
		}
		return fmt.Errorf("failed to check %s %q: %w", kind, name, err)
	}
	return nil
}

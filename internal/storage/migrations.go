package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial catalog schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS catalog_entries (
					id TEXT PRIMARY KEY,
					brand TEXT NOT NULL,
					category TEXT NOT NULL,
					unit TEXT NOT NULL,
					pack_qty TEXT,
					pack_unit TEXT NOT NULL DEFAULT '',
					description TEXT NOT NULL DEFAULT '',
					attributes TEXT NOT NULL DEFAULT '{}',
					canonical_key TEXT,
					status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'retired')),
					ambiguous INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL,
					CHECK (ambiguous = 0 OR canonical_key IS NULL)
				)`,
				`CREATE UNIQUE INDEX idx_catalog_entries_canonical_key
					ON catalog_entries(canonical_key)
					WHERE status = 'active' AND ambiguous = 0 AND canonical_key IS NOT NULL`,
				`CREATE INDEX idx_catalog_entries_status ON catalog_entries(status)`,

				`CREATE TABLE IF NOT EXISTS vendors (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					created_at DATETIME NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS price_quotes (
					id TEXT PRIMARY KEY,
					catalog_entry_id TEXT NOT NULL REFERENCES catalog_entries(id),
					vendor_id TEXT NOT NULL REFERENCES vendors(id),
					price TEXT NOT NULL,
					currency TEXT NOT NULL,
					resolved INTEGER NOT NULL DEFAULT 0,
					source TEXT NOT NULL,
					quote_ref TEXT NOT NULL,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL,
					UNIQUE (catalog_entry_id, vendor_id, quote_ref)
				)`,
				`CREATE INDEX idx_price_quotes_entry ON price_quotes(catalog_entry_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add request line items and quote lookup by reference",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS request_lines (
					request_id TEXT NOT NULL,
					line_id TEXT NOT NULL,
					material_name TEXT NOT NULL DEFAULT '',
					sub_type TEXT NOT NULL DEFAULT '',
					dimension TEXT NOT NULL DEFAULT '',
					dimension_unit TEXT NOT NULL DEFAULT '',
					quantity REAL NOT NULL DEFAULT 0,
					PRIMARY KEY (request_id, line_id)
				)`,
				`CREATE INDEX idx_price_quotes_vendor_ref ON price_quotes(vendor_id, quote_ref)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Add lead time to price quotes",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`ALTER TABLE price_quotes ADD COLUMN lead_time_days INTEGER NOT NULL DEFAULT 0`)
			return err
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion returns the applied schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

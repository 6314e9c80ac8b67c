package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/sku-resolver/internal/common"
	"github.com/Veraticus/sku-resolver/internal/model"
	"github.com/Veraticus/sku-resolver/internal/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const entryColumns = `id, brand, category, unit, pack_qty, pack_unit, description,
	attributes, canonical_key, status, ambiguous, created_at, updated_at`

// CreateEntry inserts a new catalog entry, assigning an ID when empty.
func (s *SQLiteStorage) CreateEntry(ctx context.Context, entry *model.CatalogEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if entry != nil && entry.Status == "" {
		entry.Status = model.StatusActive
	}
	if err := validateEntry(entry); err != nil {
		return err
	}
	return s.insertEntryTx(ctx, s.db, entry)
}

func (s *SQLiteStorage) insertEntryTx(ctx context.Context, q queryable, entry *model.CatalogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := s.now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = entry.CreatedAt
	}

	attrs, err := json.Marshal(entry.Attributes)
	if err != nil {
		return fmt.Errorf("failed to marshal attributes: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO catalog_entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID,
		entry.Brand,
		entry.Category,
		entry.Unit,
		nullDecimal(entry.PackQty),
		entry.PackUnit,
		entry.Description,
		string(attrs),
		nullString(entry.CanonicalKey),
		string(entry.Status),
		entry.Ambiguous,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert catalog entry: %w", mapConstraintError(err))
	}
	return nil
}

// UpsertEntryByKey inserts entry, or updates the active non-ambiguous entry
// holding the same canonical key. On update entry.ID is set to the existing ID.
func (s *SQLiteStorage) UpsertEntryByKey(ctx context.Context, entry *model.CatalogEntry) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if entry != nil && entry.Status == "" {
		entry.Status = model.StatusActive
	}
	if err := validateEntry(entry); err != nil {
		return false, err
	}
	if entry.CanonicalKey == "" || entry.Ambiguous {
		return false, common.NewValidationError("canonical_key", "is required for upsert")
	}

	created := false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var existingID string
		err := tx.QueryRowContext(ctx, `
			SELECT id FROM catalog_entries
			WHERE canonical_key = ? AND status = 'active' AND ambiguous = 0
		`, entry.CanonicalKey).Scan(&existingID)
		if errors.Is(err, sql.ErrNoRows) {
			created = true
			return s.insertEntryTx(ctx, tx, entry)
		}
		if err != nil {
			return fmt.Errorf("failed to look up canonical key: %w", err)
		}

		entry.ID = existingID
		entry.UpdatedAt = s.now()
		attrs, err := json.Marshal(entry.Attributes)
		if err != nil {
			return fmt.Errorf("failed to marshal attributes: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE catalog_entries SET
				brand = ?, category = ?, unit = ?, pack_qty = ?, pack_unit = ?,
				description = ?, attributes = ?, updated_at = ?
			WHERE id = ?
		`,
			entry.Brand,
			entry.Category,
			entry.Unit,
			nullDecimal(entry.PackQty),
			entry.PackUnit,
			entry.Description,
			string(attrs),
			entry.UpdatedAt,
			existingID,
		)
		if err != nil {
			return fmt.Errorf("failed to update catalog entry: %w", mapConstraintError(err))
		}
		return tx.QueryRowContext(ctx, `SELECT created_at FROM catalog_entries WHERE id = ?`, existingID).
			Scan(&entry.CreatedAt)
	})
	return created, err
}

// UpdateEntryDerived rewrites an entry's attributes and canonical key.
func (s *SQLiteStorage) UpdateEntryDerived(ctx context.Context, entry *model.CatalogEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("%w: entry", ErrNilParameter)
	}
	if err := validateString(entry.ID, "id"); err != nil {
		return err
	}
	if entry.Ambiguous && entry.CanonicalKey != "" {
		return common.NewValidationError("canonical_key", "must be empty on ambiguous entries")
	}

	attrs, err := json.Marshal(entry.Attributes)
	if err != nil {
		return fmt.Errorf("failed to marshal attributes: %w", err)
	}
	entry.UpdatedAt = s.now()

	result, err := s.db.ExecContext(ctx, `
		UPDATE catalog_entries SET attributes = ?, canonical_key = ?, updated_at = ?
		WHERE id = ?
	`, string(attrs), nullString(entry.CanonicalKey), entry.UpdatedAt, entry.ID)
	if err != nil {
		return fmt.Errorf("failed to update derived attributes: %w", mapConstraintError(err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return notFound("catalog entry", entry.ID)
	}
	return nil
}

// GetEntry retrieves a catalog entry by ID.
func (s *SQLiteStorage) GetEntry(ctx context.Context, id string) (*model.CatalogEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getEntryTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getEntryTx(ctx context.Context, q queryable, id string) (*model.CatalogEntry, error) {
	row := q.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM catalog_entries WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("catalog entry", id)
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListEntries returns catalog entries ordered by ID.
func (s *SQLiteStorage) ListEntries(ctx context.Context, filter service.EntryFilter) ([]model.CatalogEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		query strings.Builder
		args  []any
	)
	query.WriteString(`SELECT ` + entryColumns + ` FROM catalog_entries`)
	if filter.ActiveOnly {
		query.WriteString(` WHERE status = 'active'`)
	}
	query.WriteString(` ORDER BY id`)
	if filter.Limit > 0 {
		query.WriteString(` LIMIT ?`)
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.CatalogEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func scanEntry(row rowScanner) (*model.CatalogEntry, error) {
	var (
		entry        model.CatalogEntry
		packQty      sql.NullString
		attrs        string
		canonicalKey sql.NullString
		status       string
	)
	err := row.Scan(
		&entry.ID,
		&entry.Brand,
		&entry.Category,
		&entry.Unit,
		&packQty,
		&entry.PackUnit,
		&entry.Description,
		&attrs,
		&canonicalKey,
		&status,
		&entry.Ambiguous,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan catalog entry: %w", err)
	}

	entry.Status = model.EntryStatus(status)
	entry.CanonicalKey = canonicalKey.String
	if packQty.Valid && packQty.String != "" {
		qty, err := decimal.NewFromString(packQty.String)
		if err != nil {
			return nil, fmt.Errorf("invalid pack quantity %q on entry %s: %w", packQty.String, entry.ID, err)
		}
		entry.PackQty = &qty
	}
	if err := json.Unmarshal([]byte(attrs), &entry.Attributes); err != nil {
		return nil, fmt.Errorf("invalid attributes on entry %s: %w", entry.ID, err)
	}
	return &entry, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

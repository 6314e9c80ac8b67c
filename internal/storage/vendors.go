package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/sku-resolver/internal/model"
)

// SaveVendor creates or renames a vendor.
func (s *SQLiteStorage) SaveVendor(ctx context.Context, vendor *model.Vendor) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateVendor(vendor); err != nil {
		return err
	}
	if vendor.CreatedAt.IsZero() {
		vendor.CreatedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vendors (id, name, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name
	`, vendor.ID, vendor.Name, vendor.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save vendor: %w", mapConstraintError(err))
	}
	return nil
}

// GetVendor retrieves a vendor by ID.
func (s *SQLiteStorage) GetVendor(ctx context.Context, id string) (*model.Vendor, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getVendorTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getVendorTx(ctx context.Context, q queryable, id string) (*model.Vendor, error) {
	var vendor model.Vendor
	err := q.QueryRowContext(ctx, `
		SELECT id, name, created_at
		FROM vendors
		WHERE id = ?
	`, id).Scan(&vendor.ID, &vendor.Name, &vendor.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("vendor", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vendor: %w", err)
	}
	return &vendor, nil
}

// ListVendors returns all vendors ordered by ID.
func (s *SQLiteStorage) ListVendors(ctx context.Context) ([]model.Vendor, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at
		FROM vendors
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vendors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var vendors []model.Vendor
	for rows.Next() {
		var vendor model.Vendor
		if err := rows.Scan(&vendor.ID, &vendor.Name, &vendor.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vendor: %w", err)
		}
		vendors = append(vendors, vendor)
	}
	return vendors, rows.Err()
}

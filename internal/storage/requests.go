package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/sku-resolver/internal/model"
)

// SaveRequestLines stores a copy of request line items, replacing lines with
// the same (request, line) identifiers.
func (s *SQLiteStorage) SaveRequestLines(ctx context.Context, lines []model.RequestLineItem) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRequestLines(lines); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO request_lines
				(request_id, line_id, material_name, sub_type, dimension, dimension_unit, quantity)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(request_id, line_id) DO UPDATE SET
				material_name = excluded.material_name,
				sub_type = excluded.sub_type,
				dimension = excluded.dimension,
				dimension_unit = excluded.dimension_unit,
				quantity = excluded.quantity
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, line := range lines {
			if _, err := stmt.ExecContext(ctx,
				line.RequestID,
				line.LineID,
				line.MaterialName,
				line.SubType,
				line.Dimension,
				line.DimensionUnit,
				line.Quantity,
			); err != nil {
				return fmt.Errorf("failed to save request line %s/%s: %w", line.RequestID, line.LineID, err)
			}
		}
		return nil
	})
}

// GetRequestLine retrieves one request line item.
func (s *SQLiteStorage) GetRequestLine(ctx context.Context, requestID, lineID string) (*model.RequestLineItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(requestID, "requestID"); err != nil {
		return nil, err
	}
	if err := validateString(lineID, "lineID"); err != nil {
		return nil, err
	}

	var line model.RequestLineItem
	err := s.db.QueryRowContext(ctx, `
		SELECT request_id, line_id, material_name, sub_type, dimension, dimension_unit, quantity
		FROM request_lines
		WHERE request_id = ? AND line_id = ?
	`, requestID, lineID).Scan(
		&line.RequestID,
		&line.LineID,
		&line.MaterialName,
		&line.SubType,
		&line.Dimension,
		&line.DimensionUnit,
		&line.Quantity,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("request line", requestID+"/"+lineID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request line: %w", err)
	}
	return &line, nil
}

package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Veraticus/sku-resolver/internal/model"
	"github.com/google/uuid"
)

const quoteColumns = `id, catalog_entry_id, vendor_id, price, currency, resolved,
	source, quote_ref, lead_time_days, created_at, updated_at`

// UpsertPriceQuote writes a quote keyed by (entry, vendor, quote ref). A
// repeated key updates price, currency, lead time, resolution and source in
// place and keeps the original ID and creation time, which are copied back
// into quote.
func (s *SQLiteStorage) UpsertPriceQuote(ctx context.Context, quote *model.PriceQuote) error {
	return s.UpsertPriceQuotes(ctx, []*model.PriceQuote{quote})
}

// UpsertPriceQuotes writes quotes in one transaction with the semantics of
// UpsertPriceQuote. If any quote fails, none are written.
func (s *SQLiteStorage) UpsertPriceQuotes(ctx context.Context, quotes []*model.PriceQuote) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	for _, quote := range quotes {
		if err := validateQuote(quote); err != nil {
			return err
		}
	}
	if len(quotes) == 0 {
		return nil
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, quote := range quotes {
			if _, err := s.getVendorTx(ctx, tx, quote.VendorID); err != nil {
				return err
			}
			if _, err := s.getEntryTx(ctx, tx, quote.CatalogEntryID); err != nil {
				return err
			}
			if err := s.upsertQuoteTx(ctx, tx, quote); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteStorage) upsertQuoteTx(ctx context.Context, q queryable, quote *model.PriceQuote) error {
	now := s.now()
	if quote.UpdatedAt.IsZero() {
		quote.UpdatedAt = now
	}
	if quote.CreatedAt.IsZero() {
		quote.CreatedAt = quote.UpdatedAt
	}
	if quote.ID == "" {
		quote.ID = uuid.NewString()
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO price_quotes (`+quoteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(catalog_entry_id, vendor_id, quote_ref) DO UPDATE SET
			price = excluded.price,
			currency = excluded.currency,
			resolved = excluded.resolved,
			source = excluded.source,
			lead_time_days = excluded.lead_time_days,
			updated_at = excluded.updated_at
	`,
		quote.ID,
		quote.CatalogEntryID,
		quote.VendorID,
		quote.Price,
		quote.Currency,
		quote.Resolved,
		string(quote.Source),
		quote.QuoteRef,
		quote.LeadTimeDays,
		quote.CreatedAt,
		quote.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert price quote: %w", mapConstraintError(err))
	}

	err = q.QueryRowContext(ctx, `
		SELECT id, created_at FROM price_quotes
		WHERE catalog_entry_id = ? AND vendor_id = ? AND quote_ref = ?
	`, quote.CatalogEntryID, quote.VendorID, quote.QuoteRef).Scan(&quote.ID, &quote.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to read back price quote: %w", err)
	}
	return nil
}

// GetQuotesByEntry returns every quote written against an entry.
func (s *SQLiteStorage) GetQuotesByEntry(ctx context.Context, entryID string) ([]model.PriceQuote, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(entryID, "entryID"); err != nil {
		return nil, err
	}
	return s.queryQuotes(ctx, s.db, `
		SELECT `+quoteColumns+` FROM price_quotes
		WHERE catalog_entry_id = ?
		ORDER BY vendor_id, quote_ref
	`, entryID)
}

// GetQuotesByRef returns every quote a vendor wrote under one quote reference.
// A candidate-tier resolution yields several.
func (s *SQLiteStorage) GetQuotesByRef(ctx context.Context, vendorID, quoteRef string) ([]model.PriceQuote, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(vendorID, "vendorID"); err != nil {
		return nil, err
	}
	if err := validateString(quoteRef, "quoteRef"); err != nil {
		return nil, err
	}
	return s.queryQuotes(ctx, s.db, `
		SELECT `+quoteColumns+` FROM price_quotes
		WHERE vendor_id = ? AND quote_ref = ?
		ORDER BY catalog_entry_id
	`, vendorID, quoteRef)
}

func (s *SQLiteStorage) queryQuotes(ctx context.Context, q queryable, query string, args ...any) ([]model.PriceQuote, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query price quotes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var quotes []model.PriceQuote
	for rows.Next() {
		quote, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, *quote)
	}
	return quotes, rows.Err()
}

func scanQuote(row rowScanner) (*model.PriceQuote, error) {
	var (
		quote  model.PriceQuote
		source string
	)
	err := row.Scan(
		&quote.ID,
		&quote.CatalogEntryID,
		&quote.VendorID,
		&quote.Price,
		&quote.Currency,
		&quote.Resolved,
		&source,
		&quote.QuoteRef,
		&quote.LeadTimeDays,
		&quote.CreatedAt,
		&quote.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan price quote: %w", err)
	}
	quote.Source = model.QuoteSource(source)
	return &quote, nil
}

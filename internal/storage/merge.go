package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/sku-resolver/internal/common"
	"github.com/Veraticus/sku-resolver/internal/model"
)

// MergeEntries repoints every quote of alias to master, marks them resolved
// and retires alias, all in one transaction. An alias quote whose
// (vendor, quote ref) already exists on master is folded into the master row,
// which keeps whichever price was written later. It returns the number of
// alias quotes moved or folded.
func (s *SQLiteStorage) MergeEntries(ctx context.Context, aliasID, masterID string, at time.Time) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(aliasID, "aliasID"); err != nil {
		return 0, err
	}
	if err := validateString(masterID, "masterID"); err != nil {
		return 0, err
	}
	if aliasID == masterID {
		return 0, common.NewValidationError("alias_id", "must differ from master_id")
	}
	if at.IsZero() {
		at = s.now()
	}

	moved := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.getEntryTx(ctx, tx, aliasID); err != nil {
			return err
		}
		master, err := s.getEntryTx(ctx, tx, masterID)
		if err != nil {
			return err
		}
		if !master.IsActive() {
			return common.NewValidationError("master_id", "must reference an active entry")
		}

		aliasQuotes, err := s.queryQuotes(ctx, tx, `
			SELECT `+quoteColumns+` FROM price_quotes
			WHERE catalog_entry_id = ?
			ORDER BY vendor_id, quote_ref
		`, aliasID)
		if err != nil {
			return err
		}

		for i := range aliasQuotes {
			if err := s.moveQuoteTx(ctx, tx, &aliasQuotes[i], masterID, at); err != nil {
				return err
			}
			moved++
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE catalog_entries
			SET status = 'retired', ambiguous = 0, updated_at = ?
			WHERE id = ?
		`, at, aliasID)
		if err != nil {
			return fmt.Errorf("failed to retire alias entry: %w", mapConstraintError(err))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.Info("Merged catalog entries",
		"alias", aliasID,
		"master", masterID,
		"quotes_moved", moved)

	return moved, nil
}

func (s *SQLiteStorage) moveQuoteTx(ctx context.Context, tx *sql.Tx, quote *model.PriceQuote, masterID string, at time.Time) error {
	row := tx.QueryRowContext(ctx, `
		SELECT `+quoteColumns+` FROM price_quotes
		WHERE catalog_entry_id = ? AND vendor_id = ? AND quote_ref = ?
	`, masterID, quote.VendorID, quote.QuoteRef)
	existing, err := scanQuote(row)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	if existing == nil {
		_, err = tx.ExecContext(ctx, `
			UPDATE price_quotes
			SET catalog_entry_id = ?, resolved = 1, source = ?, updated_at = ?
			WHERE id = ?
		`, masterID, string(model.SourceReconciled), at, quote.ID)
		if err != nil {
			return fmt.Errorf("failed to repoint quote %s: %w", quote.ID, mapConstraintError(err))
		}
		return nil
	}

	winner := existing
	if quote.UpdatedAt.After(existing.UpdatedAt) {
		winner = quote
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE price_quotes
		SET price = ?, currency = ?, lead_time_days = ?, resolved = 1, source = ?, updated_at = ?
		WHERE id = ?
	`, winner.Price, winner.Currency, winner.LeadTimeDays, string(model.SourceReconciled), at, existing.ID)
	if err != nil {
		return fmt.Errorf("failed to fold quote %s: %w", quote.ID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM price_quotes WHERE id = ?`, quote.ID); err != nil {
		return fmt.Errorf("failed to remove folded quote %s: %w", quote.ID, err)
	}
	return nil
}

package storage

import (
	"errors"
	"fmt"

	"github.com/Veraticus/sku-resolver/internal/common"
	"github.com/mattn/go-sqlite3"
)

// mapConstraintError turns SQLite unique violations into common.ErrStoreConflict
// so callers can retry or report them without knowing the driver.
func mapConstraintError(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %w", common.ErrStoreConflict, err)
		}
		if sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked {
			return &common.RetryableError{Err: err, Retryable: true}
		}
	}
	return err
}

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %q", common.ErrNotFound, kind, id)
}

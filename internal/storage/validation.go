package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/sku-resolver/internal/common"
	"github.com/Veraticus/sku-resolver/internal/model"
)

// Validation errors. All of them match common.ErrValidation.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = fmt.Errorf("%w: string parameter cannot be empty", common.ErrValidation)
	ErrNilParameter = fmt.Errorf("%w: parameter cannot be nil", common.ErrValidation)
	ErrEmptySlice   = fmt.Errorf("%w: slice cannot be empty", common.ErrValidation)
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateEntry checks the fields every catalog entry must carry.
func validateEntry(entry *model.CatalogEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry", ErrNilParameter)
	}
	if strings.TrimSpace(entry.Brand) == "" {
		return common.NewValidationError("brand", "is required")
	}
	if strings.TrimSpace(entry.Category) == "" {
		return common.NewValidationError("category", "is required")
	}
	if strings.TrimSpace(entry.Unit) == "" {
		return common.NewValidationError("unit", "is required")
	}
	switch entry.Status {
	case model.StatusActive, model.StatusRetired:
	default:
		return common.NewValidationError("status", fmt.Sprintf("must be active or retired, got %q", entry.Status))
	}
	if entry.Ambiguous && entry.CanonicalKey != "" {
		return common.NewValidationError("canonical_key", "must be empty on ambiguous entries")
	}
	if entry.PackQty != nil && !entry.PackQty.IsPositive() {
		return common.NewValidationError("pack_qty", "must be positive")
	}
	return nil
}

// validateVendor validates a vendor.
func validateVendor(vendor *model.Vendor) error {
	if vendor == nil {
		return fmt.Errorf("%w: vendor", ErrNilParameter)
	}
	if strings.TrimSpace(vendor.ID) == "" {
		return common.NewValidationError("vendor_id", "is required")
	}
	if strings.TrimSpace(vendor.Name) == "" {
		return common.NewValidationError("name", "is required")
	}
	return nil
}

// validateQuote validates a price quote before it is written.
func validateQuote(quote *model.PriceQuote) error {
	if quote == nil {
		return fmt.Errorf("%w: quote", ErrNilParameter)
	}
	if strings.TrimSpace(quote.CatalogEntryID) == "" {
		return common.NewValidationError("catalog_entry_id", "is required")
	}
	if strings.TrimSpace(quote.VendorID) == "" {
		return common.NewValidationError("vendor_id", "is required")
	}
	if strings.TrimSpace(quote.QuoteRef) == "" {
		return common.NewValidationError("quote_ref", "is required")
	}
	if strings.TrimSpace(quote.Currency) == "" {
		return common.NewValidationError("currency", "is required")
	}
	if quote.Price.IsNegative() {
		return common.NewValidationError("price", "must not be negative")
	}
	if quote.LeadTimeDays < 0 {
		return common.NewValidationError("lead_time_days", "must not be negative")
	}
	return nil
}

// validateRequestLines validates a batch of request line items.
func validateRequestLines(lines []model.RequestLineItem) error {
	if lines == nil {
		return fmt.Errorf("%w: lines", ErrNilParameter)
	}
	if len(lines) == 0 {
		return fmt.Errorf("%w: lines", ErrEmptySlice)
	}
	for i, line := range lines {
		if strings.TrimSpace(line.RequestID) == "" {
			return fmt.Errorf("line at index %d: %w", i, common.NewValidationError("request_id", "is required"))
		}
		if strings.TrimSpace(line.LineID) == "" {
			return fmt.Errorf("line at index %d: %w", i, common.NewValidationError("line_id", "is required"))
		}
	}
	return nil
}

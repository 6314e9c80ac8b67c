// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/sku-resolver/internal/model"
)

// EntryFilter narrows catalog listings.
type EntryFilter struct {
	ActiveOnly bool
	Limit      int
}

// CatalogStore is the narrow contract the engine uses for all catalog state.
// Implementations enforce canonical-key uniqueness among active,
// non-ambiguous entries and report violations as common.ErrStoreConflict.
type CatalogStore interface {
	// Catalog entries
	CreateEntry(ctx context.Context, entry *model.CatalogEntry) error
	UpsertEntryByKey(ctx context.Context, entry *model.CatalogEntry) (created bool, err error)
	UpdateEntryDerived(ctx context.Context, entry *model.CatalogEntry) error
	GetEntry(ctx context.Context, id string) (*model.CatalogEntry, error)
	ListEntries(ctx context.Context, filter EntryFilter) ([]model.CatalogEntry, error)

	// Vendors
	SaveVendor(ctx context.Context, vendor *model.Vendor) error
	GetVendor(ctx context.Context, id string) (*model.Vendor, error)
	ListVendors(ctx context.Context) ([]model.Vendor, error)

	// Request line items
	SaveRequestLines(ctx context.Context, lines []model.RequestLineItem) error
	GetRequestLine(ctx context.Context, requestID, lineID string) (*model.RequestLineItem, error)

	// Price quotes
	UpsertPriceQuote(ctx context.Context, quote *model.PriceQuote) error
	UpsertPriceQuotes(ctx context.Context, quotes []*model.PriceQuote) error
	GetQuotesByEntry(ctx context.Context, entryID string) ([]model.PriceQuote, error)
	GetQuotesByRef(ctx context.Context, vendorID, quoteRef string) ([]model.PriceQuote, error)

	// Reconciliation
	MergeEntries(ctx context.Context, aliasID, masterID string, at time.Time) (int, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for store writes. Zero values
// fall back to 3 attempts backing off from 50ms, doubling, capped at 2s.
type RetryOptions struct {
	Operation    string
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

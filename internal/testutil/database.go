// Package testutil provides test fixtures for packages that run against a
// real SQLite catalog store.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Veraticus/sku-resolver/internal/catalog"
	"github.com/Veraticus/sku-resolver/internal/model"
	"github.com/Veraticus/sku-resolver/internal/normalize"
	"github.com/Veraticus/sku-resolver/internal/storage"
)

// TestDB is a migrated, file-backed test store.
type TestDB struct {
	Store *storage.SQLiteStorage
	t     *testing.T
}

// SetupTestDB creates a migrated store in a temporary directory, seeded by
// the given builder when it is not nil. Cleanup is registered on t.
//
// Example:
//
//	db := testutil.SetupTestDB(t, testutil.NewCatalogBuilder().
//		WithPlumbingFixture().
//		WithVendor("v1", "Acme Pipes"))
func SetupTestDB(t *testing.T, builder *CatalogBuilder) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	if builder != nil {
		if err := builder.Build(ctx, store); err != nil {
			t.Fatalf("failed to seed catalog: %v", err)
		}
	}

	return &TestDB{Store: store, t: t}
}

// MustGetEntry returns the entry with id or fails the test.
func (db *TestDB) MustGetEntry(id string) *model.CatalogEntry {
	db.t.Helper()
	entry, err := db.Store.GetEntry(context.Background(), id)
	if err != nil {
		db.t.Fatalf("failed to get entry %q: %v", id, err)
	}
	return entry
}

// MustGetQuotes returns all quotes of an entry or fails the test.
func (db *TestDB) MustGetQuotes(entryID string) []model.PriceQuote {
	db.t.Helper()
	quotes, err := db.Store.GetQuotesByEntry(context.Background(), entryID)
	if err != nil {
		db.t.Fatalf("failed to get quotes for %q: %v", entryID, err)
	}
	return quotes
}

// Projector returns the projector fixtures are derived with.
func Projector() *catalog.Projector {
	return catalog.NewProjector(normalize.DefaultVocabulary())
}

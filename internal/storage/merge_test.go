package storage

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/sku-resolver/internal/common"
	"github.com/Veraticus/sku-resolver/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedQuote(t *testing.T, store *SQLiteStorage, entryID, vendorID, ref string, price int64, at time.Time) {
	t.Helper()
	require.NoError(t, store.UpsertPriceQuote(context.Background(), &model.PriceQuote{
		CatalogEntryID: entryID,
		VendorID:       vendorID,
		QuoteRef:       ref,
		Currency:       "INR",
		Price:          decimal.NewFromInt(price),
		Source:         model.SourceAmbiguous,
		CreatedAt:      at,
		UpdatedAt:      at,
	}))
}

func TestMergeEntries(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	for _, id := range []string{"v1", "v2"} {
		require.NoError(t, store.SaveVendor(ctx, &model.Vendor{ID: id, Name: id}))
	}

	master := testEntry("elbow-90|upvc|12.7mm|")
	master.ID = "master"
	require.NoError(t, store.CreateEntry(ctx, master))

	alias := testEntry("")
	alias.ID = "alias"
	alias.Ambiguous = true
	require.NoError(t, store.CreateEntry(ctx, alias))

	t0 := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	seedQuote(t, store, "alias", "v1", "r1:v1:1", 100, t0)
	seedQuote(t, store, "alias", "v2", "r1:v2:1", 110, t0)
	seedQuote(t, store, "alias", "v1", "r2:v1:4", 95, t0.Add(2*time.Hour))
	// Same (vendor, ref) already on master, written earlier than the alias copy.
	seedQuote(t, store, "master", "v1", "r2:v1:4", 90, t0)

	mergedAt := t0.Add(24 * time.Hour)
	moved, err := store.MergeEntries(ctx, "alias", "master", mergedAt)
	require.NoError(t, err)
	assert.Equal(t, 3, moved)

	aliasQuotes, err := store.GetQuotesByEntry(ctx, "alias")
	require.NoError(t, err)
	assert.Empty(t, aliasQuotes)

	masterQuotes, err := store.GetQuotesByEntry(ctx, "master")
	require.NoError(t, err)
	require.Len(t, masterQuotes, 3)
	for _, q := range masterQuotes {
		assert.True(t, q.Resolved, "quote %s", q.QuoteRef)
		assert.Equal(t, model.SourceReconciled, q.Source)
		if q.QuoteRef == "r2:v1:4" {
			assert.True(t, decimal.NewFromInt(95).Equal(q.Price), "later alias price wins the fold")
		}
	}

	retired, err := store.GetEntry(ctx, "alias")
	require.NoError(t, err)
	assert.Equal(t, model.StatusRetired, retired.Status)
	assert.False(t, retired.Ambiguous)

	again, err := store.MergeEntries(ctx, "alias", "master", mergedAt)
	require.NoError(t, err)
	assert.Equal(t, 0, again)
}

func TestMergeEntries_Errors(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	active := testEntry("")
	active.ID = "active"
	require.NoError(t, store.CreateEntry(ctx, active))
	retired := testEntry("")
	retired.ID = "retired"
	retired.Status = model.StatusRetired
	require.NoError(t, store.CreateEntry(ctx, retired))

	tests := []struct {
		want   error
		name   string
		alias  string
		master string
	}{
		{name: "same entry", alias: "active", master: "active", want: common.ErrValidation},
		{name: "missing alias", alias: "ghost", master: "active", want: common.ErrNotFound},
		{name: "missing master", alias: "active", master: "ghost", want: common.ErrNotFound},
		{name: "retired master", alias: "active", master: "retired", want: common.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.MergeEntries(ctx, tt.alias, tt.master, time.Now())
			assert.ErrorIs(t, err, tt.want)
		})
	}

	got, err := store.GetEntry(ctx, "active")
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, got.Status, "failed merges leave the alias untouched")
}

package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/Veraticus/sku-resolver/internal/common"
	"github.com/Veraticus/sku-resolver/internal/model"
	"github.com/Veraticus/sku-resolver/internal/service"
	"github.com/Veraticus/sku-resolver/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImporter_Import(t *testing.T) {
	db := testutil.SetupTestDB(t, nil)
	ctx := context.Background()

	rows, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	rows = append(rows, Row{Category: "Fittings", Unit: "piece", Type: "tee", Size: "20mm", Line: 9})

	var progress []int
	importer := NewImporter(db.Store, testutil.Projector())
	importer.SetProgress(func(done, total int) {
		assert.Equal(t, 4, total)
		progress = append(progress, done)
	})

	result, err := importer.Import(ctx, rows)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Created)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 0, result.Keyless)
	require.Equal(t, 1, result.Skipped())
	assert.Equal(t, 9, result.Invalid[0].Line)
	assert.ErrorIs(t, result.Invalid[0].Err, common.ErrValidation)
	assert.Contains(t, result.Invalid[0].Error(), "brand")
	assert.Equal(t, []int{1, 2, 3, 4}, progress)

	entries, err := db.Store.ListEntries(ctx, service.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	byKey := make(map[string]model.CatalogEntry)
	for _, e := range entries {
		byKey[e.CanonicalKey] = e
	}
	pipe, ok := byKey["pipe|hdpe|110mm|pn10"]
	require.True(t, ok, "keys: %v", byKey)
	require.NotNil(t, pipe.PackQty)
	assert.True(t, decimal.NewFromInt(6).Equal(*pipe.PackQty))
	assert.Equal(t, "HDPE pipe PN10 110 mm", pipe.Description)

	_, ok = byKey["elbow-90|upvc|12.7mm|"]
	assert.True(t, ok)
	_, ok = byKey["reducing-tee|pvc|110mm x 63mm|"]
	assert.True(t, ok)
}

func TestImporter_ReimportUpdatesInPlace(t *testing.T) {
	db := testutil.SetupTestDB(t, nil)
	ctx := context.Background()
	importer := NewImporter(db.Store, testutil.Projector())

	rows := []Row{{Brand: "Supreme", Category: "Fittings", Unit: "piece", Type: "elbow 90", Material: "upvc", Size: "20mm", Line: 2}}
	first, err := importer.Import(ctx, rows)
	require.NoError(t, err)
	require.Equal(t, 1, first.Created)

	before, err := db.Store.ListEntries(ctx, service.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, before, 1)

	// Same key spelled differently, new brand.
	rows[0].Brand = "Astral"
	rows[0].Type = "90 degree elbow"
	rows[0].Material = "uPVC"
	rows[0].Size = "20"
	rows[0].SizeUnit = "mm"
	second, err := importer.Import(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 1, second.Updated)

	after, err := db.Store.ListEntries(ctx, service.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, before[0].ID, after[0].ID)
	assert.Equal(t, "Astral", after[0].Brand)
	assert.Equal(t, before[0].CanonicalKey, after[0].CanonicalKey)
}

func TestImporter_RowValidation(t *testing.T) {
	valid := Row{Brand: "B", Category: "C", Unit: "piece", Type: "tee", Size: "20mm"}

	tests := []struct {
		name   string
		mutate func(*Row)
		field  string
	}{
		{name: "missing brand", mutate: func(r *Row) { r.Brand = "" }, field: "brand"},
		{name: "missing category", mutate: func(r *Row) { r.Category = "" }, field: "category"},
		{name: "missing unit", mutate: func(r *Row) { r.Unit = "" }, field: "unit"},
		{name: "missing type", mutate: func(r *Row) { r.Type = "" }, field: "type"},
		{name: "pack qty not numeric", mutate: func(r *Row) { r.PackQty, r.PackUnit = "six", "box" }, field: "pack_qty"},
		{name: "pack qty without unit", mutate: func(r *Row) { r.PackQty = "6" }, field: "pack_unit"},
		{name: "zero pack qty", mutate: func(r *Row) { r.PackQty, r.PackUnit = "0", "box" }, field: "pack_qty"},
		{name: "bad status", mutate: func(r *Row) { r.Status = "deleted" }, field: "status"},
	}

	importer := NewImporter(nil, testutil.Projector())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := valid
			tt.mutate(&row)

			_, err := importer.entryFromRow(row)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrValidation)

			var verr *common.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	entry, err := importer.entryFromRow(valid)
	require.NoError(t, err)
	assert.Equal(t, "tee||20mm|", entry.CanonicalKey)
	assert.Equal(t, model.StatusActive, entry.Status)
}

func TestImporter_KeylessRows(t *testing.T) {
	db := testutil.SetupTestDB(t, nil)
	importer := NewImporter(db.Store, testutil.Projector())

	rows := []Row{{Brand: "Generic", Category: "Consumables", Unit: "tube", Type: "solvent cement", Line: 2}}
	result, err := importer.Import(context.Background(), rows)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Keyless)
}

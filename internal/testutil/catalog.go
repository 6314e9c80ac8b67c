package testutil

import (
	"context"
	"fmt"

	"github.com/Veraticus/sku-resolver/internal/model"
	"github.com/Veraticus/sku-resolver/internal/storage"
	"github.com/shopspring/decimal"
)

// Fixture entry IDs.
const (
	EntryElbowHalfInch = "elbow-90-half-inch"
	EntryElbow20       = "elbow-90-20mm"
	EntryElbow45Half   = "elbow-45-half-inch"
	EntryPipe110       = "pipe-hdpe-110mm"
	EntryTee110x63     = "reducing-tee-110x63"
	EntryBallValve1    = "ball-valve-1-inch"
)

// EntrySpec describes a catalog entry by its free-text attributes. Derived
// attributes and the canonical key are computed when the catalog is built.
type EntrySpec struct {
	PackQty     *decimal.Decimal
	ID          string
	Brand       string
	Category    string
	Unit        string
	PackUnit    string
	Description string
	Type        string
	Material    string
	Variant     string
	Size        string
	SizeUnit    string
	Ambiguous   bool
}

// CatalogBuilder accumulates entries and vendors to seed a test store.
type CatalogBuilder struct {
	entries []EntrySpec
	vendors []model.Vendor
	lines   []model.RequestLineItem
}

// NewCatalogBuilder creates an empty builder.
func NewCatalogBuilder() *CatalogBuilder {
	return &CatalogBuilder{}
}

// WithEntry adds one entry.
func (b *CatalogBuilder) WithEntry(spec EntrySpec) *CatalogBuilder {
	b.entries = append(b.entries, spec)
	return b
}

// WithVendor adds one vendor.
func (b *CatalogBuilder) WithVendor(id, name string) *CatalogBuilder {
	b.vendors = append(b.vendors, model.Vendor{ID: id, Name: name})
	return b
}

// WithRequestLine adds one request line item.
func (b *CatalogBuilder) WithRequestLine(line model.RequestLineItem) *CatalogBuilder {
	b.lines = append(b.lines, line)
	return b
}

// WithPlumbingFixture adds a small plumbing catalog covering single and
// compound sizes, inch and metric entries, and pack quantities.
func (b *CatalogBuilder) WithPlumbingFixture() *CatalogBuilder {
	six := decimal.NewFromInt(6)
	ten := decimal.NewFromInt(10)

	return b.
		WithEntry(EntrySpec{
			ID: EntryElbowHalfInch, Brand: "Supreme", Category: "Fittings", Unit: "piece",
			Description: "uPVC Elbow 90 1/2 inch", Type: "Elbow 90", Material: "uPVC", Size: "1/2", SizeUnit: "inch",
		}).
		WithEntry(EntrySpec{
			ID: EntryElbow20, Brand: "Supreme", Category: "Fittings", Unit: "piece",
			Description: "uPVC Elbow 90 20mm", Type: "elbow 90", Material: "upvc", Size: "20mm",
		}).
		WithEntry(EntrySpec{
			ID: EntryElbow45Half, Brand: "Supreme", Category: "Fittings", Unit: "piece",
			Description: "uPVC Elbow 45 1/2 inch", Type: "elbow 45", Material: "upvc", Size: "1/2 inch",
		}).
		WithEntry(EntrySpec{
			ID: EntryPipe110, Brand: "Finolex", Category: "Pipes", Unit: "metre", PackQty: &six, PackUnit: "length",
			Description: "HDPE pipe 110mm PN10", Type: "pipe", Material: "HDPE", Variant: "PN10", Size: "110", SizeUnit: "mm",
		}).
		WithEntry(EntrySpec{
			ID: EntryTee110x63, Brand: "Astral", Category: "Fittings", Unit: "piece",
			Description: "PVC reducing tee 110 x 63mm", Type: "reducing tee", Material: "PVC", Size: "110 x 63", SizeUnit: "mm",
		}).
		WithEntry(EntrySpec{
			ID: EntryBallValve1, Brand: "Zoloto", Category: "Valves", Unit: "piece", PackQty: &ten, PackUnit: "box",
			Description: "Brass ball valve 1 inch", Type: "ball valve", Material: "brass", Size: "1", SizeUnit: "inch",
		})
}

// Build writes vendors, request lines and entries to store.
func (b *CatalogBuilder) Build(ctx context.Context, store *storage.SQLiteStorage) error {
	for i := range b.vendors {
		if err := store.SaveVendor(ctx, &b.vendors[i]); err != nil {
			return fmt.Errorf("vendor %s: %w", b.vendors[i].ID, err)
		}
	}
	if len(b.lines) > 0 {
		if err := store.SaveRequestLines(ctx, b.lines); err != nil {
			return fmt.Errorf("request lines: %w", err)
		}
	}

	projector := Projector()
	for _, spec := range b.entries {
		entry := &model.CatalogEntry{
			ID:          spec.ID,
			Brand:       spec.Brand,
			Category:    spec.Category,
			Unit:        spec.Unit,
			PackQty:     spec.PackQty,
			PackUnit:    spec.PackUnit,
			Description: spec.Description,
			Status:      model.StatusActive,
			Ambiguous:   spec.Ambiguous,
			Attributes: model.Attributes{
				Type:     spec.Type,
				Material: spec.Material,
				Variant:  spec.Variant,
				Size:     spec.Size,
				SizeUnit: spec.SizeUnit,
			},
		}
		projector.Apply(entry)
		if err := store.CreateEntry(ctx, entry); err != nil {
			return fmt.Errorf("entry %s: %w", spec.ID, err)
		}
	}
	return nil
}

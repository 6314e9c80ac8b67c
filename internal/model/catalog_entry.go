// Package model defines the core data structures for the SKU resolution engine.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus is the lifecycle state of a catalog entry.
type EntryStatus string

const (
	// StatusActive entries participate in matching and search.
	StatusActive EntryStatus = "active"
	// StatusRetired entries were merged away or withdrawn. They are never deleted.
	StatusRetired EntryStatus = "retired"
)

// CatalogEntry is a canonical, de-duplicated SKU record.
type CatalogEntry struct {
	CreatedAt    time.Time
	UpdatedAt    time.Time
	PackQty      *decimal.Decimal
	ID           string
	Brand        string
	Category     string
	Unit         string
	PackUnit     string
	Description  string
	CanonicalKey string
	Status       EntryStatus
	Attributes   Attributes
	Ambiguous    bool
}

// IsActive reports whether the entry takes part in matching.
func (e *CatalogEntry) IsActive() bool {
	return e.Status == StatusActive
}

// Attributes holds the structured attributes of a catalog entry.
// Type, Material, Variant, Size and SizeUnit are authoritative free text;
// everything else is a projection that the backfill can recompute.
type Attributes struct {
	Size2MM           *float64 `json:"size2_mm,omitempty"`
	SizeMM            *float64 `json:"size_mm,omitempty"`
	SizeNative        *float64 `json:"size_native,omitempty"`
	Type              string   `json:"type,omitempty"`
	Material          string   `json:"material,omitempty"`
	Variant           string   `json:"variant,omitempty"`
	Size              string   `json:"size,omitempty"`
	SizeUnit          string   `json:"size_unit,omitempty"`
	CanonicalType     string   `json:"canonical_type,omitempty"`
	CanonicalMaterial string   `json:"canonical_material,omitempty"`
	CanonicalVariant  string   `json:"canonical_variant,omitempty"`
	SizeDisplay       string   `json:"size_display,omitempty"`
	SizeNativeUnit    string   `json:"size_native_unit,omitempty"`
	SizeAmbiguous     bool     `json:"size_ambiguous,omitempty"`
}

// Package catalog projects free-text catalog attributes into the derived
// fields the matcher and the canonical key are computed from.
package catalog

import (
	"strings"

	"github.com/Veraticus/sku-resolver/internal/model"
	"github.com/Veraticus/sku-resolver/internal/normalize"
)

// Projector derives canonical attributes using a vocabulary.
type Projector struct {
	vocab normalize.Vocabulary
}

// NewProjector creates a projector over vocab.
func NewProjector(vocab normalize.Vocabulary) *Projector {
	return &Projector{vocab: vocab}
}

// Derive returns attrs with every derived field recomputed from the free-text
// Type, Material, Variant, Size and SizeUnit. Stale derived values are
// discarded.
func (p *Projector) Derive(attrs model.Attributes) model.Attributes {
	out := model.Attributes{
		Type:     strings.TrimSpace(attrs.Type),
		Material: strings.TrimSpace(attrs.Material),
		Variant:  strings.TrimSpace(attrs.Variant),
		Size:     strings.TrimSpace(attrs.Size),
		SizeUnit: strings.TrimSpace(attrs.SizeUnit),
	}

	if out.Type != "" {
		out.CanonicalType = p.vocab.Types.Normalize(out.Type)
	}
	if out.Material != "" {
		out.CanonicalMaterial = p.vocab.Materials.Normalize(out.Material)
	}
	if out.Variant != "" {
		out.CanonicalVariant = p.vocab.Variants.Normalize(out.Variant)
	}

	if raw := sizeText(out.Size, out.SizeUnit); raw != "" {
		dim := normalize.ParseDimension(raw)
		out.SizeMM = dim.PrimaryMM
		out.Size2MM = dim.SecondaryMM
		out.SizeNative = dim.Native
		out.SizeNativeUnit = dim.NativeUnit
		out.SizeDisplay = dim.Display
		out.SizeAmbiguous = dim.Ambiguous
	}

	return out
}

// Apply derives entry's attributes in place and recomputes its canonical key.
// Ambiguous entries never carry a key.
func (p *Projector) Apply(entry *model.CatalogEntry) {
	entry.Attributes = p.Derive(entry.Attributes)
	if entry.Ambiguous {
		entry.CanonicalKey = ""
		return
	}
	entry.CanonicalKey = CanonicalKey(entry.Attributes)
}

// CanonicalKey renders type|material|size|variant, lower-cased, from derived
// attributes. It is empty when the type or a recognized size is missing.
func CanonicalKey(attrs model.Attributes) string {
	if attrs.CanonicalType == "" || attrs.SizeMM == nil {
		return ""
	}
	return strings.ToLower(strings.Join([]string{
		attrs.CanonicalType,
		attrs.CanonicalMaterial,
		attrs.SizeDisplay,
		attrs.CanonicalVariant,
	}, "|"))
}

func sizeText(size, unit string) string {
	if size == "" {
		return ""
	}
	if unit == "" || strings.HasSuffix(strings.ToLower(size), strings.ToLower(unit)) {
		return size
	}
	return size + " " + unit
}

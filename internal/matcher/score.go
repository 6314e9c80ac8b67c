package matcher

import (
	"math"

	"github.com/Veraticus/sku-resolver/internal/config"
	"github.com/Veraticus/sku-resolver/internal/model"
	"github.com/Veraticus/sku-resolver/internal/normalize"
)

// score applies the hard gates and, for survivors, computes
// type weight × type similarity + dimension band points.
func (m *Matcher) score(d model.Descriptor, entry model.CatalogEntry) (Candidate, bool) {
	c := Candidate{Entry: entry}

	if d.HasType() {
		c.TypeSimilarity = normalize.Similarity(d.Type, entry.Attributes.CanonicalType)
		if c.TypeSimilarity < m.cfg.TypeGate {
			return Candidate{}, false
		}
	}

	var points float64
	switch d.DimensionCount() {
	case 1:
		if entry.Attributes.SizeMM == nil {
			return Candidate{}, false
		}
		c.DeltaMM = math.Abs(*d.PrimaryMM - *entry.Attributes.SizeMM)
		if c.DeltaMM > math.Max(d.ToleranceMM, m.cfg.SingleDimensionFloorMM) {
			return Candidate{}, false
		}
		points = bandPoints(m.cfg.SingleBands, c.DeltaMM)
	case 2:
		if entry.Attributes.SizeMM == nil || entry.Attributes.Size2MM == nil {
			return Candidate{}, false
		}
		c.DeltaMM = compoundDelta(*d.PrimaryMM, *d.SecondaryMM, *entry.Attributes.SizeMM, *entry.Attributes.Size2MM)
		if c.DeltaMM > 2*d.ToleranceMM {
			return Candidate{}, false
		}
		points = bandPoints(m.cfg.CompoundBands, c.DeltaMM)
	}

	c.Score = m.cfg.TypeWeight*c.TypeSimilarity + points
	return c, true
}

// compoundDelta is the smaller sum of absolute differences over the two
// possible pairings, so "63 x 110" and "110 x 63" compare equal.
func compoundDelta(a1, a2, b1, b2 float64) float64 {
	asIs := math.Abs(a1-b1) + math.Abs(a2-b2)
	swapped := math.Abs(a1-b2) + math.Abs(a2-b1)
	return math.Min(asIs, swapped)
}

// bandPoints returns the points of the tightest band containing delta.
// Bands are sorted by MaxDeltaMM ascending.
func bandPoints(bands []config.Band, delta float64) float64 {
	for _, b := range bands {
		if delta <= b.MaxDeltaMM {
			return b.Points
		}
	}
	return 0
}

package matcher

import (
	"context"
	"errors"
	"testing"

	"github.com/Veraticus/sku-resolver/internal/config"
	"github.com/Veraticus/sku-resolver/internal/model"
	"github.com/Veraticus/sku-resolver/internal/normalize"
	"github.com/Veraticus/sku-resolver/internal/query"
	"github.com/Veraticus/sku-resolver/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	err     error
	entries []model.CatalogEntry
	calls   int
}

func (f *fakeLister) ListEntries(_ context.Context, filter service.EntryFilter) ([]model.CatalogEntry, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []model.CatalogEntry
	for _, e := range f.entries {
		if filter.ActiveOnly && !e.IsActive() {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func floatPtr(f float64) *float64 { return &f }

func entry(id, typ string, sizes ...float64) model.CatalogEntry {
	e := model.CatalogEntry{
		ID:         id,
		Status:     model.StatusActive,
		Attributes: model.Attributes{CanonicalType: typ},
	}
	if len(sizes) > 0 {
		e.Attributes.SizeMM = floatPtr(sizes[0])
	}
	if len(sizes) > 1 {
		e.Attributes.Size2MM = floatPtr(sizes[1])
	}
	return e
}

func candidateIDs(candidates []Candidate) []string {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.Entry.ID
	}
	return ids
}

func TestMatcher_ElbowScenario(t *testing.T) {
	cfg := config.DefaultMatching()
	parser := query.NewParser(normalize.DefaultVocabulary(), cfg)

	retired := entry("r", "elbow-90", 12.7)
	retired.Status = model.StatusRetired

	store := &fakeLister{entries: []model.CatalogEntry{
		entry("a", "elbow-90", 14),
		entry("b", "elbow-90", 15),
		entry("c", "elbow-45", 12.7),
		entry("d", "pipe", 12.7),
		entry("e", "elbow-90", 12.7),
		entry("f", "elbow-90"),
		retired,
	}}
	m := New(store, cfg)

	got, err := m.Match(context.Background(), parser.Parse("uPVC elbow 90 1/2 inch"), 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"e", "a", "c"}, candidateIDs(got))
	assert.InDelta(t, 160, got[0].Score, 1e-9)
	assert.InDelta(t, 150, got[1].Score, 1e-9)
	assert.InDelta(t, 100, got[2].Score, 1e-9)
	assert.InDelta(t, 1.3, got[1].DeltaMM, 1e-6)
	assert.InDelta(t, 0.5, got[2].TypeSimilarity, 1e-9)
}

func TestMatcher_Gates(t *testing.T) {
	cfg := config.DefaultMatching()

	tests := []struct {
		name    string
		entry   model.CatalogEntry
		desc    model.Descriptor
		wantHit bool
	}{
		{
			name:    "single within floor",
			desc:    model.Descriptor{Type: "tee", PrimaryMM: floatPtr(20), ToleranceMM: 1},
			entry:   entry("x", "tee", 22),
			wantHit: true,
		},
		{
			name:  "single outside floor",
			desc:  model.Descriptor{Type: "tee", PrimaryMM: floatPtr(20), ToleranceMM: 1},
			entry: entry("x", "tee", 22.01),
		},
		{
			name:    "single tolerance wider than floor",
			desc:    model.Descriptor{Type: "pipe", PrimaryMM: floatPtr(315), ToleranceMM: 6.3},
			entry:   entry("x", "pipe", 320),
			wantHit: true,
		},
		{
			name:  "entry without size",
			desc:  model.Descriptor{Type: "tee", PrimaryMM: floatPtr(20), ToleranceMM: 1},
			entry: entry("x", "tee"),
		},
		{
			name:  "type below gate",
			desc:  model.Descriptor{Type: "ball-valve", PrimaryMM: floatPtr(20), ToleranceMM: 1},
			entry: entry("x", "end-cap", 20),
		},
		{
			name:    "compound swapped order",
			desc:    model.Descriptor{Type: "reducing-tee", PrimaryMM: floatPtr(63), SecondaryMM: floatPtr(110), ToleranceMM: 2.2},
			entry:   entry("x", "reducing-tee", 110, 63),
			wantHit: true,
		},
		{
			name:    "compound within twice tolerance",
			desc:    model.Descriptor{Type: "reducing-tee", PrimaryMM: floatPtr(110), SecondaryMM: floatPtr(63), ToleranceMM: 2.2},
			entry:   entry("x", "reducing-tee", 112, 65),
			wantHit: true,
		},
		{
			name:  "compound beyond twice tolerance",
			desc:  model.Descriptor{Type: "reducing-tee", PrimaryMM: floatPtr(110), SecondaryMM: floatPtr(63), ToleranceMM: 2.2},
			entry: entry("x", "reducing-tee", 110, 75),
		},
		{
			name:  "compound query against single size entry",
			desc:  model.Descriptor{Type: "reducing-tee", PrimaryMM: floatPtr(110), SecondaryMM: floatPtr(63), ToleranceMM: 2.2},
			entry: entry("x", "reducing-tee", 110),
		},
		{
			name:    "no type gates on size only",
			desc:    model.Descriptor{PrimaryMM: floatPtr(50), ToleranceMM: 1},
			entry:   entry("x", "anything", 50.5),
			wantHit: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(&fakeLister{entries: []model.CatalogEntry{tt.entry}}, cfg)
			got, err := m.Match(context.Background(), tt.desc, 0)
			require.NoError(t, err)
			if tt.wantHit {
				assert.Len(t, got, 1)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestMatcher_CompoundBands(t *testing.T) {
	m := New(&fakeLister{entries: []model.CatalogEntry{
		entry("exact", "reducing-tee", 110, 63),
		entry("near", "reducing-tee", 112, 64),
	}}, config.DefaultMatching())

	desc := model.Descriptor{Type: "reducing-tee", PrimaryMM: floatPtr(110), SecondaryMM: floatPtr(63), ToleranceMM: 2.2}
	got, err := m.Match(context.Background(), desc, 0)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.InDelta(t, 160, got[0].Score, 1e-9)
	assert.InDelta(t, 140, got[1].Score, 1e-9)
	assert.InDelta(t, 3, got[1].DeltaMM, 1e-9)
}

func TestMatcher_TieBreakAndLimit(t *testing.T) {
	store := &fakeLister{entries: []model.CatalogEntry{
		entry("z", "tee", 20),
		entry("m", "tee", 20),
		entry("b", "reducing-tee", 20),
	}}
	m := New(store, config.DefaultMatching())
	desc := model.Descriptor{Type: "tee", PrimaryMM: floatPtr(20), ToleranceMM: 1}

	got, err := m.Match(context.Background(), desc, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"m", "z", "b"}, candidateIDs(got))
	assert.InDelta(t, 0.85, got[2].TypeSimilarity, 1e-9)

	got, err = m.Match(context.Background(), desc, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"m"}, candidateIDs(got))
}

func TestMatcher_ScoreDecreasesWithDelta(t *testing.T) {
	cfg := config.DefaultMatching()
	m := New(&fakeLister{}, cfg)
	desc := model.Descriptor{Type: "pipe", PrimaryMM: floatPtr(500), ToleranceMM: 10}

	prev := 1e9
	for delta := 0.0; delta <= 10; delta += 0.25 {
		c, ok := m.score(desc, entry("x", "pipe", 500+delta))
		require.True(t, ok, "delta %.2f should pass the gate", delta)
		assert.LessOrEqual(t, c.Score, prev, "delta %.2f", delta)
		prev = c.Score
	}
}

func TestMatcher_NothingToGateOn(t *testing.T) {
	store := &fakeLister{entries: []model.CatalogEntry{entry("a", "tee", 20)}}
	m := New(store, config.DefaultMatching())

	got, err := m.Match(context.Background(), model.Descriptor{Raw: "hello"}, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, store.calls)
}

func TestMatcher_StoreError(t *testing.T) {
	storeErr := errors.New("disk on fire")
	m := New(&fakeLister{err: storeErr}, config.DefaultMatching())

	_, err := m.Match(context.Background(), model.Descriptor{Type: "tee"}, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)
}

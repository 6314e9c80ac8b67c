package matcher

import (
	"context"
	"testing"

	"github.com/Veraticus/sku-resolver/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexicalFixture() *fakeLister {
	elbow := entry("e1", "elbow-90", 12.7)
	elbow.Brand = "Supreme"
	elbow.Category = "Fittings"
	elbow.Description = "uPVC Elbow 90 1/2 inch"
	elbow.CanonicalKey = "elbow-90|upvc|12.7mm|"
	elbow.Attributes.SizeDisplay = "12.7mm"

	pipe := entry("e2", "pipe", 110)
	pipe.Brand = "Finolex"
	pipe.Category = "Pipes"
	pipe.Description = "HDPE pipe 110mm"
	pipe.CanonicalKey = "pipe|hdpe|110mm|"

	retired := entry("e3", "elbow-90", 12.7)
	retired.Brand = "Supreme"
	retired.Status = model.StatusRetired

	return &fakeLister{entries: []model.CatalogEntry{elbow, pipe, retired}}
}

func TestSearcher_Search(t *testing.T) {
	tests := []struct {
		name      string
		keyword   string
		wantIDs   []string
		wantScore int
	}{
		{name: "stemmed token", keyword: "Elbows", wantIDs: []string{"e1"}, wantScore: 45},
		{name: "exact id", keyword: "e2", wantIDs: []string{"e2"}, wantScore: 1000},
		{name: "exact canonical key", keyword: "pipe|hdpe|110mm|", wantIDs: []string{"e2"}, wantScore: 645},
		{name: "brand only skips retired", keyword: "supreme", wantIDs: []string{"e1"}, wantScore: 15},
		{name: "no hits", keyword: "flange"},
		{name: "blank keyword", keyword: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSearcher(lexicalFixture())
			got, err := s.Search(context.Background(), tt.keyword, 0)
			require.NoError(t, err)

			ids := make([]string, len(got))
			for i, r := range got {
				ids[i] = r.Entry.ID
			}
			if len(tt.wantIDs) == 0 {
				assert.Empty(t, ids)
				return
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantScore, got[0].Score)
		})
	}
}

func TestSearcher_ResultFields(t *testing.T) {
	s := NewSearcher(lexicalFixture())

	got, err := s.Search(context.Background(), "upvc elbow", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)

	r := got[0]
	assert.Equal(t, "elbow-90", r.CanonicalType)
	assert.Equal(t, "12.7mm", r.Display)
	require.NotNil(t, r.SizeMM)
	assert.InDelta(t, 12.7, *r.SizeMM, 1e-9)
	assert.False(t, r.Ambiguous)
}

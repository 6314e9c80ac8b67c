package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/sku-resolver/internal/clock"
	"github.com/Veraticus/sku-resolver/internal/common"
	"github.com/Veraticus/sku-resolver/internal/config"
	"github.com/Veraticus/sku-resolver/internal/matcher"
	"github.com/Veraticus/sku-resolver/internal/model"
	"github.com/Veraticus/sku-resolver/internal/normalize"
	"github.com/Veraticus/sku-resolver/internal/query"
	"github.com/Veraticus/sku-resolver/internal/service"
	"github.com/Veraticus/sku-resolver/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testRequest = "req-1"
	testVendor  = "acme"
)

var testStart = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type harness struct {
	db    *testutil.TestDB
	ctrl  *Controller
	clock *clock.MockClock
}

func newHarness(t *testing.T, builder *testutil.CatalogBuilder) *harness {
	t.Helper()

	db := testutil.SetupTestDB(t, builder.WithVendor(testVendor, "Acme Pipes"))
	cfg := config.DefaultEngine()
	clk := clock.NewMockClock(testStart)

	ctrl := NewController(
		db.Store,
		query.NewParser(normalize.DefaultVocabulary(), cfg.Matching),
		matcher.New(db.Store, cfg.Matching),
		cfg.Resolution,
		WithClock(clk),
		WithProjector(testutil.Projector()),
	)
	return &harness{db: db, ctrl: ctrl, clock: clk}
}

func submission(lines ...model.QuotedLine) model.PriceSubmission {
	return model.PriceSubmission{
		RequestID: testRequest,
		VendorID:  testVendor,
		Currency:  "INR",
		Lines:     lines,
	}
}

func quoted(lineID, price, unit string) model.QuotedLine {
	return model.QuotedLine{LineID: lineID, Price: decimal.RequireFromString(price), PriceUnit: unit}
}

func requestLine(lineID, material, subType, dim, unit string) model.RequestLineItem {
	return model.RequestLineItem{
		RequestID:     testRequest,
		LineID:        lineID,
		MaterialName:  material,
		SubType:       subType,
		Dimension:     dim,
		DimensionUnit: unit,
		Quantity:      10,
	}
}

func TestController_AutoResolves(t *testing.T) {
	h := newHarness(t, testutil.NewCatalogBuilder().
		WithPlumbingFixture().
		WithRequestLine(requestLine("1", "uPVC Elbow", "90", "1/2", "inch")))

	line := quoted("1", "100", "piece")
	outcome, err := h.ctrl.ResolveLine(context.Background(), submission(line), line)
	require.NoError(t, err)

	assert.Equal(t, TierAutoResolved, outcome.Tier)
	assert.Equal(t, "uPVC Elbow 90 1/2 inch", outcome.Query)
	assert.InDelta(t, 1.0, outcome.Confidence, 1e-9)
	assert.False(t, outcome.UsedFallback)
	assert.Empty(t, outcome.MintedEntry)
	require.Len(t, outcome.Quotes, 1)

	quotes := h.db.MustGetQuotes(testutil.EntryElbowHalfInch)
	require.Len(t, quotes, 1)
	q := quotes[0]
	assert.True(t, q.Resolved)
	assert.Equal(t, model.SourceAutoMatched, q.Source)
	assert.Equal(t, model.QuoteRef(testRequest, testVendor, "1"), q.QuoteRef)
	assert.True(t, decimal.NewFromInt(100).Equal(q.Price))
	assert.Equal(t, "INR", q.Currency)
	assert.True(t, testStart.Equal(q.UpdatedAt))

	assert.Empty(t, h.db.MustGetQuotes(testutil.EntryElbow45Half), "runner-up receives nothing")
}

func TestController_ResubmissionUpdatesInPlace(t *testing.T) {
	h := newHarness(t, testutil.NewCatalogBuilder().
		WithPlumbingFixture().
		WithRequestLine(requestLine("1", "uPVC Elbow", "90", "1/2", "inch")))
	ctx := context.Background()

	first := quoted("1", "100", "piece")
	_, err := h.ctrl.ResolveLine(ctx, submission(first), first)
	require.NoError(t, err)
	original := h.db.MustGetQuotes(testutil.EntryElbowHalfInch)[0]

	h.clock.Advance(time.Hour)
	corrected := quoted("1", "120", "piece")
	_, err = h.ctrl.ResolveLine(ctx, submission(corrected), corrected)
	require.NoError(t, err)

	quotes := h.db.MustGetQuotes(testutil.EntryElbowHalfInch)
	require.Len(t, quotes, 1)
	assert.Equal(t, original.ID, quotes[0].ID)
	assert.True(t, decimal.NewFromInt(120).Equal(quotes[0].Price))
	assert.True(t, testStart.Equal(quotes[0].CreatedAt))
	assert.True(t, testStart.Add(time.Hour).Equal(quotes[0].UpdatedAt))
}

func TestController_NormalizesPackPrice(t *testing.T) {
	h := newHarness(t, testutil.NewCatalogBuilder().
		WithPlumbingFixture().
		WithRequestLine(requestLine("1", "HDPE pipe", "", "110", "mm")))

	line := quoted("1", "600", "length")
	outcome, err := h.ctrl.ResolveLine(context.Background(), submission(line), line)
	require.NoError(t, err)

	assert.Equal(t, TierAutoResolved, outcome.Tier)
	quotes := h.db.MustGetQuotes(testutil.EntryPipe110)
	require.Len(t, quotes, 1)
	assert.True(t, decimal.NewFromInt(100).Equal(quotes[0].Price), "got %s", quotes[0].Price)
}

func TestController_WritesCandidates(t *testing.T) {
	builder := testutil.NewCatalogBuilder().WithPlumbingFixture()
	for _, spec := range []testutil.EntrySpec{
		{ID: "cand-a", Material: "PVC"},
		{ID: "cand-b", Material: "CPVC"},
		{ID: "cand-c", Material: "GI"},
	} {
		spec.Brand, spec.Category, spec.Unit = "Generic", "Fittings", "piece"
		spec.Type, spec.Size = "elbow 90", "20mm"
		builder.WithEntry(spec)
	}
	h := newHarness(t, builder.WithRequestLine(requestLine("7", "Elbow 45", "", "20", "mm")))

	line := quoted("7", "35", "piece")
	outcome, err := h.ctrl.ResolveLine(context.Background(), submission(line), line)
	require.NoError(t, err)

	// elbow-45 against elbow-90 scores 0.5 × 120 + 40 = 100, confidence 0.625.
	assert.Equal(t, TierCandidates, outcome.Tier)
	assert.InDelta(t, 0.625, outcome.Confidence, 1e-9)
	assert.Equal(t, []string{"cand-a", "cand-b", "cand-c"}, outcome.EntryIDs())

	for _, id := range outcome.EntryIDs() {
		quotes := h.db.MustGetQuotes(id)
		require.Len(t, quotes, 1, id)
		assert.False(t, quotes[0].Resolved)
		assert.Equal(t, model.SourceCandidate, quotes[0].Source)
	}
	assert.Empty(t, h.db.MustGetQuotes(testutil.EntryElbow20), "fourth candidate is beyond the cap")
}

func TestController_MintsAmbiguousEntry(t *testing.T) {
	h := newHarness(t, testutil.NewCatalogBuilder().
		WithPlumbingFixture().
		WithRequestLine(requestLine("3", "Mystery widget", "", "40", "mm")))
	ctx := context.Background()

	line := quoted("3", "55", "piece")
	outcome, err := h.ctrl.ResolveLine(ctx, submission(line), line)
	require.NoError(t, err)

	assert.Equal(t, TierAmbiguous, outcome.Tier)
	require.NotEmpty(t, outcome.MintedEntry)

	minted := h.db.MustGetEntry(outcome.MintedEntry)
	assert.True(t, minted.Ambiguous)
	assert.Empty(t, minted.CanonicalKey)
	assert.Equal(t, "unbranded", minted.Brand)
	assert.Equal(t, "uncategorized", minted.Category)
	assert.Equal(t, "piece", minted.Unit)
	assert.Equal(t, "Mystery widget 40 mm", minted.Description)
	require.NotNil(t, minted.Attributes.SizeMM)
	assert.InDelta(t, 40.0, *minted.Attributes.SizeMM, 1e-9)

	quotes := h.db.MustGetQuotes(minted.ID)
	require.Len(t, quotes, 1)
	assert.False(t, quotes[0].Resolved)
	assert.Equal(t, model.SourceAmbiguous, quotes[0].Source)

	// Resubmitting reuses the minted entry.
	h.clock.Advance(time.Minute)
	again := quoted("3", "60", "piece")
	outcome, err = h.ctrl.ResolveLine(ctx, submission(again), again)
	require.NoError(t, err)
	assert.Equal(t, TierAmbiguous, outcome.Tier)
	assert.Empty(t, outcome.MintedEntry)
	assert.Equal(t, []string{minted.ID}, outcome.EntryIDs())

	quotes = h.db.MustGetQuotes(minted.ID)
	require.Len(t, quotes, 1)
	assert.True(t, decimal.NewFromInt(60).Equal(quotes[0].Price))

	ambiguous, err := h.db.Store.ListEntries(ctx, service.EntryFilter{})
	require.NoError(t, err)
	count := 0
	for _, e := range ambiguous {
		if e.Ambiguous {
			count++
		}
	}
	assert.Equal(t, 1, count, "only one entry is ever minted for the line")
}

func TestController_StrongMatchOnMintedEntryStaysUnresolved(t *testing.T) {
	h := newHarness(t, testutil.NewCatalogBuilder().
		WithPlumbingFixture().
		WithRequestLine(requestLine("1", "Bend", "", "1/2", "inch")).
		WithRequestLine(requestLine("2", "Bend", "", "1/2", "inch")))
	ctx := context.Background()

	first := quoted("1", "40", "piece")
	outcome, err := h.ctrl.ResolveLine(ctx, submission(first), first)
	require.NoError(t, err)
	require.Equal(t, TierAmbiguous, outcome.Tier)
	require.NotEmpty(t, outcome.MintedEntry)
	mintedID := outcome.MintedEntry
	assert.Equal(t, "bend", h.db.MustGetEntry(mintedID).Category)

	second := quoted("2", "42", "piece")
	outcome, err = h.ctrl.ResolveLine(ctx, submission(second), second)
	require.NoError(t, err)

	assert.Equal(t, TierAmbiguous, outcome.Tier)
	assert.Empty(t, outcome.MintedEntry)
	assert.Equal(t, []string{mintedID}, outcome.EntryIDs())

	quotes := h.db.MustGetQuotes(mintedID)
	require.Len(t, quotes, 2)
	for _, q := range quotes {
		assert.False(t, q.Resolved)
		assert.Equal(t, model.SourceAmbiguous, q.Source)
	}
}

func TestController_SubTypeNumberStaysOutOfSize(t *testing.T) {
	h := newHarness(t, testutil.NewCatalogBuilder().
		WithPlumbingFixture().
		WithRequestLine(requestLine("4", "uPVC Bend", "90", "1/2", "inch")))

	line := quoted("4", "48", "piece")
	outcome, err := h.ctrl.ResolveLine(context.Background(), submission(line), line)
	require.NoError(t, err)

	assert.Equal(t, "uPVC Bend 90 1/2 inch", outcome.Query)
	require.Equal(t, TierAmbiguous, outcome.Tier)
	require.NotEmpty(t, outcome.MintedEntry)

	minted := h.db.MustGetEntry(outcome.MintedEntry)
	assert.Equal(t, "bend", minted.Category)
	require.NotNil(t, minted.Attributes.SizeMM)
	assert.InDelta(t, 12.7, *minted.Attributes.SizeMM, 1e-9)
}

func TestController_FallsBackToComment(t *testing.T) {
	h := newHarness(t, testutil.NewCatalogBuilder().WithPlumbingFixture())

	line := quoted("9", "450", "piece")
	line.Comment = "Brass ball valve 1 inch"
	outcome, err := h.ctrl.ResolveLine(context.Background(), submission(line), line)
	require.NoError(t, err)

	assert.True(t, outcome.UsedFallback)
	assert.Equal(t, "Brass ball valve 1 inch", outcome.Query)
	assert.Equal(t, TierAutoResolved, outcome.Tier)
	assert.Equal(t, []string{testutil.EntryBallValve1}, outcome.EntryIDs())
}

func TestController_Errors(t *testing.T) {
	h := newHarness(t, testutil.NewCatalogBuilder().WithPlumbingFixture())
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*model.PriceSubmission, *model.QuotedLine)
		wantErr error
	}{
		{
			name:    "unknown vendor",
			mutate:  func(s *model.PriceSubmission, _ *model.QuotedLine) { s.VendorID = "nobody" },
			wantErr: common.ErrNotFound,
		},
		{
			name:    "unknown line without comment",
			mutate:  func(*model.PriceSubmission, *model.QuotedLine) {},
			wantErr: common.ErrValidation,
		},
		{
			name:    "missing currency",
			mutate:  func(s *model.PriceSubmission, _ *model.QuotedLine) { s.Currency = "" },
			wantErr: common.ErrValidation,
		},
		{
			name:    "negative price",
			mutate:  func(_ *model.PriceSubmission, l *model.QuotedLine) { l.Price = decimal.NewFromInt(-1) },
			wantErr: common.ErrValidation,
		},
		{
			name:    "missing line id",
			mutate:  func(_ *model.PriceSubmission, l *model.QuotedLine) { l.LineID = "" },
			wantErr: common.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := quoted("404", "10", "piece")
			sub := submission(line)
			tt.mutate(&sub, &line)

			outcome, err := h.ctrl.ResolveLine(ctx, sub, line)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, outcome)
		})
	}
}

func TestController_ConfidenceIsMonotonic(t *testing.T) {
	ctrl := NewController(nil, nil, nil, config.DefaultResolution())

	prev := -1.0
	for score := -20.0; score <= 220; score += 2.5 {
		c := ctrl.Confidence(score)
		assert.GreaterOrEqual(t, c, prev, "score %v", score)
		assert.GreaterOrEqual(t, c, 0.0)
		assert.LessOrEqual(t, c, 1.0)
		prev = c
	}
	assert.InDelta(t, 0.5, ctrl.Confidence(80), 1e-9)
	assert.InDelta(t, 1.0, ctrl.Confidence(500), 1e-9)

	zeroScale := NewController(nil, nil, nil, config.Resolution{})
	assert.Equal(t, 0.0, zeroScale.Confidence(100))
}

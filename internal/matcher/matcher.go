// Package matcher ranks catalog entries against structured queries.
package matcher

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Veraticus/sku-resolver/internal/config"
	"github.com/Veraticus/sku-resolver/internal/model"
	"github.com/Veraticus/sku-resolver/internal/service"
)

// EntryLister is the part of the catalog store the matcher reads.
type EntryLister interface {
	ListEntries(ctx context.Context, filter service.EntryFilter) ([]model.CatalogEntry, error)
}

// Candidate is an entry that passed every gate, with its score.
type Candidate struct {
	Entry          model.CatalogEntry
	Score          float64
	TypeSimilarity float64
	DeltaMM        float64
}

// Matcher scores active catalog entries against a descriptor. It reads the
// store on every call; there is no in-process catalog cache.
type Matcher struct {
	store EntryLister
	cfg   config.Matching
}

// New creates a matcher reading entries from store.
func New(store EntryLister, cfg config.Matching) *Matcher {
	return &Matcher{store: store, cfg: cfg}
}

// Match returns gated candidates ordered by score descending, then ID
// ascending. A limit of zero or less uses the configured default.
func (m *Matcher) Match(ctx context.Context, d model.Descriptor, limit int) ([]Candidate, error) {
	if limit <= 0 {
		limit = m.cfg.Limit
	}
	if !d.HasType() && d.DimensionCount() == 0 {
		slog.Debug("Query has neither type nor dimension", "query", d.Raw)
		return nil, nil
	}

	entries, err := m.store.ListEntries(ctx, service.EntryFilter{ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog entries: %w", err)
	}

	var candidates []Candidate
	for _, entry := range entries {
		if c, ok := m.score(d, entry); ok {
			candidates = append(candidates, c)
		}
	}

	sortCandidates(candidates)
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	slog.Debug("Matched catalog",
		"query", d.Raw,
		"type", d.Type,
		"scanned", len(entries),
		"candidates", len(candidates))

	return candidates, nil
}

func sortCandidates(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Entry.ID < candidates[j].Entry.ID
	})
}

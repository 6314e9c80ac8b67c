package matcher

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Veraticus/sku-resolver/internal/model"
	"github.com/Veraticus/sku-resolver/internal/normalize"
	"github.com/Veraticus/sku-resolver/internal/service"
	"github.com/kljensen/snowball"
)

// Lexical search weights.
const (
	exactIDWeight      = 1000
	exactKeyWeight     = 500
	keyTokenWeight     = 40
	brandWeight        = 15
	categoryWeight     = 10
	descriptionWeight  = 5
	defaultSearchLimit = 25
)

// SearchResult is one hit of a keyword search.
type SearchResult struct {
	SizeMM        *float64
	Entry         model.CatalogEntry
	CanonicalType string
	Display       string
	Score         int
	Ambiguous     bool
}

// Searcher is the human-facing keyword search over the catalog. Its ranking
// is independent of Matcher and is never used for automated resolution.
type Searcher struct {
	store EntryLister
}

// NewSearcher creates a searcher reading entries from store.
func NewSearcher(store EntryLister) *Searcher {
	return &Searcher{store: store}
}

// Search ranks active entries by keyword hits on ID, canonical key, brand,
// category and description. Words are also compared by English stem, so
// "elbows" finds "elbow".
func (s *Searcher) Search(ctx context.Context, keyword string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, nil
	}

	entries, err := s.store.ListEntries(ctx, service.EntryFilter{ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog entries: %w", err)
	}

	terms := newTermSet(keyword)

	var results []SearchResult
	for _, entry := range entries {
		score := lexicalScore(keyword, terms, entry)
		if score == 0 {
			continue
		}
		results = append(results, SearchResult{
			Entry:         entry,
			Score:         score,
			CanonicalType: entry.Attributes.CanonicalType,
			SizeMM:        entry.Attributes.SizeMM,
			Display:       entry.Attributes.SizeDisplay,
			Ambiguous:     entry.Ambiguous,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Entry.ID < results[j].Entry.ID
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

type termSet struct {
	folded string
	tokens []string
	stems  []string
}

func newTermSet(keyword string) termSet {
	tokens := normalize.Tokens(keyword)
	stems := make([]string, len(tokens))
	for i, tok := range tokens {
		stems[i] = stem(tok)
	}
	return termSet{folded: normalize.Fold(keyword), tokens: tokens, stems: stems}
}

func lexicalScore(keyword string, terms termSet, entry model.CatalogEntry) int {
	score := 0
	if entry.ID == keyword {
		score += exactIDWeight
	}
	if entry.CanonicalKey != "" && entry.CanonicalKey == terms.folded {
		score += exactKeyWeight
	}

	key := newField(entry.CanonicalKey)
	brand := newField(entry.Brand)
	category := newField(entry.Category)
	description := newField(entry.Description)

	for i, tok := range terms.tokens {
		st := terms.stems[i]
		if key.matches(tok, st) {
			score += keyTokenWeight
		}
		if brand.matches(tok, st) {
			score += brandWeight
		}
		if category.matches(tok, st) {
			score += categoryWeight
		}
		if description.matches(tok, st) {
			score += descriptionWeight
		}
	}
	return score
}

type field struct {
	stems  map[string]struct{}
	folded string
}

func newField(text string) field {
	f := field{folded: normalize.Fold(text), stems: make(map[string]struct{})}
	for _, tok := range normalize.Tokens(text) {
		f.stems[stem(tok)] = struct{}{}
	}
	return f
}

func (f field) matches(token, tokenStem string) bool {
	if f.folded == "" {
		return false
	}
	if strings.Contains(f.folded, token) {
		return true
	}
	_, ok := f.stems[tokenStem]
	return ok
}

func stem(word string) string {
	stemmed, err := snowball.Stem(word, "english", true)
	if err != nil || stemmed == "" {
		return word
	}
	return stemmed
}

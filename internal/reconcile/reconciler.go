// Package reconcile merges duplicate catalog entries into a master entry.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/sku-resolver/internal/clock"
	"github.com/Veraticus/sku-resolver/internal/common"
	"github.com/Veraticus/sku-resolver/internal/matcher"
	"github.com/Veraticus/sku-resolver/internal/model"
	"github.com/Veraticus/sku-resolver/internal/service"
)

// Store is the part of the catalog store reconciliation uses.
type Store interface {
	GetEntry(ctx context.Context, id string) (*model.CatalogEntry, error)
	MergeEntries(ctx context.Context, aliasID, masterID string, at time.Time) (int, error)
}

// DescriptorParser turns an entry's description into a descriptor.
type DescriptorParser interface {
	Parse(text string) model.Descriptor
}

// CandidateMatcher ranks catalog entries for a descriptor.
type CandidateMatcher interface {
	Match(ctx context.Context, d model.Descriptor, limit int) ([]matcher.Candidate, error)
}

// CheckpointFunc snapshots the catalog before a merge.
type CheckpointFunc func(ctx context.Context, reason string) error

// Reconciler merges alias entries into masters.
type Reconciler struct {
	store      Store
	clock      clock.Clock
	checkpoint CheckpointFunc
	parser     DescriptorParser
	matcher    CandidateMatcher
	retry      service.RetryOptions
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithClock sets the clock used for merge timestamps.
func WithClock(c clock.Clock) Option {
	return func(r *Reconciler) { r.clock = c }
}

// WithCheckpoint takes a snapshot before every merge. A failed snapshot
// aborts the merge.
func WithCheckpoint(fn CheckpointFunc) Option {
	return func(r *Reconciler) { r.checkpoint = fn }
}

// WithSuggestions enables Suggest.
func WithSuggestions(p DescriptorParser, m CandidateMatcher) Option {
	return func(r *Reconciler) {
		r.parser = p
		r.matcher = m
	}
}

// New creates a reconciler.
func New(store Store, opts ...Option) *Reconciler {
	r := &Reconciler{
		store: store,
		clock: clock.NewRealClock(),
		retry: service.RetryOptions{Operation: "merge entries", MaxAttempts: 3},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Merge repoints every quote of aliasID to masterID as resolved and retires
// the alias, all in one store transaction. It returns the number of quotes
// moved; merging an already retired alias moves nothing and returns 0.
func (r *Reconciler) Merge(ctx context.Context, aliasID, masterID string) (int, error) {
	aliasID = strings.TrimSpace(aliasID)
	masterID = strings.TrimSpace(masterID)
	if aliasID == "" {
		return 0, common.NewValidationError("alias_id", "is required")
	}
	if masterID == "" {
		return 0, common.NewValidationError("master_id", "is required")
	}
	if aliasID == masterID {
		return 0, common.NewValidationError("master_id", "must differ from alias_id")
	}

	if r.checkpoint != nil {
		if err := r.checkpoint(ctx, fmt.Sprintf("merge %s into %s", aliasID, masterID)); err != nil {
			return 0, fmt.Errorf("failed to checkpoint before merge: %w", err)
		}
	}

	var moved int
	err := common.WithRetry(ctx, func() error {
		n, err := r.store.MergeEntries(ctx, aliasID, masterID, r.clock.Now())
		if err != nil {
			return err
		}
		moved = n
		return nil
	}, r.retry)
	if err != nil {
		return 0, fmt.Errorf("failed to merge %s into %s: %w", aliasID, masterID, err)
	}

	slog.Info("Reconciled catalog entries",
		"alias", aliasID,
		"master", masterID,
		"quotes_moved", moved)
	return moved, nil
}

// Suggestion is a possible master for an alias entry.
type Suggestion struct {
	Entry model.CatalogEntry
	Score float64
}

// Suggest proposes masters for aliasID by matching its description against
// the catalog. Ambiguous entries and the alias itself are never proposed.
func (r *Reconciler) Suggest(ctx context.Context, aliasID string, limit int) ([]Suggestion, error) {
	if r.parser == nil || r.matcher == nil {
		return nil, fmt.Errorf("%w: suggestions are not configured", common.ErrInvalidConfig)
	}

	alias, err := r.store.GetEntry(ctx, aliasID)
	if err != nil {
		return nil, fmt.Errorf("failed to load alias entry: %w", err)
	}

	desc := r.parser.Parse(alias.Description)
	candidates, err := r.matcher.Match(ctx, desc, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to match alias entry: %w", err)
	}

	var suggestions []Suggestion
	for _, c := range candidates {
		if c.Entry.ID == alias.ID || c.Entry.Ambiguous {
			continue
		}
		suggestions = append(suggestions, Suggestion{Entry: c.Entry, Score: c.Score})
		if limit > 0 && len(suggestions) == limit {
			break
		}
	}
	return suggestions, nil
}

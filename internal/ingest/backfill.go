package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/Veraticus/sku-resolver/internal/catalog"
	"github.com/Veraticus/sku-resolver/internal/common"
	"github.com/Veraticus/sku-resolver/internal/model"
	"github.com/Veraticus/sku-resolver/internal/service"
)

// EntryUpdater is the part of the catalog store the backfill uses.
type EntryUpdater interface {
	ListEntries(ctx context.Context, filter service.EntryFilter) ([]model.CatalogEntry, error)
	UpdateEntryDerived(ctx context.Context, entry *model.CatalogEntry) error
}

// BackfillResult summarizes one backfill run.
type BackfillResult struct {
	Conflicts    []string
	Scanned      int
	Updated      int
	KeysAssigned int
}

// Backfiller recomputes derived attributes of stored entries from their
// free-text attributes.
type Backfiller struct {
	store     EntryUpdater
	projector *catalog.Projector
	progress  ProgressFunc
}

// NewBackfiller creates a backfiller.
func NewBackfiller(store EntryUpdater, projector *catalog.Projector) *Backfiller {
	return &Backfiller{store: store, projector: projector}
}

// SetProgress registers a progress callback.
func (b *Backfiller) SetProgress(fn ProgressFunc) {
	b.progress = fn
}

// Run recomputes every entry and writes back the ones that changed. An entry
// whose recomputed key collides with another active entry is left untouched
// and listed in Conflicts; reconcile the pair to resolve it.
func (b *Backfiller) Run(ctx context.Context) (*BackfillResult, error) {
	entries, err := b.store.ListEntries(ctx, service.EntryFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog entries: %w", err)
	}

	result := &BackfillResult{Scanned: len(entries)}
	for n := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		entry := entries[n]
		before := entry
		b.projector.Apply(&entry)

		if entry.CanonicalKey != before.CanonicalKey || !reflect.DeepEqual(entry.Attributes, before.Attributes) {
			if err := b.store.UpdateEntryDerived(ctx, &entry); err != nil {
				if !errors.Is(err, common.ErrStoreConflict) {
					return result, fmt.Errorf("failed to update entry %s: %w", entry.ID, err)
				}
				slog.Warn("Canonical key already taken, leaving entry unchanged",
					"entry", entry.ID,
					"key", entry.CanonicalKey)
				result.Conflicts = append(result.Conflicts, entry.ID)
			} else {
				result.Updated++
				if before.CanonicalKey == "" && entry.CanonicalKey != "" {
					result.KeysAssigned++
				}
			}
		}

		if b.progress != nil {
			b.progress(n+1, len(entries))
		}
	}

	slog.Info("Backfilled derived attributes",
		"scanned", result.Scanned,
		"updated", result.Updated,
		"keys_assigned", result.KeysAssigned,
		"conflicts", len(result.Conflicts))

	return result, nil
}

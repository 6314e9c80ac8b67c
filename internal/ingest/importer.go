package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/Veraticus/sku-resolver/internal/catalog"
	"github.com/Veraticus/sku-resolver/internal/common"
	"github.com/Veraticus/sku-resolver/internal/model"
	"github.com/Veraticus/sku-resolver/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// EntryWriter is the part of the catalog store ingestion writes through.
type EntryWriter interface {
	CreateEntry(ctx context.Context, entry *model.CatalogEntry) error
	UpsertEntryByKey(ctx context.Context, entry *model.CatalogEntry) (bool, error)
}

// ProgressFunc is called after each processed item.
type ProgressFunc func(done, total int)

// RowError records why a row was skipped.
type RowError struct {
	Err  error
	Line int
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// ImportResult summarizes one import.
type ImportResult struct {
	Invalid []RowError
	Created int
	Updated int
	Keyless int
}

// Skipped is the number of rows rejected by validation.
func (r ImportResult) Skipped() int {
	return len(r.Invalid)
}

// Importer turns rows into catalog entries, upserting by canonical key so
// that re-importing a file updates entries instead of duplicating them.
type Importer struct {
	store     EntryWriter
	projector *catalog.Projector
	validate  *validator.Validate
	progress  ProgressFunc
	retry     service.RetryOptions
}

// NewImporter creates an importer.
func NewImporter(store EntryWriter, projector *catalog.Projector) *Importer {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("col")
	})

	return &Importer{
		store:     store,
		projector: projector,
		validate:  validate,
		retry:     service.RetryOptions{Operation: "upsert catalog entry", MaxAttempts: 3},
	}
}

// SetProgress registers a progress callback.
func (i *Importer) SetProgress(fn ProgressFunc) {
	i.progress = fn
}

// Import validates and writes rows. Invalid rows are skipped and reported in
// the result; a store failure stops the import and is returned together with
// the partial result.
func (i *Importer) Import(ctx context.Context, rows []Row) (*ImportResult, error) {
	result := &ImportResult{}

	for n, row := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		entry, err := i.entryFromRow(row)
		if err != nil {
			slog.Warn("Skipping invalid catalog row", "line", row.Line, "error", err)
			result.Invalid = append(result.Invalid, RowError{Line: row.Line, Err: err})
			i.report(n+1, len(rows))
			continue
		}

		if err := i.write(ctx, entry, result); err != nil {
			return result, fmt.Errorf("line %d: %w", row.Line, err)
		}
		i.report(n+1, len(rows))
	}

	slog.Info("Imported catalog rows",
		"rows", len(rows),
		"created", result.Created,
		"updated", result.Updated,
		"keyless", result.Keyless,
		"skipped", result.Skipped())

	return result, nil
}

func (i *Importer) write(ctx context.Context, entry *model.CatalogEntry, result *ImportResult) error {
	// Keyless and retired rows cannot be matched to an existing entry.
	if entry.CanonicalKey == "" || entry.Status == model.StatusRetired {
		if entry.CanonicalKey == "" {
			result.Keyless++
		}
		if err := i.store.CreateEntry(ctx, entry); err != nil {
			return err
		}
		result.Created++
		return nil
	}

	var created bool
	err := common.WithRetry(ctx, func() error {
		var err error
		created, err = i.store.UpsertEntryByKey(ctx, entry)
		return err
	}, i.retry)
	if err != nil {
		return err
	}
	if created {
		result.Created++
	} else {
		result.Updated++
	}
	return nil
}

func (i *Importer) entryFromRow(row Row) (*model.CatalogEntry, error) {
	if err := i.validate.Struct(row); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, common.NewValidationError(verrs[0].Field(), verrs[0].Tag())
		}
		return nil, err
	}

	entry := &model.CatalogEntry{
		ID:          row.ID,
		Brand:       row.Brand,
		Category:    row.Category,
		Unit:        row.Unit,
		PackUnit:    row.PackUnit,
		Description: row.Description,
		Status:      model.StatusActive,
		Attributes: model.Attributes{
			Type:     row.Type,
			Material: row.Material,
			Variant:  row.Variant,
			Size:     row.Size,
			SizeUnit: row.SizeUnit,
		},
	}
	if row.Status != "" {
		entry.Status = model.EntryStatus(row.Status)
	}
	if row.PackQty != "" {
		qty, err := decimal.NewFromString(row.PackQty)
		if err != nil {
			return nil, common.NewValidationError("pack_qty", err.Error())
		}
		if !qty.IsPositive() {
			return nil, common.NewValidationError("pack_qty", "must be positive")
		}
		entry.PackQty = &qty
	}
	if entry.Description == "" {
		entry.Description = strings.Join(strings.Fields(strings.Join(
			[]string{row.Material, row.Type, row.Variant, sizeLabel(row)}, " ")), " ")
	}

	i.projector.Apply(entry)

	if row.CanonicalKey != "" && !strings.EqualFold(row.CanonicalKey, entry.CanonicalKey) {
		slog.Debug("Ignoring stale canonical key from file",
			"line", row.Line,
			"file_key", row.CanonicalKey,
			"derived_key", entry.CanonicalKey)
	}
	return entry, nil
}

func sizeLabel(row Row) string {
	if row.SizeUnit == "" || strings.HasSuffix(strings.ToLower(row.Size), strings.ToLower(row.SizeUnit)) {
		return row.Size
	}
	return row.Size + " " + row.SizeUnit
}

func (i *Importer) report(done, total int) {
	if i.progress != nil {
		i.progress(done, total)
	}
}

// Package resolver applies the confidence policy that turns a vendor's quoted
// line into price records against catalog entries.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/Veraticus/sku-resolver/internal/catalog"
	"github.com/Veraticus/sku-resolver/internal/clock"
	"github.com/Veraticus/sku-resolver/internal/common"
	"github.com/Veraticus/sku-resolver/internal/config"
	"github.com/Veraticus/sku-resolver/internal/matcher"
	"github.com/Veraticus/sku-resolver/internal/model"
	"github.com/Veraticus/sku-resolver/internal/normalize"
	"github.com/Veraticus/sku-resolver/internal/query"
	"github.com/Veraticus/sku-resolver/internal/service"
)

const (
	mintedBrand       = "unbranded"
	mintedCategory    = "uncategorized"
	mintedDefaultUnit = "unit"
)

// DescriptorParser turns query text or a request line into a descriptor.
type DescriptorParser interface {
	Parse(text string) model.Descriptor
	ParseLine(line model.RequestLineItem) model.Descriptor
}

// CandidateMatcher ranks catalog entries for a descriptor.
type CandidateMatcher interface {
	Match(ctx context.Context, d model.Descriptor, limit int) ([]matcher.Candidate, error)
}

// Controller resolves quoted lines. It holds no catalog state of its own;
// every read and write goes through the store.
type Controller struct {
	store     service.CatalogStore
	parser    DescriptorParser
	matcher   CandidateMatcher
	projector *catalog.Projector
	clock     clock.Clock
	retry     service.RetryOptions
	cfg       config.Resolution
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the clock used for quote timestamps.
func WithClock(c clock.Clock) Option {
	return func(ctrl *Controller) { ctrl.clock = c }
}

// WithProjector sets the projector used to derive attributes of minted entries.
func WithProjector(p *catalog.Projector) Option {
	return func(ctrl *Controller) { ctrl.projector = p }
}

// NewController creates a resolution controller.
func NewController(store service.CatalogStore, parser DescriptorParser, m CandidateMatcher, cfg config.Resolution, opts ...Option) *Controller {
	c := &Controller{
		store:     store,
		parser:    parser,
		matcher:   m,
		cfg:       cfg,
		clock:     clock.NewRealClock(),
		projector: catalog.NewProjector(normalize.DefaultVocabulary()),
		retry:     service.RetryOptions{Operation: "resolve quote", MaxAttempts: cfg.RetryAttempts},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Confidence maps a matcher score onto [0, 1].
func (c *Controller) Confidence(score float64) float64 {
	if c.cfg.ScoreScale <= 0 {
		return 0
	}
	return math.Max(0, math.Min(1, score/c.cfg.ScoreScale))
}

// ResolveLine resolves one quoted line of sub and writes its price records.
// Writing is idempotent per (entry, vendor, quote ref): resubmitting the same
// line updates prices in place.
func (c *Controller) ResolveLine(ctx context.Context, sub model.PriceSubmission, line model.QuotedLine) (*Outcome, error) {
	if err := validateLine(sub, line); err != nil {
		return nil, err
	}
	if _, err := c.store.GetVendor(ctx, sub.VendorID); err != nil {
		return nil, fmt.Errorf("failed to load vendor: %w", err)
	}

	outcome := &Outcome{LineID: line.LineID}

	reqLine, text, err := c.queryText(ctx, sub.RequestID, line)
	if err != nil {
		return nil, err
	}
	outcome.Query = text
	outcome.UsedFallback = reqLine == nil

	var desc model.Descriptor
	if reqLine != nil {
		desc = c.parser.ParseLine(*reqLine)
	} else {
		desc = c.parser.Parse(text)
	}
	candidates, err := c.matcher.Match(ctx, desc, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to match line %s: %w", line.LineID, err)
	}
	if len(candidates) > 0 {
		outcome.Confidence = c.Confidence(candidates[0].Score)
	}

	ref := model.QuoteRef(sub.RequestID, sub.VendorID, line.LineID)

	switch {
	case len(candidates) > 0 && outcome.Confidence >= c.cfg.AutoResolveThreshold && !candidates[0].Entry.Ambiguous:
		outcome.Tier = TierAutoResolved
		quote, err := c.writeQuote(ctx, sub, line, candidates[0].Entry, ref, model.SourceAutoMatched, true)
		if err != nil {
			return nil, err
		}
		outcome.Quotes = append(outcome.Quotes, *quote)

	case len(candidates) > 0 && outcome.Confidence >= c.cfg.AutoResolveThreshold:
		// A strong match on an entry minted earlier for the same unknown item.
		// The quote joins it unresolved instead of minting a duplicate.
		outcome.Tier = TierAmbiguous
		quote, err := c.writeQuote(ctx, sub, line, candidates[0].Entry, ref, model.SourceAmbiguous, false)
		if err != nil {
			return nil, err
		}
		outcome.Quotes = append(outcome.Quotes, *quote)

	case len(candidates) > 0 && outcome.Confidence >= c.cfg.CandidateThreshold:
		outcome.Tier = TierCandidates
		top := candidates
		if c.cfg.MaxCandidates > 0 && len(top) > c.cfg.MaxCandidates {
			top = top[:c.cfg.MaxCandidates]
		}
		quotes := make([]*model.PriceQuote, 0, len(top))
		for _, cand := range top {
			quotes = append(quotes, newQuote(sub, line, cand.Entry, ref, model.SourceCandidate, false))
		}
		if err := c.writeQuotes(ctx, quotes); err != nil {
			return nil, err
		}
		for _, quote := range quotes {
			outcome.Quotes = append(outcome.Quotes, *quote)
		}

	default:
		outcome.Tier = TierAmbiguous
		entry, minted, err := c.ambiguousEntry(ctx, sub.VendorID, ref, desc, line, text)
		if err != nil {
			return nil, err
		}
		if minted {
			outcome.MintedEntry = entry.ID
		}
		quote, err := c.writeQuote(ctx, sub, line, *entry, ref, model.SourceAmbiguous, false)
		if err != nil {
			return nil, err
		}
		outcome.Quotes = append(outcome.Quotes, *quote)
	}

	slog.Info("Resolved quoted line",
		"request", sub.RequestID,
		"vendor", sub.VendorID,
		"line", line.LineID,
		"tier", outcome.Tier,
		"confidence", outcome.Confidence,
		"entries", outcome.EntryIDs())

	return outcome, nil
}

// queryText composes the query from the stored request line, falling back to
// the vendor's comment when the line is unknown. The request line is nil when
// the comment was used.
func (c *Controller) queryText(ctx context.Context, requestID string, line model.QuotedLine) (*model.RequestLineItem, string, error) {
	reqLine, err := c.store.GetRequestLine(ctx, requestID, line.LineID)
	if err == nil {
		if text := query.BuildLineQuery(*reqLine); text != "" {
			return reqLine, text, nil
		}
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, "", fmt.Errorf("failed to load request line: %w", err)
	}

	comment := strings.TrimSpace(line.Comment)
	if comment == "" {
		return nil, "", common.NewValidationError("comment", fmt.Sprintf("request line %s/%s is unknown and no comment was given", requestID, line.LineID))
	}
	slog.Warn("Request line unavailable, using vendor comment",
		"request", requestID,
		"line", line.LineID)
	return nil, comment, nil
}

// ambiguousEntry returns the ambiguous entry a previous submission of the same
// line already minted, or mints a new one.
func (c *Controller) ambiguousEntry(ctx context.Context, vendorID, ref string, desc model.Descriptor, line model.QuotedLine, text string) (*model.CatalogEntry, bool, error) {
	existing, err := c.store.GetQuotesByRef(ctx, vendorID, ref)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up previous quotes: %w", err)
	}
	for _, q := range existing {
		entry, err := c.store.GetEntry(ctx, q.CatalogEntryID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to load quoted entry: %w", err)
		}
		if entry.Ambiguous && entry.IsActive() {
			return entry, false, nil
		}
	}

	entry := c.mintEntry(desc, line, text)
	err = common.WithRetry(ctx, func() error {
		entry.ID = ""
		return c.store.CreateEntry(ctx, entry)
	}, c.retry)
	if err != nil {
		return nil, false, fmt.Errorf("failed to mint ambiguous entry: %w", err)
	}

	slog.Info("Minted ambiguous catalog entry",
		"entry", entry.ID,
		"query", text,
		"type", desc.Type)
	return entry, true, nil
}

// mintEntry builds an ambiguous entry carrying whatever the query revealed.
func (c *Controller) mintEntry(desc model.Descriptor, line model.QuotedLine, text string) *model.CatalogEntry {
	entry := &model.CatalogEntry{
		Brand:       mintedBrand,
		Category:    mintedCategory,
		Unit:        mintedDefaultUnit,
		Description: text,
		Status:      model.StatusActive,
		Ambiguous:   true,
		Attributes: model.Attributes{
			Type:     desc.Type,
			Material: desc.Material,
			Variant:  desc.Variant,
			Size:     sizeText(desc),
		},
	}
	if desc.Type != "" {
		entry.Category = desc.Type
	}
	if u := strings.TrimSpace(line.PriceUnit); u != "" {
		entry.Unit = u
	}
	c.projector.Apply(entry)
	return entry
}

func sizeText(desc model.Descriptor) string {
	switch desc.DimensionCount() {
	case 2:
		return normalize.FormatMM(*desc.PrimaryMM) + " x " + normalize.FormatMM(*desc.SecondaryMM)
	case 1:
		return normalize.FormatMM(*desc.PrimaryMM)
	default:
		return ""
	}
}

func newQuote(sub model.PriceSubmission, line model.QuotedLine, entry model.CatalogEntry, ref string, source model.QuoteSource, resolved bool) *model.PriceQuote {
	return &model.PriceQuote{
		CatalogEntryID: entry.ID,
		VendorID:       sub.VendorID,
		Price:          NormalizePrice(line.Price, line.PriceUnit, entry),
		Currency:       sub.Currency,
		Resolved:       resolved,
		Source:         source,
		QuoteRef:       ref,
		LeadTimeDays:   line.LeadTimeDays,
	}
}

func (c *Controller) writeQuote(ctx context.Context, sub model.PriceSubmission, line model.QuotedLine, entry model.CatalogEntry, ref string, source model.QuoteSource, resolved bool) (*model.PriceQuote, error) {
	quote := newQuote(sub, line, entry, ref, source, resolved)
	if err := c.writeQuotes(ctx, []*model.PriceQuote{quote}); err != nil {
		return nil, err
	}
	return quote, nil
}

// writeQuotes writes all quotes of one line in a single transaction, so a
// failed line leaves no partial candidate set behind.
func (c *Controller) writeQuotes(ctx context.Context, quotes []*model.PriceQuote) error {
	err := common.WithRetry(ctx, func() error {
		now := c.clock.Now()
		for _, quote := range quotes {
			quote.UpdatedAt = now
			quote.CreatedAt = now
		}
		return c.store.UpsertPriceQuotes(ctx, quotes)
	}, c.retry)
	if err != nil {
		entries := make([]string, len(quotes))
		for i, quote := range quotes {
			entries[i] = quote.CatalogEntryID
		}
		return fmt.Errorf("failed to write quotes for entries %s: %w", strings.Join(entries, ", "), err)
	}
	return nil
}

func validateLine(sub model.PriceSubmission, line model.QuotedLine) error {
	if strings.TrimSpace(sub.RequestID) == "" {
		return common.NewValidationError("request_id", "is required")
	}
	if strings.TrimSpace(sub.VendorID) == "" {
		return common.NewValidationError("vendor_id", "is required")
	}
	if strings.TrimSpace(sub.Currency) == "" {
		return common.NewValidationError("currency", "is required")
	}
	if strings.TrimSpace(line.LineID) == "" {
		return common.NewValidationError("line_id", "is required")
	}
	if line.Price.IsNegative() {
		return common.NewValidationError("price", "must not be negative")
	}
	if line.LeadTimeDays < 0 {
		return common.NewValidationError("lead_time_days", "must not be negative")
	}
	return nil
}

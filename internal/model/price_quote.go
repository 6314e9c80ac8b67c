package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// QuoteSource is the provenance tag written on a price quote.
type QuoteSource string

const (
	// SourceAutoMatched marks a quote written against a confidently matched entry.
	SourceAutoMatched QuoteSource = "auto_matched"
	// SourceCandidate marks a quote written against one of several plausible entries.
	SourceCandidate QuoteSource = "candidate"
	// SourceAmbiguous marks a quote written against a freshly minted ambiguous entry.
	SourceAmbiguous QuoteSource = "ambiguous"
	// SourceReconciled marks a quote repointed by a catalog merge.
	SourceReconciled QuoteSource = "reconciled"
)

// PriceQuote is a vendor price normalized to a catalog entry's canonical unit.
// At most one quote exists per (CatalogEntryID, VendorID, QuoteRef).
type PriceQuote struct {
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ID             string
	CatalogEntryID string
	VendorID       string
	Currency       string
	Source         QuoteSource
	QuoteRef       string
	Price          decimal.Decimal
	LeadTimeDays   int
	Resolved       bool
}

// QuoteRef composes the idempotency reference for one quoted request line.
func QuoteRef(requestID, vendorID, lineID string) string {
	return fmt.Sprintf("%s:%s:%s", requestID, vendorID, lineID)
}

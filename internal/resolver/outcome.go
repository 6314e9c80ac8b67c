package resolver

import "github.com/Veraticus/sku-resolver/internal/model"

// Tier is the confidence band a quoted line resolved into.
type Tier string

const (
	// TierAutoResolved wrote one resolved quote against the top candidate.
	TierAutoResolved Tier = "auto_resolved"
	// TierCandidates wrote unresolved quotes against the top few candidates.
	TierCandidates Tier = "candidates"
	// TierAmbiguous wrote one unresolved quote against an ambiguous entry.
	TierAmbiguous Tier = "ambiguous"
	// TierFailed means the line could not be resolved; see Outcome.Err.
	TierFailed Tier = "failed"
)

// Outcome is the result of resolving one quoted line.
type Outcome struct {
	Err          error
	LineID       string
	Query        string
	Tier         Tier
	MintedEntry  string
	Quotes       []model.PriceQuote
	Confidence   float64
	UsedFallback bool
}

// EntryIDs lists the entries the outcome's quotes were written against.
func (o Outcome) EntryIDs() []string {
	ids := make([]string, len(o.Quotes))
	for i, q := range o.Quotes {
		ids[i] = q.CatalogEntryID
	}
	return ids
}

// SubmissionReport holds exactly one outcome per submitted line, in
// submission order.
type SubmissionReport struct {
	RequestID string
	VendorID  string
	Outcomes  []Outcome
}

// Count returns how many outcomes landed in tier.
func (r SubmissionReport) Count(tier Tier) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Tier == tier {
			n++
		}
	}
	return n
}

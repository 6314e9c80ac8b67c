// Package query turns free-text catalog queries into structured descriptors.
package query

import (
	"math"
	"strings"

	"github.com/Veraticus/sku-resolver/internal/config"
	"github.com/Veraticus/sku-resolver/internal/model"
	"github.com/Veraticus/sku-resolver/internal/normalize"
)

// Parser extracts type, dimensions, material and variant from a query.
type Parser struct {
	vocab            normalize.Vocabulary
	minToleranceMM   float64
	tolerancePercent float64
}

// NewParser creates a parser over the given vocabulary. Tolerance settings
// come from the matching configuration.
func NewParser(vocab normalize.Vocabulary, cfg config.Matching) *Parser {
	return &Parser{
		vocab:            vocab,
		minToleranceMM:   cfg.MinToleranceMM,
		tolerancePercent: cfg.TolerancePercent,
	}
}

// Parse builds a descriptor from text. It never fails: anything it cannot
// recognize is left empty, and unit-bearing sizes it cannot evaluate mark the
// descriptor ambiguous.
func (p *Parser) Parse(text string) model.Descriptor {
	d, rest := p.extractTags(text)

	if expr, stray, ok := normalize.FindCompound(rest); ok {
		dim := normalize.ParseDimension(expr)
		d.PrimaryMM = dim.PrimaryMM
		d.SecondaryMM = dim.SecondaryMM
		d.Ambiguous = dim.Ambiguous || stray
	} else {
		lengths, stray := normalize.ScanLengths(rest)
		if len(lengths) > 2 {
			lengths = lengths[:2]
		}
		if len(lengths) == 2 && lengths[1].MM > lengths[0].MM {
			lengths[0], lengths[1] = lengths[1], lengths[0]
		}
		if len(lengths) > 0 {
			d.PrimaryMM = &lengths[0].MM
		}
		if len(lengths) > 1 {
			d.SecondaryMM = &lengths[1].MM
		}
		d.Ambiguous = stray
	}
	if normalize.HasUnparsedLength(rest) {
		d.Ambiguous = true
	}

	d.ToleranceMM = p.tolerance(d.PrimaryMM)
	return d
}

// ParseLine builds a descriptor for a request line. The dimension column is
// parsed on its own so numbers in the material name or sub-type ("bend 90")
// never merge with it.
func (p *Parser) ParseLine(line model.RequestLineItem) model.Descriptor {
	dimText := lineDimension(line)
	if dimText == "" {
		return p.Parse(BuildLineQuery(line))
	}

	d, rest := p.extractTags(line.MaterialName + " " + line.SubType)
	d.Raw = BuildLineQuery(line)

	dim := normalize.ParseDimension(dimText)
	d.PrimaryMM = dim.PrimaryMM
	d.SecondaryMM = dim.SecondaryMM
	d.Ambiguous = dim.Ambiguous || normalize.HasUnparsedLength(rest)

	d.ToleranceMM = p.tolerance(d.PrimaryMM)
	return d
}

// extractTags pulls type, material and variant out of text and returns what
// is left. Matched spans are blanked so "elbow 90" or "sdr 11" never read as
// sizes.
func (p *Parser) extractTags(text string) (model.Descriptor, string) {
	d := model.Descriptor{Raw: text}
	rest := normalize.Fold(text)

	if tag, remaining, ok := p.vocab.Types.Extract(rest); ok {
		d.Type = tag
		rest = remaining
	}
	if tag, remaining, ok := p.vocab.Materials.Extract(rest); ok {
		d.Material = tag
		rest = remaining
	}
	if tag, remaining, ok := p.vocab.Variants.Extract(rest); ok {
		d.Variant = tag
		rest = remaining
	}
	return d, rest
}

func (p *Parser) tolerance(primary *float64) float64 {
	if primary == nil {
		return p.minToleranceMM
	}
	return math.Max(p.minToleranceMM, p.tolerancePercent**primary)
}

// BuildLineQuery composes the search text for a request line from its
// material name, sub-type and dimension.
func BuildLineQuery(line model.RequestLineItem) string {
	parts := []string{line.MaterialName, line.SubType, lineDimension(line)}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// lineDimension joins the dimension and its unit unless the dimension
// already ends with the unit.
func lineDimension(line model.RequestLineItem) string {
	dim := strings.TrimSpace(line.Dimension)
	unit := strings.TrimSpace(line.DimensionUnit)
	if dim != "" && unit != "" && !strings.HasSuffix(strings.ToLower(dim), strings.ToLower(unit)) {
		dim += " " + unit
	}
	return dim
}

package normalize

import (
	"regexp"
	"sort"
	"strings"
)

// Normalizer maps a free-text fragment to a canonical tag. Implementations
// fall back to a normalized form of the input instead of failing.
type Normalizer interface {
	Normalize(raw string) string
}

// Extractor finds a canonical tag mentioned anywhere in free text.
type Extractor interface {
	// Extract returns the tag, the text with the matched span blanked out,
	// and whether anything matched.
	Extract(text string) (tag string, rest string, ok bool)
}

// Table is the strategy the query parser and catalog projection use for
// type, material and variant vocabularies.
type Table interface {
	Normalizer
	Extractor
}

type aliasEntry struct {
	re    *regexp.Regexp
	alias string
	tag   string
}

// AliasTable is a Table backed by a fixed alias → tag map. Aliases are
// matched on whole words, longest alias first, so "elbow 90" wins over
// "elbow".
type AliasTable struct {
	entries []aliasEntry
}

// NewAliasTable builds a table from an alias → tag map.
func NewAliasTable(aliases map[string]string) *AliasTable {
	t := &AliasTable{}
	for alias, tag := range aliases {
		t.add(alias, tag)
	}
	t.sort()
	return t
}

// With returns a copy of the table extended with more aliases. Later
// aliases override earlier ones with the same spelling.
func (t *AliasTable) With(aliases map[string]string) *AliasTable {
	out := &AliasTable{}
	for _, e := range t.entries {
		if _, overridden := aliases[e.alias]; !overridden {
			out.entries = append(out.entries, e)
		}
	}
	for alias, tag := range aliases {
		out.add(alias, tag)
	}
	out.sort()
	return out
}

// Len returns the number of aliases.
func (t *AliasTable) Len() int {
	return len(t.entries)
}

// Extract implements Extractor.
func (t *AliasTable) Extract(text string) (string, string, bool) {
	folded := Fold(text)
	for _, e := range t.entries {
		loc := e.re.FindStringSubmatchIndex(folded)
		if loc == nil {
			continue
		}
		start, end := loc[2], loc[3]
		rest := folded[:start] + " " + folded[end:]
		return e.tag, strings.Join(strings.Fields(rest), " "), true
	}
	return "", folded, false
}

// Normalize implements Normalizer.
func (t *AliasTable) Normalize(raw string) string {
	if tag, _, ok := t.Extract(raw); ok {
		return tag
	}
	return strings.ToLower(strings.Join(strings.Fields(raw), " "))
}

func (t *AliasTable) add(alias, tag string) {
	words := Tokens(alias)
	if len(words) == 0 {
		return
	}
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	pattern := `(?:^|[^\pL\pN])(` + strings.Join(quoted, `[^\pL\pN]+`) + `)(?:[^\pL\pN]|$)`
	t.entries = append(t.entries, aliasEntry{
		re:    regexp.MustCompile(pattern),
		alias: strings.Join(words, " "),
		tag:   tag,
	})
}

func (t *AliasTable) sort() {
	sort.SliceStable(t.entries, func(i, j int) bool {
		if len(t.entries[i].alias) != len(t.entries[j].alias) {
			return len(t.entries[i].alias) > len(t.entries[j].alias)
		}
		return t.entries[i].alias < t.entries[j].alias
	})
}

// patternFamily canonicalizes a numbered variant family such as "sdr 11".
type patternFamily struct {
	re     *regexp.Regexp
	format func(m []string) string
}

// PatternTable is a Table for variant tokens: a fixed alias table plus
// numbered families (SDR, PN, SCH, Class) recognized by pattern.
type PatternTable struct {
	aliases  *AliasTable
	families []patternFamily
}

// Extract implements Extractor. Fixed aliases are tried before families.
func (p *PatternTable) Extract(text string) (string, string, bool) {
	if tag, rest, ok := p.aliases.Extract(text); ok {
		return tag, rest, true
	}
	folded := Fold(text)
	for _, f := range p.families {
		loc := f.re.FindStringSubmatchIndex(folded)
		if loc == nil {
			continue
		}
		m := make([]string, len(loc)/2)
		for i := range m {
			if loc[2*i] >= 0 {
				m[i] = folded[loc[2*i]:loc[2*i+1]]
			}
		}
		rest := folded[:loc[0]] + " " + folded[loc[1]:]
		return f.format(m), strings.Join(strings.Fields(rest), " "), true
	}
	return "", folded, false
}

// Normalize implements Normalizer.
func (p *PatternTable) Normalize(raw string) string {
	if tag, _, ok := p.Extract(raw); ok {
		return tag
	}
	return strings.ToLower(strings.Join(strings.Fields(raw), " "))
}

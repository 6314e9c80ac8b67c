package normalize

import "strings"

// Similarity scores two canonical tags: 1.0 if equal, 0.85 if one contains
// the other, otherwise the token-set overlap |A∩B| / ((|A|+|B|)/2).
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.85
	}

	setA := tagTokens(a)
	setB := tagTokens(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	shared := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			shared++
		}
	}
	return float64(shared) / (float64(len(setA)+len(setB)) / 2)
}

func tagTokens(tag string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.FieldsFunc(tag, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	}) {
		set[tok] = struct{}{}
	}
	return set
}

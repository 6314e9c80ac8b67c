package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Veraticus/sku-resolver/internal/model"
	"golang.org/x/text/unicode/norm"
)

// MMPerInch converts inches to millimeters.
const MMPerInch = 25.4

// Unit names produced by the cleaner.
const (
	UnitMM   = "mm"
	UnitCM   = "cm"
	UnitM    = "m"
	UnitInch = "inch"
)

const numberPattern = `(?:\d+(?:\s+|\s*-\s*)\d+/\d+|\d+/\d+|\d+(?:\.\d+)?)`

var (
	vulgarFractions = strings.NewReplacer(
		"½", " 1/2", "¼", " 1/4", "¾", " 3/4",
		"⅛", " 1/8", "⅜", " 3/8", "⅝", " 5/8", "⅞", " 7/8",
	)
	symbolReplacer = strings.NewReplacer(
		"⁄", "/", "″", `"`, "′′", `"`, "”", `"`, "“", `"`, "''", `"`,
		"×", "x", "*", "x", "ø", "", "⌀", "", "φ", "",
	)

	decimalCommaRe = regexp.MustCompile(`(\d),(\d)`)
	diaRe          = regexp.MustCompile(`\bdia\.?\s*`)
	mmWordRe       = regexp.MustCompile(`(\d)\s*(?:millimet(?:er|re)s?|mm)\b`)
	cmWordRe       = regexp.MustCompile(`(\d)\s*(?:centimet(?:er|re)s?|cms?)\b`)
	mWordRe        = regexp.MustCompile(`(\d)\s*(?:met(?:er|re)s?|mtrs?|m)\b`)
	inchWordRe     = regexp.MustCompile(`(\d)\s*(?:inches|inch|in)\b\.?`)
	inchQuoteRe    = regexp.MustCompile(`(\d)\s*"`)

	tokenRe    = regexp.MustCompile(`^(` + numberPattern + `)\s*(mm|cm|m|inch)?$`)
	leadingRe  = regexp.MustCompile(`^(` + numberPattern + `)\s*(mm|cm|m|inch)\s+(.+)$`)
	lengthRe   = regexp.MustCompile(`(` + numberPattern + `)\s*(mm|cm|m|inch)\b`)
	compoundRe = regexp.MustCompile(`(` + numberPattern + `(?:\s*(?:mm|cm|m|inch)\b)?)\s*x\s*(` + numberPattern + `(?:\s*(?:mm|cm|m|inch)\b)?)`)
	mixedRe    = regexp.MustCompile(`^(\d+)(?:\s+|\s*-\s*)(\d+)/(\d+)$`)
	spacedRe   = regexp.MustCompile(`^(\d+)\s+(\d+/\d+)(.*)$`)
	fractionRe = regexp.MustCompile(`^(\d+)/(\d+)$`)
)

// Length is one recognized length value.
type Length struct {
	MM     float64
	Native float64
	Unit   string
}

// CleanDimensionText folds unit-symbol variants into the forms the parser
// recognizes: "mm", "cm", "m" and "inch", separated from the number by a space.
func CleanDimensionText(raw string) string {
	s := vulgarFractions.Replace(raw)
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)
	s = symbolReplacer.Replace(s)
	s = decimalCommaRe.ReplaceAllString(s, "$1.$2")
	s = diaRe.ReplaceAllString(s, "")
	s = mmWordRe.ReplaceAllString(s, "$1 mm")
	s = cmWordRe.ReplaceAllString(s, "$1 cm")
	s = mWordRe.ReplaceAllString(s, "$1 m")
	s = inchWordRe.ReplaceAllString(s, "$1 inch")
	s = inchQuoteRe.ReplaceAllString(s, "$1 inch")
	return strings.Join(strings.Fields(s), " ")
}

// ParseDimension normalizes a possibly compound size such as "110mm x 3mm"
// or `1-1/2"`. Tokens it cannot read are kept verbatim and mark the result
// ambiguous; it never fails.
func ParseDimension(raw string) model.Dimension {
	dim := model.Dimension{Raw: raw}

	cleaned := CleanDimensionText(raw)
	if cleaned == "" {
		return dim
	}

	parts := splitCompound(cleaned)
	parsed := make([]token, len(parts))
	for i, p := range parts {
		parsed[i] = parseToken(p)
	}
	inheritUnits(parsed)

	if len(parsed) > 2 {
		dim.Ambiguous = true
		parsed = parsed[:2]
	}

	var lengths []Length
	var trailing []string
	var verbatim []string
	for _, t := range parsed {
		if !t.ok || t.unit == "" {
			dim.Ambiguous = true
			verbatim = append(verbatim, t.raw)
			continue
		}
		if t.extra != "" {
			dim.Ambiguous = true
		}
		lengths = append(lengths, t.length())
		trailing = append(trailing, t.extra)
	}

	if len(lengths) == 2 && lengths[1].MM > lengths[0].MM {
		lengths[0], lengths[1] = lengths[1], lengths[0]
		trailing[0], trailing[1] = trailing[1], trailing[0]
	}

	display := make([]string, 0, len(lengths)+len(verbatim))
	for i := range lengths {
		l := lengths[i]
		if trailing[i] != "" {
			display = append(display, FormatMM(l.MM)+" "+trailing[i])
		} else {
			display = append(display, FormatMM(l.MM))
		}
		switch i {
		case 0:
			dim.PrimaryMM = &lengths[0].MM
			dim.Native = &lengths[0].Native
			dim.NativeUnit = l.Unit
		case 1:
			dim.SecondaryMM = &lengths[1].MM
		}
	}
	display = append(display, verbatim...)
	dim.Display = strings.Join(display, " x ")

	return dim
}

// ScanLengths finds unit-bearing numbers anywhere in free text, in order of
// appearance. Bare numbers are ignored. In free text "90 1/2 inch" is more
// likely an angle or class followed by a fraction than ninety and a half
// inches, so a space-separated whole part of two or more digits is dropped
// and reported as ambiguous.
func ScanLengths(text string) (lengths []Length, ambiguous bool) {
	cleaned := CleanDimensionText(text)

	for _, m := range lengthRe.FindAllStringSubmatch(cleaned, -1) {
		num, stray := dropStrayWhole(m[1])
		if stray {
			ambiguous = true
		}
		v, ok := parseNumber(num)
		if !ok {
			continue
		}
		lengths = append(lengths, toLength(v, m[2]))
	}
	return lengths, ambiguous
}

// HasUnparsedLength reports whether text carries a unit-bearing number that
// does not evaluate, such as "1/0 inch".
func HasUnparsedLength(text string) bool {
	for _, m := range lengthRe.FindAllStringSubmatch(CleanDimensionText(text), -1) {
		if _, ok := parseNumber(m[1]); !ok {
			return true
		}
	}
	return false
}

// FindCompound returns the first "A x B" size expression in free text.
// At least one side must carry a unit. A stray whole number in front of the
// first side is dropped as in ScanLengths and reported through ambiguous.
func FindCompound(text string) (expr string, ambiguous, ok bool) {
	cleaned := CleanDimensionText(text)
	for _, m := range compoundRe.FindAllStringSubmatch(cleaned, -1) {
		if !hasUnit(m[1]) && !hasUnit(m[2]) {
			continue
		}
		first, stray := dropStrayWhole(m[1])
		return first + " x " + m[2], stray, true
	}
	return "", false, false
}

// dropStrayWhole strips the whole part of a space-separated mixed number
// when it has two or more digits: "90 1/2 inch" becomes "1/2 inch".
func dropStrayWhole(num string) (string, bool) {
	m := spacedRe.FindStringSubmatch(strings.TrimSpace(num))
	if m == nil || len(m[1]) < 2 {
		return num, false
	}
	return m[2] + m[3], true
}

// FormatMM renders a millimeter value rounded to two decimals.
func FormatMM(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64) + UnitMM
}

type token struct {
	raw   string
	unit  string
	extra string
	value float64
	ok    bool
}

func (t token) length() Length {
	return toLength(t.value, t.unit)
}

func parseToken(raw string) token {
	t := token{raw: strings.TrimSpace(raw)}
	m := tokenRe.FindStringSubmatch(t.raw)
	if m == nil {
		// "1 1/2 inch hex" keeps its length; the words after it are carried along.
		if m = leadingRe.FindStringSubmatch(t.raw); m == nil {
			return t
		}
		t.extra = m[3]
	}
	v, ok := parseNumber(m[1])
	if !ok {
		t.extra = ""
		return t
	}
	t.value = v
	t.unit = m[2]
	t.ok = true
	return t
}

// inheritUnits lets unitless compound sides borrow the unit written on a
// sibling, so "110 x 63 mm" reads as two millimeter values.
func inheritUnits(tokens []token) {
	if len(tokens) < 2 {
		return
	}
	unit := ""
	for _, t := range tokens {
		if t.ok && t.unit != "" {
			unit = t.unit
		}
	}
	if unit == "" {
		return
	}
	for i := range tokens {
		if tokens[i].ok && tokens[i].unit == "" {
			tokens[i].unit = unit
		}
	}
}

// splitCompound splits on the multiplication separator. An "x" inside a
// word ("hex", "box") is not a separator; one glued to a unit ("110mmx63mm")
// is.
func splitCompound(s string) []string {
	var fields []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] != 'x' || !isSeparator(s, i) {
			continue
		}
		fields = append(fields, s[start:i])
		start = i + 1
	}
	fields = append(fields, s[start:])
	if len(fields) == 1 {
		return []string{strings.TrimSpace(s)}
	}

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	return parts
}

func isSeparator(s string, i int) bool {
	if i+1 < len(s) && isLetter(s[i+1]) {
		return false
	}
	j := i
	for j > 0 && isLetter(s[j-1]) {
		j--
	}
	switch s[j:i] {
	case "", UnitMM, UnitCM, UnitM, UnitInch:
		return true
	}
	return false
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || b >= 0x80
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if m := mixedRe.FindStringSubmatch(s); m != nil {
		whole, _ := strconv.ParseFloat(m[1], 64)
		frac, ok := ratio(m[2], m[3])
		if !ok {
			return 0, false
		}
		return whole + frac, true
	}
	if m := fractionRe.FindStringSubmatch(s); m != nil {
		return ratio(m[1], m[2])
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func ratio(num, den string) (float64, bool) {
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0, false
	}
	return n / d, true
}

func toLength(v float64, unit string) Length {
	l := Length{Native: v, Unit: unit}
	switch unit {
	case UnitMM:
		l.MM = v
	case UnitCM:
		l.MM = v * 10
	case UnitM:
		l.MM = v * 1000
	case UnitInch:
		l.MM = v * MMPerInch
	}
	return l
}

func hasUnit(s string) bool {
	return strings.HasSuffix(s, UnitMM) || strings.HasSuffix(s, UnitCM) ||
		strings.HasSuffix(s, " "+UnitM) || strings.HasSuffix(s, UnitInch)
}

package normalize

import (
	"regexp"
	"strings"
)

// Vocabulary groups the tables used to canonicalize types, materials and variants.
type Vocabulary struct {
	Types     Table
	Materials Table
	Variants  Table
}

// DefaultVocabulary returns the built-in plumbing and fittings vocabulary.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Types:     NewAliasTable(defaultTypeAliases),
		Materials: NewAliasTable(defaultMaterialAliases),
		Variants:  NewVariantTable(defaultVariantAliases),
	}
}

// Extend returns a copy of v with extra type and material aliases layered on
// top. Tables that are not alias tables are kept as they are.
func (v Vocabulary) Extend(types, materials map[string]string) Vocabulary {
	if t, ok := v.Types.(*AliasTable); ok && len(types) > 0 {
		v.Types = t.With(types)
	}
	if m, ok := v.Materials.(*AliasTable); ok && len(materials) > 0 {
		v.Materials = m.With(materials)
	}
	return v
}

// NewVariantTable builds a variant table from fixed aliases plus the SDR, PN,
// SCH and Class numbered families.
func NewVariantTable(aliases map[string]string) *PatternTable {
	return &PatternTable{
		aliases: NewAliasTable(aliases),
		families: []patternFamily{
			{
				re:     regexp.MustCompile(`\bsdr\s*-?\s*(\d+(?:\.\d+)?)\b`),
				format: func(m []string) string { return "SDR" + m[1] },
			},
			{
				re:     regexp.MustCompile(`\bpn\s*-?\s*(\d+(?:\.\d+)?)\b`),
				format: func(m []string) string { return "PN" + m[1] },
			},
			{
				re:     regexp.MustCompile(`\b(?:sch|schedule)\s*-?\s*(\d+)\b`),
				format: func(m []string) string { return "SCH" + m[1] },
			},
			{
				re:     regexp.MustCompile(`\bclass\s*-?\s*([a-e]|\d)\b`),
				format: func(m []string) string { return "Class " + strings.ToUpper(m[1]) },
			},
		},
	}
}

var defaultTypeAliases = map[string]string{
	"pipe":        "pipe",
	"pipes":       "pipe",
	"tube":        "pipe",
	"pipe length": "pipe",

	"elbow":            "elbow-90",
	"elbows":           "elbow-90",
	"elbow 90":         "elbow-90",
	"90 elbow":         "elbow-90",
	"elbow 90 deg":     "elbow-90",
	"90 deg elbow":     "elbow-90",
	"90 degree elbow":  "elbow-90",
	"elbow 90 degree":  "elbow-90",
	"l bow":            "elbow-90",
	"elbow 45":         "elbow-45",
	"45 elbow":         "elbow-45",
	"elbow 45 deg":     "elbow-45",
	"45 deg elbow":     "elbow-45",
	"45 degree elbow":  "elbow-45",
	"elbow 45 degree":  "elbow-45",
	"bend":             "bend",
	"long bend":        "bend",
	"sweep bend":       "bend",
	"tee":              "tee",
	"equal tee":        "tee",
	"t piece":          "tee",
	"tee joint":        "tee",
	"reducing tee":     "reducing-tee",
	"reducer tee":      "reducing-tee",
	"tee reducing":     "reducing-tee",
	"unequal tee":      "reducing-tee",
	"reducer":          "reducer",
	"reducing coupler": "reducer",
	"reducing socket":  "reducer",
	"reducer coupling": "reducer",
	"coupler":          "coupler",
	"coupling":         "coupler",
	"socket":           "coupler",
	"straight coupler": "coupler",
	"union":            "union",
	"end cap":          "end-cap",
	"endcap":           "end-cap",
	"cap":              "end-cap",
	"plug":             "plug",
	"end plug":         "plug",

	"ball valve":       "ball-valve",
	"valve ball":       "ball-valve",
	"gate valve":       "gate-valve",
	"check valve":      "check-valve",
	"non return valve": "check-valve",
	"nrv":              "check-valve",
	"valve":            "valve",

	"male adapter":            "adapter-male",
	"adapter male":            "adapter-male",
	"male threaded adapter":   "adapter-male",
	"mta":                     "adapter-male",
	"female adapter":          "adapter-female",
	"adapter female":          "adapter-female",
	"female threaded adapter": "adapter-female",
	"fta":                     "adapter-female",
	"adapter":                 "adapter",
	"adaptor":                 "adapter",
	"flange":                  "flange",
	"nipple":                  "nipple",
	"hex nipple":              "nipple",
	"bush":                    "bush",
	"bushing":                 "bush",
	"reducing bush":           "bush",
	"clip":                    "clip",
	"pipe clip":               "clip",
	"saddle clip":             "clip",
	"clamp":                   "clip",
	"solvent cement":          "solvent-cement",
	"pvc cement":              "solvent-cement",
	"solvent":                 "solvent-cement",
	"thread seal tape":        "thread-tape",
	"ptfe tape":               "thread-tape",
	"teflon tape":             "thread-tape",
}

var defaultMaterialAliases = map[string]string{
	"upvc":              "uPVC",
	"u pvc":             "uPVC",
	"u p v c":           "uPVC",
	"unplasticized pvc": "uPVC",
	"pvc":               "PVC",
	"cpvc":              "CPVC",
	"c pvc":             "CPVC",
	"hdpe":              "HDPE",
	"hd pe":             "HDPE",
	"pe100":             "HDPE",
	"pe 100":            "HDPE",
	"polyethylene":      "HDPE",
	"ldpe":              "LDPE",
	"ppr":               "PPR",
	"pp r":              "PPR",
	"pprc":              "PPR",
	"pp rc":             "PPR",
	"gi":                "GI",
	"galvanized":        "GI",
	"galvanised":        "GI",
	"galvanized iron":   "GI",
	"ms":                "MS",
	"mild steel":        "MS",
	"ss":                "SS",
	"stainless":         "SS",
	"stainless steel":   "SS",
	"ss304":             "SS",
	"ss 304":            "SS",
	"copper":            "Copper",
	"cu":                "Copper",
	"brass":             "Brass",
	"ci":                "CI",
	"cast iron":         "CI",
	"di":                "DI",
	"ductile iron":      "DI",
	"abs":               "ABS",
}

var defaultVariantAliases = map[string]string{
	"swr":          "SWR",
	"soil waste":   "SWR",
	"non pressure": "Non-Pressure",
	"agri":         "Agri",
	"agricultural": "Agri",
	"column pipe":  "Column",
	"heavy duty":   "HD",
}

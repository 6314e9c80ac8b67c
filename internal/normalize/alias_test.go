package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAliasTable_Extract(t *testing.T) {
	types := NewAliasTable(defaultTypeAliases)

	tests := []struct {
		name     string
		text     string
		wantTag  string
		wantRest string
		wantOK   bool
	}{
		{name: "longest alias wins", text: "uPVC elbow 90 1/2 inch", wantTag: "elbow-90", wantRest: "upvc 1/2 inch", wantOK: true},
		{name: "bare elbow defaults to 90", text: "Elbow 20mm", wantTag: "elbow-90", wantRest: "20mm", wantOK: true},
		{name: "45 degree elbow", text: "45 deg elbow 63mm", wantTag: "elbow-45", wantRest: "63mm", wantOK: true},
		{name: "reducing tee beats tee", text: "Reducing Tee 110 x 63mm", wantTag: "reducing-tee", wantRest: "110 x 63mm", wantOK: true},
		{name: "separator between words", text: "ball-valve 1 inch", wantTag: "ball-valve", wantRest: "1 inch", wantOK: true},
		{name: "whole words only", text: "capacitor", wantRest: "capacitor"},
		{name: "nothing recognized", text: "Widget 40mm", wantRest: "widget 40mm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag, rest, ok := types.Extract(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantTag, tag)
			assert.Equal(t, tt.wantRest, rest)
		})
	}
}

func TestAliasTable_Normalize(t *testing.T) {
	materials := NewAliasTable(defaultMaterialAliases)

	assert.Equal(t, "uPVC", materials.Normalize("UPVC"))
	assert.Equal(t, "uPVC", materials.Normalize("u-PVC"))
	assert.Equal(t, "PVC", materials.Normalize("pvc"))
	assert.Equal(t, "SS", materials.Normalize("Stainless Steel 304"))
	assert.Equal(t, "fibreglass", materials.Normalize("  Fibreglass "), "unknown values fall back to lower-cased input")
	assert.Equal(t, "", materials.Normalize(""))
}

func TestAliasTable_With(t *testing.T) {
	base := NewAliasTable(map[string]string{"elbow": "elbow-90", "tee": "tee"})
	extended := base.With(map[string]string{"elbow": "elbow-generic", "wye": "wye"})

	assert.Equal(t, 2, base.Len())
	assert.Equal(t, 3, extended.Len())
	assert.Equal(t, "elbow-90", base.Normalize("elbow"), "base table is not modified")
	assert.Equal(t, "elbow-generic", extended.Normalize("elbow"))
	assert.Equal(t, "wye", extended.Normalize("WYE"))
	assert.Equal(t, "tee", extended.Normalize("tee"))
}

func TestVariantTable(t *testing.T) {
	variants := NewVariantTable(defaultVariantAliases)

	tests := []struct {
		text string
		want string
	}{
		{text: "SDR 11", want: "SDR11"},
		{text: "sdr-13.6", want: "SDR13.6"},
		{text: "pn10", want: "PN10"},
		{text: "PN 16", want: "PN16"},
		{text: "Schedule 40", want: "SCH40"},
		{text: "sch80", want: "SCH80"},
		{text: "class b", want: "Class B"},
		{text: "SWR", want: "SWR"},
		{text: "soil & waste", want: "SWR"},
		{text: "non-pressure", want: "Non-Pressure"},
		{text: "Column Pipe", want: "Column"},
		{text: "Heavy", want: "heavy"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, variants.Normalize(tt.text))
		})
	}
}

func TestVariantTable_ExtractBlanksSpan(t *testing.T) {
	variants := NewVariantTable(defaultVariantAliases)

	tag, rest, ok := variants.Extract("hdpe pipe 63mm pn 10 coil")
	assert.True(t, ok)
	assert.Equal(t, "PN10", tag)
	assert.Equal(t, "hdpe pipe 63mm coil", rest)
}

func TestVocabulary_Extend(t *testing.T) {
	base := DefaultVocabulary()
	extended := base.Extend(map[string]string{"long radius bend": "bend"}, map[string]string{"gmsp": "GI"})

	tag, _, ok := extended.Types.Extract("long radius bend 110mm")
	assert.True(t, ok)
	assert.Equal(t, "bend", tag)
	assert.Equal(t, "GI", extended.Materials.Normalize("GMSP"))

	assert.Equal(t, "gmsp", base.Materials.Normalize("GMSP"), "base vocabulary is not modified")
	assert.Equal(t, base.Variants, extended.Variants)
}

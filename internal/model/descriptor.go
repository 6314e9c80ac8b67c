package model

// Dimension is the normalized form of a free-text size.
type Dimension struct {
	PrimaryMM   *float64
	SecondaryMM *float64
	Native      *float64
	Raw         string
	Display     string
	NativeUnit  string
	Ambiguous   bool
}

// HasPrimary reports whether at least one dimension was recognized.
func (d Dimension) HasPrimary() bool {
	return d.PrimaryMM != nil
}

// Descriptor is the structured form of a free-text catalog query.
type Descriptor struct {
	PrimaryMM   *float64
	SecondaryMM *float64
	Raw         string
	Type        string
	Material    string
	Variant     string
	ToleranceMM float64
	Ambiguous   bool
}

// HasType reports whether the query named a recognized type.
func (d Descriptor) HasType() bool {
	return d.Type != ""
}

// DimensionCount returns how many dimensions the query specified.
func (d Descriptor) DimensionCount() int {
	switch {
	case d.PrimaryMM != nil && d.SecondaryMM != nil:
		return 2
	case d.PrimaryMM != nil:
		return 1
	default:
		return 0
	}
}

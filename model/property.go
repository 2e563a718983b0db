package model

// PropertyKind tags which variant a Property holds.
type PropertyKind int

const (
	PropIspe PropertyKind = iota
	PropPasp
	PropColr
	PropPixi
	PropRloc
	PropAuxc
	PropClap
	PropIrot
	PropImir
	PropRaw
)

// singleInstance reports whether at most one property of this kind may be
// associated to a given item (spec.md §3 invariant 2). Raw properties are
// unbounded: an item may carry any number of unrecognized property boxes.
func (k PropertyKind) singleInstance() bool {
	return k != PropRaw
}

// transformative reports whether this property kind is a transformative
// property for the purposes of ipma ordering (descriptives precede
// transformatives, spec.md §3 invariant 1). Irot, Imir, and Clap change
// the displayed sample geometry and so are transformative; the rest are
// descriptive. Raw (unrecognized) properties are treated as descriptive,
// the conservative choice since their semantics are unknown.
func (k PropertyKind) transformative() bool {
	switch k {
	case PropClap, PropIrot, PropImir:
		return true
	default:
		return false
	}
}

type Ispe struct {
	Width, Height uint32
}

type Pasp struct {
	HSpacing, VSpacing uint32
}

// ColrType distinguishes the two colr payload forms.
type ColrType int

const (
	ColrNclx ColrType = iota
	ColrICC
)

type Colr struct {
	Type                                                  ColrType
	ColourPrimaries, TransferCharacteristics, MatrixCoeffs uint16
	FullRangeFlag                                          bool
	ICCProfile                                             []byte
}

type Pixi struct {
	BitsPerChannel []uint8
}

type Rloc struct {
	HorizontalOffset, VerticalOffset uint32
}

type Auxc struct {
	AuxType string
	Subtype []byte
}

type Clap struct {
	CleanApertureWidthN, CleanApertureWidthD   int32
	CleanApertureHeightN, CleanApertureHeightD int32
	HorizOffN, HorizOffD                       int32
	VertOffN, VertOffD                         int32
}

type Irot struct {
	// Angle is a clockwise rotation in units of 90 degrees: 0, 1, 2, or 3.
	Angle uint8
}

type Imir struct {
	// Axis: 0 = vertical axis (left-right flip), 1 = horizontal axis (top-bottom flip).
	Axis uint8
}

type Raw struct {
	FourCC string
	Bytes  []byte
}

// Property is a descriptive or transformative item property (spec.md §3).
type Property struct {
	id            PropertyIndex
	Kind          PropertyKind
	Ispe          Ispe
	Pasp          Pasp
	Colr          Colr
	Pixi          Pixi
	Rloc          Rloc
	Auxc          Auxc
	Clap          Clap
	Irot          Irot
	Imir          Imir
	Raw           Raw
	associatedTo  map[*Item]bool
}

// ID returns the property's index, InvalidPropertyIndex before the next save.
func (p *Property) ID() PropertyIndex { return p.id }

func (p *Property) useCount() int { return len(p.associatedTo) }

func newProperty(kind PropertyKind) *Property {
	return &Property{Kind: kind, associatedTo: make(map[*Item]bool)}
}

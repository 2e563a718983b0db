package model

// HandlerType is a track's media handler (spec.md §3 "Track").
type HandlerType int

const (
	HandlerPict HandlerType = iota
	HandlerVide
	HandlerSoun
)

func (h HandlerType) FourCC() string {
	switch h {
	case HandlerPict:
		return "pict"
	case HandlerVide:
		return "vide"
	case HandlerSoun:
		return "soun"
	default:
		return ""
	}
}

// TrackReferenceKind enumerates the typed track-reference relations a
// track may hold toward other tracks (spec.md §6.1 tref entries).
type TrackReferenceKind int

const (
	RefThumbnail TrackReferenceKind = iota
	RefAuxiliary
	RefDescription
)

func (k TrackReferenceKind) FourCC() string {
	switch k {
	case RefThumbnail:
		return "thmb"
	case RefAuxiliary:
		return "auxl"
	case RefDescription:
		return "cdsc"
	default:
		return ""
	}
}

// EditUnitKind distinguishes the three edit-list entry semantics consumed
// by sample-table synthesis (spec.md §4.6 edit-list unroll).
type EditUnitKind int

const (
	EditEmpty EditUnitKind = iota
	EditDwell
	EditShift
)

// EditUnit is one edit-list entry before unrolling into elst fields.
type EditUnit struct {
	Kind           EditUnitKind
	TimeSpanMs     int64
	MediaTimeMs    int64
	NumberOfRepeats int32 // -1 = infinite loop
}

// IdentityMatrix is the default 3x3 track transform matrix in 16.16/2.30
// fixed point, per spec.md §3 "Track".
var IdentityMatrix = [9]int32{0x10000, 0, 0, 0, 0x10000, 0, 0, 0, 0x40000000}

// Track is one moov/trak entry: a sequence of samples sharing a handler
// type, timescale, and transform (spec.md §3 "Track").
type Track struct {
	id        SequenceID
	Handler   HandlerType
	Timescale uint32
	// AlternateGroup is non-zero once the track has been assigned to an
	// AlternativeTrackGroup, per spec.md §3 invariant 7.
	AlternateGroup uint16
	Matrix         [9]int32
	Width, Height  uint32 // 16.16 fixed-point display size, tkhd

	EditList []EditUnit
	samples  []*Sample

	references map[TrackReferenceKind][]*Track
	altGroup   *AlternativeTrackGroup
}

func (t *Track) ID() SequenceID { return t.id }

func (t *Track) Samples() []*Sample { return t.samples }

func (t *Track) References(kind TrackReferenceKind) []*Track { return t.references[kind] }

// AddReference records a tref relation from t to other. Per spec.md
// invariant 7, a thmb reference auto-assigns t to other's alternative-track
// group if other already belongs to one (original_source/srcs/api-cpp/
// AlternativeTrackGroup.cpp maintains this eagerly rather than only at save
// time, see SPEC_FULL.md §D.4).
func (t *Track) AddReference(kind TrackReferenceKind, other *Track) error {
	t.references[kind] = append(t.references[kind], other)
	if kind == RefThumbnail && other.altGroup != nil {
		return other.altGroup.Add(t)
	}
	return nil
}

func newTrack(handler HandlerType) *Track {
	return &Track{
		Handler:    handler,
		Matrix:     IdentityMatrix,
		references: make(map[TrackReferenceKind][]*Track),
	}
}

// SamplesOfType is left unimplemented per spec.md §9's open question on
// getSamples(TrackSampleType, index): the source stubs it to null rather
// than inventing semantics, so this returns Todo rather than a guessed
// filter.
func (t *Track) SamplesOfType(sampleType SampleType, index int) (*Sample, error) {
	return nil, NewError(Todo, "getSamples(%v, %d) is not implemented upstream", sampleType, index)
}

package model

// SampleType is the output-reference classification of a sample within its
// track, used by the reference-picture grouping logic and the (currently
// unimplemented) SamplesOfType query (spec.md §3 "Sample").
type SampleType int

const (
	OutputReference SampleType = iota
	OutputNonReference
	NonOutputReference
)

func (t SampleType) String() string {
	switch t {
	case OutputReference:
		return "OutputReference"
	case OutputNonReference:
		return "OutputNonReference"
	case NonOutputReference:
		return "NonOutputReference"
	default:
		return "SampleType(?)"
	}
}

// Sample is one decodable unit (frame) within a track (spec.md §3 "Sample").
type Sample struct {
	id               SampleID
	track            *Track
	FourCC           string
	Duration         uint32
	CompositionOffset int32
	Type             SampleType
	Sync             bool
	Bytes            []byte
	DecoderConfig    *DecoderConfig
	Metadata         []*Item

	decodeDeps []*Sample
}

func (s *Sample) ID() SampleID { return s.id }

func (s *Sample) Track() *Track { return s.track }

func (s *Sample) DecodeDependencies() []*Sample { return s.decodeDeps }

// AddDecodeDependency appends other to s's decode-dependency list,
// rejecting self-references and de-duplicating (spec.md §4.5
// Sample::add_decode_dependency), and enforcing invariant 8 (a sample may
// only depend on earlier samples in decoding order).
func (s *Sample) AddDecodeDependency(other *Sample) error {
	if other == s {
		return NewError(InvalidFunctionParameter, "sample cannot depend on itself")
	}
	if s.track == other.track {
		selfIdx, otherIdx := -1, -1
		for i, sm := range s.track.samples {
			if sm == s {
				selfIdx = i
			}
			if sm == other {
				otherIdx = i
			}
		}
		if selfIdx >= 0 && otherIdx >= 0 && otherIdx >= selfIdx {
			return NewError(InvalidFunctionParameter, "decode dependency must precede sample in decoding order")
		}
	}
	for _, d := range s.decodeDeps {
		if d == other {
			return nil
		}
	}
	s.decodeDeps = append(s.decodeDeps, other)
	return nil
}

func newSample(fourCC string, track *Track) *Sample {
	return &Sample{FourCC: fourCC, track: track}
}

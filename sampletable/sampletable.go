// Package sampletable synthesizes the ISOBMFF sample-table boxes (stts,
// ctts, cslg, stss, sbgp/sgpd) and the edit-list-aware presentation
// timeline from a track's decode/display order and edit list, per
// spec.md §4.6. It holds no box-codec or object-model dependencies: every
// function here is a pure transform over plain slices so it can be unit
// tested without constructing a full model.File.
package sampletable

// TimelineOptions exposes the two behaviors spec.md §9 leaves as open
// questions rather than guessing intent:
//
//   - CompositionEndTime lets a caller supply cslg.compositionEndTime;
//     the upstream writer always emits 0 with no explanation, so the zero
//     value here reproduces that behavior and a caller opts into something
//     else explicitly.
//   - MultiplyDecodeStartTime selects between the literal `decode_time *=
//     (clock_ticks/display_rate) + decode_start_time` expression found
//     upstream (true) and the evidently-intended `decode_time = order *
//     (clock_ticks/display_rate) + decode_start_time` (false, the default).
type TimelineOptions struct {
	CompositionEndTime       int64
	MultiplyDecodeStartTime  bool
}

// Timeline is the per-sample time computation described in spec.md §4.6.
type Timeline struct {
	DecodeTime     []int64
	DisplayTime    []int64
	DisplayOffset  []int64
}

// ComputeTimeline derives decode_time, display_time, and display_offset
// for every sample from its position in decode and display order.
func ComputeTimeline(decodeOrder, displayOrder []uint32, displayRate uint32, clockTicks uint32, decodeStartTicks, displayStartTicks int64, opts TimelineOptions) Timeline {
	n := len(decodeOrder)
	tl := Timeline{
		DecodeTime:    make([]int64, n),
		DisplayTime:   make([]int64, n),
		DisplayOffset: make([]int64, n),
	}
	tickStep := int64(clockTicks) / int64(displayRate)
	for i := 0; i < n; i++ {
		decodeTime := int64(decodeOrder[i]) * tickStep
		if opts.MultiplyDecodeStartTime {
			decodeTime = int64(decodeOrder[i]) * (tickStep + decodeStartTicks)
		} else {
			decodeTime += decodeStartTicks
		}
		displayTime := int64(displayOrder[i])*tickStep + displayStartTicks
		tl.DecodeTime[i] = decodeTime
		tl.DisplayTime[i] = displayTime
		tl.DisplayOffset[i] = displayTime - decodeTime
	}
	return tl
}

// CttsRequired reports whether any display offset is non-zero
// (spec.md §4.6, §8 testable property 7).
func CttsRequired(displayOffset []int64) bool {
	for _, o := range displayOffset {
		if o != 0 {
			return true
		}
	}
	return false
}

// CslgRequired reports whether any display offset is negative, which
// forces ctts version 1 and the emission of cslg (spec.md §4.6, §8
// testable property 7).
func CslgRequired(displayOffset []int64) bool {
	for _, o := range displayOffset {
		if o < 0 {
			return true
		}
	}
	return false
}

// CttsEntry is one run-length-coded composition-offset entry.
type CttsEntry struct {
	SampleCount  uint32
	SampleOffset int64
}

// BuildCtts run-length encodes displayOffset into ctts entries by
// coalescing consecutive equal values (spec.md §4.6).
func BuildCtts(displayOffset []int64) []CttsEntry {
	var entries []CttsEntry
	for _, v := range displayOffset {
		if len(entries) > 0 && entries[len(entries)-1].SampleOffset == v {
			entries[len(entries)-1].SampleCount++
			continue
		}
		entries = append(entries, CttsEntry{SampleCount: 1, SampleOffset: v})
	}
	return entries
}

// Cslg holds the fields of the cslg box, populated only when CslgRequired.
type Cslg struct {
	CompositionToDtsShift        int64
	LeastDecodeToDisplayDelta    int64
	GreatestDecodeToDisplayDelta int64
	CompositionStartTime         int64
	CompositionEndTime           int64
}

// BuildCslg computes the cslg fields from the per-sample display offsets
// and the track's display-start tick anchor, per spec.md §4.6. The
// compositionEndTime field is left at opts.CompositionEndTime, the
// documented contract hole (spec.md §9).
func BuildCslg(displayOffset []int64, displayStartTicks int64, opts TimelineOptions) Cslg {
	least, greatest := displayOffset[0], displayOffset[0]
	for _, v := range displayOffset[1:] {
		if v < least {
			least = v
		}
		if v > greatest {
			greatest = v
		}
	}
	return Cslg{
		CompositionToDtsShift:        least,
		LeastDecodeToDisplayDelta:    least,
		GreatestDecodeToDisplayDelta: greatest,
		CompositionStartTime:         displayStartTicks,
		CompositionEndTime:           opts.CompositionEndTime,
	}
}

// SttsEntry is one time-to-sample run.
type SttsEntry struct {
	SampleCount uint32
	SampleDelta uint32
}

// BuildStts emits a single constant-rate run, per spec.md §4.6's
// assumption that the writer only supports a constant display rate.
func BuildStts(sampleCount int, displayRate, clockTicks uint32) []SttsEntry {
	return []SttsEntry{{
		SampleCount: uint32(sampleCount),
		SampleDelta: clockTicks / displayRate,
	}}
}

// BuildStss returns the one-based sample indices where isSync is true.
func BuildStss(isSync []bool) []uint32 {
	var out []uint32
	for i, sync := range isSync {
		if sync {
			out = append(out, uint32(i+1))
		}
	}
	return out
}

// SampleGroupEntry is one unique (tag, refIndices) sgpd entry.
type SampleGroupEntry struct {
	Tag         uint32
	RefIndices  []uint32
}

// ReferencePictureGrouping is the synthesized refs sbgp/sgpd pair.
type ReferencePictureGrouping struct {
	Entries       []SampleGroupEntry
	SamplePerEntry []int // per-sample index into Entries
}

// BuildReferencePictureGrouping tags every sample that is itself referenced
// by another sample with a non-zero id (index+1) and every unreferenced
// sample with 0, then groups samples sharing the same (tag, refs) tuple
// into sgpd entries with an sbgp run-length mapping (spec.md §4.6 "refs").
func BuildReferencePictureGrouping(refPicIndices [][]uint32) ReferencePictureGrouping {
	n := len(refPicIndices)
	isReferenced := make([]bool, n)
	for _, refs := range refPicIndices {
		for _, r := range refs {
			if int(r) < n {
				isReferenced[r] = true
			}
		}
	}

	tags := make([]uint32, n)
	for i := range tags {
		if isReferenced[i] {
			tags[i] = uint32(i) + 1
		}
	}

	var grouping ReferencePictureGrouping
	grouping.SamplePerEntry = make([]int, n)

	type key struct {
		tag  uint32
		refs string
	}
	seen := make(map[key]int)
	for i := 0; i < n; i++ {
		refs := make([]uint32, len(refPicIndices[i]))
		for j, r := range refPicIndices[i] {
			refs[j] = r + 1
		}
		k := key{tag: tags[i], refs: encodeRefKey(refs)}
		idx, ok := seen[k]
		if !ok {
			idx = len(grouping.Entries)
			grouping.Entries = append(grouping.Entries, SampleGroupEntry{Tag: tags[i], RefIndices: refs})
			seen[k] = idx
		}
		grouping.SamplePerEntry[i] = idx
	}
	return grouping
}

func encodeRefKey(refs []uint32) string {
	b := make([]byte, 0, len(refs)*4)
	for _, r := range refs {
		b = append(b, byte(r>>24), byte(r>>16), byte(r>>8), byte(r))
	}
	return string(b)
}

// SbgpEntry is one run-length-coded sbgp (sample_count, group_description_index) pair.
type SbgpEntry struct {
	SampleCount           uint32
	GroupDescriptionIndex uint32 // 1-based; 0 means "not in this grouping type"
}

// BuildSbgp run-length encodes a per-sample entry-index sequence into sbgp
// runs, coalescing consecutive equal indices.
func BuildSbgp(samplePerEntry []int) []SbgpEntry {
	var out []SbgpEntry
	for _, idx := range samplePerEntry {
		groupIdx := uint32(idx) + 1
		if len(out) > 0 && out[len(out)-1].GroupDescriptionIndex == groupIdx {
			out[len(out)-1].SampleCount++
			continue
		}
		out = append(out, SbgpEntry{SampleCount: 1, GroupDescriptionIndex: groupIdx})
	}
	return out
}

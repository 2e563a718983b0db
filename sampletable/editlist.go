package sampletable

// EditUnitKind mirrors model.EditUnitKind without depending on package
// model, keeping sampletable free of object-model dependencies.
type EditUnitKind int

const (
	EditEmpty EditUnitKind = iota
	EditDwell
	EditShift
)

// EditUnit is one edit-list entry as fed to DecodePts/TrackDuration.
type EditUnit struct {
	Kind            EditUnitKind
	TimeSpanMs      int64
	MediaTimeMs     int64
	NumberOfRepeats int32 // -1 = infinite loop
}

// ElstEntry is one elst box entry: segment_duration and media_time in
// track timescale units, plus the playback rate (0 = hold, 1 = normal).
type ElstEntry struct {
	SegmentDuration int64
	MediaTime       int64 // -1 for an empty edit
	RateInteger     int16
}

// BuildElst converts edit units into elst entries per spec.md §4.6's
// semantics for empty/dwell/shift units.
func BuildElst(units []EditUnit, clockTicks uint32) []ElstEntry {
	entries := make([]ElstEntry, 0, len(units))
	for _, u := range units {
		duration := u.TimeSpanMs * int64(clockTicks) / 1000
		switch u.Kind {
		case EditEmpty:
			entries = append(entries, ElstEntry{SegmentDuration: duration, MediaTime: -1, RateInteger: 1})
		case EditDwell:
			entries = append(entries, ElstEntry{
				SegmentDuration: duration,
				MediaTime:       u.MediaTimeMs * int64(clockTicks) / 1000,
				RateInteger:     0,
			})
		case EditShift:
			entries = append(entries, ElstEntry{
				SegmentDuration: duration,
				MediaTime:       u.MediaTimeMs * int64(clockTicks) / 1000,
				RateInteger:     1,
			})
		}
	}
	return entries
}

// InfiniteDuration is the tkhd/mvhd duration sentinel for a looping
// (numb_rept == -1) edit list (spec.md §4.6, §8 testable property 8).
const InfiniteDuration = 0xFFFFFFFF

// TrackDuration computes the track's total duration from its edit units,
// per spec.md §4.6: an infinite-loop unit (NumberOfRepeats == -1) yields
// the 0xFFFFFFFF sentinel; otherwise duration is the unravelled span
// multiplied by (repeats + 1).
func TrackDuration(units []EditUnit) uint32 {
	var span int64
	for _, u := range units {
		if u.NumberOfRepeats == -1 {
			return InfiniteDuration
		}
		span += u.TimeSpanMs * int64(u.NumberOfRepeats+1)
	}
	return uint32(span)
}

// DecodePts combines stts deltas, ctts offsets, and an optional edit list
// into the actual presentation-time sequence a player would derive, per
// spec.md §4.6 "Edit-list unroll (DecodePts)". sttsDeltas gives each
// sample's decode-time delta (uniform for this writer, but accepted as a
// slice to stay correct if a future writer varies it); cttsOffsets gives
// each sample's composition offset (zero-filled when ctts is absent).
func DecodePts(sttsDeltas []uint32, cttsOffsets []int64, units []EditUnit, clockTicks uint32) []int64 {
	decodeTime := make([]int64, len(sttsDeltas))
	var acc int64
	for i, d := range sttsDeltas {
		decodeTime[i] = acc
		acc += int64(d)
	}

	pts := make([]int64, len(decodeTime))
	for i, dt := range decodeTime {
		offset := int64(0)
		if i < len(cttsOffsets) {
			offset = cttsOffsets[i]
		}
		pts[i] = dt + offset
	}

	if len(units) == 0 {
		return pts
	}

	// Map each sample's media-time pts through the edit list into
	// presentation time: an empty edit shifts every later sample forward
	// by its segment duration; a dwell/shift edit re-anchors subsequent
	// media times relative to its media_time origin.
	out := make([]int64, len(pts))
	elst := BuildElst(units, clockTicks)
	var presentationCursor int64
	mediaCursor := 0
	for _, e := range elst {
		switch {
		case e.MediaTime == -1: // empty
			presentationCursor += e.SegmentDuration
		case e.RateInteger == 0: // dwell
			if mediaCursor < len(out) {
				out[mediaCursor] = presentationCursor
				mediaCursor++
			}
			presentationCursor += e.SegmentDuration
		default: // shift
			for mediaCursor < len(pts) && pts[mediaCursor]-e.MediaTime < e.SegmentDuration {
				out[mediaCursor] = presentationCursor + (pts[mediaCursor] - e.MediaTime)
				mediaCursor++
			}
			presentationCursor += e.SegmentDuration
		}
	}
	for ; mediaCursor < len(pts); mediaCursor++ {
		out[mediaCursor] = presentationCursor + pts[mediaCursor]
	}
	return out
}

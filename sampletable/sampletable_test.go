package sampletable

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

// TestComputeTimelineScenarioS4 reproduces spec.md's S4 scenario: ten
// samples, display_rate=30, clock_ticks=90000, decode_order=[0..9],
// display_order=[0,2,1,4,3,6,5,8,7,9].
func TestComputeTimelineScenarioS4(t *testing.T) {
	c := qt.New(t)

	decodeOrder := []uint32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	displayOrder := []uint32{0, 2, 1, 4, 3, 6, 5, 8, 7, 9}

	tl := ComputeTimeline(decodeOrder, displayOrder, 30, 90000, 0, 0, TimelineOptions{})

	tick := int64(90000 / 30)
	want := []int64{0, tick, -tick, tick, -tick, tick, -tick, tick, -tick, 0}
	c.Assert(tl.DisplayOffset, qt.DeepEquals, want)

	c.Assert(CttsRequired(tl.DisplayOffset), qt.IsTrue)
	c.Assert(CslgRequired(tl.DisplayOffset), qt.IsTrue)

	cslg := BuildCslg(tl.DisplayOffset, 0, TimelineOptions{})
	c.Assert(cslg.LeastDecodeToDisplayDelta, qt.Equals, -tick)
	c.Assert(cslg.GreatestDecodeToDisplayDelta, qt.Equals, tick)
}

func TestCttsCslgNotRequiredWhenOffsetsZero(t *testing.T) {
	c := qt.New(t)

	offsets := []int64{0, 0, 0, 0}
	c.Assert(!CttsRequired(offsets), qt.IsTrue)
	c.Assert(!CslgRequired(offsets), qt.IsTrue)
}

func TestBuildCttsCoalescesRuns(t *testing.T) {
	c := qt.New(t)

	offsets := []int64{5, 5, 5, -2, -2, 0}
	entries := BuildCtts(offsets)
	want := []CttsEntry{
		{SampleCount: 3, SampleOffset: 5},
		{SampleCount: 2, SampleOffset: -2},
		{SampleCount: 1, SampleOffset: 0},
	}
	c.Assert(entries, qt.DeepEquals, want)
}

func TestBuildSttsSingleRun(t *testing.T) {
	c := qt.New(t)

	entries := BuildStts(10, 30, 90000)
	c.Assert(entries, qt.DeepEquals, []SttsEntry{{SampleCount: 10, SampleDelta: 3000}})
}

func TestBuildStssOneBased(t *testing.T) {
	c := qt.New(t)

	isSync := []bool{true, false, false, true, false}
	got := BuildStss(isSync)
	c.Assert(got, qt.DeepEquals, []uint32{1, 4})
}

func TestBuildReferencePictureGrouping(t *testing.T) {
	c := qt.New(t)

	// sample 0 is referenced by sample 2; sample 1 is unreferenced.
	refPicIndices := [][]uint32{
		nil,
		nil,
		{0},
	}
	g := BuildReferencePictureGrouping(refPicIndices)

	c.Assert(g.Entries[g.SamplePerEntry[0]].Tag, qt.Equals, uint32(1), qt.Commentf("sample 0 is referenced"))
	c.Assert(g.Entries[g.SamplePerEntry[1]].Tag, qt.Equals, uint32(0), qt.Commentf("sample 1 is unreferenced"))
	c.Assert(g.Entries[g.SamplePerEntry[2]].RefIndices, qt.DeepEquals, []uint32{1})

	sbgp := BuildSbgp(g.SamplePerEntry)
	total := uint32(0)
	for _, e := range sbgp {
		total += e.SampleCount
	}
	c.Assert(total, qt.Equals, uint32(3))
}

// TestTrackDurationScenarioS5 reproduces spec.md's S5 scenario: one shift
// unit with time_span=1000ms, mdia_time=0, numb_rept=-1.
func TestTrackDurationScenarioS5(t *testing.T) {
	c := qt.New(t)

	units := []EditUnit{{Kind: EditShift, TimeSpanMs: 1000, MediaTimeMs: 0, NumberOfRepeats: -1}}
	c.Assert(TrackDuration(units), qt.Equals, uint32(InfiniteDuration))
}

func TestTrackDurationFiniteRepeats(t *testing.T) {
	c := qt.New(t)

	units := []EditUnit{{Kind: EditShift, TimeSpanMs: 1000, MediaTimeMs: 0, NumberOfRepeats: 2}}
	c.Assert(TrackDuration(units), qt.Equals, uint32(3000))
}

func TestBuildElstShiftUnit(t *testing.T) {
	c := qt.New(t)

	units := []EditUnit{{Kind: EditShift, TimeSpanMs: 1000, MediaTimeMs: 0, NumberOfRepeats: -1}}
	entries := BuildElst(units, 90000)
	c.Assert(entries, qt.DeepEquals, []ElstEntry{{SegmentDuration: 90000, MediaTime: 0, RateInteger: 1}})
}

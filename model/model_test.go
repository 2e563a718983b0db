package model

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestAssociatePropertyOrdering(t *testing.T) {
	c := qt.New(t)

	f := NewFile()
	it := f.AddCodedImage(CodedHEVC)

	irot := f.AddProperty(PropIrot)
	ispe := f.AddProperty(PropIspe)

	c.Assert(it.AssociateProperty(irot, false), qt.IsNil)
	c.Assert(it.AssociateProperty(ispe, true), qt.IsNil)

	props := it.Properties()
	c.Assert(props, qt.HasLen, 2)
	c.Assert(props[0].Property.Kind, qt.Equals, PropIspe, qt.Commentf("descriptive before transformative"))
	c.Assert(props[1].Property.Kind, qt.Equals, PropIrot)
}

func TestAssociatePropertySingleInstanceRejected(t *testing.T) {
	c := qt.New(t)

	f := NewFile()
	it := f.AddCodedImage(CodedHEVC)

	pasp1 := f.AddProperty(PropPasp)
	pasp2 := f.AddProperty(PropPasp)

	c.Assert(it.AssociateProperty(pasp1, false), qt.IsNil)
	c.Assert(it.AssociateProperty(pasp2, false), qt.IsNotNil)
	c.Assert(it.Properties(), qt.HasLen, 1, qt.Commentf("rejected association must not mutate item"))
}

func TestRemovePropertyIsIdempotent(t *testing.T) {
	c := qt.New(t)

	f := NewFile()
	it := f.AddCodedImage(CodedHEVC)
	p := f.AddProperty(PropPixi)

	it.RemoveProperty(p) // absent; must not panic
	c.Assert(it.AssociateProperty(p, false), qt.IsNil)
	it.RemoveProperty(p)
	it.RemoveProperty(p)
	c.Assert(it.Properties(), qt.HasLen, 0)
	c.Assert(p.useCount(), qt.Equals, 0)
}

func TestThumbnailLinkSymmetryAndRemoval(t *testing.T) {
	c := qt.New(t)

	f := NewFile()
	master := f.AddCodedImage(CodedHEVC)
	thumb := f.AddCodedImage(CodedHEVC)

	f.LinkThumbnail(master, thumb)
	c.Assert(master.ImageItem.Thumbnails(), qt.HasLen, 1)
	c.Assert(thumb.IsThumbnailTo(master), qt.IsTrue)

	f.RemoveItem(master)
	c.Assert(!thumb.IsThumbnailTo(master), qt.IsTrue)
}

func TestGridResizePreservesOverlap(t *testing.T) {
	c := qt.New(t)

	f := NewFile()
	grid := f.AddDerivedImage(DerivedGrid)
	grid.Grid.Resize(2, 2)

	src := f.AddCodedImage(CodedHEVC)
	c.Assert(grid.Grid.SetImage(0, 0, src), qt.IsNil)

	grid.Grid.Resize(3, 3)
	got, err := grid.Grid.GetImage(0, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, src, qt.Commentf("resize lost the overlapping (0,0) cell"))
	c.Assert(grid.Grid.SourceCount(), qt.Equals, 1)
}

func TestGridRemoveImageNullsCell(t *testing.T) {
	c := qt.New(t)

	f := NewFile()
	grid := f.AddDerivedImage(DerivedGrid)
	grid.Grid.Resize(2, 2)
	src := f.AddCodedImage(CodedHEVC)
	grid.Grid.SetImage(0, 0, src)
	grid.Grid.SetImage(1, 1, src)

	grid.Grid.RemoveImage(src)

	c.Assert(grid.Grid.SourceCount(), qt.Equals, 0)
}

func TestOverlayRemoveByValueRemovesAllMatches(t *testing.T) {
	c := qt.New(t)

	f := NewFile()
	overlay := f.AddDerivedImage(DerivedOverlay)
	a := f.AddCodedImage(CodedHEVC)
	b := f.AddCodedImage(CodedHEVC)

	overlay.Overlay.AddImage(a, Offset{X: 0, Y: 0})
	overlay.Overlay.AddImage(b, Offset{X: 10, Y: 10})
	overlay.Overlay.AddImage(a, Offset{X: 20, Y: 20})

	overlay.Overlay.RemoveImage(-1, a)

	c.Assert(overlay.Overlay.Sources(), qt.HasLen, 1)
	c.Assert(overlay.Overlay.Sources()[0], qt.Equals, b)
	c.Assert(overlay.Overlay.Offsets(), qt.HasLen, 1)
}

func TestAddDecodeDependencyRejectsSelfAndLaterSample(t *testing.T) {
	c := qt.New(t)

	f := NewFile()
	track := f.AddTrack(HandlerVide)
	s1 := f.AddSample(track, "hvc1")
	s2 := f.AddSample(track, "hvc1")

	c.Assert(s1.AddDecodeDependency(s1), qt.IsNotNil, qt.Commentf("self-dependency"))
	c.Assert(s1.AddDecodeDependency(s2), qt.IsNotNil, qt.Commentf("dependency on later sample"))
	c.Assert(s2.AddDecodeDependency(s1), qt.IsNil, qt.Commentf("dependency on earlier sample"))
	c.Assert(s2.AddDecodeDependency(s1), qt.IsNil, qt.Commentf("duplicate dependency should de-duplicate, not error"))
	c.Assert(s2.DecodeDependencies(), qt.HasLen, 1)
}

func TestEquivalenceGroupAddSampleIsIdempotent(t *testing.T) {
	c := qt.New(t)

	f := NewFile()
	track := f.AddTrack(HandlerVide)
	s := f.AddSample(track, "hvc1")
	g := f.AddGroup("eqiv")

	c.Assert(g.AddSample(s, 5, 1<<8), qt.IsNil)
	c.Assert(g.AddSample(s, 99, 1<<9), qt.IsNil, qt.Commentf("repeat"))
	c.Assert(g.EquivalenceEntries(), qt.HasLen, 1)
	c.Assert(g.EquivalenceEntries()[0].TimeOffset, qt.Equals, int16(5), qt.Commentf("first call wins, no overwrite"))
}

func TestAlternativeTrackGroupMembershipExclusive(t *testing.T) {
	c := qt.New(t)

	f := NewFile()
	t1 := f.AddTrack(HandlerVide)
	t2 := f.AddTrack(HandlerVide)

	g1 := f.NewAlternativeTrackGroup()
	g2 := f.NewAlternativeTrackGroup()

	c.Assert(g1.Add(t1), qt.IsNil)
	c.Assert(g1.Add(t1), qt.IsNil, qt.Commentf("repeat add should be idempotent"))
	c.Assert(g2.Add(t1), qt.IsNotNil, qt.Commentf("t1 already belongs to g1"))
	c.Assert(g1.Add(t2), qt.IsNil)
	c.Assert(g1.Tracks(), qt.HasLen, 2)
}

func TestSetPrimaryItemRejectsHidden(t *testing.T) {
	c := qt.New(t)

	f := NewFile()
	it := f.AddCodedImage(CodedHEVC)
	it.ImageItem.Hidden = true

	c.Assert(f.SetPrimaryItem(it), qt.IsNotNil)

	it.ImageItem.Hidden = false
	c.Assert(f.SetPrimaryItem(it), qt.IsNil)
	got, err := f.PrimaryItem()
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, it)
}

func TestFileDecoderConfigsAndAlternativeTrackGroups(t *testing.T) {
	c := qt.New(t)

	f := NewFile()
	f.AddDecoderConfig("hvc1")
	f.AddDecoderConfig("avc1")
	c.Assert(f.DecoderConfigs(), qt.HasLen, 2)

	g1 := f.NewAlternativeTrackGroup()
	g2 := f.NewAlternativeTrackGroup()
	c.Assert(f.AlternativeTrackGroups(), qt.DeepEquals, []*AlternativeTrackGroup{g1, g2})
}

func TestRenumberAssignsDenseIds(t *testing.T) {
	c := qt.New(t)

	f := NewFile()
	a := f.AddCodedImage(CodedHEVC)
	b := f.AddCodedImage(CodedAVC)
	f.Renumber()

	c.Assert(a.ID(), qt.Equals, ItemID(1))
	c.Assert(b.ID(), qt.Equals, ItemID(2))
}

// minimalTIFF is a single-entry IFD0 (Orientation=1, normal) little-endian
// TIFF, the smallest structure goexif's tiff decoder accepts.
var minimalTIFF = []byte{
	'I', 'I', 0x2A, 0x00, 0x08, 0x00, 0x00, 0x00, // header, IFD0 at offset 8
	0x01, 0x00, // 1 entry
	0x12, 0x01, // tag 0x0112 Orientation
	0x03, 0x00, // type SHORT
	0x01, 0x00, 0x00, 0x00, // count 1
	0x01, 0x00, 0x00, 0x00, // value 1, padded
	0x00, 0x00, 0x00, 0x00, // no next IFD
}

func TestItemExifSummary(t *testing.T) {
	c := qt.New(t)

	f := NewFile()
	it := f.AddMetaItem(MetaExif)
	it.Payload = append([]byte{0x00, 0x00, 0x00, 0x00}, minimalTIFF...)

	summary, err := it.ExifSummary()
	c.Assert(err, qt.IsNil)
	c.Assert(summary.Orientation, qt.Equals, 1)
}

func TestItemExifSummaryRejectsShortPayload(t *testing.T) {
	c := qt.New(t)

	f := NewFile()
	it := f.AddMetaItem(MetaExif)
	it.Payload = []byte{0x00, 0x00}

	_, err := it.ExifSummary()
	c.Assert(err, qt.IsNotNil)
}

func TestNormalizeLegacyTextPassesThroughUTF8(t *testing.T) {
	c := qt.New(t)

	got, err := NormalizeLegacyText([]byte("hello"))
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, "hello")
}

func TestNormalizeLegacyTextDecodesLatin1(t *testing.T) {
	c := qt.New(t)

	// 0xE9 in ISO-8859-1 is U+00E9 (é); as a lone byte it is not valid UTF-8.
	got, err := NormalizeLegacyText([]byte{0xE9})
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, "é")
}

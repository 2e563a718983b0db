package heif_test

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	qt "github.com/frankban/quicktest"

	heif "github.com/tetsuo/heif"
	"github.com/tetsuo/heif/model"
)

func TestSaveLoadRoundTripSingleImage(t *testing.T) {
	c := qt.New(t)

	f := model.NewFile()
	it := f.AddCodedImage(model.CodedJPEG)
	it.ImageItem.Width = 640
	it.ImageItem.Height = 480
	it.EncodedData = []byte{0xff, 0xd8, 0xff, 0xd9}

	ispe := f.AddProperty(model.PropIspe)
	ispe.Ispe = model.Ispe{Width: 640, Height: 480}
	c.Assert(it.AssociateProperty(ispe, true), qt.IsNil)

	c.Assert(f.SetPrimaryItem(it), qt.IsNil)

	var buf bytes.Buffer
	c.Assert(heif.Save(f, &buf, heif.SaveOptions{}), qt.IsNil)

	got, err := heif.Load(buf.Bytes(), heif.LoadOptions{})
	c.Assert(err, qt.IsNil)

	c.Assert(got.Items(), qt.HasLen, 1)
	gotItem := got.Items()[0]
	c.Assert(gotItem.Kind, qt.Equals, model.ItemCodedImage)
	c.Assert(gotItem.CodedImageKind, qt.Equals, model.CodedJPEG)
	c.Assert(gotItem.EncodedData, qt.DeepEquals, it.EncodedData)
	c.Assert(gotItem.ImageItem.Width, qt.Equals, uint32(640))
	c.Assert(gotItem.ImageItem.Height, qt.Equals, uint32(480))

	props := gotItem.Properties()
	c.Assert(props, qt.HasLen, 1)
	c.Assert(props[0].Property.Kind, qt.Equals, model.PropIspe)
	if diff := cmp.Diff(model.Ispe{Width: 640, Height: 480}, props[0].Property.Ispe); diff != "" {
		t.Fatalf("Ispe mismatch (-want +got):\n%s", diff)
	}
	c.Assert(props[0].Essential, qt.IsTrue)

	primary, err := got.PrimaryItem()
	c.Assert(err, qt.IsNil)
	c.Assert(primary.ID(), qt.Equals, gotItem.ID())
}

func TestSaveLoadRoundTripThumbnailReference(t *testing.T) {
	c := qt.New(t)

	f := model.NewFile()
	master := f.AddCodedImage(model.CodedJPEG)
	master.EncodedData = []byte{0xff, 0xd8, 0xff, 0xd9}
	thumb := f.AddCodedImage(model.CodedJPEG)
	thumb.EncodedData = []byte{0xff, 0xd8, 0x00, 0xd9}
	thumb.ImageItem.Hidden = true

	f.LinkThumbnail(master, thumb)
	c.Assert(f.SetPrimaryItem(master), qt.IsNil)

	var buf bytes.Buffer
	c.Assert(heif.Save(f, &buf, heif.SaveOptions{}), qt.IsNil)

	got, err := heif.Load(buf.Bytes(), heif.LoadOptions{})
	c.Assert(err, qt.IsNil)
	c.Assert(got.Items(), qt.HasLen, 2)

	primary, err := got.PrimaryItem()
	c.Assert(err, qt.IsNil)
	thumbs := primary.ImageItem.Thumbnails()
	c.Assert(thumbs, qt.HasLen, 1)
	c.Assert(thumbs[0].EncodedData, qt.DeepEquals, thumb.EncodedData)
	c.Assert(thumbs[0].ImageItem.Hidden, qt.IsTrue)
}

func TestSaveLoadRoundTripGrid(t *testing.T) {
	c := qt.New(t)

	f := model.NewFile()

	tiles := make([]*model.Item, 4)
	for i := range tiles {
		tiles[i] = f.AddCodedImage(model.CodedJPEG)
		tiles[i].EncodedData = []byte{0xff, 0xd8, byte(i), 0xd9}
	}

	grid := f.AddDerivedImage(model.DerivedGrid)
	grid.Grid.Columns, grid.Grid.Rows = 2, 2
	grid.Grid.OutputWidth, grid.Grid.OutputHeight = 128, 128
	grid.Grid.Resize(2, 2)
	for row := uint32(0); row < 2; row++ {
		for col := uint32(0); col < 2; col++ {
			c.Assert(grid.Grid.SetImage(col, row, tiles[row*2+col]), qt.IsNil)
		}
	}
	c.Assert(f.SetPrimaryItem(grid), qt.IsNil)

	var buf bytes.Buffer
	c.Assert(heif.Save(f, &buf, heif.SaveOptions{}), qt.IsNil)

	got, err := heif.Load(buf.Bytes(), heif.LoadOptions{})
	c.Assert(err, qt.IsNil)

	primary, err := got.PrimaryItem()
	c.Assert(err, qt.IsNil)
	c.Assert(primary.Kind, qt.Equals, model.ItemDerivedImage)
	c.Assert(primary.DerivedImageKind, qt.Equals, model.DerivedGrid)
	c.Assert(primary.Grid.Columns, qt.Equals, uint32(2))
	c.Assert(primary.Grid.Rows, qt.Equals, uint32(2))
	c.Assert(primary.Grid.OutputWidth, qt.Equals, uint32(128))
	c.Assert(primary.Grid.OutputHeight, qt.Equals, uint32(128))
	for row := uint32(0); row < 2; row++ {
		for col := uint32(0); col < 2; col++ {
			cell, err := primary.Grid.GetImage(col, row)
			c.Assert(err, qt.IsNil)
			c.Assert(cell, qt.IsNotNil)
			c.Assert(cell.EncodedData, qt.DeepEquals, tiles[row*2+col].EncodedData)
		}
	}
}

func TestSaveLoadRoundTripEntityGroup(t *testing.T) {
	c := qt.New(t)

	f := model.NewFile()
	a := f.AddCodedImage(model.CodedJPEG)
	a.EncodedData = []byte{0xff, 0xd8, 0x01, 0xd9}
	b := f.AddCodedImage(model.CodedJPEG)
	b.EncodedData = []byte{0xff, 0xd8, 0x02, 0xd9}

	g := f.AddGroup("altr")
	g.AddMember(model.EntityMember{Item: a})
	g.AddMember(model.EntityMember{Item: b})

	c.Assert(f.SetPrimaryItem(a), qt.IsNil)

	var buf bytes.Buffer
	c.Assert(heif.Save(f, &buf, heif.SaveOptions{}), qt.IsNil)

	got, err := heif.Load(buf.Bytes(), heif.LoadOptions{})
	c.Assert(err, qt.IsNil)
	groups := got.Groups()
	c.Assert(groups, qt.HasLen, 1)
	c.Assert(groups[0].Type, qt.Equals, "altr")
	members := groups[0].Members()
	c.Assert(members, qt.HasLen, 2)
	for _, m := range members {
		c.Assert(m.Item, qt.IsNotNil)
	}
}

package model

// File is the top-level container owning every entity in the model
// (spec.md §3 "All entities are owned by the top-level File container").
// Ids are assigned only when Renumber is called, which the save path
// (package heif) runs immediately before serialization, per invariant 9.
type File struct {
	MajorBrand       string
	MinorVersion     uint32
	CompatibleBrands []string

	items          []*Item
	properties     []*Property
	decoderConfigs []*DecoderConfig
	tracks         []*Track
	samples        []*Sample
	groups         []*EntityGroup
	altGroups      []*AlternativeTrackGroup

	primaryItem *Item

	nextAltGroupID uint16
}

func NewFile() *File { return &File{nextAltGroupID: 1} }

func (f *File) Items() []*Item                                    { return f.items }
func (f *File) Properties() []*Property                           { return f.properties }
func (f *File) DecoderConfigs() []*DecoderConfig                  { return f.decoderConfigs }
func (f *File) Tracks() []*Track                                  { return f.tracks }
func (f *File) Samples() []*Sample                                { return f.samples }
func (f *File) Groups() []*EntityGroup                            { return f.groups }
func (f *File) AlternativeTrackGroups() []*AlternativeTrackGroup  { return f.altGroups }

// AddCodedImage creates and owns a new coded-image item.
func (f *File) AddCodedImage(kind CodedImageKind) *Item {
	it := newItem(ItemCodedImage, kind.FourCC())
	it.CodedImageKind = kind
	f.items = append(f.items, it)
	return it
}

// AddDerivedImage creates and owns a new derived-image item.
func (f *File) AddDerivedImage(kind DerivedImageKind) *Item {
	var fourCC string
	switch kind {
	case DerivedGrid:
		fourCC = "grid"
	case DerivedOverlay:
		fourCC = "iovl"
	case DerivedIdentity:
		fourCC = "iden"
	}
	it := newItem(ItemDerivedImage, fourCC)
	it.DerivedImageKind = kind
	switch kind {
	case DerivedGrid:
		it.Grid = newGrid()
	case DerivedOverlay:
		it.Overlay = newOverlay()
	}
	f.items = append(f.items, it)
	return it
}

// AddMetaItem creates and owns a new EXIF/MIME metadata item.
func (f *File) AddMetaItem(kind MetaItemKind) *Item {
	fourCC := "mime"
	if kind == MetaExif {
		fourCC = "Exif"
	}
	it := newItem(ItemMetaItem, fourCC)
	it.MetaItemKind = kind
	f.items = append(f.items, it)
	return it
}

// AddProperty creates and owns a new property of the given kind.
func (f *File) AddProperty(kind PropertyKind) *Property {
	p := newProperty(kind)
	f.properties = append(f.properties, p)
	return p
}

// AddDecoderConfig creates and owns a new decoder configuration.
func (f *File) AddDecoderConfig(fourCC string) *DecoderConfig {
	c := newDecoderConfig(fourCC)
	f.decoderConfigs = append(f.decoderConfigs, c)
	return c
}

// AddTrack creates and owns a new track.
func (f *File) AddTrack(handler HandlerType) *Track {
	t := newTrack(handler)
	f.tracks = append(f.tracks, t)
	return t
}

// AddSample creates and owns a new sample on track t, appending it to the
// track's ordered sample list.
func (f *File) AddSample(t *Track, fourCC string) *Sample {
	s := newSample(fourCC, t)
	t.samples = append(t.samples, s)
	f.samples = append(f.samples, s)
	return s
}

// AddGroup creates and owns a new entity group of the given grouping type.
func (f *File) AddGroup(groupType string) *EntityGroup {
	g := newEntityGroup(groupType)
	f.groups = append(f.groups, g)
	return g
}

// NewAlternativeTrackGroup allocates a fresh alternate_group id and its
// owning membership set.
func (f *File) NewAlternativeTrackGroup() *AlternativeTrackGroup {
	g := &AlternativeTrackGroup{id: f.nextAltGroupID}
	f.nextAltGroupID++
	f.altGroups = append(f.altGroups, g)
	return g
}

// SetPrimaryItem designates it as the file's primary (cover) item,
// enforcing spec.md §3 invariant 6: must be an image item and not hidden.
func (f *File) SetPrimaryItem(it *Item) error {
	if it.Kind != ItemCodedImage && it.Kind != ItemDerivedImage {
		return NewError(InvalidItemId, "primary item must be an image item")
	}
	if it.ImageItem.Hidden {
		return NewError(HiddenPrimaryItem, "primary item may not be hidden")
	}
	f.primaryItem = it
	return nil
}

func (f *File) PrimaryItem() (*Item, error) {
	if f.primaryItem == nil {
		return nil, NewError(PrimaryItemNotSet, "")
	}
	return f.primaryItem, nil
}

// LinkThumbnail records a thmb relationship: thumb is a thumbnail of
// master. Both the forward link (on master's ImageItem.thumbnails) and the
// reverse link (on thumb.thumbnailOf) are recorded so RemoveItem can sever
// both sides (spec.md §8 testable property 5). Per invariant 7, thumb is
// also auto-assigned to master's alternative-track group if master has an
// associated track in one — this only applies when tracks, not items, are
// involved, so for item-level thumbnails this step is a no-op.
func (f *File) LinkThumbnail(master, thumb *Item) {
	master.ImageItem.thumbnails = append(master.ImageItem.thumbnails, thumb)
	thumb.thumbnailOf = append(thumb.thumbnailOf, master)
}

func (f *File) LinkAuxiliary(master, aux *Item) {
	master.ImageItem.auxiliary = append(master.ImageItem.auxiliary, aux)
	aux.auxiliaryOf = append(aux.auxiliaryOf, master)
}

func (f *File) LinkMetadata(master, meta *Item) {
	master.ImageItem.metadata = append(master.ImageItem.metadata, meta)
	meta.metadataOf = append(meta.metadataOf, master)
}

// IsThumbnailTo reports whether thumb is linked as a thumbnail of master.
func (it *Item) IsThumbnailTo(master *Item) bool {
	for _, m := range it.thumbnailOf {
		if m == master {
			return true
		}
	}
	return false
}

// RemoveItem deletes it from the file, severing every outgoing reference
// (properties, thumbnail/auxiliary/metadata forward links) and every
// incoming back-link (from referrers that point at it, including derived
// images' grid cells, overlay sources and identity source), transactionally
// (spec.md §3 "Lifecycles"). Entity-group memberships naming it are left in
// place.
func (f *File) RemoveItem(it *Item) {
	for _, a := range append([]PropertyAssociation(nil), it.props...) {
		it.RemoveProperty(a.Property)
	}
	for _, master := range append([]*Item(nil), it.thumbnailOf...) {
		master.ImageItem.thumbnails = removeItem(master.ImageItem.thumbnails, it)
	}
	for _, master := range append([]*Item(nil), it.auxiliaryOf...) {
		master.ImageItem.auxiliary = removeItem(master.ImageItem.auxiliary, it)
	}
	for _, master := range append([]*Item(nil), it.metadataOf...) {
		master.ImageItem.metadata = removeItem(master.ImageItem.metadata, it)
	}
	for _, thumb := range append([]*Item(nil), it.ImageItem.thumbnails...) {
		thumb.thumbnailOf = removeItem(thumb.thumbnailOf, it)
	}
	for _, aux := range append([]*Item(nil), it.ImageItem.auxiliary...) {
		aux.auxiliaryOf = removeItem(aux.auxiliaryOf, it)
	}
	for _, meta := range append([]*Item(nil), it.ImageItem.metadata...) {
		meta.metadataOf = removeItem(meta.metadataOf, it)
	}
	for _, other := range f.items {
		if other.Grid != nil {
			other.Grid.RemoveImage(it)
		}
		if other.Overlay != nil {
			other.Overlay.RemoveImage(-1, it)
		}
		if other.IdentitySource == it {
			other.IdentitySource = nil
		}
	}
	if f.primaryItem == it {
		f.primaryItem = nil
	}
	f.items = removeItem(f.items, it)
}

func removeItem(list []*Item, it *Item) []*Item {
	kept := list[:0]
	for _, x := range list {
		if x != it {
			kept = append(kept, x)
		}
	}
	return kept
}

// Renumber assigns fresh, dense ids to every owned entity in creation
// order, invalidating any ids observed by the host before this call, per
// spec.md §3 invariant 9 and §5 ordering guarantees.
func (f *File) Renumber() {
	for i, it := range f.items {
		it.id = ItemID(i + 1)
	}
	for i, p := range f.properties {
		p.id = PropertyIndex(i + 1)
	}
	for i, c := range f.decoderConfigs {
		c.id = DecoderConfigID(i + 1)
	}
	for i, t := range f.tracks {
		t.id = SequenceID(i + 1)
	}
	for i, s := range f.samples {
		s.id = SampleID(i + 1)
	}
	for i, g := range f.groups {
		g.id = GroupID(i + 1)
	}
}

package model

// ItemKind tags which variant an Item holds.
type ItemKind int

const (
	ItemCodedImage ItemKind = iota
	ItemDerivedImage
	ItemMetaItem
)

// CodedImageKind distinguishes the three coded-image payload formats HEIF
// carries; only JPEG may omit a DecoderConfig (spec.md §3 invariant 3, §9).
type CodedImageKind int

const (
	CodedHEVC CodedImageKind = iota
	CodedAVC
	CodedJPEG
)

func (k CodedImageKind) FourCC() string {
	switch k {
	case CodedHEVC:
		return "hvc1"
	case CodedAVC:
		return "avc1"
	case CodedJPEG:
		return "jpeg"
	default:
		return ""
	}
}

// DerivedImageKind distinguishes the three derived-image constructions.
type DerivedImageKind int

const (
	DerivedGrid DerivedImageKind = iota
	DerivedOverlay
	DerivedIdentity
)

// MetaItemKind distinguishes the EXIF/MIME metadata item payload formats.
type MetaItemKind int

const (
	MetaExif MetaItemKind = iota
	MetaMimeXMP
	MetaMimeMpeg7
	MetaMimeOther
)

// Offset is a 2D integer offset, used by overlay source placement.
type Offset struct{ X, Y int32 }

// PropertyAssociation is one entry of an item's ordered property list.
type PropertyAssociation struct {
	Property  *Property
	Essential bool
}

// Grid holds a Grid derived image's column/row layout and source cells,
// stored row-major; a nil cell is an unfilled slot (spec.md §4.5
// DerivedImage::Grid).
type Grid struct {
	Columns, Rows        uint32
	OutputWidth, OutputHeight uint32
	cells                []*Item
}

func newGrid() *Grid { return &Grid{} }

// Resize changes the grid dimensions, preserving any cell whose (col,row)
// still falls within the new bounds.
func (g *Grid) Resize(columns, rows uint32) {
	newCells := make([]*Item, columns*rows)
	for row := uint32(0); row < rows && row < g.Rows; row++ {
		for col := uint32(0); col < columns && col < g.Columns; col++ {
			newCells[row*columns+col] = g.cells[row*g.Columns+col]
		}
	}
	g.Columns, g.Rows = columns, rows
	g.cells = newCells
}

func (g *Grid) SetImage(col, row uint32, img *Item) error {
	if col >= g.Columns || row >= g.Rows {
		return NewError(IndexOutOfBounds, "grid cell (%d,%d) out of %dx%d", col, row, g.Columns, g.Rows)
	}
	g.cells[row*g.Columns+col] = img
	return nil
}

func (g *Grid) GetImage(col, row uint32) (*Item, error) {
	if col >= g.Columns || row >= g.Rows {
		return nil, NewError(IndexOutOfBounds, "grid cell (%d,%d) out of %dx%d", col, row, g.Columns, g.Rows)
	}
	return g.cells[row*g.Columns+col], nil
}

// RemoveImage clears every cell referencing img, leaving those cells null.
func (g *Grid) RemoveImage(img *Item) {
	for i, c := range g.cells {
		if c == img {
			g.cells[i] = nil
		}
	}
}

// SourceCount returns the number of non-null source cells.
func (g *Grid) SourceCount() int {
	n := 0
	for _, c := range g.cells {
		if c != nil {
			n++
		}
	}
	return n
}

// Overlay holds an Overlay derived image's source images, each paired with
// an offset, plus the canvas background color (spec.md §4.5
// DerivedImage::Overlay).
type Overlay struct {
	OutputWidth, OutputHeight uint32
	BackgroundR, BackgroundG, BackgroundB, BackgroundA uint16
	sources                                            []*Item
	offsets                                             []Offset
}

func newOverlay() *Overlay { return &Overlay{} }

func (o *Overlay) AddImage(img *Item, off Offset) {
	o.sources = append(o.sources, img)
	o.offsets = append(o.offsets, off)
}

func (o *Overlay) SetImage(idx int, img *Item, off Offset) error {
	if idx < 0 || idx >= len(o.sources) {
		return NewError(IndexOutOfBounds, "overlay index %d out of %d", idx, len(o.sources))
	}
	o.sources[idx] = img
	o.offsets[idx] = off
	return nil
}

// RemoveImage removes every entry at idx (if given) or every entry whose
// source equals img (if idx < 0), keeping sources and offsets in lockstep.
func (o *Overlay) RemoveImage(idx int, img *Item) {
	if idx >= 0 {
		if idx >= len(o.sources) {
			return
		}
		o.sources = append(o.sources[:idx], o.sources[idx+1:]...)
		o.offsets = append(o.offsets[:idx], o.offsets[idx+1:]...)
		return
	}
	kept := o.sources[:0]
	keptOff := o.offsets[:0]
	for i, s := range o.sources {
		if s != img {
			kept = append(kept, s)
			keptOff = append(keptOff, o.offsets[i])
		}
	}
	o.sources, o.offsets = kept, keptOff
}

func (o *Overlay) Sources() []*Item  { return o.sources }
func (o *Overlay) Offsets() []Offset { return o.offsets }

// ImageItem is the facet mixin shared by every item of image kind
// (CodedImage and DerivedImage), per spec.md §3 "ImageItem facet".
type ImageItem struct {
	Width, Height uint32
	Hidden        bool
	thumbnails    []*Item
	auxiliary     []*Item
	metadata      []*Item
}

func (ii *ImageItem) Thumbnails() []*Item { return ii.thumbnails }
func (ii *ImageItem) Auxiliary() []*Item  { return ii.auxiliary }
func (ii *ImageItem) Metadata() []*Item   { return ii.metadata }

// Item is a single metabox entry: a coded image, a derived image, or a
// metadata (EXIF/MIME) item (spec.md §3).
type Item struct {
	id              ItemID
	Kind            ItemKind
	FourCC          string
	Protected       bool
	// ProtectionInfo holds the item's ProtectionSchemeInfoBox (sinf) payload
	// verbatim when Protected is true; never parsed (spec.md §1 Non-goals on
	// DRM enforcement), only carried so it round-trips losslessly.
	ProtectionInfo  []byte
	Name            string
	ContentType     string
	ContentEncoding string
	props           []PropertyAssociation

	ImageItem ImageItem // valid when Kind is ItemCodedImage or ItemDerivedImage

	CodedImageKind CodedImageKind
	EncodedData    []byte
	DecoderConfig  *DecoderConfig

	DerivedImageKind DerivedImageKind
	Grid             *Grid
	Overlay          *Overlay
	IdentitySource   *Item

	MetaItemKind MetaItemKind
	Payload      []byte

	// thumbnailOf/auxiliaryOf/metadataOf hold the reverse edge for
	// the forward links stored on the referrer's ImageItem lists, so that
	// deleting this item can sever both directions (spec.md §3 lifecycle
	// rule, §8 testable property 5).
	thumbnailOf []*Item
	auxiliaryOf []*Item
	metadataOf  []*Item
}

func (it *Item) ID() ItemID { return it.id }

// Properties returns the item's ordered property-association list,
// descriptives before transformatives.
func (it *Item) Properties() []PropertyAssociation { return it.props }

// AssociateProperty appends prop to the item's association list, enforcing
// the single-instance rule (spec.md §3 invariant 2) and descriptive-before-
// transformative ordering (invariant 1).
func (it *Item) AssociateProperty(prop *Property, essential bool) error {
	if prop.Kind.singleInstance() {
		for _, a := range it.props {
			if a.Property.Kind == prop.Kind {
				return NewError(AlreadySet, "item already has a %v property", prop.Kind)
			}
		}
	}
	it.props = append(it.props, PropertyAssociation{Property: prop, Essential: essential})
	prop.associatedTo[it] = true
	it.reorderProperties()
	return nil
}

// RemoveProperty severs prop's association with this item; a no-op if prop
// was not associated.
func (it *Item) RemoveProperty(prop *Property) {
	kept := it.props[:0]
	for _, a := range it.props {
		if a.Property != prop {
			kept = append(kept, a)
		}
	}
	it.props = kept
	delete(prop.associatedTo, it)
}

// reorderProperties performs a stable sort placing every descriptive
// association before every transformative one, preserving relative order
// within each group (spec.md §3 invariant 1).
func (it *Item) reorderProperties() {
	descriptives := make([]PropertyAssociation, 0, len(it.props))
	transformatives := make([]PropertyAssociation, 0, len(it.props))
	for _, a := range it.props {
		if a.Property.Kind.transformative() {
			transformatives = append(transformatives, a)
		} else {
			descriptives = append(descriptives, a)
		}
	}
	it.props = append(descriptives, transformatives...)
}

func newItem(kind ItemKind, fourCC string) *Item {
	return &Item{Kind: kind, FourCC: fourCC}
}

package heif

import (
	"bytes"
	"io"

	"github.com/tetsuo/heif/model"
)

// PreloadMode selects how eagerly Load copies item/sample payload bytes into
// the returned model.File, per spec.md §5. model.Item/model.Sample hold
// their bytes in memory rather than an on-disk offset handle, so
// LoadOnDemand is implemented identically to LoadAllData here; only
// LoadMetadata differs, by leaving Bytes/EncodedData/Payload nil. This is a
// deliberate simplification of the upstream three-way split, recorded in
// DESIGN.md.
type PreloadMode int

const (
	LoadAllData PreloadMode = iota
	LoadOnDemand
	LoadMetadata
)

// LoadOptions configures Load.
type LoadOptions struct {
	Preload PreloadMode
	// Warnf, if non-nil, receives one message when the pitm box names an
	// item that SetPrimaryItem rejects (not an image, or hidden); the file
	// then loads with no primary item. Nothing else is reported through it.
	Warnf func(format string, args ...any)
}

// SaveOptions configures Save.
type SaveOptions struct {
	MajorBrand       string
	CompatibleBrands []string
}

func (o LoadOptions) warnf(format string, args ...any) {
	if o.Warnf != nil {
		o.Warnf(format, args...)
	}
}

// Load parses a complete HEIF/ISOBMFF byte stream into a model.File.
func Load(data []byte, opts LoadOptions) (*model.File, error) {
	boxes, err := DecodeFile(bytes.NewReader(data))
	if err != nil {
		return nil, model.NewError(model.FileReadError, "%v", err)
	}

	f := model.NewFile()

	var metaBox, moovBox *Box
	for _, b := range boxes {
		switch b.Type {
		case TypeFtyp:
			f.MajorBrand = string(b.Ftyp.Brand[:])
			f.MinorVersion = b.Ftyp.BrandVersion
			for _, cb := range b.Ftyp.CompatibleBrands {
				f.CompatibleBrands = append(f.CompatibleBrands, string(cb[:]))
			}
		case TypeMeta:
			metaBox = b
		case TypeMoov:
			moovBox = b
		}
	}

	var itemsByID map[uint32]*model.Item
	if metaBox != nil {
		itemsByID, err = loadMeta(f, metaBox, data, opts)
		if err != nil {
			return nil, err
		}
	}
	if moovBox != nil {
		if err := loadMoov(f, moovBox, data, itemsByID); err != nil {
			return nil, err
		}
	}
	// model ids are only ever assigned by Renumber (invariant 9); a freshly
	// loaded File has none until this runs, in the deterministic order each
	// loader above created its entities.
	f.Renumber()
	return f, nil
}

// Save renumbers f and serializes it to w as a complete HEIF/ISOBMFF byte
// stream: ftyp, meta (if the file has items), moov (if it has tracks), then
// a single mdat carrying every item's and sample's bytes, with iloc/stco
// offsets patched to the mdat payload's final file position (spec.md §2's
// "thread mdat offsets through chunk-offset boxes after the fact").
func Save(f *model.File, w io.Writer, opts SaveOptions) error {
	f.Renumber()

	majorBrand := opts.MajorBrand
	if majorBrand == "" {
		majorBrand = "heic"
	}
	ftypBox := NewBox(TypeFtyp)
	var brand [4]byte
	copy(brand[:], majorBrand)
	compat := make([][4]byte, 0, len(opts.CompatibleBrands)+1)
	var mif1 [4]byte
	copy(mif1[:], "mif1")
	compat = append(compat, mif1)
	for _, cb := range opts.CompatibleBrands {
		var b4 [4]byte
		copy(b4[:], cb)
		compat = append(compat, b4)
	}
	ftypBox.Ftyp = &Ftyp{Brand: brand, CompatibleBrands: compat}

	var mdatPayload []byte
	topLevel := []*Box{ftypBox}

	metaBox, iloc, mdatPayload, err := saveMeta(f, mdatPayload)
	if err != nil {
		return err
	}
	if metaBox != nil {
		topLevel = append(topLevel, metaBox)
	}

	moovBox, stcoPatches, mdatPayload, err := saveMoov(f, mdatPayload)
	if err != nil {
		return err
	}
	if moovBox != nil {
		topLevel = append(topLevel, moovBox)
	}

	var prefixLen uint64
	for _, b := range topLevel {
		prefixLen += EncodingLength(b)
	}
	mdatPayloadOffset := prefixLen + 8 // + mdat's own 8-byte header

	if iloc != nil {
		for i := range iloc.Entries {
			iloc.Entries[i].ExtentOffset += mdatPayloadOffset
		}
	}
	for i := range stcoPatches {
		*stcoPatches[i] += uint32(mdatPayloadOffset)
	}

	mdatBox := NewBox(TypeMdat)
	mdatBox.Mdat = &Mdat{Buffer: mdatPayload}
	topLevel = append(topLevel, mdatBox)

	return EncodeFile(w, topLevel)
}

func findChild(children []*Box, t BoxType) *Box {
	for _, c := range children {
		if c.Type == t {
			return c
		}
	}
	return nil
}

func findChildren(children []*Box, t BoxType) []*Box {
	var out []*Box
	for _, c := range children {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

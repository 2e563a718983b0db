package heif

import "fmt"

// --- hvcC ---

// HvcCBox carries the raw HEVCDecoderConfigurationRecord bytes; decconf.ParseHEVC
// interprets them (mirrors AvcC's raw-passthrough shape in codec.go).
type HvcCBox struct {
	Buffer []byte
}

func decodeHvcC(box *Box, buf []byte, start, end int) error {
	b := make([]byte, end-start)
	copy(b, buf[start:end])
	box.HvcC = &HvcCBox{Buffer: b}
	return nil
}

func encodeHvcC(box *Box, buf []byte, offset int) int {
	copy(buf[offset:], box.HvcC.Buffer)
	return len(box.HvcC.Buffer)
}

func encodingLengthHvcC(box *Box) int { return len(box.HvcC.Buffer) }

// --- pitm ---

// Pitm represents the primary item box (spec.md §3 File::primaryItem).
type Pitm struct {
	ItemID uint32
}

func decodePitm(box *Box, buf []byte, start, _ int) error {
	if box.Version == 0 {
		box.Pitm = &Pitm{ItemID: uint32(be.Uint16(buf[start:]))}
	} else {
		box.Pitm = &Pitm{ItemID: be.Uint32(buf[start:])}
	}
	return nil
}

func encodePitm(box *Box, buf []byte, offset int) int {
	if box.Version == 0 {
		be.PutUint16(buf[offset:], uint16(box.Pitm.ItemID))
		return 2
	}
	be.PutUint32(buf[offset:], box.Pitm.ItemID)
	return 4
}

func encodingLengthPitm(box *Box) int {
	if box.Version == 0 {
		return 2
	}
	return 4
}

// --- iinf ---

// Iinf is the ItemInfoBox: a FullBox container of infe entries.
type Iinf struct {
	Entries []*Box
}

func decodeIinf(box *Box, buf []byte, start, end int) error {
	ptr := start
	var count int
	if box.Version == 0 {
		count = int(be.Uint16(buf[ptr:]))
		ptr += 2
	} else {
		count = int(be.Uint32(buf[ptr:]))
		ptr += 4
	}
	entries := make([]*Box, 0, count)
	for i := 0; i < count && end-ptr >= 8; i++ {
		entry, err := Decode(buf, ptr, end)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
		ptr += int(entry.Size)
	}
	box.Iinf = &Iinf{Entries: entries}
	return nil
}

func encodeIinf(box *Box, buf []byte, offset int) int {
	ptr := offset
	if box.Version == 0 {
		be.PutUint16(buf[ptr:], uint16(len(box.Iinf.Entries)))
		ptr += 2
	} else {
		be.PutUint32(buf[ptr:], uint32(len(box.Iinf.Entries)))
		ptr += 4
	}
	for _, e := range box.Iinf.Entries {
		n, _ := encodeBox(e, buf, ptr)
		ptr += n
	}
	return ptr - offset
}

func encodingLengthIinf(box *Box) int {
	n := 4
	if box.Version == 0 {
		n = 2
	}
	for _, e := range box.Iinf.Entries {
		n += int(EncodingLength(e))
	}
	return n
}

// --- ipro ---

// Ipro is the ItemProtectionBox: a FullBox container of sinf entries, each
// carried as an opaque leaf box (its ProtectionSchemeInfoBox payload is
// never parsed, spec.md §D.3).
type Ipro struct {
	Entries []*Box
}

func decodeIpro(box *Box, buf []byte, start, end int) error {
	ptr := start
	count := int(be.Uint16(buf[ptr:]))
	ptr += 2
	entries := make([]*Box, 0, count)
	for i := 0; i < count && end-ptr >= 8; i++ {
		entry, err := Decode(buf, ptr, end)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
		ptr += int(entry.Size)
	}
	box.Ipro = &Ipro{Entries: entries}
	return nil
}

func encodeIpro(box *Box, buf []byte, offset int) int {
	ptr := offset
	be.PutUint16(buf[ptr:], uint16(len(box.Ipro.Entries)))
	ptr += 2
	for _, e := range box.Ipro.Entries {
		n, _ := encodeBox(e, buf, ptr)
		ptr += n
	}
	return ptr - offset
}

func encodingLengthIpro(box *Box) int {
	n := 2
	for _, e := range box.Ipro.Entries {
		n += int(EncodingLength(e))
	}
	return n
}

// --- infe ---

// Infe is the ItemInfoEntry box. Only version 2 (16-bit item_id) and version
// 3 (32-bit item_id) are supported: every producer this module targets
// writes version 2 HEIF files, and earlier versions use an incompatible
// field layout this module never needs to read.
type Infe struct {
	ItemID              uint32
	ItemProtectionIndex uint16
	ItemType            string
	ItemName            string
	ContentType         string
	ContentEncoding     string
	Hidden              bool
}

func decodeInfe(box *Box, buf []byte, start, end int) error {
	if box.Version < 2 {
		return fmt.Errorf("heif: infe version %d unsupported", box.Version)
	}
	ptr := start
	var itemID uint32
	if box.Version == 2 {
		itemID = uint32(be.Uint16(buf[ptr:]))
		ptr += 2
	} else {
		itemID = be.Uint32(buf[ptr:])
		ptr += 4
	}
	protIdx := be.Uint16(buf[ptr:])
	ptr += 2
	var itemType [4]byte
	copy(itemType[:], buf[ptr:ptr+4])
	ptr += 4
	name := readString(buf, ptr, end)
	ptr += len(name) + 1

	infe := &Infe{
		ItemID:              itemID,
		ItemProtectionIndex: protIdx,
		ItemType:            string(itemType[:]),
		ItemName:            name,
		Hidden:              box.Flags&0x1 != 0,
	}
	if infe.ItemType == "mime" {
		infe.ContentType = readString(buf, ptr, end)
		ptr += len(infe.ContentType) + 1
		if ptr < end {
			infe.ContentEncoding = readString(buf, ptr, end)
		}
	}
	box.Infe = infe
	return nil
}

func encodeInfe(box *Box, buf []byte, offset int) int {
	e := box.Infe
	ptr := offset
	if box.Version == 2 {
		be.PutUint16(buf[ptr:], uint16(e.ItemID))
		ptr += 2
	} else {
		be.PutUint32(buf[ptr:], e.ItemID)
		ptr += 4
	}
	be.PutUint16(buf[ptr:], e.ItemProtectionIndex)
	ptr += 2
	copy(buf[ptr:ptr+4], e.ItemType)
	ptr += 4
	ptr += copy(buf[ptr:], e.ItemName)
	buf[ptr] = 0
	ptr++
	if e.ItemType == "mime" {
		ptr += copy(buf[ptr:], e.ContentType)
		buf[ptr] = 0
		ptr++
		ptr += copy(buf[ptr:], e.ContentEncoding)
		buf[ptr] = 0
		ptr++
	}
	return ptr - offset
}

func encodingLengthInfe(box *Box) int {
	e := box.Infe
	idSize := 4
	if box.Version == 2 {
		idSize = 2
	}
	n := idSize + 2 + 4 + len(e.ItemName) + 1
	if e.ItemType == "mime" {
		n += len(e.ContentType) + 1 + len(e.ContentEncoding) + 1
	}
	return n
}

// --- iloc ---

// IlocEntry is one item's single-extent location: spec.md's model.Item holds
// its encoded bytes in memory as a single contiguous blob, so this module
// only ever needs construction_method 0 (file offset) with exactly one
// extent per item — multi-extent items are out of scope (same simplification
// model.Offset already makes).
type IlocEntry struct {
	ItemID            uint32
	ConstructionMethod uint16
	DataReferenceIndex uint16
	BaseOffset         uint64
	ExtentOffset       uint64
	ExtentLength       uint64
}

// Iloc is the ItemLocationBox, written with offset_size=length_size=4,
// base_offset_size=0, index_size=0 (version 1 framing).
type Iloc struct {
	Entries []IlocEntry
}

func decodeIloc(box *Box, buf []byte, start, _ int) error {
	ptr := start
	sizes := buf[ptr]
	offsetSize := int(sizes >> 4)
	lengthSize := int(sizes & 0xf)
	ptr++
	sizes2 := buf[ptr]
	baseOffsetSize := int(sizes2 >> 4)
	indexSize := int(sizes2 & 0xf)
	ptr++
	_ = indexSize

	var itemCount int
	if box.Version < 2 {
		itemCount = int(be.Uint16(buf[ptr:]))
		ptr += 2
	} else {
		itemCount = int(be.Uint32(buf[ptr:]))
		ptr += 4
	}

	readSized := func(n int) uint64 {
		var v uint64
		for i := 0; i < n; i++ {
			v = v<<8 | uint64(buf[ptr])
			ptr++
		}
		return v
	}

	entries := make([]IlocEntry, 0, itemCount)
	for i := 0; i < itemCount; i++ {
		var e IlocEntry
		if box.Version < 2 {
			e.ItemID = uint32(be.Uint16(buf[ptr:]))
			ptr += 2
		} else {
			e.ItemID = be.Uint32(buf[ptr:])
			ptr += 4
		}
		if box.Version == 1 || box.Version == 2 {
			e.ConstructionMethod = be.Uint16(buf[ptr:]) & 0xf
			ptr += 2
		}
		e.DataReferenceIndex = be.Uint16(buf[ptr:])
		ptr += 2
		e.BaseOffset = readSized(baseOffsetSize)
		extentCount := int(be.Uint16(buf[ptr:]))
		ptr += 2
		for j := 0; j < extentCount; j++ {
			e.ExtentOffset = readSized(offsetSize)
			e.ExtentLength = readSized(lengthSize)
		}
		entries = append(entries, e)
	}
	box.Iloc = &Iloc{Entries: entries}
	return nil
}

func encodeIloc(box *Box, buf []byte, offset int) int {
	ptr := offset
	buf[ptr] = 0x44 // offset_size=4, length_size=4
	ptr++
	buf[ptr] = 0x00 // base_offset_size=0, index_size=0
	ptr++
	if box.Version < 2 {
		be.PutUint16(buf[ptr:], uint16(len(box.Iloc.Entries)))
		ptr += 2
	} else {
		be.PutUint32(buf[ptr:], uint32(len(box.Iloc.Entries)))
		ptr += 4
	}
	for _, e := range box.Iloc.Entries {
		if box.Version < 2 {
			be.PutUint16(buf[ptr:], uint16(e.ItemID))
			ptr += 2
		} else {
			be.PutUint32(buf[ptr:], e.ItemID)
			ptr += 4
		}
		if box.Version == 1 || box.Version == 2 {
			be.PutUint16(buf[ptr:], e.ConstructionMethod)
			ptr += 2
		}
		be.PutUint16(buf[ptr:], e.DataReferenceIndex)
		ptr += 2
		be.PutUint16(buf[ptr:], 1) // extent_count
		ptr += 2
		be.PutUint32(buf[ptr:], uint32(e.ExtentOffset))
		ptr += 4
		be.PutUint32(buf[ptr:], uint32(e.ExtentLength))
		ptr += 4
	}
	return ptr - offset
}

func encodingLengthIloc(box *Box) int {
	idSize := 4
	methodSize := 2
	if box.Version < 2 {
		idSize = 2
	}
	if box.Version == 0 {
		methodSize = 0
	}
	perEntry := idSize + methodSize + 2 + 2 + 8
	countSize := 4
	if box.Version < 2 {
		countSize = 2
	}
	return 2 + countSize + perEntry*len(box.Iloc.Entries)
}

// --- iref ---

// IrefEntry is one SingleItemTypeReferenceBox: a from-item and its ordered
// list of to-items under a reference fourcc (thmb/auxl/cdsc/dimg/base, or
// any other four-char type — preserved generically per spec.md §D.2's
// "round-trip unknown four-char types" posture applied to references too).
type IrefEntry struct {
	Type    BoxType
	FromItem uint32
	ToItems  []uint32
}

// Iref is the ItemReferenceBox (version 0: 16-bit item ids; version 1: 32-bit).
type Iref struct {
	Entries []IrefEntry
}

func decodeIref(box *Box, buf []byte, start, end int) error {
	idSize := 2
	if box.Version != 0 {
		idSize = 4
	}
	readID := func(ptr int) (uint32, int) {
		if idSize == 2 {
			return uint32(be.Uint16(buf[ptr:])), ptr + 2
		}
		return be.Uint32(buf[ptr:]), ptr + 4
	}

	var entries []IrefEntry
	ptr := start
	for end-ptr >= 8 {
		size := int(be.Uint32(buf[ptr:]))
		var t BoxType
		copy(t[:], buf[ptr+4:ptr+8])
		body := ptr + 8
		fromItem, p := readID(body)
		count := int(be.Uint16(buf[p:]))
		p += 2
		toItems := make([]uint32, count)
		for i := 0; i < count; i++ {
			toItems[i], p = readID(p)
		}
		entries = append(entries, IrefEntry{Type: t, FromItem: fromItem, ToItems: toItems})
		ptr += size
	}
	box.Iref = &Iref{Entries: entries}
	return nil
}

func encodeIref(box *Box, buf []byte, offset int) int {
	idSize := 2
	if box.Version != 0 {
		idSize = 4
	}
	writeID := func(ptr int, v uint32) int {
		if idSize == 2 {
			be.PutUint16(buf[ptr:], uint16(v))
			return ptr + 2
		}
		be.PutUint32(buf[ptr:], v)
		return ptr + 4
	}

	ptr := offset
	for _, e := range box.Iref.Entries {
		size := 8 + idSize + 2 + idSize*len(e.ToItems)
		be.PutUint32(buf[ptr:], uint32(size))
		copy(buf[ptr+4:ptr+8], e.Type[:])
		p := ptr + 8
		p = writeID(p, e.FromItem)
		be.PutUint16(buf[p:], uint16(len(e.ToItems)))
		p += 2
		for _, to := range e.ToItems {
			p = writeID(p, to)
		}
		ptr += size
	}
	return ptr - offset
}

func encodingLengthIref(box *Box) int {
	idSize := 2
	if box.Version != 0 {
		idSize = 4
	}
	n := 0
	for _, e := range box.Iref.Entries {
		n += 8 + idSize + 2 + idSize*len(e.ToItems)
	}
	return n
}

// --- ipma ---

// IpmaAssociation is one (property_index, essential) pair.
type IpmaAssociation struct {
	PropertyIndex uint16 // 1-based index into ipco
	Essential     bool
}

// IpmaEntry associates one item with its ordered property list.
type IpmaEntry struct {
	ItemID       uint32
	Associations []IpmaAssociation
}

// Ipma is the ItemPropertyAssociationBox.
type Ipma struct {
	Entries []IpmaEntry
}

func decodeIpma(box *Box, buf []byte, start, _ int) error {
	ptr := start
	entryCount := int(be.Uint32(buf[ptr:]))
	ptr += 4
	wideIndex := box.Flags&0x1 != 0

	entries := make([]IpmaEntry, 0, entryCount)
	for i := 0; i < entryCount; i++ {
		var itemID uint32
		if box.Version < 1 {
			itemID = uint32(be.Uint16(buf[ptr:]))
			ptr += 2
		} else {
			itemID = be.Uint32(buf[ptr:])
			ptr += 4
		}
		assocCount := int(buf[ptr])
		ptr++
		assocs := make([]IpmaAssociation, assocCount)
		for j := 0; j < assocCount; j++ {
			if wideIndex {
				v := be.Uint16(buf[ptr:])
				ptr += 2
				assocs[j] = IpmaAssociation{Essential: v&0x8000 != 0, PropertyIndex: v & 0x7fff}
			} else {
				v := buf[ptr]
				ptr++
				assocs[j] = IpmaAssociation{Essential: v&0x80 != 0, PropertyIndex: uint16(v & 0x7f)}
			}
		}
		entries = append(entries, IpmaEntry{ItemID: itemID, Associations: assocs})
	}
	box.Ipma = &Ipma{Entries: entries}
	return nil
}

func encodeIpma(box *Box, buf []byte, offset int) int {
	wideIndex := box.Flags&0x1 != 0
	ptr := offset
	be.PutUint32(buf[ptr:], uint32(len(box.Ipma.Entries)))
	ptr += 4
	for _, e := range box.Ipma.Entries {
		if box.Version < 1 {
			be.PutUint16(buf[ptr:], uint16(e.ItemID))
			ptr += 2
		} else {
			be.PutUint32(buf[ptr:], e.ItemID)
			ptr += 4
		}
		buf[ptr] = byte(len(e.Associations))
		ptr++
		for _, a := range e.Associations {
			if wideIndex {
				v := a.PropertyIndex & 0x7fff
				if a.Essential {
					v |= 0x8000
				}
				be.PutUint16(buf[ptr:], v)
				ptr += 2
			} else {
				v := byte(a.PropertyIndex & 0x7f)
				if a.Essential {
					v |= 0x80
				}
				buf[ptr] = v
				ptr++
			}
		}
	}
	return ptr - offset
}

func encodingLengthIpma(box *Box) int {
	wideIndex := box.Flags&0x1 != 0
	idSize := 4
	if box.Version < 1 {
		idSize = 2
	}
	assocSize := 1
	if wideIndex {
		assocSize = 2
	}
	n := 4
	for _, e := range box.Ipma.Entries {
		n += idSize + 1 + assocSize*len(e.Associations)
	}
	return n
}

// --- ispe ---

type Ispe struct {
	Width, Height uint32
}

func decodeIspe(box *Box, buf []byte, start, _ int) error {
	box.Ispe = &Ispe{Width: be.Uint32(buf[start:]), Height: be.Uint32(buf[start+4:])}
	return nil
}

func encodeIspe(box *Box, buf []byte, offset int) int {
	be.PutUint32(buf[offset:], box.Ispe.Width)
	be.PutUint32(buf[offset+4:], box.Ispe.Height)
	return 8
}

func encodingLengthIspe(_ *Box) int { return 8 }

// --- pasp (as an item property; also reused verbatim for the stsd child) ---

type PaspProp struct {
	HSpacing, VSpacing uint32
}

func decodePaspProp(box *Box, buf []byte, start, _ int) error {
	box.PaspProp = &PaspProp{HSpacing: be.Uint32(buf[start:]), VSpacing: be.Uint32(buf[start+4:])}
	return nil
}

func encodePaspProp(box *Box, buf []byte, offset int) int {
	be.PutUint32(buf[offset:], box.PaspProp.HSpacing)
	be.PutUint32(buf[offset+4:], box.PaspProp.VSpacing)
	return 8
}

func encodingLengthPaspProp(_ *Box) int { return 8 }

// --- colr ---

type Colr struct {
	Type                                                  [4]byte // "nclx" or "rICC"/"prof"
	ColourPrimaries, TransferCharacteristics, MatrixCoeffs uint16
	FullRangeFlag                                         bool
	ICCProfile                                             []byte
}

func decodeColr(box *Box, buf []byte, start, end int) error {
	c := &Colr{}
	copy(c.Type[:], buf[start:start+4])
	if string(c.Type[:]) == "nclx" {
		c.ColourPrimaries = be.Uint16(buf[start+4:])
		c.TransferCharacteristics = be.Uint16(buf[start+6:])
		c.MatrixCoeffs = be.Uint16(buf[start+8:])
		c.FullRangeFlag = buf[start+10]&0x80 != 0
	} else {
		c.ICCProfile = append([]byte(nil), buf[start+4:end]...)
	}
	box.Colr = c
	return nil
}

func encodeColr(box *Box, buf []byte, offset int) int {
	c := box.Colr
	copy(buf[offset:offset+4], c.Type[:])
	if string(c.Type[:]) == "nclx" {
		be.PutUint16(buf[offset+4:], c.ColourPrimaries)
		be.PutUint16(buf[offset+6:], c.TransferCharacteristics)
		be.PutUint16(buf[offset+8:], c.MatrixCoeffs)
		if c.FullRangeFlag {
			buf[offset+10] = 0x80
		} else {
			buf[offset+10] = 0
		}
		return 11
	}
	copy(buf[offset+4:], c.ICCProfile)
	return 4 + len(c.ICCProfile)
}

func encodingLengthColr(box *Box) int {
	if string(box.Colr.Type[:]) == "nclx" {
		return 11
	}
	return 4 + len(box.Colr.ICCProfile)
}

// --- pixi ---

type Pixi struct {
	BitsPerChannel []uint8
}

func decodePixi(box *Box, buf []byte, start, _ int) error {
	n := int(buf[start])
	box.Pixi = &Pixi{BitsPerChannel: append([]uint8(nil), buf[start+1:start+1+n]...)}
	return nil
}

func encodePixi(box *Box, buf []byte, offset int) int {
	buf[offset] = byte(len(box.Pixi.BitsPerChannel))
	copy(buf[offset+1:], box.Pixi.BitsPerChannel)
	return 1 + len(box.Pixi.BitsPerChannel)
}

func encodingLengthPixi(box *Box) int { return 1 + len(box.Pixi.BitsPerChannel) }

// --- rloc ---

type Rloc struct {
	HorizontalOffset, VerticalOffset uint32
}

func decodeRloc(box *Box, buf []byte, start, _ int) error {
	box.Rloc = &Rloc{HorizontalOffset: be.Uint32(buf[start:]), VerticalOffset: be.Uint32(buf[start+4:])}
	return nil
}

func encodeRloc(box *Box, buf []byte, offset int) int {
	be.PutUint32(buf[offset:], box.Rloc.HorizontalOffset)
	be.PutUint32(buf[offset+4:], box.Rloc.VerticalOffset)
	return 8
}

func encodingLengthRloc(_ *Box) int { return 8 }

// --- auxC ---

type AuxC struct {
	AuxType string
	Subtype []byte
}

func decodeAuxC(box *Box, buf []byte, start, end int) error {
	typ := readString(buf, start, end)
	box.AuxC = &AuxC{AuxType: typ, Subtype: append([]byte(nil), buf[start+len(typ)+1:end]...)}
	return nil
}

func encodeAuxC(box *Box, buf []byte, offset int) int {
	a := box.AuxC
	ptr := offset + copy(buf[offset:], a.AuxType)
	buf[ptr] = 0
	ptr++
	ptr += copy(buf[ptr:], a.Subtype)
	return ptr - offset
}

func encodingLengthAuxC(box *Box) int { return len(box.AuxC.AuxType) + 1 + len(box.AuxC.Subtype) }

// --- clap ---

type Clap struct {
	CleanApertureWidthN, CleanApertureWidthD   int32
	CleanApertureHeightN, CleanApertureHeightD int32
	HorizOffN, HorizOffD                       int32
	VertOffN, VertOffD                         int32
}

func decodeClap(box *Box, buf []byte, start, _ int) error {
	r := func(i int) int32 { return int32(be.Uint32(buf[start+i*4:])) }
	box.Clap = &Clap{
		CleanApertureWidthN: r(0), CleanApertureWidthD: r(1),
		CleanApertureHeightN: r(2), CleanApertureHeightD: r(3),
		HorizOffN: r(4), HorizOffD: r(5),
		VertOffN: r(6), VertOffD: r(7),
	}
	return nil
}

func encodeClap(box *Box, buf []byte, offset int) int {
	c := box.Clap
	vals := [8]int32{c.CleanApertureWidthN, c.CleanApertureWidthD, c.CleanApertureHeightN, c.CleanApertureHeightD, c.HorizOffN, c.HorizOffD, c.VertOffN, c.VertOffD}
	for i, v := range vals {
		be.PutUint32(buf[offset+i*4:], uint32(v))
	}
	return 32
}

func encodingLengthClap(_ *Box) int { return 32 }

// --- irot ---

type Irot struct {
	Angle uint8 // 0..3, clockwise quarter turns
}

func decodeIrot(box *Box, buf []byte, start, _ int) error {
	box.Irot = &Irot{Angle: buf[start] & 0x3}
	return nil
}

func encodeIrot(box *Box, buf []byte, offset int) int {
	buf[offset] = box.Irot.Angle & 0x3
	return 1
}

func encodingLengthIrot(_ *Box) int { return 1 }

// --- imir ---

type Imir struct {
	Axis uint8 // 0 = vertical axis, 1 = horizontal axis
}

func decodeImir(box *Box, buf []byte, start, _ int) error {
	box.Imir = &Imir{Axis: buf[start] & 0x1}
	return nil
}

func encodeImir(box *Box, buf []byte, offset int) int {
	buf[offset] = box.Imir.Axis & 0x1
	return 1
}

func encodingLengthImir(_ *Box) int { return 1 }

// --- grpl ---

// GrplEntry is one EntityToGroupBox: an arbitrary four-char group type
// (e.g. "altr", "eqiv", "ster") carrying a group_id and its member entity
// ids. Decoded generically per spec.md §D.2 so unrecognized group types
// round-trip losslessly even without a typed model.EntityGroup for them.
type GrplEntry struct {
	Type      BoxType
	GroupID   uint32
	EntityIDs []uint32
}

// Grpl is the GroupsListBox.
type Grpl struct {
	Entries []GrplEntry
}

func decodeGrpl(box *Box, buf []byte, start, end int) error {
	var entries []GrplEntry
	ptr := start
	for end-ptr >= 12 {
		size := int(be.Uint32(buf[ptr:]))
		var t BoxType
		copy(t[:], buf[ptr+4:ptr+8])
		// version/flags (4 bytes) precede group_id on every EntityToGroupBox.
		groupID := be.Uint32(buf[ptr+12:])
		count := int(be.Uint32(buf[ptr+16:]))
		ids := make([]uint32, count)
		p := ptr + 20
		for i := 0; i < count; i++ {
			ids[i] = be.Uint32(buf[p:])
			p += 4
		}
		entries = append(entries, GrplEntry{Type: t, GroupID: groupID, EntityIDs: ids})
		ptr += size
	}
	box.Grpl = &Grpl{Entries: entries}
	return nil
}

func encodeGrpl(box *Box, buf []byte, offset int) int {
	ptr := offset
	for _, e := range box.Grpl.Entries {
		size := 20 + 4*len(e.EntityIDs)
		be.PutUint32(buf[ptr:], uint32(size))
		copy(buf[ptr+4:ptr+8], e.Type[:])
		be.PutUint32(buf[ptr+8:], 0) // version/flags
		be.PutUint32(buf[ptr+12:], e.GroupID)
		be.PutUint32(buf[ptr+16:], uint32(len(e.EntityIDs)))
		p := ptr + 20
		for _, id := range e.EntityIDs {
			be.PutUint32(buf[p:], id)
			p += 4
		}
		ptr += size
	}
	return ptr - offset
}

func encodingLengthGrpl(box *Box) int {
	n := 0
	for _, e := range box.Grpl.Entries {
		n += 20 + 4*len(e.EntityIDs)
	}
	return n
}

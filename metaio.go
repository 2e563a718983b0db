package heif

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/tetsuo/heif/model"
)

// itemPropertyFourCC reports the ipco child type that is not a property at
// all but a coded image's decoder configuration (hvcC/avcC), piggybacking on
// the property-association mechanism the way real HEIF encoders place it
// (spec.md §3 DecoderConfig is per-item, not per-track, when items carry it).
func itemPropertyFourCC(t BoxType) (string, bool) {
	switch t {
	case TypeHvcC:
		return "hvc1", true
	case TypeAvcC:
		return "avc1", true
	}
	return "", false
}

// propertyKindOf/boxTypeOf translate between the ipco child's four-char box
// type and the model's closed PropertyKind enum; an unrecognized type maps
// to PropRaw and round-trips through its raw Body bytes, per spec.md §D.2's
// "preserve unknown" posture applied to item properties.
func propertyKindOf(t BoxType) model.PropertyKind {
	switch t {
	case TypeIspe:
		return model.PropIspe
	case TypePasp:
		return model.PropPasp
	case TypeColr:
		return model.PropColr
	case TypePixi:
		return model.PropPixi
	case TypeRloc:
		return model.PropRloc
	case TypeAuxC:
		return model.PropAuxc
	case TypeClap:
		return model.PropClap
	case TypeIrot:
		return model.PropIrot
	case TypeImir:
		return model.PropImir
	default:
		return model.PropRaw
	}
}

func boxTypeOfPropertyKind(k model.PropertyKind, fourCC string) BoxType {
	switch k {
	case model.PropIspe:
		return TypeIspe
	case model.PropPasp:
		return TypePasp
	case model.PropColr:
		return TypeColr
	case model.PropPixi:
		return TypePixi
	case model.PropRloc:
		return TypeRloc
	case model.PropAuxc:
		return TypeAuxC
	case model.PropClap:
		return TypeClap
	case model.PropIrot:
		return TypeIrot
	case model.PropImir:
		return TypeImir
	default:
		var t BoxType
		copy(t[:], fourCC)
		return t
	}
}

func codedImageKindOf(itemType string) (model.CodedImageKind, bool) {
	switch itemType {
	case "hvc1":
		return model.CodedHEVC, true
	case "avc1":
		return model.CodedAVC, true
	case "jpeg":
		return model.CodedJPEG, true
	}
	return 0, false
}

func derivedImageKindOf(itemType string) (model.DerivedImageKind, bool) {
	switch itemType {
	case "grid":
		return model.DerivedGrid, true
	case "iovl":
		return model.DerivedOverlay, true
	case "iden":
		return model.DerivedIdentity, true
	}
	return 0, false
}

func metaItemKindOf(infe *Infe) model.MetaItemKind {
	if infe.ItemType == "Exif" {
		return model.MetaExif
	}
	switch {
	case strings.Contains(infe.ContentType, "rdf+xml"):
		return model.MetaMimeXMP
	case strings.Contains(infe.ContentType, "mpeg7") || strings.Contains(infe.ContentType, "xml"):
		return model.MetaMimeMpeg7
	default:
		return model.MetaMimeOther
	}
}

// itemRawBytes slices an item's coded/payload bytes directly out of the
// original file buffer using its single iloc extent (construction_method 0
// is the only one this module writes or expects to read, matching
// model.Item's single in-memory []byte design).
func itemRawBytes(data []byte, e IlocEntry) ([]byte, error) {
	if e.ConstructionMethod != 0 {
		return nil, fmt.Errorf("heif: iloc construction_method %d unsupported", e.ConstructionMethod)
	}
	off, ln := e.ExtentOffset, e.ExtentLength
	if off+ln > uint64(len(data)) {
		return nil, fmt.Errorf("heif: iloc extent [%d,%d) exceeds file length %d", off, off+ln, len(data))
	}
	return data[off : off+ln], nil
}

// loadMeta populates f's items, properties, and the primary-item/reference
// graph from a decoded meta box, returning an itemID-keyed lookup of the
// items it created (loadMoov receives it but does not use it).
func loadMeta(f *model.File, metaBox *Box, data []byte, opts LoadOptions) (map[uint32]*model.Item, error) {
	children := metaBox.Children
	iinfBox := findChild(children, TypeIinf)
	ilocBox := findChild(children, TypeIloc)
	iprpBox := findChild(children, TypeIprp)
	irefBox := findChild(children, TypeIref)
	pitmBox := findChild(children, TypePitm)
	grplBox := findChild(children, TypeGrpl)
	iproBox := findChild(children, TypeIpro)

	// sinfByIndex maps a 1-based ItemProtectionIndex to its raw sinf payload;
	// index 0 (unprotected) never appears here.
	sinfByIndex := make(map[uint16][]byte)
	if iproBox != nil {
		for i, entry := range iproBox.Ipro.Entries {
			sinfByIndex[uint16(i+1)] = entry.Body
		}
	}

	itemsByID := make(map[uint32]*model.Item)
	infeByID := make(map[uint32]*Infe)
	if iinfBox != nil {
		for _, entryBox := range iinfBox.Iinf.Entries {
			infe := entryBox.Infe
			infeByID[infe.ItemID] = infe
		}
	}

	ilocByID := make(map[uint32]IlocEntry)
	if ilocBox != nil {
		for _, e := range ilocBox.Iloc.Entries {
			ilocByID[e.ItemID] = e
		}
	}

	rawBytes := func(id uint32) ([]byte, error) {
		if opts.Preload == LoadMetadata {
			return nil, nil
		}
		e, ok := ilocByID[id]
		if !ok {
			return nil, nil
		}
		return itemRawBytes(data, e)
	}

	// ids lists every item id in ascending order: infeByID is a map, and
	// ranging over it directly would create items (and so assign File's
	// eventual Renumber-ed ids) in a nondeterministic order across runs.
	ids := make([]uint32, 0, len(infeByID))
	for id := range infeByID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	// Pass 1: create every item so later passes (properties, references,
	// derived-image source wiring) can resolve any item id.
	for _, id := range ids {
		infe := infeByID[id]
		var it *model.Item
		if kind, ok := codedImageKindOf(infe.ItemType); ok {
			it = f.AddCodedImage(kind)
			b, err := rawBytes(id)
			if err != nil {
				return nil, model.NewError(model.FileReadError, "%v", err)
			}
			it.EncodedData = b
		} else if kind, ok := derivedImageKindOf(infe.ItemType); ok {
			it = f.AddDerivedImage(kind)
		} else {
			it = f.AddMetaItem(metaItemKindOf(infe))
			b, err := rawBytes(id)
			if err != nil {
				return nil, model.NewError(model.FileReadError, "%v", err)
			}
			it.Payload = b
		}
		if name, err := model.NormalizeLegacyText([]byte(infe.ItemName)); err == nil {
			it.Name = name
		} else {
			it.Name = infe.ItemName
		}
		it.ContentType = infe.ContentType
		it.ContentEncoding = infe.ContentEncoding
		it.Protected = infe.ItemProtectionIndex != 0
		if it.Protected {
			it.ProtectionInfo = sinfByIndex[infe.ItemProtectionIndex]
		}
		if it.Kind == model.ItemCodedImage || it.Kind == model.ItemDerivedImage {
			it.ImageItem.Hidden = infe.Hidden
		}
		itemsByID[id] = it
	}

	// Pass 2: derived-image construction data (grid/overlay dimensions),
	// parsed from the item's own bytes per spec.md §4.5.
	overlayHeader := make(map[uint32][]byte)
	for _, id := range ids {
		infe := infeByID[id]
		it := itemsByID[id]
		if it.Kind != model.ItemDerivedImage {
			continue
		}
		// Construction data is read in every preload mode: it becomes the
		// Grid/Overlay fields, not a payload byte slice.
		var b []byte
		var err error
		if e, ok := ilocByID[id]; ok {
			b, err = itemRawBytes(data, e)
		}
		if err != nil {
			return nil, model.NewError(model.FileReadError, "%v", err)
		}
		switch infe.ItemType {
		case "grid":
			cols, rows, w, h, err := decodeGridData(b)
			if err != nil {
				return nil, model.NewError(model.MediaParsingError, "%v", err)
			}
			it.Grid.Resize(cols, rows)
			it.Grid.OutputWidth, it.Grid.OutputHeight = w, h
		case "iovl":
			overlayHeader[id] = b
		}
	}

	if iprpBox != nil {
		if err := loadProperties(f, iprpBox, itemsByID); err != nil {
			return nil, err
		}
	}

	if irefBox != nil {
		if err := loadReferences(f, irefBox.Iref, itemsByID, overlayHeader); err != nil {
			return nil, err
		}
	}

	if pitmBox != nil {
		if it, ok := itemsByID[pitmBox.Pitm.ItemID]; ok {
			if err := f.SetPrimaryItem(it); err != nil {
				opts.warnf("heif: primary item %d: %v", pitmBox.Pitm.ItemID, err)
			}
		}
	}

	if grplBox != nil {
		for _, e := range grplBox.Grpl.Entries {
			g := f.AddGroup(e.Type.String())
			for _, id := range e.EntityIDs {
				if it, ok := itemsByID[id]; ok {
					g.AddMember(model.EntityMember{Item: it})
				}
			}
		}
	}

	return itemsByID, nil
}

func loadProperties(f *model.File, iprpBox *Box, itemsByID map[uint32]*model.Item) error {
	ipcoBox := findChild(iprpBox.Children, TypeIpco)
	ipmaBox := findChild(iprpBox.Children, TypeIpma)
	if ipcoBox == nil || ipmaBox == nil {
		return nil
	}

	props := make([]*model.Property, len(ipcoBox.Children))
	dcFourCC := make([]string, len(ipcoBox.Children))
	dcRecord := make([][]byte, len(ipcoBox.Children))

	for i, child := range ipcoBox.Children {
		if fourCC, ok := itemPropertyFourCC(child.Type); ok {
			dcFourCC[i] = fourCC
			if fourCC == "hvc1" {
				dcRecord[i] = child.HvcC.Buffer
			} else {
				dcRecord[i] = child.AvcC.Buffer
			}
			continue
		}
		kind := propertyKindOf(child.Type)
		p := f.AddProperty(kind)
		switch kind {
		case model.PropIspe:
			p.Ispe = model.Ispe{Width: child.Ispe.Width, Height: child.Ispe.Height}
		case model.PropPasp:
			p.Pasp = model.Pasp{HSpacing: child.PaspProp.HSpacing, VSpacing: child.PaspProp.VSpacing}
		case model.PropColr:
			t := model.ColrNclx
			if string(child.Colr.Type[:]) != "nclx" {
				t = model.ColrICC
			}
			p.Colr = model.Colr{
				Type: t, ColourPrimaries: child.Colr.ColourPrimaries,
				TransferCharacteristics: child.Colr.TransferCharacteristics,
				MatrixCoeffs:            child.Colr.MatrixCoeffs,
				FullRangeFlag:           child.Colr.FullRangeFlag,
				ICCProfile:              child.Colr.ICCProfile,
			}
		case model.PropPixi:
			p.Pixi = model.Pixi{BitsPerChannel: child.Pixi.BitsPerChannel}
		case model.PropRloc:
			p.Rloc = model.Rloc{HorizontalOffset: child.Rloc.HorizontalOffset, VerticalOffset: child.Rloc.VerticalOffset}
		case model.PropAuxc:
			p.Auxc = model.Auxc{AuxType: child.AuxC.AuxType, Subtype: child.AuxC.Subtype}
		case model.PropClap:
			c := child.Clap
			p.Clap = model.Clap{
				CleanApertureWidthN: c.CleanApertureWidthN, CleanApertureWidthD: c.CleanApertureWidthD,
				CleanApertureHeightN: c.CleanApertureHeightN, CleanApertureHeightD: c.CleanApertureHeightD,
				HorizOffN: c.HorizOffN, HorizOffD: c.HorizOffD,
				VertOffN: c.VertOffN, VertOffD: c.VertOffD,
			}
		case model.PropIrot:
			p.Irot = model.Irot{Angle: child.Irot.Angle}
		case model.PropImir:
			p.Imir = model.Imir{Axis: child.Imir.Axis}
		default:
			p.Raw = model.Raw{FourCC: child.Type.String(), Bytes: child.Body}
		}
		props[i] = p
	}

	for _, e := range ipmaBox.Ipma.Entries {
		it, ok := itemsByID[e.ItemID]
		if !ok {
			continue
		}
		for _, a := range e.Associations {
			if int(a.PropertyIndex) < 1 || int(a.PropertyIndex) > len(props) {
				continue
			}
			i := int(a.PropertyIndex) - 1
			if fourCC := dcFourCC[i]; fourCC != "" {
				dc := f.AddDecoderConfig(fourCC)
				if fourCC == "hvc1" {
					cfg, err := loadHEVCDecoderConfig(dcRecord[i])
					if err != nil {
						return model.NewError(model.MediaParsingError, "%v", err)
					}
					dc.Info, dc.Video = cfg.Info, cfg.Video
				} else {
					cfg, err := loadAVCDecoderConfig(dcRecord[i])
					if err != nil {
						return model.NewError(model.MediaParsingError, "%v", err)
					}
					dc.Info, dc.Video = cfg.Info, cfg.Video
				}
				it.DecoderConfig = dc
				continue
			}
			if err := it.AssociateProperty(props[i], a.Essential); err != nil {
				return model.NewError(model.MediaParsingError, "%v", err)
			}
		}
	}
	return nil
}

func loadReferences(f *model.File, iref *Iref, itemsByID map[uint32]*model.Item, overlayHeader map[uint32][]byte) error {
	for _, e := range iref.Entries {
		switch e.Type {
		case RefThmb:
			master := itemsByID[e.ToItems[0]]
			thumb := itemsByID[e.FromItem]
			if master != nil && thumb != nil {
				f.LinkThumbnail(master, thumb)
			}
		case RefAuxl:
			master := itemsByID[e.ToItems[0]]
			aux := itemsByID[e.FromItem]
			if master != nil && aux != nil {
				f.LinkAuxiliary(master, aux)
			}
		case RefCdsc:
			master := itemsByID[e.ToItems[0]]
			meta := itemsByID[e.FromItem]
			if master != nil && meta != nil {
				f.LinkMetadata(master, meta)
			}
		case RefDimg:
			derived := itemsByID[e.FromItem]
			if derived == nil {
				continue
			}
			switch derived.DerivedImageKind {
			case model.DerivedGrid:
				for i, srcID := range e.ToItems {
					src := itemsByID[srcID]
					row, col := uint32(i)/derived.Grid.Columns, uint32(i)%derived.Grid.Columns
					if src != nil {
						if err := derived.Grid.SetImage(col, row, src); err != nil {
							return model.NewError(model.MediaParsingError, "%v", err)
						}
					}
				}
			case model.DerivedOverlay:
				bg, w, h, offsets, err := decodeOverlayData(overlayHeader[e.FromItem], len(e.ToItems))
				if err != nil {
					return model.NewError(model.MediaParsingError, "%v", err)
				}
				derived.Overlay.OutputWidth, derived.Overlay.OutputHeight = w, h
				derived.Overlay.BackgroundR, derived.Overlay.BackgroundG = bg[0], bg[1]
				derived.Overlay.BackgroundB, derived.Overlay.BackgroundA = bg[2], bg[3]
				for i, srcID := range e.ToItems {
					src := itemsByID[srcID]
					if src == nil {
						continue
					}
					off := model.Offset{}
					if i < len(offsets) {
						off = model.Offset{X: offsets[i].X, Y: offsets[i].Y}
					}
					derived.Overlay.AddImage(src, off)
				}
			case model.DerivedIdentity:
				if len(e.ToItems) > 0 {
					derived.IdentitySource = itemsByID[e.ToItems[0]]
				}
			}
		}
	}
	return nil
}

// saveMeta serializes f's items, properties, reference graph, primary item,
// and entity groups into a meta box, appending each item's payload bytes to
// mdatPayload and returning the resulting Iloc so the caller can patch its
// extent offsets once the mdat payload's final file position is known
// (mirrors saveMoov/buildStbl's stco patching for sample chunk offsets).
func saveMeta(f *model.File, mdatPayload []byte) (*Box, *Iloc, []byte, error) {
	items := f.Items()
	if len(items) == 0 {
		return nil, nil, mdatPayload, nil
	}

	hdlrBox := NewBox(TypeHdlr)
	hdlrBox.Hdlr = &Hdlr{HandlerType: [4]byte{'p', 'i', 'c', 't'}}

	itemIndex := make(map[*model.Item]uint32, len(items))
	var infeEntries []*Box
	var ilocEntries []IlocEntry

	// protEntries deduplicates ProtectionInfo (sinf) payloads across items;
	// []byte isn't comparable, so dedup by linear scan, fine at HEIF's item
	// counts. protIndex returns the 1-based ItemProtectionIndex for info,
	// appending a new entry the first time a distinct payload is seen.
	var protEntries [][]byte
	protIndex := func(info []byte) uint16 {
		for i, e := range protEntries {
			if bytes.Equal(e, info) {
				return uint16(i + 1)
			}
		}
		protEntries = append(protEntries, info)
		return uint16(len(protEntries))
	}

	for _, it := range items {
		id := uint32(it.ID())
		itemIndex[it] = id

		infe := &Infe{
			ItemID:          id,
			ItemType:        it.FourCC,
			ItemName:        it.Name,
			ContentType:     it.ContentType,
			ContentEncoding: it.ContentEncoding,
			Hidden:          (it.Kind == model.ItemCodedImage || it.Kind == model.ItemDerivedImage) && it.ImageItem.Hidden,
		}
		if it.Protected {
			infe.ItemProtectionIndex = protIndex(it.ProtectionInfo)
		}
		if it.Kind == model.ItemCodedImage && it.CodedImageKind != model.CodedJPEG && it.DecoderConfig == nil {
			return nil, nil, nil, model.NewError(model.InvalidDecoderConfigId, "item %d (%s) has no decoder configuration", id, it.FourCC)
		}
		infeBox := NewBox(TypeInfe)
		infeBox.Version = 2
		if infe.Hidden {
			infeBox.Flags = 0x1
		}
		infeBox.Infe = infe
		infeEntries = append(infeEntries, infeBox)

		payload, err := itemPayloadBytes(it)
		if err != nil {
			return nil, nil, nil, model.NewError(model.MediaParsingError, "%v", err)
		}
		ilocEntries = append(ilocEntries, IlocEntry{
			ItemID:       id,
			ExtentOffset: uint64(len(mdatPayload)),
			ExtentLength: uint64(len(payload)),
		})
		mdatPayload = append(mdatPayload, payload...)
	}

	iinfBox := NewBox(TypeIinf)
	iinfBox.Version = 0
	iinfBox.Iinf = &Iinf{Entries: infeEntries}

	ilocBox := NewBox(TypeIloc)
	ilocBox.Version = 1
	ilocBox.Iloc = &Iloc{Entries: ilocEntries}

	metaBox := NewBox(TypeMeta)
	metaBox.Children = append(metaBox.Children, hdlrBox, iinfBox, ilocBox)

	if iprpBox := buildIprp(items); iprpBox != nil {
		metaBox.Children = append(metaBox.Children, iprpBox)
	}
	if irefBox := buildIref(items, itemIndex); irefBox != nil {
		metaBox.Children = append(metaBox.Children, irefBox)
	}
	if primary, err := f.PrimaryItem(); err == nil {
		pitmBox := NewBox(TypePitm)
		pitmBox.Pitm = &Pitm{ItemID: uint32(primary.ID())}
		metaBox.Children = append(metaBox.Children, pitmBox)
	}
	if grplBox := buildGrpl(f.Groups(), itemIndex); grplBox != nil {
		metaBox.Children = append(metaBox.Children, grplBox)
	}
	if len(protEntries) > 0 {
		iproBox := NewBox(TypeIpro)
		iproBox.Ipro = &Ipro{}
		for _, info := range protEntries {
			sinfBox := NewBox(TypeSinf)
			sinfBox.Body = info
			iproBox.Ipro.Entries = append(iproBox.Ipro.Entries, sinfBox)
		}
		metaBox.Children = append(metaBox.Children, iproBox)
	}

	return metaBox, ilocBox.Iloc, mdatPayload, nil
}

// itemPayloadBytes returns the bytes an item's single iloc extent points at:
// the coded/meta payload as-is, or the construction data ImageGrid/
// ImageOverlay carry as their own item data (identity derivation carries
// none, per ISO/IEC 23008-12 §6.6.1).
func itemPayloadBytes(it *model.Item) ([]byte, error) {
	switch it.Kind {
	case model.ItemCodedImage:
		return it.EncodedData, nil
	case model.ItemMetaItem:
		return it.Payload, nil
	case model.ItemDerivedImage:
		switch it.DerivedImageKind {
		case model.DerivedGrid:
			return encodeGridData(it.Grid.Columns, it.Grid.Rows, it.Grid.OutputWidth, it.Grid.OutputHeight), nil
		case model.DerivedOverlay:
			srcOffsets := it.Overlay.Offsets()
			offs := make([]overlayOffset, len(srcOffsets))
			for i, o := range srcOffsets {
				offs[i] = overlayOffset{X: o.X, Y: o.Y}
			}
			bg := [4]uint16{it.Overlay.BackgroundR, it.Overlay.BackgroundG, it.Overlay.BackgroundB, it.Overlay.BackgroundA}
			return encodeOverlayData(bg, it.Overlay.OutputWidth, it.Overlay.OutputHeight, offs), nil
		}
	}
	return nil, nil
}

// buildIprp serializes every file-owned property plus each item's decoder
// configuration (when it has one) into ipco, then each item's ordered
// association list into ipma; decoder configs are encoded as essential
// associations since a decoder cannot render the item without them.
func buildIprp(items []*model.Item) *Box {
	var ipcoChildren []*Box
	propPos := make(map[*model.Property]int)
	dcPos := make(map[*model.DecoderConfig]int)

	for _, it := range items {
		for _, a := range it.Properties() {
			if _, ok := propPos[a.Property]; ok {
				continue
			}
			propPos[a.Property] = len(ipcoChildren) + 1
			ipcoChildren = append(ipcoChildren, buildPropertyBox(a.Property))
		}
		if dc := it.DecoderConfig; dc != nil {
			if _, ok := dcPos[dc]; ok {
				continue
			}
			box, err := buildDecoderConfigBox(dc)
			if err != nil {
				continue
			}
			dcPos[dc] = len(ipcoChildren) + 1
			ipcoChildren = append(ipcoChildren, box)
		}
	}
	if len(ipcoChildren) == 0 {
		return nil
	}

	ipcoBox := NewBox(TypeIpco)
	ipcoBox.Children = ipcoChildren

	var ipmaEntries []IpmaEntry
	for _, it := range items {
		var assocs []IpmaAssociation
		if dc := it.DecoderConfig; dc != nil {
			if idx, ok := dcPos[dc]; ok {
				assocs = append(assocs, IpmaAssociation{PropertyIndex: uint16(idx), Essential: true})
			}
		}
		for _, a := range it.Properties() {
			idx, ok := propPos[a.Property]
			if !ok {
				continue
			}
			assocs = append(assocs, IpmaAssociation{PropertyIndex: uint16(idx), Essential: a.Essential})
		}
		if len(assocs) == 0 {
			continue
		}
		ipmaEntries = append(ipmaEntries, IpmaEntry{ItemID: uint32(it.ID()), Associations: assocs})
	}

	ipmaBox := NewBox(TypeIpma)
	if len(ipcoChildren) > 127 {
		ipmaBox.Flags = 0x1
	}
	ipmaBox.Ipma = &Ipma{Entries: ipmaEntries}

	iprpBox := NewBox(TypeIprp)
	iprpBox.Children = []*Box{ipcoBox, ipmaBox}
	return iprpBox
}

func buildPropertyBox(p *model.Property) *Box {
	box := NewBox(boxTypeOfPropertyKind(p.Kind, p.Raw.FourCC))
	switch p.Kind {
	case model.PropIspe:
		box.Ispe = &Ispe{Width: p.Ispe.Width, Height: p.Ispe.Height}
	case model.PropPasp:
		box.PaspProp = &PaspProp{HSpacing: p.Pasp.HSpacing, VSpacing: p.Pasp.VSpacing}
	case model.PropColr:
		c := &Colr{
			ColourPrimaries:         p.Colr.ColourPrimaries,
			TransferCharacteristics: p.Colr.TransferCharacteristics,
			MatrixCoeffs:            p.Colr.MatrixCoeffs,
			FullRangeFlag:           p.Colr.FullRangeFlag,
			ICCProfile:              p.Colr.ICCProfile,
		}
		if p.Colr.Type == model.ColrNclx {
			copy(c.Type[:], "nclx")
		} else {
			copy(c.Type[:], "prof")
		}
		box.Colr = c
	case model.PropPixi:
		box.Pixi = &Pixi{BitsPerChannel: p.Pixi.BitsPerChannel}
	case model.PropRloc:
		box.Rloc = &Rloc{HorizontalOffset: p.Rloc.HorizontalOffset, VerticalOffset: p.Rloc.VerticalOffset}
	case model.PropAuxc:
		box.AuxC = &AuxC{AuxType: p.Auxc.AuxType, Subtype: p.Auxc.Subtype}
	case model.PropClap:
		c := p.Clap
		box.Clap = &Clap{
			CleanApertureWidthN: c.CleanApertureWidthN, CleanApertureWidthD: c.CleanApertureWidthD,
			CleanApertureHeightN: c.CleanApertureHeightN, CleanApertureHeightD: c.CleanApertureHeightD,
			HorizOffN: c.HorizOffN, HorizOffD: c.HorizOffD,
			VertOffN: c.VertOffN, VertOffD: c.VertOffD,
		}
	case model.PropIrot:
		box.Irot = &Irot{Angle: p.Irot.Angle}
	case model.PropImir:
		box.Imir = &Imir{Axis: p.Imir.Axis}
	default:
		box.Body = p.Raw.Bytes
	}
	return box
}

func buildDecoderConfigBox(dc *model.DecoderConfig) (*Box, error) {
	record, err := buildDecoderConfigRecord(dc.FourCC, dc.Info)
	if err != nil {
		return nil, err
	}
	switch dc.FourCC {
	case "hvc1":
		box := NewBox(TypeHvcC)
		box.HvcC = &HvcCBox{Buffer: record}
		return box, nil
	case "avc1":
		box := NewBox(TypeAvcC)
		box.AvcC = &AvcC{Buffer: record}
		return box, nil
	default:
		return nil, fmt.Errorf("heif: unsupported decoder config fourCC %q", dc.FourCC)
	}
}

// buildIref serializes the thumbnail/auxiliary/metadata/derived-from
// reference graph for every image item, one SingleItemTypeReferenceBox per
// link (thmb/auxl/cdsc) and one per derived item (dimg), mirroring
// loadReferences' reverse mapping.
func buildIref(items []*model.Item, itemIndex map[*model.Item]uint32) *Box {
	var entries []IrefEntry
	for _, it := range items {
		if it.Kind != model.ItemCodedImage && it.Kind != model.ItemDerivedImage {
			continue
		}
		masterID := itemIndex[it]
		for _, thumb := range it.ImageItem.Thumbnails() {
			entries = append(entries, IrefEntry{Type: RefThmb, FromItem: itemIndex[thumb], ToItems: []uint32{masterID}})
		}
		for _, aux := range it.ImageItem.Auxiliary() {
			entries = append(entries, IrefEntry{Type: RefAuxl, FromItem: itemIndex[aux], ToItems: []uint32{masterID}})
		}
		for _, meta := range it.ImageItem.Metadata() {
			entries = append(entries, IrefEntry{Type: RefCdsc, FromItem: itemIndex[meta], ToItems: []uint32{masterID}})
		}
		if it.Kind != model.ItemDerivedImage {
			continue
		}
		switch it.DerivedImageKind {
		case model.DerivedGrid:
			var to []uint32
			for row := uint32(0); row < it.Grid.Rows; row++ {
				for col := uint32(0); col < it.Grid.Columns; col++ {
					src, _ := it.Grid.GetImage(col, row)
					if src != nil {
						to = append(to, itemIndex[src])
					}
				}
			}
			if len(to) > 0 {
				entries = append(entries, IrefEntry{Type: RefDimg, FromItem: masterID, ToItems: to})
			}
		case model.DerivedOverlay:
			srcs := it.Overlay.Sources()
			if len(srcs) > 0 {
				to := make([]uint32, len(srcs))
				for i, s := range srcs {
					to[i] = itemIndex[s]
				}
				entries = append(entries, IrefEntry{Type: RefDimg, FromItem: masterID, ToItems: to})
			}
		case model.DerivedIdentity:
			if it.IdentitySource != nil {
				entries = append(entries, IrefEntry{Type: RefDimg, FromItem: masterID, ToItems: []uint32{itemIndex[it.IdentitySource]}})
			}
		}
	}
	if len(entries) == 0 {
		return nil
	}
	b := NewBox(TypeIref)
	b.Iref = &Iref{Entries: entries}
	return b
}

// buildGrpl serializes the file's entity groups with their item members
// only (spec.md §3 "EntityGroup"). Track/Sample members and eqiv timing
// entries are not written to grpl or to any other box, and a group with no
// item members is omitted.
func buildGrpl(groups []*model.EntityGroup, itemIndex map[*model.Item]uint32) *Box {
	var entries []GrplEntry
	for _, g := range groups {
		var ids []uint32
		for _, m := range g.Members() {
			if m.Item == nil {
				continue
			}
			if id, ok := itemIndex[m.Item]; ok {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			continue
		}
		var t BoxType
		copy(t[:], g.Type)
		entries = append(entries, GrplEntry{Type: t, GroupID: uint32(g.ID()), EntityIDs: ids})
	}
	if len(entries) == 0 {
		return nil
	}
	b := NewBox(TypeGrpl)
	b.Grpl = &Grpl{Entries: entries}
	return b
}

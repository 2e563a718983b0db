package heif

import (
	"encoding/binary"
	"fmt"
	"io"
)

// be is the byte order every ISOBMFF integer field uses.
var be = binary.BigEndian

// Box is a decoded ISOBMFF box. Exactly one of the typed payload fields is
// populated for a box with a registered codec; Children holds the parsed
// sub-tree for a plain container box; Body holds the raw, unparsed payload
// for a leaf box with neither a codec nor container status, so that boxes
// this package does not understand round-trip losslessly (spec.md §4.2's
// "preserve unknown children" posture, applied at the box-tree layer).
type Box struct {
	Type    BoxType
	Size    uint64
	Version uint8
	Flags   uint32

	Children []*Box
	Body     []byte

	Ftyp  *Ftyp
	Mvhd  *Mvhd
	Tkhd  *Tkhd
	Mdhd  *Mdhd
	Vmhd  *Vmhd
	Smhd  *Smhd
	Stsd  *Stsd
	Visual *VisualSampleEntry
	AvcC  *AvcC
	HvcC  *HvcCBox
	Audio *AudioSampleEntry
	Esds  *Esds
	Stsz  *Stsz
	Stco  *Stco
	Co64  *Co64
	Stts  *Stts
	Ctts  *Ctts
	Stsc  *Stsc
	Dref  *DrefBox
	Elst  *Elst
	Hdlr  *Hdlr
	Mdat  *Mdat

	Pitm *Pitm
	Iinf *Iinf
	Infe *Infe
	Iloc *Iloc
	Iref *Iref
	Ipma *Ipma
	Ipro *Ipro

	Ispe     *Ispe
	PaspProp *PaspProp
	Colr     *Colr
	Pixi     *Pixi
	Rloc     *Rloc
	AuxC     *AuxC
	Clap     *Clap
	Irot     *Irot
	Imir     *Imir

	Grpl *Grpl

	Sbgp *Sbgp
	Sgpd *Sgpd
	Cslg *Cslg
}

// NewBox returns an empty box of the given type, ready to have exactly one
// typed payload field populated before being handed to EncodingLength/encodeBox.
func NewBox(t BoxType) *Box { return &Box{Type: t} }

func readString(b []byte, from, end int) string {
	if from >= end || from >= len(b) {
		return ""
	}
	nul := from
	for nul < end && nul < len(b) && b[nul] != 0 {
		nul++
	}
	return string(b[from:nul])
}

func clearBytes(b []byte, from, to int) {
	if from < 0 {
		from = 0
	}
	if to > len(b) {
		to = len(b)
	}
	for i := from; i < to; i++ {
		b[i] = 0
	}
}

// Decode parses one box starting at buf[start:], returning it with Size set
// to the number of bytes it occupies so the caller can advance start+=Size.
// end bounds the enclosing container (or len(buf) at the top level).
func Decode(buf []byte, start, end int) (*Box, error) {
	if end-start < 8 {
		return nil, fmt.Errorf("heif: box header truncated at offset %d", start)
	}
	size64 := uint64(be.Uint32(buf[start : start+4]))
	var t BoxType
	copy(t[:], buf[start+4:start+8])

	headerLen := 8
	if size64 == 1 {
		if end-start < 16 {
			return nil, fmt.Errorf("heif: largesize box header truncated at offset %d", start)
		}
		size64 = be.Uint64(buf[start+8 : start+16])
		headerLen = 16
	} else if size64 == 0 {
		size64 = uint64(end - start)
	}

	boxEnd := start + int(size64)
	if size64 < uint64(headerLen) || boxEnd > end {
		return nil, fmt.Errorf("heif: box %q size %d out of range at offset %d", t, size64, start)
	}

	box := &Box{Type: t, Size: size64}
	payloadStart := start + headerLen

	if IsFullBox(t) {
		if boxEnd-payloadStart < 4 {
			return nil, fmt.Errorf("heif: full box %q header truncated", t)
		}
		verFlags := be.Uint32(buf[payloadStart : payloadStart+4])
		box.Version = uint8(verFlags >> 24)
		box.Flags = verFlags & 0x00ffffff
		payloadStart += 4
	}

	if c := getCodec(t); c != nil {
		if err := c.decode(box, buf, payloadStart, boxEnd); err != nil {
			return nil, fmt.Errorf("heif: decoding %q: %w", t, err)
		}
		return box, nil
	}

	if IsContainerBox(t) {
		ptr := payloadStart
		for boxEnd-ptr >= 8 {
			child, err := Decode(buf, ptr, boxEnd)
			if err != nil {
				return nil, err
			}
			box.Children = append(box.Children, child)
			ptr += int(child.Size)
		}
		return box, nil
	}

	box.Body = append([]byte(nil), buf[payloadStart:boxEnd]...)
	return box, nil
}

// EncodingLength returns the total on-wire size of box, including its
// 8-byte (or 16-byte, for a 64-bit largesize box — never chosen by encodeBox
// in this package) header and FullBox version/flags if applicable.
func EncodingLength(box *Box) uint64 {
	n := uint64(8)
	if IsFullBox(box.Type) {
		n += 4
	}
	switch {
	case getCodec(box.Type) != nil:
		n += uint64(getCodec(box.Type).encodingLength(box))
	case box.Children != nil:
		for _, c := range box.Children {
			n += EncodingLength(c)
		}
	default:
		n += uint64(len(box.Body))
	}
	return n
}

// encodeBox serializes box into buf starting at offset, returning the number
// of bytes written (equal to EncodingLength(box)).
func encodeBox(box *Box, buf []byte, offset int) (int, error) {
	size := EncodingLength(box)
	be.PutUint32(buf[offset:offset+4], uint32(size))
	copy(buf[offset+4:offset+8], box.Type[:])
	ptr := offset + 8

	if IsFullBox(box.Type) {
		verFlags := uint32(box.Version)<<24 | box.Flags
		be.PutUint32(buf[ptr:ptr+4], verFlags)
		ptr += 4
	}

	switch {
	case getCodec(box.Type) != nil:
		ptr += getCodec(box.Type).encode(box, buf, ptr)
	case box.Children != nil:
		for _, c := range box.Children {
			n, err := encodeBox(c, buf, ptr)
			if err != nil {
				return 0, err
			}
			ptr += n
		}
	default:
		copy(buf[ptr:], box.Body)
		ptr += len(box.Body)
	}
	return ptr - offset, nil
}

// DecodeFile parses a complete ISOBMFF byte stream into its top-level boxes
// (ftyp, meta, moov, mdat, free, ...).
func DecodeFile(r io.Reader) ([]*Box, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var boxes []*Box
	ptr := 0
	for len(buf)-ptr >= 8 {
		box, err := Decode(buf, ptr, len(buf))
		if err != nil {
			return nil, err
		}
		boxes = append(boxes, box)
		ptr += int(box.Size)
	}
	return boxes, nil
}

// EncodeFile serializes a complete top-level box list to w.
func EncodeFile(w io.Writer, boxes []*Box) error {
	var total uint64
	for _, b := range boxes {
		total += EncodingLength(b)
	}
	buf := make([]byte, total)
	ptr := 0
	for _, b := range boxes {
		n, err := encodeBox(b, buf, ptr)
		if err != nil {
			return err
		}
		ptr += n
	}
	_, err := w.Write(buf)
	return err
}

package heif

import (
	"encoding/binary"
	"fmt"
)

// ImageGrid/ImageOverlay construction structs are stored as an item's own
// coded data (pointed to by its iloc entry), not as nested ISOBMFF boxes —
// they are the raw field layout ISO/IEC 23008-12 §6.6.2/§6.6.3 describe.
// Only the "small fields" form (flags bit 0 clear) is implemented: every
// producer this module targets writes grids/overlays well under the
// 16-bit row/column and offset limits that form covers.

// decodeGridData parses an ImageGrid item-data payload into column/row
// counts and the canvas size.
func decodeGridData(b []byte) (columns, rows, outputWidth, outputHeight uint32, err error) {
	if len(b) < 12 {
		return 0, 0, 0, 0, fmt.Errorf("heif: grid data too short")
	}
	flags := b[1]
	rows = uint32(b[2]) + 1
	columns = uint32(b[3]) + 1
	if flags&0x1 != 0 {
		return 0, 0, 0, 0, fmt.Errorf("heif: large-field ImageGrid unsupported")
	}
	outputWidth = binary.BigEndian.Uint32(b[4:8])
	outputHeight = binary.BigEndian.Uint32(b[8:12])
	return columns, rows, outputWidth, outputHeight, nil
}

// encodeGridData serializes a grid's column/row/canvas fields into the
// small-fields ImageGrid layout.
func encodeGridData(columns, rows, outputWidth, outputHeight uint32) []byte {
	b := make([]byte, 12)
	b[0] = 0 // version
	b[1] = 0 // flags: small fields
	b[2] = byte(rows - 1)
	b[3] = byte(columns - 1)
	binary.BigEndian.PutUint32(b[4:8], outputWidth)
	binary.BigEndian.PutUint32(b[8:12], outputHeight)
	return b
}

// overlayOffset is one source image's placement within the overlay canvas.
type overlayOffset struct{ X, Y int32 }

// decodeOverlayData parses an ImageOverlay item-data payload (small-fields
// form) into the canvas background color, canvas size, and one offset per
// source — the caller pairs these 1:1 with the item's ordered dimg sources.
func decodeOverlayData(b []byte, sourceCount int) (bg [4]uint16, outputWidth, outputHeight uint32, offsets []overlayOffset, err error) {
	if len(b) < 2+8+8 {
		return bg, 0, 0, nil, fmt.Errorf("heif: overlay data too short")
	}
	flags := b[1]
	if flags&0x1 != 0 {
		return bg, 0, 0, nil, fmt.Errorf("heif: large-field ImageOverlay unsupported")
	}
	ptr := 2
	for i := range bg {
		bg[i] = binary.BigEndian.Uint16(b[ptr:])
		ptr += 2
	}
	outputWidth = binary.BigEndian.Uint32(b[ptr:])
	ptr += 4
	outputHeight = binary.BigEndian.Uint32(b[ptr:])
	ptr += 4
	offsets = make([]overlayOffset, 0, sourceCount)
	for i := 0; i < sourceCount && ptr+4 <= len(b); i++ {
		x := int32(int16(binary.BigEndian.Uint16(b[ptr:])))
		y := int32(int16(binary.BigEndian.Uint16(b[ptr+2:])))
		offsets = append(offsets, overlayOffset{X: x, Y: y})
		ptr += 4
	}
	return bg, outputWidth, outputHeight, offsets, nil
}

// encodeOverlayData serializes an overlay's canvas and per-source offsets
// into the small-fields ImageOverlay layout.
func encodeOverlayData(bg [4]uint16, outputWidth, outputHeight uint32, offsets []overlayOffset) []byte {
	b := make([]byte, 2+8+8+4*len(offsets))
	b[0] = 0
	b[1] = 0
	ptr := 2
	for _, c := range bg {
		binary.BigEndian.PutUint16(b[ptr:], c)
		ptr += 2
	}
	binary.BigEndian.PutUint32(b[ptr:], outputWidth)
	ptr += 4
	binary.BigEndian.PutUint32(b[ptr:], outputHeight)
	ptr += 4
	for _, o := range offsets {
		binary.BigEndian.PutUint16(b[ptr:], uint16(int16(o.X)))
		ptr += 2
		binary.BigEndian.PutUint16(b[ptr:], uint16(int16(o.Y)))
		ptr += 2
	}
	return b
}

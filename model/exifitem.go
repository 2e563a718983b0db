package model

import (
	"bytes"

	"github.com/rwcarlsen/goexif/exif"
)

// ExifSummary is a small set of commonly-needed EXIF fields extracted from
// an Exif metadata item's payload, for callers that want orientation/date
// without walking the full tag set themselves.
type ExifSummary struct {
	Orientation int
	DateTime    string
	Make, Model string
}

// DecodeExifSummary parses payload (the Exif item's stored bytes, already
// past the 4-byte TIFF-header-offset prefix HEIF prepends per
// spec.md §4.2's iloc-located metadata items) and extracts a small tag
// summary, grounded on rwcarlsen/goexif's exif.Decode + Get walk.
func DecodeExifSummary(payload []byte) (ExifSummary, error) {
	x, err := exif.Decode(bytes.NewReader(payload))
	if err != nil {
		return ExifSummary{}, NewError(MediaParsingError, "exif decode: %v", err)
	}

	var summary ExifSummary
	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil {
			summary.Orientation = v
		}
	}
	if tag, err := x.Get(exif.DateTime); err == nil {
		if v, err := tag.StringVal(); err == nil {
			summary.DateTime = v
		}
	}
	if tag, err := x.Get(exif.Make); err == nil {
		if v, err := tag.StringVal(); err == nil {
			summary.Make = v
		}
	}
	if tag, err := x.Get(exif.Model); err == nil {
		if v, err := tag.StringVal(); err == nil {
			summary.Model = v
		}
	}
	return summary, nil
}

// ExifSummary parses the receiver's Exif metadata item payload (per
// spec.md §3 "MetaItem::Exif") and returns its tag summary. It is only
// meaningful when Kind == ItemMetaItem and MetaItemKind == MetaExif.
func (it *Item) ExifSummary() (ExifSummary, error) {
	tiff, err := SplitExifPayload(it.Payload)
	if err != nil {
		return ExifSummary{}, err
	}
	return DecodeExifSummary(tiff)
}

// SplitExifPayload separates a HEIF Exif item's raw bytes into the 4-byte
// big-endian header offset and the TIFF blob it points at, per
// bep-imagemeta's handleEXIF convention for these item payloads.
func SplitExifPayload(raw []byte) (tiff []byte, err error) {
	if len(raw) < 4 {
		return nil, NewError(MediaParsingError, "exif payload too short: %d bytes", len(raw))
	}
	hdrOffset := int(raw[0])<<24 | int(raw[1])<<16 | int(raw[2])<<8 | int(raw[3])
	if 4+hdrOffset > len(raw) {
		return nil, NewError(MediaParsingError, "exif header offset %d exceeds payload", hdrOffset)
	}
	return raw[4+hdrOffset:], nil
}

package model

import (
	"golang.org/x/text/encoding/charmap"
)

// NormalizeLegacyText decodes a string field that may have been stored in
// a legacy single-byte codepage (common in item names and content-type
// strings copied from IPTC/legacy authoring tools writing through HEIF
// item infos) into UTF-8. Input already valid UTF-8 is returned unchanged.
//
// Grounded on the ISO8859_1 decoder bep-imagemeta's IPTC metadata decoder
// uses for the same class of legacy-string problem.
func NormalizeLegacyText(b []byte) (string, error) {
	if isValidUTF8(b) {
		return string(b), nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", NewError(MediaParsingError, "legacy text decode: %v", err)
	}
	return string(out), nil
}

func isValidUTF8(b []byte) bool {
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c < 0x80:
			i++
		case c&0xE0 == 0xC0:
			if i+1 >= len(b) || b[i+1]&0xC0 != 0x80 {
				return false
			}
			i += 2
		case c&0xF0 == 0xE0:
			if i+2 >= len(b) || b[i+1]&0xC0 != 0x80 || b[i+2]&0xC0 != 0x80 {
				return false
			}
			i += 3
		case c&0xF8 == 0xF0:
			if i+3 >= len(b) || b[i+1]&0xC0 != 0x80 || b[i+2]&0xC0 != 0x80 || b[i+3]&0xC0 != 0x80 {
				return false
			}
			i += 4
		default:
			return false
		}
	}
	return true
}

// Package nal converts between Annex-B byte-stream NAL unit framing (start
// codes) and the length-prefixed framing HEIF stores inside mdat, for HEVC
// and AVC coded images and samples.
//
// Grounded on rtmpServerStudy/h265Parse's CheckNALUsType/SplitNALUs: this
// port keeps the same two-or-three-zero-byte start code scan but returns
// errors instead of silently truncating on malformed input, per
// spec.md §4.3/§7 (MediaParsingError on non-zero filler).
package nal

import "fmt"

// ErrNonZeroFiller is returned when bytes between NAL units (expected to be
// trailing_zero_8bits / leading_zero_8bits) are not all zero.
var ErrNonZeroFiller = fmt.Errorf("nal: non-zero filler byte between start codes")

// ErrTruncated is returned when a length-prefix entry claims more bytes than
// remain in the buffer.
var ErrTruncated = fmt.Errorf("nal: length-prefixed NAL unit truncated")

// startCodeLen returns the length of a start code beginning at buf[i], or 0
// if there is none. Start codes are any run of zero bytes (leading_zero_8bits)
// followed by 00 00 01.
func startCodeLen(buf []byte, i int) int {
	if i+3 > len(buf) {
		return 0
	}
	if buf[i] != 0 || buf[i+1] != 0 {
		return 0
	}
	j := i + 2
	for j < len(buf) && buf[j] == 0 {
		j++
	}
	if j < len(buf) && buf[j] == 1 {
		return j + 1 - i
	}
	return 0
}

// AnnexBToLengthPrefixed rewrites an Annex-B byte stream (start-code
// delimited NAL units) into a freshly allocated buffer of 4-byte
// big-endian length-prefixed NAL units, as required inside mdat.
//
// Any non-start-code bytes preceding the first start code, or between the
// end of one NAL unit and the next start code, must be zero
// (trailing_zero_8bits); a non-zero filler byte is a hard error.
func AnnexBToLengthPrefixed(b []byte) ([]byte, error) {
	var out []byte
	i := 0
	// Skip to the first start code, verifying any leading bytes are zero.
	first := -1
	for i < len(b) {
		if n := startCodeLen(b, i); n > 0 {
			first = i
			break
		}
		if b[i] != 0 {
			return nil, ErrNonZeroFiller
		}
		i++
	}
	if first < 0 {
		if len(out) == 0 && allZero(b) {
			return out, nil
		}
		return nil, fmt.Errorf("nal: no start code found")
	}
	i = first
	for i < len(b) {
		n := startCodeLen(b, i)
		if n == 0 {
			return nil, fmt.Errorf("nal: expected start code at offset %d", i)
		}
		i += n
		unitStart := i
		// Find the next start code (or EOF), treating trailing zero bytes
		// immediately before it as filler, not payload.
		j := i
		nextStart := len(b)
		for j < len(b) {
			if sc := startCodeLen(b, j); sc > 0 {
				nextStart = j
				break
			}
			j++
		}
		unitEnd := nextStart
		for unitEnd > unitStart && b[unitEnd-1] == 0 {
			// Trailing zero bytes before the next start code are filler,
			// unless they are themselves part of that start code's own
			// leading_zero_8bits run (already excluded: nextStart points at
			// the first 0x00 of that run).
			unitEnd--
		}
		if unitEnd <= unitStart {
			return nil, fmt.Errorf("nal: empty NAL unit at offset %d", unitStart)
		}
		unit := b[unitStart:unitEnd]
		var lenBuf [4]byte
		lenBuf[0] = byte(len(unit) >> 24)
		lenBuf[1] = byte(len(unit) >> 16)
		lenBuf[2] = byte(len(unit) >> 8)
		lenBuf[3] = byte(len(unit))
		out = append(out, lenBuf[:]...)
		out = append(out, unit...)
		i = nextStart
	}
	return out, nil
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// LengthPrefixedToAnnexB overwrites every 4-byte big-endian length field in
// place with the 4-byte start code 00 00 00 01. This is destructive: the
// input buffer is mutated and returned.
func LengthPrefixedToAnnexB(b []byte) ([]byte, error) {
	i := 0
	for i < len(b) {
		if i+4 > len(b) {
			return nil, ErrTruncated
		}
		n := int(b[i])<<24 | int(b[i+1])<<16 | int(b[i+2])<<8 | int(b[i+3])
		if i+4+n > len(b) {
			return nil, ErrTruncated
		}
		b[i], b[i+1], b[i+2], b[i+3] = 0, 0, 0, 1
		i += 4 + n
	}
	return b, nil
}

// SplitLengthPrefixed returns the individual NAL unit payloads (excluding
// their length prefixes) without mutating b.
func SplitLengthPrefixed(b []byte) ([][]byte, error) {
	var units [][]byte
	i := 0
	for i < len(b) {
		if i+4 > len(b) {
			return nil, ErrTruncated
		}
		n := int(b[i])<<24 | int(b[i+1])<<16 | int(b[i+2])<<8 | int(b[i+3])
		i += 4
		if i+n > len(b) {
			return nil, ErrTruncated
		}
		units = append(units, b[i:i+n])
		i += n
	}
	return units, nil
}

package heif

import (
	"fmt"

	"github.com/tetsuo/heif/decconf"
)

// AVCDecoderConfigurationRecord / HEVCDecoderConfigurationRecord parsing and
// rebuilding. The avcC/hvcC codecs in heifboxes.go/codec.go store these
// records as an opaque Buffer (mirroring the teacher's raw AvcC passthrough);
// this file is the bridge between that raw buffer and package decconf's
// parsed parameter sets, grounded on ISO/IEC 14496-15's record layouts.

// parseAVCRecord extracts the single SPS and PPS NAL unit from an
// AVCDecoderConfigurationRecord buffer.
func parseAVCRecord(b []byte) (sps, pps []byte, err error) {
	if len(b) < 7 {
		return nil, nil, fmt.Errorf("heif: avcC record too short")
	}
	ptr := 5
	numSps := int(b[ptr] & 0x1f)
	ptr++
	for i := 0; i < numSps; i++ {
		if ptr+2 > len(b) {
			return nil, nil, fmt.Errorf("heif: avcC record truncated (sps)")
		}
		n := int(b[ptr])<<8 | int(b[ptr+1])
		ptr += 2
		if ptr+n > len(b) {
			return nil, nil, fmt.Errorf("heif: avcC record truncated (sps body)")
		}
		if sps == nil {
			sps = b[ptr : ptr+n]
		}
		ptr += n
	}
	if ptr >= len(b) {
		return nil, nil, fmt.Errorf("heif: avcC record truncated (numPps)")
	}
	numPps := int(b[ptr])
	ptr++
	for i := 0; i < numPps; i++ {
		if ptr+2 > len(b) {
			return nil, nil, fmt.Errorf("heif: avcC record truncated (pps)")
		}
		n := int(b[ptr])<<8 | int(b[ptr+1])
		ptr += 2
		if ptr+n > len(b) {
			return nil, nil, fmt.Errorf("heif: avcC record truncated (pps body)")
		}
		if pps == nil {
			pps = b[ptr : ptr+n]
		}
		ptr += n
	}
	if sps == nil || pps == nil {
		return nil, nil, fmt.Errorf("heif: avcC record missing sps or pps")
	}
	return sps, pps, nil
}

// buildAVCRecord assembles an AVCDecoderConfigurationRecord from a single
// SPS/PPS pair. Profile/compatibility/level bytes are copied from the SPS
// itself (bytes 1-3), so round-tripping through Load preserves them even
// though decconf.VideoInfo doesn't carry them back out.
func buildAVCRecord(sps, pps []byte) []byte {
	b := make([]byte, 0, 11+len(sps)+len(pps))
	b = append(b, 1)
	if len(sps) >= 4 {
		b = append(b, sps[1], sps[2], sps[3])
	} else {
		b = append(b, 0, 0, 0)
	}
	b = append(b, 0xff) // lengthSizeMinusOne=3, reserved bits set
	b = append(b, 0xe1) // reserved(3)='111', numOfSequenceParameterSets=1
	b = append(b, byte(len(sps)>>8), byte(len(sps)))
	b = append(b, sps...)
	b = append(b, 1) // numOfPictureParameterSets
	b = append(b, byte(len(pps)>>8), byte(len(pps)))
	b = append(b, pps...)
	return b
}

// parseHEVCRecord extracts the single VPS, SPS, and PPS NAL unit from an
// HEVCDecoderConfigurationRecord buffer (ISO/IEC 14496-15 §8.3.3.1.2).
func parseHEVCRecord(b []byte) (vps, sps, pps []byte, err error) {
	if len(b) < 23 {
		return nil, nil, nil, fmt.Errorf("heif: hvcC record too short")
	}
	ptr := 22
	numArrays := int(b[ptr])
	ptr++
	for a := 0; a < numArrays; a++ {
		if ptr+3 > len(b) {
			return nil, nil, nil, fmt.Errorf("heif: hvcC record truncated (array header)")
		}
		nalType := b[ptr] & 0x3f
		ptr++
		numNalus := int(b[ptr])<<8 | int(b[ptr+1])
		ptr += 2
		for i := 0; i < numNalus; i++ {
			if ptr+2 > len(b) {
				return nil, nil, nil, fmt.Errorf("heif: hvcC record truncated (nalu length)")
			}
			n := int(b[ptr])<<8 | int(b[ptr+1])
			ptr += 2
			if ptr+n > len(b) {
				return nil, nil, nil, fmt.Errorf("heif: hvcC record truncated (nalu body)")
			}
			unit := b[ptr : ptr+n]
			switch nalType {
			case 32:
				if vps == nil {
					vps = unit
				}
			case 33:
				if sps == nil {
					sps = unit
				}
			case 34:
				if pps == nil {
					pps = unit
				}
			}
			ptr += n
		}
	}
	if vps == nil || sps == nil || pps == nil {
		return nil, nil, nil, fmt.Errorf("heif: hvcC record missing vps/sps/pps")
	}
	return vps, sps, pps, nil
}

// buildHEVCRecord assembles an HEVCDecoderConfigurationRecord carrying one
// VPS/SPS/PPS array each. General profile/level fields are left at zero
// (decconf.VideoInfo doesn't surface them); every field a decoder actually
// needs for parameter-set parsing lives in the NAL units themselves.
func buildHEVCRecord(vps, sps, pps []byte) []byte {
	b := make([]byte, 23)
	b[0] = 1 // configurationVersion
	// bytes 1-11 (profile space/tier/idc, compatibility flags, constraint
	// flags) left zero: conservative, decoder-agnostic defaults.
	b[12] = 0 // general_level_idc
	b[13] = 0xf0
	b[14] = 0
	b[15] = 0xfc
	b[16] = 0xfc
	b[17] = 0xf8
	b[18] = 0xf8
	b[19], b[20] = 0, 0 // avgFrameRate
	b[21] = 0x03        // constantFrameRate=0, numTemporalLayers=0, temporalIdNested=0, lengthSizeMinusOne=3
	b[22] = 3           // numOfArrays

	appendArray := func(nalType byte, unit []byte) {
		b = append(b, 0x80|nalType) // array_completeness=1, reserved=0
		b = append(b, 0, 1)         // numNalus=1
		b = append(b, byte(len(unit)>>8), byte(len(unit)))
		b = append(b, unit...)
	}
	appendArray(32, vps)
	appendArray(33, sps)
	appendArray(34, pps)
	return b
}

// annexBOf prepends a start code to each raw NAL unit and concatenates them,
// the form decconf.ParseAVC/ParseHEVC require.
func annexBOf(units ...[]byte) []byte {
	var out []byte
	for _, u := range units {
		out = append(out, 0, 0, 0, 1)
		out = append(out, u...)
	}
	return out
}

func loadAVCDecoderConfig(record []byte) (decconf.AVCConfig, error) {
	sps, pps, err := parseAVCRecord(record)
	if err != nil {
		return decconf.AVCConfig{}, err
	}
	return decconf.ParseAVC(annexBOf(sps, pps))
}

func loadHEVCDecoderConfig(record []byte) (decconf.HEVCConfig, error) {
	vps, sps, pps, err := parseHEVCRecord(record)
	if err != nil {
		return decconf.HEVCConfig{}, err
	}
	return decconf.ParseHEVC(annexBOf(vps, sps, pps))
}

// buildDecoderConfigRecord re-derives the raw avcC/hvcC bytes from a
// decoder config's normalized Info list.
func buildDecoderConfigRecord(fourCC string, info []decconf.DecoderSpecificInfo) ([]byte, error) {
	switch fourCC {
	case "avc1":
		var sps, pps []byte
		for _, i := range info {
			switch i.Type {
			case decconf.AVCSps:
				sps = i.Bytes
			case decconf.AVCPps:
				pps = i.Bytes
			}
		}
		if sps == nil || pps == nil {
			return nil, fmt.Errorf("heif: avc decoder config missing sps/pps")
		}
		return buildAVCRecord(sps, pps), nil
	case "hvc1":
		var vps, sps, pps []byte
		for _, i := range info {
			switch i.Type {
			case decconf.HEVCVps:
				vps = i.Bytes
			case decconf.HEVCSps:
				sps = i.Bytes
			case decconf.HEVCPps:
				pps = i.Bytes
			}
		}
		if vps == nil || sps == nil || pps == nil {
			return nil, fmt.Errorf("heif: hevc decoder config missing vps/sps/pps")
		}
		return buildHEVCRecord(vps, sps, pps), nil
	default:
		return nil, fmt.Errorf("heif: unsupported decoder config fourCC %q", fourCC)
	}
}

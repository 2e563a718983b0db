package decconf

import (
	"github.com/tetsuo/heif/bitio"
	"github.com/tetsuo/heif/nal"
)

const (
	hevcNalVps = 32
	hevcNalSps = 33
	hevcNalPps = 34
)

const maxHevcSubLayers = 8

// HEVCConfig is the normalized result of parsing an HEVC parameter-set blob:
// one each of VPS, SPS, PPS plus the fields the ispe/pixi box population
// needs.
type HEVCConfig struct {
	Info  []DecoderSpecificInfo
	Video VideoInfo
}

// ParseHEVC decodes an Annex-B blob containing exactly one VPS, one SPS, and
// one PPS NAL unit (in any order; duplicates are a hard error, per
// spec.md §4.4.a).
func ParseHEVC(annexB []byte) (HEVCConfig, error) {
	units, err := splitAnnexBUnits(annexB)
	if err != nil {
		return HEVCConfig{}, err
	}

	var cfg HEVCConfig
	var haveVps, haveSps, havePps bool

	for _, u := range units {
		if len(u) < 2 {
			continue
		}
		nalType := (u[0] >> 1) & 0x3f
		switch nalType {
		case hevcNalVps:
			if haveVps {
				return HEVCConfig{}, parsingErrorf("hevc: duplicate VPS")
			}
			haveVps = true
			cfg.Info = append(cfg.Info, DecoderSpecificInfo{Type: HEVCVps, Bytes: u})
		case hevcNalSps:
			if haveSps {
				return HEVCConfig{}, parsingErrorf("hevc: duplicate SPS")
			}
			haveSps = true
			video, perr := parseHEVCSPS(u)
			if perr != nil {
				return HEVCConfig{}, perr
			}
			cfg.Video = video
			cfg.Info = append(cfg.Info, DecoderSpecificInfo{Type: HEVCSps, Bytes: u})
		case hevcNalPps:
			if havePps {
				return HEVCConfig{}, parsingErrorf("hevc: duplicate PPS")
			}
			havePps = true
			cfg.Info = append(cfg.Info, DecoderSpecificInfo{Type: HEVCPps, Bytes: u})
		}
	}

	if !haveVps || !haveSps || !havePps {
		return HEVCConfig{}, parsingErrorf("hevc: missing required parameter set (vps=%v sps=%v pps=%v)", haveVps, haveSps, havePps)
	}
	return cfg, nil
}

func skipProfileTierLevel(r *bitio.Reader, maxSubLayersMinus1 uint32) error {
	skip := func(n int) error {
		_, err := r.Get(n)
		return err
	}
	if err := skip(2 + 1 + 5); err != nil { // profile_space, tier_flag, profile_idc
		return err
	}
	if err := skip(32); err != nil { // profile_compatibility_flag[32]
		return err
	}
	if err := skip(48); err != nil { // progressive/interlaced/non_packed/frame_only + reserved
		return err
	}
	if err := skip(8); err != nil { // general_level_idc
		return err
	}

	profilePresent := make([]bool, maxHevcSubLayers)
	levelPresent := make([]bool, maxHevcSubLayers)
	for i := uint32(0); i < maxSubLayersMinus1; i++ {
		p, err := r.GetBit()
		if err != nil {
			return err
		}
		l, err := r.GetBit()
		if err != nil {
			return err
		}
		profilePresent[i] = p != 0
		levelPresent[i] = l != 0
	}
	if maxSubLayersMinus1 > 0 {
		for i := maxSubLayersMinus1; i < 8; i++ {
			if err := skip(2); err != nil {
				return err
			}
		}
	}
	for i := uint32(0); i < maxSubLayersMinus1; i++ {
		if profilePresent[i] {
			if err := skip(2 + 1 + 5 + 32 + 48); err != nil {
				return err
			}
		}
		if levelPresent[i] {
			if err := skip(8); err != nil {
				return err
			}
		}
	}
	return nil
}

func parseHEVCSPS(u []byte) (VideoInfo, error) {
	r := bitio.NewReader(u)
	// NAL unit header: forbidden_zero_bit(1) nal_unit_type(6) layer_id(6) temporal_id_plus1(3)
	if _, err := r.Get(2 * 8); err != nil {
		return VideoInfo{}, parsingErrorf("hevc sps: %v", err)
	}

	if _, err := r.Get(4); err != nil { // sps_video_parameter_set_id
		return VideoInfo{}, parsingErrorf("hevc sps: %v", err)
	}
	maxSubLayersMinus1, err := r.Get(3)
	if err != nil {
		return VideoInfo{}, parsingErrorf("hevc sps: %v", err)
	}
	if _, err := r.GetBit(); err != nil { // sps_temporal_id_nesting_flag
		return VideoInfo{}, parsingErrorf("hevc sps: %v", err)
	}
	if err := skipProfileTierLevel(r, maxSubLayersMinus1); err != nil {
		return VideoInfo{}, parsingErrorf("hevc sps profile_tier_level: %v", err)
	}

	if _, err := r.GetUE(); err != nil { // sps_seq_parameter_set_id
		return VideoInfo{}, parsingErrorf("hevc sps: %v", err)
	}
	chromaFormatIdc, err := r.GetUE()
	if err != nil {
		return VideoInfo{}, parsingErrorf("hevc sps: %v", err)
	}
	if chromaFormatIdc == 3 {
		if _, err := r.GetBit(); err != nil { // separate_colour_plane_flag
			return VideoInfo{}, parsingErrorf("hevc sps: %v", err)
		}
	}
	width, err := r.GetUE()
	if err != nil {
		return VideoInfo{}, parsingErrorf("hevc sps: %v", err)
	}
	height, err := r.GetUE()
	if err != nil {
		return VideoInfo{}, parsingErrorf("hevc sps: %v", err)
	}

	confWindowFlag, err := r.GetBit()
	if err != nil {
		return VideoInfo{}, parsingErrorf("hevc sps: %v", err)
	}
	var cropLeft, cropRight, cropTop, cropBottom uint32
	if confWindowFlag != 0 {
		if cropLeft, err = r.GetUE(); err != nil {
			return VideoInfo{}, parsingErrorf("hevc sps: %v", err)
		}
		if cropRight, err = r.GetUE(); err != nil {
			return VideoInfo{}, parsingErrorf("hevc sps: %v", err)
		}
		if cropTop, err = r.GetUE(); err != nil {
			return VideoInfo{}, parsingErrorf("hevc sps: %v", err)
		}
		if cropBottom, err = r.GetUE(); err != nil {
			return VideoInfo{}, parsingErrorf("hevc sps: %v", err)
		}
	}

	bitDepthLumaMinus8, err := r.GetUE()
	if err != nil {
		return VideoInfo{}, parsingErrorf("hevc sps: %v", err)
	}
	bitDepthChromaMinus8, err := r.GetUE()
	if err != nil {
		return VideoInfo{}, parsingErrorf("hevc sps: %v", err)
	}

	subWidthC, subHeightC := 1, 1
	switch chromaFormatIdc {
	case 1:
		subWidthC, subHeightC = 2, 2
	case 2:
		subWidthC, subHeightC = 2, 1
	}

	return VideoInfo{
		Width:          int(width) - subWidthC*int(cropLeft+cropRight),
		Height:         int(height) - subHeightC*int(cropTop+cropBottom),
		ChromaFormat:   int(chromaFormatIdc),
		BitDepthLuma:   int(bitDepthLumaMinus8) + 8,
		BitDepthChroma: int(bitDepthChromaMinus8) + 8,
	}, nil
}

// splitAnnexBUnits is shared by the HEVC and AVC parsers: both receive an
// Annex-B parameter-set blob, never a length-prefixed one (spec.md §4.3:
// coded-image payloads are normalized to Annex-B on load before this parser
// ever sees them).
func splitAnnexBUnits(annexB []byte) ([][]byte, error) {
	lp, err := nal.AnnexBToLengthPrefixed(annexB)
	if err != nil {
		return nil, parsingErrorf("%v", err)
	}
	units, err := nal.SplitLengthPrefixed(lp)
	if err != nil {
		return nil, parsingErrorf("%v", err)
	}
	return units, nil
}

// ConvertHEVCToRawData concatenates VPS/SPS/PPS DecoderSpecificInfo entries
// back into a single Annex-B blob, re-emitting a 00 00 00 01 start code
// before each parameter set (spec.md §6.3).
func ConvertHEVCToRawData(info []DecoderSpecificInfo) []byte {
	var out []byte
	for _, i := range info {
		out = append(out, 0, 0, 0, 1)
		out = append(out, i.Bytes...)
	}
	return out
}

package decconf

import "github.com/tetsuo/heif/bitio"

const (
	avcNalSps = 7
	avcNalPps = 8
)

// AVCConfig is the normalized result of parsing an AVC parameter-set blob:
// one SPS, one PPS, plus the fields the ispe/pixi box population needs.
type AVCConfig struct {
	Info  []DecoderSpecificInfo
	Video VideoInfo
}

// ParseAVC decodes an Annex-B blob containing exactly one SPS and one PPS
// NAL unit (in any order; duplicates are a hard error, per spec.md §4.4.a).
func ParseAVC(annexB []byte) (AVCConfig, error) {
	units, err := splitAnnexBUnits(annexB)
	if err != nil {
		return AVCConfig{}, err
	}

	var cfg AVCConfig
	var haveSps, havePps bool

	for _, u := range units {
		if len(u) < 1 {
			continue
		}
		nalType := u[0] & 0x1f
		switch nalType {
		case avcNalSps:
			if haveSps {
				return AVCConfig{}, parsingErrorf("avc: duplicate SPS")
			}
			haveSps = true
			video, perr := parseAVCSPS(u)
			if perr != nil {
				return AVCConfig{}, perr
			}
			cfg.Video = video
			cfg.Info = append(cfg.Info, DecoderSpecificInfo{Type: AVCSps, Bytes: u})
		case avcNalPps:
			if havePps {
				return AVCConfig{}, parsingErrorf("avc: duplicate PPS")
			}
			havePps = true
			cfg.Info = append(cfg.Info, DecoderSpecificInfo{Type: AVCPps, Bytes: u})
		}
	}

	if !haveSps || !havePps {
		return AVCConfig{}, parsingErrorf("avc: missing required parameter set (sps=%v pps=%v)", haveSps, havePps)
	}
	return cfg, nil
}

// profiles whose SPS carries the chroma/bit-depth/scaling-matrix extension
// fields, per ITU-T H.264 §7.3.2.1.1.
func hasChromaExtension(profileIdc uint32) bool {
	switch profileIdc {
	case 100, 110, 122, 244, 44, 83, 86, 118, 128, 138, 139, 134, 135:
		return true
	}
	return false
}

func skipScalingList(r *bitio.Reader, size int) error {
	lastScale, nextScale := int32(32), int32(8)
	for j := 0; j < size; j++ {
		if nextScale != 0 {
			deltaScale, err := r.GetSE()
			if err != nil {
				return err
			}
			nextScale = (lastScale + deltaScale + 256) % 256
		}
		if nextScale != 0 {
			lastScale = nextScale
		}
	}
	return nil
}

func parseAVCSPS(u []byte) (VideoInfo, error) {
	r := bitio.NewReader(u)
	if _, err := r.Get(8); err != nil { // nal header byte
		return VideoInfo{}, parsingErrorf("avc sps: %v", err)
	}
	profileIdc, err := r.Get(8)
	if err != nil {
		return VideoInfo{}, parsingErrorf("avc sps: %v", err)
	}
	if _, err := r.Get(8); err != nil { // constraint_set flags + reserved
		return VideoInfo{}, parsingErrorf("avc sps: %v", err)
	}
	if _, err := r.Get(8); err != nil { // level_idc
		return VideoInfo{}, parsingErrorf("avc sps: %v", err)
	}
	if _, err := r.GetUE(); err != nil { // seq_parameter_set_id
		return VideoInfo{}, parsingErrorf("avc sps: %v", err)
	}

	chromaFormatIdc := uint32(1)
	bitDepthLumaMinus8, bitDepthChromaMinus8 := uint32(0), uint32(0)
	if hasChromaExtension(profileIdc) {
		chromaFormatIdc, err = r.GetUE()
		if err != nil {
			return VideoInfo{}, parsingErrorf("avc sps: %v", err)
		}
		if chromaFormatIdc == 3 {
			if _, err := r.GetBit(); err != nil { // separate_colour_plane_flag
				return VideoInfo{}, parsingErrorf("avc sps: %v", err)
			}
		}
		if bitDepthLumaMinus8, err = r.GetUE(); err != nil {
			return VideoInfo{}, parsingErrorf("avc sps: %v", err)
		}
		if bitDepthChromaMinus8, err = r.GetUE(); err != nil {
			return VideoInfo{}, parsingErrorf("avc sps: %v", err)
		}
		if _, err := r.GetBit(); err != nil { // qpprime_y_zero_transform_bypass_flag
			return VideoInfo{}, parsingErrorf("avc sps: %v", err)
		}
		scalingMatrixPresent, err := r.GetBit()
		if err != nil {
			return VideoInfo{}, parsingErrorf("avc sps: %v", err)
		}
		if scalingMatrixPresent != 0 {
			n := 8
			if chromaFormatIdc == 3 {
				n = 12
			}
			for i := 0; i < n; i++ {
				present, err := r.GetBit()
				if err != nil {
					return VideoInfo{}, parsingErrorf("avc sps: %v", err)
				}
				if present != 0 {
					size := 16
					if i >= 6 {
						size = 64
					}
					if err := skipScalingList(r, size); err != nil {
						return VideoInfo{}, parsingErrorf("avc sps scaling_list: %v", err)
					}
				}
			}
		}
	}

	if _, err := r.GetUE(); err != nil { // log2_max_frame_num_minus4
		return VideoInfo{}, parsingErrorf("avc sps: %v", err)
	}
	picOrderCntType, err := r.GetUE()
	if err != nil {
		return VideoInfo{}, parsingErrorf("avc sps: %v", err)
	}
	switch picOrderCntType {
	case 0:
		if _, err := r.GetUE(); err != nil { // log2_max_pic_order_cnt_lsb_minus4
			return VideoInfo{}, parsingErrorf("avc sps: %v", err)
		}
	case 1:
		if _, err := r.GetBit(); err != nil { // delta_pic_order_always_zero_flag
			return VideoInfo{}, parsingErrorf("avc sps: %v", err)
		}
		if _, err := r.GetSE(); err != nil { // offset_for_non_ref_pic
			return VideoInfo{}, parsingErrorf("avc sps: %v", err)
		}
		if _, err := r.GetSE(); err != nil { // offset_for_top_to_bottom_field
			return VideoInfo{}, parsingErrorf("avc sps: %v", err)
		}
		numRefCycle, err := r.GetUE()
		if err != nil {
			return VideoInfo{}, parsingErrorf("avc sps: %v", err)
		}
		for i := uint32(0); i < numRefCycle; i++ {
			if _, err := r.GetSE(); err != nil {
				return VideoInfo{}, parsingErrorf("avc sps: %v", err)
			}
		}
	}

	if _, err := r.GetUE(); err != nil { // max_num_ref_frames
		return VideoInfo{}, parsingErrorf("avc sps: %v", err)
	}
	if _, err := r.GetBit(); err != nil { // gaps_in_frame_num_value_allowed_flag
		return VideoInfo{}, parsingErrorf("avc sps: %v", err)
	}
	picWidthInMbsMinus1, err := r.GetUE()
	if err != nil {
		return VideoInfo{}, parsingErrorf("avc sps: %v", err)
	}
	picHeightInMapUnitsMinus1, err := r.GetUE()
	if err != nil {
		return VideoInfo{}, parsingErrorf("avc sps: %v", err)
	}
	frameMbsOnlyFlag, err := r.GetBit()
	if err != nil {
		return VideoInfo{}, parsingErrorf("avc sps: %v", err)
	}
	if frameMbsOnlyFlag == 0 {
		if _, err := r.GetBit(); err != nil { // mb_adaptive_frame_field_flag
			return VideoInfo{}, parsingErrorf("avc sps: %v", err)
		}
	}
	if _, err := r.GetBit(); err != nil { // direct_8x8_inference_flag
		return VideoInfo{}, parsingErrorf("avc sps: %v", err)
	}

	var cropLeft, cropRight, cropTop, cropBottom uint32
	frameCroppingFlag, err := r.GetBit()
	if err != nil {
		return VideoInfo{}, parsingErrorf("avc sps: %v", err)
	}
	if frameCroppingFlag != 0 {
		if cropLeft, err = r.GetUE(); err != nil {
			return VideoInfo{}, parsingErrorf("avc sps: %v", err)
		}
		if cropRight, err = r.GetUE(); err != nil {
			return VideoInfo{}, parsingErrorf("avc sps: %v", err)
		}
		if cropTop, err = r.GetUE(); err != nil {
			return VideoInfo{}, parsingErrorf("avc sps: %v", err)
		}
		if cropBottom, err = r.GetUE(); err != nil {
			return VideoInfo{}, parsingErrorf("avc sps: %v", err)
		}
	}

	subWidthC, subHeightC := 2, 2
	switch chromaFormatIdc {
	case 0:
		subWidthC, subHeightC = 1, 1
	case 2:
		subWidthC, subHeightC = 2, 1
	case 3:
		subWidthC, subHeightC = 1, 1
	}
	cropUnitX := subWidthC
	cropUnitY := subHeightC * (2 - int(frameMbsOnlyFlag))

	width := int(picWidthInMbsMinus1+1)*16 - cropUnitX*int(cropLeft+cropRight)
	height := int(2-int(frameMbsOnlyFlag))*int(picHeightInMapUnitsMinus1+1)*16 - cropUnitY*int(cropTop+cropBottom)

	return VideoInfo{
		Width:          width,
		Height:         height,
		ChromaFormat:   int(chromaFormatIdc),
		BitDepthLuma:   int(bitDepthLumaMinus8) + 8,
		BitDepthChroma: int(bitDepthChromaMinus8) + 8,
	}, nil
}

// ConvertAVCToRawData concatenates SPS/PPS DecoderSpecificInfo entries back
// into a single Annex-B blob, re-emitting a 00 00 00 01 start code before
// each parameter set (spec.md §6.3).
func ConvertAVCToRawData(info []DecoderSpecificInfo) []byte {
	var out []byte
	for _, i := range info {
		out = append(out, 0, 0, 0, 1)
		out = append(out, i.Bytes...)
	}
	return out
}

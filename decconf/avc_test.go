package decconf

import "testing"

func buildAVCBlob(sps []byte) []byte {
	var out []byte
	out = append(out, 0, 0, 0, 1)
	out = append(out, sps...)
	out = append(out, 0, 0, 0, 1)
	out = append(out, byte(avcNalPps), 0xCC, 0xDD) // PPS filler
	return out
}

// encodeAVCSPS writes a baseline-profile (66) SPS, which carries no chroma
// extension fields, for the given width/height in macroblocks.
func encodeAVCSPS(widthMbs, heightMbs uint32) []byte {
	w := newTestBitWriter()
	w.putBits(uint32(avcNalSps), 8) // nal_ref_idc=0, nal_unit_type=7
	w.putBits(66, 8)                // profile_idc = baseline
	w.putBits(0, 8)                 // constraint flags + reserved
	w.putBits(30, 8)                // level_idc
	w.putUE(0)                      // seq_parameter_set_id

	w.putUE(6) // log2_max_frame_num_minus4
	w.putUE(0) // pic_order_cnt_type
	w.putUE(4) // log2_max_pic_order_cnt_lsb_minus4

	w.putUE(1)          // max_num_ref_frames
	w.putBits(0, 1)     // gaps_in_frame_num_value_allowed_flag
	w.putUE(widthMbs - 1)
	w.putUE(heightMbs - 1)
	w.putBits(1, 1) // frame_mbs_only_flag
	w.putBits(0, 1) // direct_8x8_inference_flag
	w.putBits(0, 1) // frame_cropping_flag

	return w.bytes()
}

func TestParseAVCExtractsVideoInfo(t *testing.T) {
	sps := encodeAVCSPS(40, 30) // 640x480
	blob := buildAVCBlob(sps)

	cfg, err := ParseAVC(blob)
	if err != nil {
		t.Fatalf("ParseAVC: %v", err)
	}
	if cfg.Video.Width != 640 || cfg.Video.Height != 480 {
		t.Fatalf("Video = %+v; want 640x480", cfg.Video)
	}
	if cfg.Video.BitDepthLuma != 8 || cfg.Video.BitDepthChroma != 8 {
		t.Fatalf("bit depths = %d/%d; want 8/8", cfg.Video.BitDepthLuma, cfg.Video.BitDepthChroma)
	}
	if len(cfg.Info) != 2 {
		t.Fatalf("len(Info) = %d; want 2", len(cfg.Info))
	}
}

func TestParseAVCRejectsDuplicatePPS(t *testing.T) {
	sps := encodeAVCSPS(20, 15)
	blob := buildAVCBlob(sps)
	blob = append(blob, 0, 0, 0, 1)
	blob = append(blob, byte(avcNalPps), 0xEE)

	if _, err := ParseAVC(blob); err == nil {
		t.Fatal("ParseAVC: want error on duplicate PPS, got nil")
	}
}

func TestParseAVCRejectsMissingSPS(t *testing.T) {
	var blob []byte
	blob = append(blob, 0, 0, 0, 1)
	blob = append(blob, byte(avcNalPps), 0xAA)

	if _, err := ParseAVC(blob); err == nil {
		t.Fatal("ParseAVC: want error on missing SPS, got nil")
	}
}

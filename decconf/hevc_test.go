package decconf

import "testing"

// buildHEVCBlob assembles a minimal Annex-B stream with one VPS, one SPS,
// and one PPS, where the SPS bit layout is precise and the VPS/PPS bodies
// are arbitrary filler (the parser never inspects them).
func buildHEVCBlob(sps []byte) []byte {
	var out []byte
	out = append(out, 0, 0, 0, 1)
	out = append(out, byte(hevcNalVps)<<1, 0, 0xAA, 0xBB) // VPS filler
	out = append(out, 0, 0, 0, 1)
	out = append(out, sps...)
	out = append(out, 0, 0, 0, 1)
	out = append(out, byte(hevcNalPps)<<1, 0, 0xCC) // PPS filler
	return out
}

// encodeHEVCSPS writes a minimal SPS NAL unit for chromaFormatIdc=1 (4:2:0),
// no sub-layers, no conformance window, for the given width/height/bit depths.
func encodeHEVCSPS(width, height, bitDepthLuma, bitDepthChroma uint32) []byte {
	w := newTestBitWriter()
	w.putBits(uint32(hevcNalSps)<<1, 8) // nal_unit_type in upper 6 bits of byte 0
	w.putBits(0, 8)                     // layer_id/temporal_id_plus1 byte

	w.putBits(0, 4) // sps_video_parameter_set_id
	w.putBits(0, 3) // sps_max_sub_layers_minus1
	w.putBits(0, 1) // sps_temporal_id_nesting_flag

	// profile_tier_level (general, maxSubLayersMinus1=0)
	w.putBits(0, 2+1+5) // profile_space, tier_flag, profile_idc
	w.putBits(0, 32)    // profile_compatibility_flag[32]
	w.putBits(0, 48)    // constraint flags + reserved
	w.putBits(0, 8)     // general_level_idc

	w.putUE(0) // sps_seq_parameter_set_id
	w.putUE(1) // chroma_format_idc = 4:2:0
	w.putUE(width)
	w.putUE(height)
	w.putBits(0, 1) // conformance_window_flag = 0
	w.putUE(bitDepthLuma - 8)
	w.putUE(bitDepthChroma - 8)

	return w.bytes()
}

func TestParseHEVCExtractsVideoInfo(t *testing.T) {
	sps := encodeHEVCSPS(1920, 1080, 8, 8)
	blob := buildHEVCBlob(sps)

	cfg, err := ParseHEVC(blob)
	if err != nil {
		t.Fatalf("ParseHEVC: %v", err)
	}
	if cfg.Video.Width != 1920 || cfg.Video.Height != 1080 {
		t.Fatalf("Video = %+v; want 1920x1080", cfg.Video)
	}
	if cfg.Video.ChromaFormat != 1 {
		t.Fatalf("ChromaFormat = %d; want 1", cfg.Video.ChromaFormat)
	}
	if cfg.Video.BitDepthLuma != 8 || cfg.Video.BitDepthChroma != 8 {
		t.Fatalf("bit depths = %d/%d; want 8/8", cfg.Video.BitDepthLuma, cfg.Video.BitDepthChroma)
	}
	if len(cfg.Info) != 3 {
		t.Fatalf("len(Info) = %d; want 3", len(cfg.Info))
	}
}

func TestParseHEVCRejectsDuplicateSPS(t *testing.T) {
	sps := encodeHEVCSPS(640, 480, 8, 8)
	blob := buildHEVCBlob(sps)
	blob = append(blob, 0, 0, 0, 1)
	blob = append(blob, sps...)

	if _, err := ParseHEVC(blob); err == nil {
		t.Fatal("ParseHEVC: want error on duplicate SPS, got nil")
	}
}

func TestParseHEVCRejectsMissingPPS(t *testing.T) {
	sps := encodeHEVCSPS(640, 480, 8, 8)
	var blob []byte
	blob = append(blob, 0, 0, 0, 1)
	blob = append(blob, byte(hevcNalVps)<<1, 0)
	blob = append(blob, 0, 0, 0, 1)
	blob = append(blob, sps...)

	if _, err := ParseHEVC(blob); err == nil {
		t.Fatal("ParseHEVC: want error on missing PPS, got nil")
	}
}

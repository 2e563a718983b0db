package decconf

import "testing"

func TestParseAudioSpecificConfigStereo48k(t *testing.T) {
	// AOT=2 (AAC-LC), samplingFrequencyIndex=3 (48000Hz), channelConfig=2
	raw, err := EncodeAudioSpecificConfig(aotAACLC, 48000, 2)
	if err != nil {
		t.Fatalf("EncodeAudioSpecificConfig: %v", err)
	}

	cfg, err := ParseAudioSpecificConfig(raw)
	if err != nil {
		t.Fatalf("ParseAudioSpecificConfig: %v", err)
	}
	if cfg.ObjectType != aotAACLC {
		t.Fatalf("ObjectType = %d; want %d", cfg.ObjectType, aotAACLC)
	}
	if cfg.SampleRate != 48000 {
		t.Fatalf("SampleRate = %d; want 48000", cfg.SampleRate)
	}
	if cfg.ChannelCount != 2 {
		t.Fatalf("ChannelCount = %d; want 2", cfg.ChannelCount)
	}
	if cfg.Info.Type != AudioSpecificConfig {
		t.Fatalf("Info.Type = %v; want AudioSpecificConfig", cfg.Info.Type)
	}
}

func TestParseAudioSpecificConfigExplicitSampleRate(t *testing.T) {
	// AOT=2, samplingFrequencyIndex=15 followed by an explicit 24-bit
	// samplingFrequency of 44100, channelConfig=1, GASpecificConfig all zero.
	raw := []byte{0x17, 0x80, 0x56, 0x22, 0x08}

	cfg, err := ParseAudioSpecificConfig(raw)
	if err != nil {
		t.Fatalf("ParseAudioSpecificConfig: %v", err)
	}
	if cfg.SampleRate != 44100 {
		t.Fatalf("SampleRate = %d; want 44100", cfg.SampleRate)
	}
	if cfg.ChannelCount != 1 {
		t.Fatalf("ChannelCount = %d; want 1", cfg.ChannelCount)
	}
}

func TestParseAudioSpecificConfigEscapedObjectType(t *testing.T) {
	raw, err := EncodeAudioSpecificConfig(34, 16000, 1) // object type 34 triggers the 31-escape path
	if err != nil {
		t.Fatalf("EncodeAudioSpecificConfig: %v", err)
	}

	cfg, err := ParseAudioSpecificConfig(raw)
	if err != nil {
		t.Fatalf("ParseAudioSpecificConfig: %v", err)
	}
	// object type 34 is not AAC-LC/Main/SSR/LTP, so no GASpecificConfig
	// follows; the parser must still resolve object type and rate correctly.
	if cfg.ObjectType != 34 {
		t.Fatalf("ObjectType = %d; want 34", cfg.ObjectType)
	}
	if cfg.SampleRate != 16000 {
		t.Fatalf("SampleRate = %d; want 16000", cfg.SampleRate)
	}
}

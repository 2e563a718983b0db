package model

import "github.com/tetsuo/heif/decconf"

// DecoderConfig is a decoder configuration record keyed by its sample-entry
// four-character code (hvc1, avc1, mp4a), storing both the raw parameter-
// set/AudioSpecificConfig blob and its parsed normalized form
// (spec.md §3 "DecoderConfig").
type DecoderConfig struct {
	id     DecoderConfigID
	FourCC string
	Info   []decconf.DecoderSpecificInfo

	Video decconf.VideoInfo // populated for hvc1/avc1
	Audio struct {
		SampleRate   int
		ChannelCount int
	}
}

func (c *DecoderConfig) ID() DecoderConfigID { return c.id }

func newDecoderConfig(fourCC string) *DecoderConfig {
	return &DecoderConfig{FourCC: fourCC}
}

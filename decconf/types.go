// Package decconf parses and rebuilds the decoder-configuration records
// HEIF attaches to coded images and samples: HEVC/AVC parameter sets and the
// AAC-LC AudioSpecificConfig. Each parser produces a normalized form (a list
// of DecoderSpecificInfo) alongside the fields the box layer needs
// (width/height/chroma/bit-depth for video, sampleRate/channelCount for
// audio), per spec.md §4.4 and §6.3.
package decconf

import "fmt"

// InfoType tags a single parameter set or config blob within a
// DecoderSpecificInfo list.
type InfoType int

const (
	AVCSps InfoType = iota
	AVCPps
	HEVCVps
	HEVCSps
	HEVCPps
	AudioSpecificConfig
)

func (t InfoType) String() string {
	switch t {
	case AVCSps:
		return "AVC_SPS"
	case AVCPps:
		return "AVC_PPS"
	case HEVCVps:
		return "HEVC_VPS"
	case HEVCSps:
		return "HEVC_SPS"
	case HEVCPps:
		return "HEVC_PPS"
	case AudioSpecificConfig:
		return "AudioSpecificConfig"
	default:
		return fmt.Sprintf("InfoType(%d)", int(t))
	}
}

// DecoderSpecificInfo is one tagged parameter set or config blob.
type DecoderSpecificInfo struct {
	Type  InfoType
	Bytes []byte
}

// ErrParsing reports a malformed bitstream the parser could not decode; it
// corresponds to spec.md's MediaParsingError error kind.
type ErrParsing struct{ msg string }

func (e *ErrParsing) Error() string { return "decconf: " + e.msg }

func parsingErrorf(format string, args ...any) error {
	return &ErrParsing{msg: fmt.Sprintf(format, args...)}
}

// VideoInfo carries the fields the box layer needs from a parsed video
// parameter set, populated by both the HEVC and AVC parsers.
type VideoInfo struct {
	Width          int
	Height         int
	ChromaFormat   int
	BitDepthLuma   int
	BitDepthChroma int
}

// AAC-LC AudioSpecificConfig parsing, grounded on joy4/isom's
// ReadMPEG4AudioConfig/WriteMPEG4AudioConfig, extended with the
// program_config_element and GASpecificConfig paths those helpers skip
// (spec.md §4.4.b), and rebuilt on github.com/nareix/bits reading from a
// bytes.Reader over the raw config bytes.
package decconf

import (
	"bytes"

	"github.com/nareix/bits"
)

const (
	aotAACMain = 1
	aotAACLC   = 2
	aotAACSSR  = 3
	aotAACLTP  = 4
	aotEscape  = 31
)

var aacSampleRateTable = []int{
	96000, 88200, 64000, 48000, 44100, 32000,
	24000, 22050, 16000, 12000, 11025, 8000, 7350,
}

var aacChannelConfigTable = []int{0, 1, 2, 3, 4, 5, 6, 8}

// AudioConfig is the normalized result of parsing an AudioSpecificConfig
// blob: the raw bytes (returned verbatim as the single
// DecoderSpecificInfo, per spec.md §6.3) plus the decoded sample rate and
// channel count the box layer needs for mp4a/smhd population.
type AudioConfig struct {
	Info         DecoderSpecificInfo
	ObjectType   uint
	SampleRate   int
	ChannelCount int
}

// ParseAudioSpecificConfig decodes an ISO/IEC 14496-3 AudioSpecificConfig
// for the AAC-LC profile, including the explicit sample-rate escape, the
// program_config_element path taken when channelConfiguration is 0, and the
// trailing GASpecificConfig.
func ParseAudioSpecificConfig(raw []byte) (AudioConfig, error) {
	r := &bits.Reader{R: bytes.NewReader(raw)}

	objectType, err := readAudioObjectType(r)
	if err != nil {
		return AudioConfig{}, parsingErrorf("aac: %v", err)
	}

	sampleRate, err := readSamplingFrequency(r)
	if err != nil {
		return AudioConfig{}, parsingErrorf("aac: %v", err)
	}

	channelConfig, err := r.ReadBits(4)
	if err != nil {
		return AudioConfig{}, parsingErrorf("aac: channelConfiguration: %v", err)
	}

	channelCount := 0
	if channelConfig == 0 {
		if objectType != aotAACLC {
			return AudioConfig{}, parsingErrorf("aac: program_config_element requires AAC-LC, got object type %d", objectType)
		}
		channelCount, err = readProgramConfigElement(r)
		if err != nil {
			return AudioConfig{}, parsingErrorf("aac: program_config_element: %v", err)
		}
	} else if int(channelConfig) < len(aacChannelConfigTable) {
		channelCount = aacChannelConfigTable[channelConfig]
	}

	switch objectType {
	case aotAACMain, aotAACLC, aotAACSSR, aotAACLTP:
		if err := readGASpecificConfig(r, channelConfig); err != nil {
			return AudioConfig{}, parsingErrorf("aac: GASpecificConfig: %v", err)
		}
	}

	return AudioConfig{
		Info:         DecoderSpecificInfo{Type: AudioSpecificConfig, Bytes: raw},
		ObjectType:   objectType,
		SampleRate:   sampleRate,
		ChannelCount: channelCount,
	}, nil
}

func readAudioObjectType(r *bits.Reader) (uint, error) {
	objectType, err := r.ReadBits(5)
	if err != nil {
		return 0, err
	}
	if objectType == aotEscape {
		ext, err := r.ReadBits(6)
		if err != nil {
			return 0, err
		}
		objectType = 32 + ext
	}
	return objectType, nil
}

func writeAudioObjectType(w *bits.Writer, objectType uint) error {
	if objectType >= 32 {
		if err := w.WriteBits(aotEscape, 5); err != nil {
			return err
		}
		return w.WriteBits(objectType-32, 6)
	}
	return w.WriteBits(objectType, 5)
}

func readSamplingFrequency(r *bits.Reader) (int, error) {
	index, err := r.ReadBits(4)
	if err != nil {
		return 0, err
	}
	if index == 0xf {
		rate, err := r.ReadBits(24)
		if err != nil {
			return 0, err
		}
		return int(rate), nil
	}
	if int(index) >= len(aacSampleRateTable) {
		return 0, parsingErrorf("samplingFrequencyIndex %d out of range", index)
	}
	return aacSampleRateTable[index], nil
}

func sampleRateIndexFor(rate int) (index uint, explicit bool) {
	for i, r := range aacSampleRateTable {
		if r == rate {
			return uint(i), false
		}
	}
	return 0xf, true
}

func writeSamplingFrequency(w *bits.Writer, rate int) error {
	index, explicit := sampleRateIndexFor(rate)
	if err := w.WriteBits(uint(index), 4); err != nil {
		return err
	}
	if explicit {
		return w.WriteBits(uint(rate), 24)
	}
	return nil
}

// readProgramConfigElement skips the element (channel/element layout is
// not surfaced to the box layer) and returns the total channel count
// implied by its element counts, per ISO/IEC 14496-3 §1.13.
func readProgramConfigElement(r *bits.Reader) (int, error) {
	var consumed uint
	read := func(n uint) (uint, error) {
		v, err := r.ReadBits(n)
		consumed += n
		return v, err
	}

	if _, err := read(4); err != nil { // element_instance_tag
		return 0, err
	}
	if _, err := read(2); err != nil { // object_type
		return 0, err
	}
	if _, err := read(4); err != nil { // sampling_frequency_index
		return 0, err
	}

	numFrontChannel, err := read(4)
	if err != nil {
		return 0, err
	}
	numSideChannel, err := read(4)
	if err != nil {
		return 0, err
	}
	numBackChannel, err := read(4)
	if err != nil {
		return 0, err
	}
	numLfeChannel, err := read(2)
	if err != nil {
		return 0, err
	}
	numAssocData, err := read(3)
	if err != nil {
		return 0, err
	}
	numValidCcElement, err := read(4)
	if err != nil {
		return 0, err
	}

	monoMixdownPresent, err := read(1)
	if err != nil {
		return 0, err
	}
	if monoMixdownPresent != 0 {
		if _, err := read(4); err != nil {
			return 0, err
		}
	}
	stereoMixdownPresent, err := read(1)
	if err != nil {
		return 0, err
	}
	if stereoMixdownPresent != 0 {
		if _, err := read(4); err != nil {
			return 0, err
		}
	}
	matrixMixdownPresent, err := read(1)
	if err != nil {
		return 0, err
	}
	if matrixMixdownPresent != 0 {
		if _, err := read(3); err != nil {
			return 0, err
		}
	}

	channelCount := 0
	readElement := func(n uint) error {
		for i := uint(0); i < n; i++ {
			isCpe, err := read(1)
			if err != nil {
				return err
			}
			if _, err := read(4); err != nil { // element_tag_select
				return err
			}
			if isCpe != 0 {
				channelCount += 2
			} else {
				channelCount++
			}
		}
		return nil
	}
	if err := readElement(numFrontChannel); err != nil {
		return 0, err
	}
	if err := readElement(numSideChannel); err != nil {
		return 0, err
	}
	if err := readElement(numBackChannel); err != nil {
		return 0, err
	}
	for i := uint(0); i < numLfeChannel; i++ {
		if _, err := read(4); err != nil {
			return 0, err
		}
		channelCount++
	}
	for i := uint(0); i < numAssocData; i++ {
		if _, err := read(4); err != nil {
			return 0, err
		}
	}
	for i := uint(0); i < numValidCcElement; i++ {
		if _, err := read(1); err != nil { // is_ind_sw_cce_flag
			return 0, err
		}
		if _, err := read(4); err != nil { // valid_cc_element_tag_select
			return 0, err
		}
	}

	if pad := (8 - consumed%8) % 8; pad != 0 {
		if _, err := read(pad); err != nil {
			return 0, err
		}
	}

	commentFieldBytes, err := read(8)
	if err != nil {
		return 0, err
	}
	for i := uint(0); i < commentFieldBytes; i++ {
		if _, err := read(8); err != nil {
			return 0, err
		}
	}

	return channelCount, nil
}

// readGASpecificConfig consumes the GASpecificConfig per ISO/IEC 14496-3
// §4.4.1; extensionFlag3's reserved payload is never defined so we stop
// there, as this is always the tail of the config blob.
func readGASpecificConfig(r *bits.Reader, channelConfig uint) error {
	if _, err := r.ReadBits(1); err != nil { // frameLengthFlag
		return err
	}
	dependsOnCoreCoder, err := r.ReadBits(1)
	if err != nil {
		return err
	}
	if dependsOnCoreCoder != 0 {
		if _, err := r.ReadBits(14); err != nil { // coreCoderDelay
			return err
		}
	}
	extensionFlag, err := r.ReadBits(1)
	if err != nil {
		return err
	}
	if channelConfig == 0 {
		// layerNr is only present when a program_config_element was read
		// immediately before this GASpecificConfig (not modeled here, since
		// the box layer never needs it).
	}
	if extensionFlag != 0 {
		if _, err := r.ReadBits(1); err != nil { // extensionFlag3
			return err
		}
	}
	return nil
}

// EncodeAudioSpecificConfig rebuilds a minimal two-or-five-byte
// AudioSpecificConfig for AAC-LC with no program_config_element and no
// optional GASpecificConfig extensions, matching what ParseAudioSpecificConfig
// accepts back unchanged for the common AAC-LC case (spec.md §6.3
// convert_to_raw_data).
func EncodeAudioSpecificConfig(objectType uint, sampleRate, channelCount int) ([]byte, error) {
	var buf bytes.Buffer
	w := &bits.Writer{W: &buf}

	if err := writeAudioObjectType(w, objectType); err != nil {
		return nil, err
	}
	if err := writeSamplingFrequency(w, sampleRate); err != nil {
		return nil, err
	}

	channelConfig := uint(0)
	for i, c := range aacChannelConfigTable {
		if c == channelCount {
			channelConfig = uint(i)
			break
		}
	}
	if err := w.WriteBits(channelConfig, 4); err != nil {
		return nil, err
	}

	// GASpecificConfig: frameLengthFlag=0, dependsOnCoreCoder=0, extensionFlag=0
	if err := w.WriteBits(0, 1); err != nil {
		return nil, err
	}
	if err := w.WriteBits(0, 1); err != nil {
		return nil, err
	}
	if err := w.WriteBits(0, 1); err != nil {
		return nil, err
	}

	if err := w.FlushBits(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

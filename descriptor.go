package heif

import "fmt"

// MPEG-4 descriptor parsing for the esds box's nested ES_Descriptor /
// DecoderConfigDescriptor / DecoderSpecificInfo / SLConfigDescriptor chain
// (ISO/IEC 14496-1 clause 7.2.6), used here for exactly one purpose: pulling
// an AAC AudioSpecificConfig out of (and building one back into) a HEIF
// audio track's `stsd`/`mp4a`/`esds` sample entry. Grounded on the teacher's
// own `descriptor.go` (tag+variable-length-size recursive descent), adapted
// to a tag-keyed node tree scoped to the one descriptor chain this repo
// ever needs to walk, rather than the teacher's generic name-keyed map of
// every descriptor type an arbitrary `esds` box might carry.

// esdsTag identifies one node in the descriptor chain by its MPEG-4 tag
// byte (ISO/IEC 14496-1 Table 1).
type esdsTag byte

const (
	esdsTagES                  esdsTag = 0x03
	esdsTagDecoderConfig       esdsTag = 0x04
	esdsTagDecoderSpecificInfo esdsTag = 0x05
	esdsTagSLConfig            esdsTag = 0x06
)

// esdsNode is one decoded descriptor: its tag, the object-type-indication
// byte (meaningful only on a DecoderConfigDescriptor node), any raw leaf
// payload (meaningful only on a DecoderSpecificInfo node), and its directly
// nested children in on-wire order.
type esdsNode struct {
	tag      esdsTag
	size     int // total encoded size, tag byte through payload
	oti      byte
	payload  []byte
	children []*esdsNode
}

// child returns the first direct child tagged tag, or nil.
func (n *esdsNode) child(tag esdsTag) *esdsNode {
	for _, c := range n.children {
		if c.tag == tag {
			return c
		}
	}
	return nil
}

// decodeESDSNode decodes one tag+variable-length-size descriptor starting
// at buf[start:end], recursing into its children per its tag's known
// nesting (ES_Descriptor and DecoderConfigDescriptor both carry children;
// DecoderSpecificInfo is always a raw leaf).
func decodeESDSNode(buf []byte, start, end int) *esdsNode {
	if start >= end {
		return nil
	}
	tag := esdsTag(buf[start])
	ptr := start + 1
	size := 0
	for ptr < end {
		b := buf[ptr]
		ptr++
		size = (size << 7) | int(b&0x7f)
		if b&0x80 == 0 {
			break
		}
	}

	n := &esdsNode{tag: tag, size: (ptr - start) + size}

	switch tag {
	case esdsTagES:
		decodeESDescriptorBody(n, buf, ptr, end)
	case esdsTagDecoderConfig:
		decodeDecoderConfigDescriptorBody(n, buf, ptr, end)
	default:
		bodyEnd := min(ptr+size, end)
		n.payload = buf[ptr:bodyEnd]
	}
	return n
}

// decodeESDSChildren walks a run of sibling descriptors starting at
// buf[start:end], stopping once fewer than two bytes remain (not enough for
// a tag plus a one-byte length).
func decodeESDSChildren(buf []byte, start, end int) []*esdsNode {
	var out []*esdsNode
	for ptr := start; ptr+2 <= end; {
		n := decodeESDSNode(buf, ptr, end)
		if n == nil {
			break
		}
		ptr += n.size
		out = append(out, n)
	}
	return out
}

// decodeESDescriptorBody parses ES_Descriptor's fixed header (ES_ID,
// stream-dependence/URL/OCR flags and their optional fields) then decodes
// its remaining bytes as sibling descriptors (DecoderConfigDescriptor,
// SLConfigDescriptor, ...).
func decodeESDescriptorBody(n *esdsNode, buf []byte, start, end int) {
	if start+3 > end {
		return
	}
	flags := buf[start+2]
	ptr := start + 3
	if flags&0x80 != 0 { // streamDependenceFlag: dependsOn_ES_ID
		ptr += 2
	}
	if flags&0x40 != 0 { // URL_Flag: URLlength + URLstring
		if ptr >= end {
			return
		}
		urlLen := int(buf[ptr])
		ptr += urlLen + 1
	}
	if flags&0x20 != 0 { // OCRstreamFlag: OCR_ES_Id
		ptr += 2
	}
	n.children = decodeESDSChildren(buf, ptr, end)
}

// decodeDecoderConfigDescriptorBody reads the objectTypeIndication byte and
// skips the fixed 12-byte streamType/bufferSizeDB/bitrate fields that follow
// it before decoding the trailing DecoderSpecificInfo (and any profile-level
// indication descriptors) as children.
func decodeDecoderConfigDescriptorBody(n *esdsNode, buf []byte, start, end int) {
	if start >= end {
		return
	}
	n.oti = buf[start]
	n.children = decodeESDSChildren(buf, start+13, end)
}

// extractAudioSpecificConfig pulls the AudioSpecificConfig payload out of a
// full esds box buffer's DecoderSpecificInfo descriptor.
func extractAudioSpecificConfig(buf []byte) ([]byte, error) {
	es := decodeESDSNode(buf, 0, len(buf))
	if es == nil || es.tag != esdsTagES {
		return nil, fmt.Errorf("heif: esds missing ES_Descriptor")
	}
	dcd := es.child(esdsTagDecoderConfig)
	if dcd == nil {
		return nil, fmt.Errorf("heif: esds missing DecoderConfigDescriptor")
	}
	dsi := dcd.child(esdsTagDecoderSpecificInfo)
	if dsi == nil || len(dsi.payload) == 0 {
		return nil, fmt.Errorf("heif: esds missing DecoderSpecificInfo")
	}
	return dsi.payload, nil
}

// encodeDescLength encodes n as the MPEG-4 descriptor length's variable
// multi-byte form (7 bits per byte, continuation flag set on every byte but
// the last), the inverse of decodeESDSNode's length loop.
func encodeDescLength(n int) []byte {
	var groups []byte
	for v := n; ; {
		groups = append(groups, byte(v&0x7f))
		v >>= 7
		if v == 0 {
			break
		}
	}
	out := make([]byte, len(groups))
	for i, g := range groups {
		out[len(groups)-1-i] = g
	}
	for i := 0; i < len(out)-1; i++ {
		out[i] |= 0x80
	}
	return out
}

// buildEsds wraps an AudioSpecificConfig in the minimal ES_Descriptor /
// DecoderConfigDescriptor / DecoderSpecificInfo / SLConfigDescriptor chain
// esds carries, mirroring the nesting decodeESDSNode above parses.
func buildEsds(audioSpecificConfig []byte, objectTypeIndication byte) []byte {
	dsi := append([]byte{byte(esdsTagDecoderSpecificInfo)}, encodeDescLength(len(audioSpecificConfig))...)
	dsi = append(dsi, audioSpecificConfig...)

	dcdBody := append([]byte{
		objectTypeIndication,
		0x15,       // streamType=5 (audio) << 2 | upStream=0 << 1 | reserved=1
		0, 0, 0,    // bufferSizeDB
		0, 0, 0, 0, // maxBitrate
		0, 0, 0, 0, // avgBitrate
	}, dsi...)
	dcd := append([]byte{byte(esdsTagDecoderConfig)}, encodeDescLength(len(dcdBody))...)
	dcd = append(dcd, dcdBody...)

	slBody := []byte{0x02} // predefined=2 ("reserved for use in MP4 files")
	sl := append([]byte{byte(esdsTagSLConfig)}, encodeDescLength(len(slBody))...)
	sl = append(sl, slBody...)

	esBody := append([]byte{0, 0, 0}, dcd...) // ES_ID=0, flags=0
	esBody = append(esBody, sl...)
	es := append([]byte{byte(esdsTagES)}, encodeDescLength(len(esBody))...)
	return append(es, esBody...)
}

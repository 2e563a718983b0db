// Package heif implements encoding and decoding of HEIF/ISOBMFF boxes: a
// streaming box-tree codec (this file and codec.go) plus a Load/Save façade
// (facade.go) that maps the box tree onto package model's object model.
package heif

// BoxType is a 4-byte box type identifier.
type BoxType [4]byte

func (t BoxType) String() string {
	return string(t[:])
}

// Known box types.
var (
	TypeFtyp = BoxType{'f', 't', 'y', 'p'} // File type and compatibility
	TypeStyp = BoxType{'s', 't', 'y', 'p'} // Segment type (fragmented MP4)
)

// Movie structure boxes (moov and children).
var (
	TypeMoov = BoxType{'m', 'o', 'o', 'v'} // Movie metadata container
	TypeMvhd = BoxType{'m', 'v', 'h', 'd'} // Movie header (timescale, duration)
	TypeTrak = BoxType{'t', 'r', 'a', 'k'} // Track container
	TypeTkhd = BoxType{'t', 'k', 'h', 'd'} // Track header (ID, dimensions)
	TypeTref = BoxType{'t', 'r', 'e', 'f'} // Track reference container
	TypeTrgr = BoxType{'t', 'r', 'g', 'r'} // Track grouping indication
	TypeEdts = BoxType{'e', 'd', 't', 's'} // Edit list container
	TypeElst = BoxType{'e', 'l', 's', 't'} // Edit list entries
	TypeMdia = BoxType{'m', 'd', 'i', 'a'} // Media information container
	TypeMdhd = BoxType{'m', 'd', 'h', 'd'} // Media header (timescale, duration)
	TypeHdlr = BoxType{'h', 'd', 'l', 'r'} // Handler reference (vide/soun)
	TypeElng = BoxType{'e', 'l', 'n', 'g'} // Extended language tag
	TypeMinf = BoxType{'m', 'i', 'n', 'f'} // Media information container
	TypeVmhd = BoxType{'v', 'm', 'h', 'd'} // Video media header
	TypeSmhd = BoxType{'s', 'm', 'h', 'd'} // Sound media header
	TypeHmhd = BoxType{'h', 'm', 'h', 'd'} // Hint media header
	TypeSthd = BoxType{'s', 't', 'h', 'd'} // Subtitle media header
	TypeNmhd = BoxType{'n', 'm', 'h', 'd'} // Null media header
	TypeDinf = BoxType{'d', 'i', 'n', 'f'} // Data information container
	TypeDref = BoxType{'d', 'r', 'e', 'f'} // Data reference (URL/URN entries)
)

// Sample table boxes (stbl children).
var (
	TypeStbl = BoxType{'s', 't', 'b', 'l'} // Sample table container
	TypeStsd = BoxType{'s', 't', 's', 'd'} // Sample descriptions (codec config)
	TypeStts = BoxType{'s', 't', 't', 's'} // Decoding time-to-sample
	TypeCtts = BoxType{'c', 't', 't', 's'} // Composition time-to-sample
	TypeCslg = BoxType{'c', 's', 'l', 'g'} // Composition to decode timeline mapping
	TypeStsc = BoxType{'s', 't', 's', 'c'} // Sample-to-chunk mapping
	TypeStsz = BoxType{'s', 't', 's', 'z'} // Sample sizes
	TypeStz2 = BoxType{'s', 't', 'z', '2'} // Compact sample sizes
	TypeStco = BoxType{'s', 't', 'c', 'o'} // Chunk offsets (32-bit)
	TypeCo64 = BoxType{'c', 'o', '6', '4'} // Chunk offsets (64-bit)
	TypeStss = BoxType{'s', 't', 's', 's'} // Sync sample table (keyframes)
	TypeStsh = BoxType{'s', 't', 's', 'h'} // Shadow sync sample table
	TypePadb = BoxType{'p', 'a', 'd', 'b'} // Padding bits
	TypeStdp = BoxType{'s', 't', 'd', 'p'} // Sample degradation priority
	TypeSdtp = BoxType{'s', 'd', 't', 'p'} // Sample dependency type
	TypeSbgp = BoxType{'s', 'b', 'g', 'p'} // Sample-to-group
	TypeSgpd = BoxType{'s', 'g', 'p', 'd'} // Sample group description
	TypeSubs = BoxType{'s', 'u', 'b', 's'} // Sub-sample information
	TypeSaiz = BoxType{'s', 'a', 'i', 'z'} // Sample auxiliary information sizes
	TypeSaio = BoxType{'s', 'a', 'i', 'o'} // Sample auxiliary information offsets
)

// Fragment boxes (moof and children, mvex).
var (
	TypeMvex = BoxType{'m', 'v', 'e', 'x'} // Movie extends (signals fragmented file)
	TypeMehd = BoxType{'m', 'e', 'h', 'd'} // Movie extends header (fragment duration)
	TypeTrex = BoxType{'t', 'r', 'e', 'x'} // Track extends defaults
	TypeLeva = BoxType{'l', 'e', 'v', 'a'} // Level assignment
	TypeMoof = BoxType{'m', 'o', 'o', 'f'} // Movie fragment container
	TypeMfhd = BoxType{'m', 'f', 'h', 'd'} // Movie fragment header (sequence number)
	TypeTraf = BoxType{'t', 'r', 'a', 'f'} // Track fragment container
	TypeTfhd = BoxType{'t', 'f', 'h', 'd'} // Track fragment header
	TypeTfdt = BoxType{'t', 'f', 'd', 't'} // Track fragment decode time
	TypeTrun = BoxType{'t', 'r', 'u', 'n'} // Track run (per-sample metadata)
	TypeSidx = BoxType{'s', 'i', 'd', 'x'} // Segment index
	TypeEmsg = BoxType{'e', 'm', 's', 'g'} // Event message
)

// Metadata boxes.
var (
	TypeMeta = BoxType{'m', 'e', 't', 'a'} // Metadata container
	TypeUdta = BoxType{'u', 'd', 't', 'a'} // User data container
)

// Data boxes.
var (
	TypeMdat = BoxType{'m', 'd', 'a', 't'} // Media data payload
	TypeFree = BoxType{'f', 'r', 'e', 'e'} // Free space (can be skipped)
	TypeSkip = BoxType{'s', 'k', 'i', 'p'} // Free space (can be skipped)
)

// Sample entry boxes (children of stsd).
var (
	TypeAvc1 = BoxType{'a', 'v', 'c', '1'} // AVC/H.264 visual sample entry
	TypeAvcC = BoxType{'a', 'v', 'c', 'C'} // AVC decoder configuration record
	TypeHvc1 = BoxType{'h', 'v', 'c', '1'} // HEVC/H.265 visual sample entry
	TypeHvcC = BoxType{'h', 'v', 'c', 'C'} // HEVC decoder configuration record
	TypeBtrt = BoxType{'b', 't', 'r', 't'} // MPEG-4 bit rate
	TypePasp = BoxType{'p', 'a', 's', 'p'} // Pixel aspect ratio
	TypeMp4a = BoxType{'m', 'p', '4', 'a'} // MPEG-4 audio sample entry
	TypeEsds = BoxType{'e', 's', 'd', 's'} // ES descriptor
)

// HEIF metabox boxes (meta and its children, spec.md §4.2).
var (
	TypePitm    = BoxType{'p', 'i', 't', 'm'} // Primary item
	TypeIinf    = BoxType{'i', 'i', 'n', 'f'} // Item information container
	TypeInfe    = BoxType{'i', 'n', 'f', 'e'} // Item information entry
	TypeIloc    = BoxType{'i', 'l', 'o', 'c'} // Item location
	TypeIdat    = BoxType{'i', 'd', 'a', 't'} // Item data (construction_method 1)
	TypeIref    = BoxType{'i', 'r', 'e', 'f'} // Item reference container
	TypeIprp    = BoxType{'i', 'p', 'r', 'p'} // Item properties container
	TypeIpco    = BoxType{'i', 'p', 'c', 'o'} // Item property container
	TypeIpma    = BoxType{'i', 'p', 'm', 'a'} // Item property association
	TypeGrpl    = BoxType{'g', 'r', 'p', 'l'} // Entity group list
)

// Item properties (ipco children, spec.md §3 PropertyKind).
var (
	TypeIspe = BoxType{'i', 's', 'p', 'e'} // Image spatial extents
	TypeColr = BoxType{'c', 'o', 'l', 'r'} // Colour information
	TypePixi = BoxType{'p', 'i', 'x', 'i'} // Pixel information
	TypeRloc = BoxType{'r', 'l', 'o', 'c'} // Relative location
	TypeAuxC = BoxType{'a', 'u', 'x', 'C'} // Auxiliary type
	TypeClap = BoxType{'c', 'l', 'a', 'p'} // Clean aperture
	TypeIrot = BoxType{'i', 'r', 'o', 't'} // Image rotation
	TypeImir = BoxType{'i', 'm', 'i', 'r'} // Image mirror
)

// Item-reference types (iref entries, spec.md §3/§4 item-reference graph).
var (
	RefThmb = BoxType{'t', 'h', 'm', 'b'} // thumbnail-of
	RefAuxl = BoxType{'a', 'u', 'x', 'l'} // auxiliary-of
	RefCdsc = BoxType{'c', 'd', 's', 'c'} // content-describes (metadata-of)
	RefDimg = BoxType{'d', 'i', 'm', 'g'} // derived-from
	RefBase = BoxType{'b', 'a', 's', 'e'} // base-of
)

// Derived-image construction box types, nested under the derived item's
// own entry the way an image's coded data is (spec.md §4.5).
var (
	TypeGrid = BoxType{'g', 'r', 'i', 'd'}
	TypeIovl = BoxType{'i', 'o', 'v', 'l'}
	TypeIdentity = BoxType{'i', 'd', 'e', 'n'} // identity derivation, rare but legal
)

// Protection-scheme passthrough (spec.md §D.3 — never parsed).
var (
	TypeSinf = BoxType{'s', 'i', 'n', 'f'}
	TypeIpro = BoxType{'i', 'p', 'r', 'o'}
)

// IsFullBox returns true if the box type has version and flags fields.
func IsFullBox(t BoxType) bool {
	switch t {
	case TypeMvhd, TypeTkhd, TypeMdhd, TypeHdlr,
		TypeVmhd, TypeSmhd, TypeDref, TypeStsd,
		TypeStts, TypeCtts, TypeStsc, TypeStsz,
		TypeStco, TypeCo64, TypeStss, TypeElst,
		TypeMeta, TypeEsds, TypeMehd, TypeTrex,
		TypeMfhd, TypeTfhd, TypeTfdt, TypeTrun,
		TypeSbgp, TypeSgpd, TypeSaiz, TypeSaio,
		TypeCslg, TypeSdtp, TypeSidx, TypeEmsg,
		TypePitm, TypeIinf, TypeInfe, TypeIloc,
		TypeIref, TypeIpma, TypeIpro, TypeRloc, TypeAuxC:
		return true
	}
	return false
}

// IsContainerBox returns true if the box type is a container that holds child boxes.
func IsContainerBox(t BoxType) bool {
	switch t {
	case TypeMoov, TypeTrak, TypeEdts, TypeMdia,
		TypeMinf, TypeDinf, TypeStbl, TypeUdta,
		TypeMeta, TypeTref, TypeTrgr,
		TypeIinf, TypeIprp, TypeIpco:
		return true
	}
	return false
}

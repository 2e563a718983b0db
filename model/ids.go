package model

// ItemID, PropertyIndex, GroupID, and DecoderConfigID use 0 as their
// invalid sentinel; SequenceID and SampleID use 0xFFFF_FFFF, per
// spec.md §6.2. Ids are assigned only by File.Renumber, which Save and
// Load run (spec.md §3 invariant 9); until then every id reads zero, which
// is the invalid handle for the first four types but not for SequenceID
// and SampleID.
type ItemID uint32

const InvalidItemID ItemID = 0

type PropertyIndex uint32

const InvalidPropertyIndex PropertyIndex = 0

type GroupID uint32

const InvalidGroupID GroupID = 0

type DecoderConfigID uint32

const InvalidDecoderConfigID DecoderConfigID = 0

type SequenceID uint32

const InvalidSequenceID SequenceID = 0xFFFFFFFF

type SampleID uint32

const InvalidSampleID SampleID = 0xFFFFFFFF

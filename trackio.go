package heif

import (
	"github.com/tetsuo/heif/decconf"
	"github.com/tetsuo/heif/model"
	"github.com/tetsuo/heif/sampletable"
)

func handlerTypeOf(fourCC [4]byte) model.HandlerType {
	switch string(fourCC[:]) {
	case "vide":
		return model.HandlerVide
	case "soun":
		return model.HandlerSoun
	default:
		return model.HandlerPict
	}
}

func matrixFromBytes(b [36]byte) [9]int32 {
	var m [9]int32
	for i := range m {
		m[i] = int32(be.Uint32(b[i*4:]))
	}
	return m
}

func matrixToBytes(m [9]int32) [36]byte {
	var b [36]byte
	for i, v := range m {
		be.PutUint32(b[i*4:], uint32(v))
	}
	return b
}

func trefKindOf(t BoxType) (model.TrackReferenceKind, bool) {
	switch t {
	case RefThmb:
		return model.RefThumbnail, true
	case RefAuxl:
		return model.RefAuxiliary, true
	case RefCdsc:
		return model.RefDescription, true
	}
	return 0, false
}

// expandRuns turns a run-length-coded (count, value) list into a flat
// per-sample slice, the inverse of sampletable's BuildStts/BuildCtts/BuildSbgp.
func expandRuns[T any](counts []uint32, values []T, total int) []T {
	out := make([]T, 0, total)
	for i, c := range counts {
		for j := uint32(0); j < c; j++ {
			out = append(out, values[i])
		}
	}
	return out
}

// loadMoov populates f's tracks and samples from a decoded moov box. Track
// references (tref) are resolved between tracks only; itemsByID is not
// consulted, so no track or sample is linked to a metadata item.
func loadMoov(f *model.File, moovBox *Box, data []byte, itemsByID map[uint32]*model.Item) error {
	trakBoxes := findChildren(moovBox.Children, TypeTrak)
	tracks := make([]*model.Track, len(trakBoxes))
	trackByWireID := make(map[uint32]*model.Track, len(trakBoxes))
	altGroupOf := make(map[uint16]*model.AlternativeTrackGroup)

	movieTimescale := uint32(1000)
	if mvhd := findChild(moovBox.Children, TypeMvhd); mvhd != nil && mvhd.Mvhd != nil {
		movieTimescale = mvhd.Mvhd.TimeScale
	}

	for i, trak := range trakBoxes {
		tkhd := findChild(trak.Children, TypeTkhd)
		mdia := findChild(trak.Children, TypeMdia)
		if tkhd == nil || mdia == nil {
			return model.NewError(model.FileReadError, "heif: trak missing tkhd/mdia")
		}
		mdhd := findChild(mdia.Children, TypeMdhd)
		hdlr := findChild(mdia.Children, TypeHdlr)
		minf := findChild(mdia.Children, TypeMinf)
		if mdhd == nil || hdlr == nil || minf == nil {
			return model.NewError(model.FileReadError, "heif: mdia missing mdhd/hdlr/minf")
		}
		stbl := findChild(minf.Children, TypeStbl)
		if stbl == nil {
			return model.NewError(model.FileReadError, "heif: minf missing stbl")
		}

		track := f.AddTrack(handlerTypeOf(hdlr.Hdlr.HandlerType))
		track.Timescale = mdhd.Mdhd.TimeScale
		track.Matrix = matrixFromBytes(tkhd.Tkhd.Matrix)
		track.Width = tkhd.Tkhd.TrackWidth
		track.Height = tkhd.Tkhd.TrackHeight
		tracks[i] = track
		trackByWireID[tkhd.Tkhd.TrackId] = track

		if tkhd.Tkhd.AlternateGroup != 0 {
			g, ok := altGroupOf[tkhd.Tkhd.AlternateGroup]
			if !ok {
				g = f.NewAlternativeTrackGroup()
				altGroupOf[tkhd.Tkhd.AlternateGroup] = g
			}
			if err := g.Add(track); err != nil {
				return model.NewError(model.FileReadError, "%v", err)
			}
		}

		if edts := findChild(trak.Children, TypeEdts); edts != nil {
			if elst := findChild(edts.Children, TypeElst); elst != nil {
				track.EditList = loadEditList(elst.Elst, movieTimescale, mdhd.Mdhd.TimeScale)
			}
		}

		if err := loadSampleTable(f, track, stbl, data); err != nil {
			return err
		}
	}

	for i, trak := range trakBoxes {
		tref := findChild(trak.Children, TypeTref)
		if tref == nil {
			continue
		}
		for _, child := range tref.Children {
			kind, ok := trefKindOf(child.Type)
			if !ok {
				continue
			}
			for off := 0; off+4 <= len(child.Body); off += 4 {
				wireID := be.Uint32(child.Body[off:])
				other, ok := trackByWireID[wireID]
				if !ok {
					continue
				}
				if err := tracks[i].AddReference(kind, other); err != nil {
					return model.NewError(model.FileReadError, "%v", err)
				}
			}
		}
	}

	return nil
}

// loadEditList converts elst entries into the model's higher-level
// EditUnit form. ISOBMFF's elst carries no explicit repeat count, so every
// entry becomes a single EditEmpty/EditShift unit with NumberOfRepeats=0
// (played once) — a documented simplification of the forward-only
// EditUnit design sampletable.BuildElst assumes.
func loadEditList(elst *Elst, movieTimescale, mediaTimescale uint32) []model.EditUnit {
	units := make([]model.EditUnit, 0, len(elst.Entries))
	for _, e := range elst.Entries {
		timeSpanMs := int64(e.TrackDuration) * 1000 / int64(movieTimescale)
		if e.MediaTime < 0 {
			units = append(units, model.EditUnit{Kind: model.EditEmpty, TimeSpanMs: timeSpanMs, NumberOfRepeats: 0})
			continue
		}
		mediaTimeMs := int64(e.MediaTime) * 1000 / int64(mediaTimescale)
		units = append(units, model.EditUnit{Kind: model.EditShift, TimeSpanMs: timeSpanMs, MediaTimeMs: mediaTimeMs, NumberOfRepeats: 0})
	}
	return units
}

func loadSampleTable(f *model.File, track *model.Track, stbl *Box, data []byte) error {
	stsdBox := findChild(stbl.Children, TypeStsd)
	sttsBox := findChild(stbl.Children, TypeStts)
	stszBox := findChild(stbl.Children, TypeStsz)
	stscBox := findChild(stbl.Children, TypeStsc)
	stcoBox := findChild(stbl.Children, TypeStco)
	co64Box := findChild(stbl.Children, TypeCo64)
	cttsBox := findChild(stbl.Children, TypeCtts)
	stssBox := findChild(stbl.Children, TypeStss)
	sbgpBox := findChild(stbl.Children, TypeSbgp)
	sgpdBox := findChild(stbl.Children, TypeSgpd)

	if stsdBox == nil || stsdBox.Stsd == nil || len(stsdBox.Stsd.Entries) == 0 {
		return model.NewError(model.FileReadError, "heif: stbl missing stsd")
	}
	entryBox := stsdBox.Stsd.Entries[0]
	dc, err := loadSampleEntryDecoderConfig(f, entryBox)
	if err != nil {
		return err
	}

	var chunkOffsets []uint64
	switch {
	case co64Box != nil && co64Box.Co64 != nil:
		chunkOffsets = co64Box.Co64.Entries
	case stcoBox != nil && stcoBox.Stco != nil:
		for _, o := range stcoBox.Stco.Entries {
			chunkOffsets = append(chunkOffsets, uint64(o))
		}
	default:
		return model.NewError(model.FileReadError, "heif: stbl missing stco/co64")
	}

	if stszBox == nil || stszBox.Stsz == nil {
		return model.NewError(model.FileReadError, "heif: stbl missing stsz")
	}
	sampleCount := len(stszBox.Stsz.Entries)
	if stszBox.Stsz.SampleSize != 0 {
		sampleCount = len(chunkOffsets) // fallback: recomputed below once chunk layout is known
	}

	if stscBox == nil || stscBox.Stsc == nil || len(stscBox.Stsc.Entries) == 0 {
		return model.NewError(model.FileReadError, "heif: stbl missing stsc")
	}
	samplesPerChunk := make([]uint32, len(chunkOffsets))
	entries := stscBox.Stsc.Entries
	for i, e := range entries {
		lastChunk := len(chunkOffsets)
		if i+1 < len(entries) {
			lastChunk = int(entries[i+1].FirstChunk) - 1
		}
		for c := int(e.FirstChunk); c <= lastChunk && c-1 < len(chunkOffsets); c++ {
			samplesPerChunk[c-1] = e.SamplesPerChunk
		}
	}

	if stszBox.Stsz.SampleSize == 0 {
		sampleCount = len(stszBox.Stsz.Entries)
	} else {
		total := 0
		for _, n := range samplesPerChunk {
			total += int(n)
		}
		sampleCount = total
	}

	sampleSize := func(i int) uint32 {
		if stszBox.Stsz.SampleSize != 0 {
			return stszBox.Stsz.SampleSize
		}
		return stszBox.Stsz.Entries[i]
	}

	var durations []uint32
	if sttsBox != nil && sttsBox.Stts != nil {
		counts := make([]uint32, len(sttsBox.Stts.Entries))
		vals := make([]uint32, len(sttsBox.Stts.Entries))
		for i, e := range sttsBox.Stts.Entries {
			counts[i], vals[i] = e.Count, e.Duration
		}
		durations = expandRuns(counts, vals, sampleCount)
	}

	var compOffsets []int32
	if cttsBox != nil && cttsBox.Ctts != nil {
		counts := make([]uint32, len(cttsBox.Ctts.Entries))
		vals := make([]int32, len(cttsBox.Ctts.Entries))
		for i, e := range cttsBox.Ctts.Entries {
			counts[i], vals[i] = e.Count, e.CompositionOffset
		}
		compOffsets = expandRuns(counts, vals, sampleCount)
	}

	isSync := make([]bool, sampleCount)
	if stssBox != nil && stssBox.Stco != nil {
		for _, n := range stssBox.Stco.Entries {
			if int(n) >= 1 && int(n) <= sampleCount {
				isSync[n-1] = true
			}
		}
	} else {
		for i := range isSync {
			isSync[i] = true
		}
	}

	samples := make([]*model.Sample, sampleCount)
	sampleIdx := 0
	for c, off := range chunkOffsets {
		pos := off
		for s := uint32(0); s < samplesPerChunk[c] && sampleIdx < sampleCount; s++ {
			size := sampleSize(sampleIdx)
			if pos+uint64(size) > uint64(len(data)) {
				return model.NewError(model.FileReadError, "heif: sample %d exceeds file length", sampleIdx)
			}
			sm := f.AddSample(track, dc.FourCC)
			sm.Bytes = data[pos : pos+uint64(size)]
			sm.DecoderConfig = dc
			if sampleIdx < len(durations) {
				sm.Duration = durations[sampleIdx]
			}
			if sampleIdx < len(compOffsets) {
				sm.CompositionOffset = compOffsets[sampleIdx]
			}
			sm.Sync = isSync[sampleIdx]
			samples[sampleIdx] = sm
			pos += uint64(size)
			sampleIdx++
		}
	}

	if sbgpBox != nil && sbgpBox.Sbgp != nil && sgpdBox != nil && sgpdBox.Sgpd != nil {
		counts := make([]uint32, len(sbgpBox.Sbgp.Entries))
		idxVals := make([]uint32, len(sbgpBox.Sbgp.Entries))
		for i, e := range sbgpBox.Sbgp.Entries {
			counts[i], idxVals[i] = e.SampleCount, e.GroupDescriptionIndex
		}
		perSample := expandRuns(counts, idxVals, sampleCount)
		for i, groupIdx := range perSample {
			if groupIdx == 0 || int(groupIdx) > len(sgpdBox.Sgpd.Entries) {
				continue
			}
			entry := sgpdBox.Sgpd.Entries[groupIdx-1]
			for _, ref := range entry.RefIndices {
				if ref == 0 || int(ref) > sampleCount {
					continue
				}
				if err := samples[i].AddDecodeDependency(samples[ref-1]); err != nil {
					return model.NewError(model.FileReadError, "%v", err)
				}
			}
		}
	}

	return nil
}

func loadSampleEntryDecoderConfig(f *model.File, entryBox *Box) (*model.DecoderConfig, error) {
	switch entryBox.Type {
	case TypeHvc1:
		hvcC := findChild(entryBox.Visual.Children, TypeHvcC)
		if hvcC == nil || hvcC.HvcC == nil {
			return nil, model.NewError(model.DecoderConfigurationError, "heif: hvc1 missing hvcC")
		}
		cfg, err := loadHEVCDecoderConfig(hvcC.HvcC.Buffer)
		if err != nil {
			return nil, model.NewError(model.DecoderConfigurationError, "%v", err)
		}
		dc := f.AddDecoderConfig("hvc1")
		dc.Info = cfg.Info
		dc.Video = cfg.Video
		return dc, nil
	case TypeAvc1:
		avcC := findChild(entryBox.Visual.Children, TypeAvcC)
		if avcC == nil || avcC.AvcC == nil {
			return nil, model.NewError(model.DecoderConfigurationError, "heif: avc1 missing avcC")
		}
		cfg, err := loadAVCDecoderConfig(avcC.AvcC.Buffer)
		if err != nil {
			return nil, model.NewError(model.DecoderConfigurationError, "%v", err)
		}
		dc := f.AddDecoderConfig("avc1")
		dc.Info = cfg.Info
		dc.Video = cfg.Video
		return dc, nil
	case TypeMp4a:
		esds := findChild(entryBox.Audio.Children, TypeEsds)
		if esds == nil || esds.Esds == nil {
			return nil, model.NewError(model.DecoderConfigurationError, "heif: mp4a missing esds")
		}
		asc, err := extractAudioSpecificConfig(esds.Esds.Buffer)
		if err != nil {
			return nil, model.NewError(model.DecoderConfigurationError, "%v", err)
		}
		cfg, err := decconf.ParseAudioSpecificConfig(asc)
		if err != nil {
			return nil, model.NewError(model.DecoderConfigurationError, "%v", err)
		}
		dc := f.AddDecoderConfig("mp4a")
		dc.Info = []decconf.DecoderSpecificInfo{cfg.Info}
		dc.Audio.SampleRate = cfg.SampleRate
		dc.Audio.ChannelCount = cfg.ChannelCount
		return dc, nil
	default:
		return nil, model.NewError(model.UnsupportedCodeType, "heif: sample entry %q unsupported", entryBox.Type.String())
	}
}

// --- save path ---

// saveMoov builds the moov box tree for every track in f, appending each
// track's sample bytes to mdatPayload and returning pointers into the
// encoded stco entries so the façade can patch them once the final mdat
// file offset is known (spec.md §2's two-pass offset-patching scheme).
func saveMoov(f *model.File, mdatPayload []byte) (moovBox *Box, stcoPatches []*uint32, newMdatPayload []byte, err error) {
	if len(f.Tracks()) == 0 {
		return nil, nil, mdatPayload, nil
	}

	moovBox = NewBox(TypeMoov)
	mvhdBox := NewBox(TypeMvhd)
	mvhdBox.Mvhd = &Mvhd{TimeScale: 1000, NextTrackId: uint32(len(f.Tracks()) + 1)}
	moovBox.Children = append(moovBox.Children, mvhdBox)

	for _, track := range f.Tracks() {
		trakBox, patches, err := buildTrak(f, track, &mdatPayload)
		if err != nil {
			return nil, nil, nil, err
		}
		moovBox.Children = append(moovBox.Children, trakBox)
		stcoPatches = append(stcoPatches, patches...)
	}

	return moovBox, stcoPatches, mdatPayload, nil
}

func buildTrak(f *model.File, track *model.Track, mdatPayload *[]byte) (*Box, []*uint32, error) {
	samples := track.Samples()
	if len(samples) == 0 {
		return nil, nil, model.NewError(model.FileReadError, "heif: track %d has no samples", track.ID())
	}

	trakBox := NewBox(TypeTrak)

	tkhdBox := NewBox(TypeTkhd)
	tkhdBox.Version = 0
	tkhdBox.Tkhd = &Tkhd{
		TrackId:        uint32(track.ID()),
		AlternateGroup: track.AlternateGroup,
		Volume:         0x0100,
		Matrix:         matrixToBytes(track.Matrix),
		TrackWidth:     track.Width,
		TrackHeight:    track.Height,
	}
	trakBox.Children = append(trakBox.Children, tkhdBox)

	if len(track.EditList) > 0 {
		elst := buildElst(track)
		if len(elst.Entries) > 0 {
			edtsBox := NewBox(TypeEdts)
			elstBox := NewBox(TypeElst)
			elstBox.Elst = elst
			edtsBox.Children = append(edtsBox.Children, elstBox)
			trakBox.Children = append(trakBox.Children, edtsBox)
		}
	}

	mdiaBox := NewBox(TypeMdia)
	mdhdBox := NewBox(TypeMdhd)
	mdhdBox.Mdhd = &Mdhd{TimeScale: track.Timescale, Duration: uint64(sampletable.TrackDuration(toSampleTableEditUnits(editUnitsOrDefault(track))))}
	mdiaBox.Children = append(mdiaBox.Children, mdhdBox)

	hdlrBox := NewBox(TypeHdlr)
	var ht [4]byte
	copy(ht[:], track.Handler.FourCC())
	hdlrBox.Hdlr = &Hdlr{HandlerType: ht}
	mdiaBox.Children = append(mdiaBox.Children, hdlrBox)

	minfBox := NewBox(TypeMinf)
	switch track.Handler {
	case model.HandlerVide, model.HandlerPict:
		vmhdBox := NewBox(TypeVmhd)
		vmhdBox.Vmhd = &Vmhd{}
		minfBox.Children = append(minfBox.Children, vmhdBox)
	case model.HandlerSoun:
		smhdBox := NewBox(TypeSmhd)
		smhdBox.Smhd = &Smhd{}
		minfBox.Children = append(minfBox.Children, smhdBox)
	}

	dinfBox := NewBox(TypeDinf)
	drefBox := NewBox(TypeDref)
	// "url " entry is itself a FullBox; flags=0x1 (self-contained, no
	// data reference needed) is written directly into Buf since this
	// package's Dref codec doesn't apply FullBox framing to child entries.
	drefBox.Dref = &DrefBox{Entries: []DrefEntry{{Type: [4]byte{'u', 'r', 'l', ' '}, Buf: []byte{0, 0, 0, 1}}}}
	dinfBox.Children = append(dinfBox.Children, drefBox)
	minfBox.Children = append(minfBox.Children, dinfBox)

	stblBox, patches, err := buildStbl(track, mdatPayload)
	if err != nil {
		return nil, nil, err
	}
	minfBox.Children = append(minfBox.Children, stblBox)
	mdiaBox.Children = append(mdiaBox.Children, minfBox)
	trakBox.Children = append(trakBox.Children, mdiaBox)

	if refs := buildTref(track); refs != nil {
		trakBox.Children = append(trakBox.Children, refs)
	}

	return trakBox, patches, nil
}

func editUnitsOrDefault(track *model.Track) []model.EditUnit {
	if len(track.EditList) > 0 {
		return track.EditList
	}
	n := len(track.Samples())
	return []model.EditUnit{{Kind: model.EditShift, TimeSpanMs: int64(n), NumberOfRepeats: 1}}
}

func editUnitKindOf(k model.EditUnitKind) sampletable.EditUnitKind {
	switch k {
	case model.EditEmpty:
		return sampletable.EditEmpty
	case model.EditDwell:
		return sampletable.EditDwell
	default:
		return sampletable.EditShift
	}
}

func toSampleTableEditUnits(units []model.EditUnit) []sampletable.EditUnit {
	out := make([]sampletable.EditUnit, len(units))
	for i, u := range units {
		out[i] = sampletable.EditUnit{
			Kind:            editUnitKindOf(u.Kind),
			TimeSpanMs:      u.TimeSpanMs,
			MediaTimeMs:     u.MediaTimeMs,
			NumberOfRepeats: u.NumberOfRepeats,
		}
	}
	return out
}

// buildElst expands a track's edit units into elst entries via
// sampletable.BuildElst (clockTicks=1000: TimeSpanMs/MediaTimeMs are
// already in milliseconds, and the movie header's mvhd timescale this
// module writes is 1000), repeating a dwell/shift unit NumberOfRepeats+1
// times the way TrackDuration accounts for it.
func buildElst(track *model.Track) *Elst {
	units := toSampleTableEditUnits(track.EditList)
	stEntries := sampletable.BuildElst(units, 1000)
	var entries []ElstEntry
	for i, e := range stEntries {
		repeats := int(units[i].NumberOfRepeats) + 1
		if repeats <= 0 {
			repeats = 1
		}
		for r := 0; r < repeats; r++ {
			entries = append(entries, ElstEntry{
				TrackDuration: uint32(e.SegmentDuration),
				MediaTime:     int32(e.MediaTime),
				MediaRate:     [4]byte{byte(e.RateInteger >> 8), byte(e.RateInteger), 0, 0},
			})
		}
	}
	return &Elst{Entries: entries}
}

func buildTref(track *model.Track) *Box {
	kinds := []model.TrackReferenceKind{model.RefThumbnail, model.RefAuxiliary, model.RefDescription}
	var children []*Box
	for _, k := range kinds {
		refs := track.References(k)
		if len(refs) == 0 {
			continue
		}
		var t BoxType
		copy(t[:], k.FourCC())
		b := NewBox(t)
		body := make([]byte, 4*len(refs))
		for i, other := range refs {
			be.PutUint32(body[i*4:], uint32(other.ID()))
		}
		b.Body = body
		children = append(children, b)
	}
	if children == nil {
		return nil
	}
	trefBox := NewBox(TypeTref)
	trefBox.Children = children
	return trefBox
}

const displayRate = 30 // frames/sec assumed for stts/ctts synthesis, spec.md §4.6's constant-rate assumption

func buildStbl(track *model.Track, mdatPayload *[]byte) (*Box, []*uint32, error) {
	samples := track.Samples()
	stblBox := NewBox(TypeStbl)

	stsdBox, err := buildStsd(track, samples[0].DecoderConfig)
	if err != nil {
		return nil, nil, err
	}
	stblBox.Children = append(stblBox.Children, stsdBox)

	displayOffset := make([]int64, len(samples))
	isSync := make([]bool, len(samples))
	for i, s := range samples {
		displayOffset[i] = int64(s.CompositionOffset)
		isSync[i] = s.Sync
	}

	sttsEntries := sampletable.BuildStts(len(samples), displayRate, track.Timescale)
	sttsBox := NewBox(TypeStts)
	entries := make([]STTSEntry, len(sttsEntries))
	for i, e := range sttsEntries {
		entries[i] = STTSEntry{Count: e.SampleCount, Duration: e.SampleDelta}
	}
	sttsBox.Stts = &Stts{Entries: entries}
	stblBox.Children = append(stblBox.Children, sttsBox)

	if sampletable.CttsRequired(displayOffset) {
		cttsEntries := sampletable.BuildCtts(displayOffset)
		cttsBox := NewBox(TypeCtts)
		if sampletable.CslgRequired(displayOffset) {
			cttsBox.Version = 1
		}
		centries := make([]CTTSEntry, len(cttsEntries))
		for i, e := range cttsEntries {
			centries[i] = CTTSEntry{Count: e.SampleCount, CompositionOffset: int32(e.SampleOffset)}
		}
		cttsBox.Ctts = &Ctts{Entries: centries}
		stblBox.Children = append(stblBox.Children, cttsBox)

		if sampletable.CslgRequired(displayOffset) {
			c := sampletable.BuildCslg(displayOffset, 0, sampletable.TimelineOptions{})
			cslgBox := NewBox(TypeCslg)
			cslgBox.Cslg = &Cslg{
				CompositionToDtsShift:        int32(c.CompositionToDtsShift),
				LeastDecodeToDisplayDelta:    int32(c.LeastDecodeToDisplayDelta),
				GreatestDecodeToDisplayDelta: int32(c.GreatestDecodeToDisplayDelta),
				CompositionStartTime:         int32(c.CompositionStartTime),
				CompositionEndTime:           int32(c.CompositionEndTime),
			}
			stblBox.Children = append(stblBox.Children, cslgBox)
		}
	}

	stssIndices := sampletable.BuildStss(isSync)
	if len(stssIndices) > 0 && len(stssIndices) < len(samples) {
		stssBox := NewBox(TypeStss)
		stssBox.Stco = &Stco{Entries: stssIndices}
		stblBox.Children = append(stblBox.Children, stssBox)
	}

	stszBox := NewBox(TypeStsz)
	sizeEntries := make([]uint32, len(samples))
	for i, s := range samples {
		sizeEntries[i] = uint32(len(s.Bytes))
	}
	stszBox.Stsz = &Stsz{Entries: sizeEntries}
	stblBox.Children = append(stblBox.Children, stszBox)

	stscBox := NewBox(TypeStsc)
	stscBox.Stsc = &Stsc{Entries: []STSCEntry{{FirstChunk: 1, SamplesPerChunk: uint32(len(samples)), SampleDescriptionId: 1}}}
	stblBox.Children = append(stblBox.Children, stscBox)

	chunkOffset := uint64(len(*mdatPayload))
	for _, s := range samples {
		*mdatPayload = append(*mdatPayload, s.Bytes...)
	}

	stcoBox := NewBox(TypeStco)
	stcoBox.Stco = &Stco{Entries: []uint32{uint32(chunkOffset)}}
	stblBox.Children = append(stblBox.Children, stcoBox)
	patches := []*uint32{&stcoBox.Stco.Entries[0]}

	refPicIndices := make([][]uint32, len(samples))
	indexOf := make(map[*model.Sample]int, len(samples))
	for i, s := range samples {
		indexOf[s] = i
	}
	anyDeps := false
	for i, s := range samples {
		for _, dep := range s.DecodeDependencies() {
			if j, ok := indexOf[dep]; ok {
				refPicIndices[i] = append(refPicIndices[i], uint32(j))
				anyDeps = true
			}
		}
	}
	if anyDeps {
		grouping := sampletable.BuildReferencePictureGrouping(refPicIndices)
		sgpdBox := NewBox(TypeSgpd)
		sgpdBox.Version = 1
		var gt [4]byte
		copy(gt[:], "refs")
		sgpdEntries := make([]SgpdEntry, len(grouping.Entries))
		for i, e := range grouping.Entries {
			sgpdEntries[i] = SgpdEntry{Tag: e.Tag, RefIndices: e.RefIndices}
		}
		sgpdBox.Sgpd = &Sgpd{GroupingType: gt, Entries: sgpdEntries}
		stblBox.Children = append(stblBox.Children, sgpdBox)

		sbgpEntries := sampletable.BuildSbgp(grouping.SamplePerEntry)
		sbgpBox := NewBox(TypeSbgp)
		entries := make([]SbgpEntry, len(sbgpEntries))
		for i, e := range sbgpEntries {
			entries[i] = SbgpEntry{SampleCount: e.SampleCount, GroupDescriptionIndex: e.GroupDescriptionIndex}
		}
		sbgpBox.Sbgp = &Sbgp{GroupingType: gt, Entries: entries}
		stblBox.Children = append(stblBox.Children, sbgpBox)
	}

	return stblBox, patches, nil
}

func buildStsd(track *model.Track, dc *model.DecoderConfig) (*Box, error) {
	stsdBox := NewBox(TypeStsd)
	var entryType BoxType
	copy(entryType[:], dc.FourCC)
	entryBox := NewBox(entryType)

	switch dc.FourCC {
	case "hvc1", "avc1":
		record, err := buildDecoderConfigRecord(dc.FourCC, dc.Info)
		if err != nil {
			return nil, model.NewError(model.DecoderConfigurationError, "%v", err)
		}
		entryBox.Visual = &VisualSampleEntry{
			DataReferenceIndex: 1,
			Width:              uint16(dc.Video.Width),
			Height:             uint16(dc.Video.Height),
			HResolution:        0x00480000,
			VResolution:        0x00480000,
			FrameCount:         1,
			Depth:              0x18,
		}
		configBoxType := TypeHvcC
		if dc.FourCC == "avc1" {
			configBoxType = TypeAvcC
		}
		configBox := NewBox(configBoxType)
		if dc.FourCC == "hvc1" {
			configBox.HvcC = &HvcCBox{Buffer: record}
		} else {
			configBox.AvcC = &AvcC{Buffer: record}
		}
		entryBox.Visual.Children = []*Box{configBox}
	case "mp4a":
		raw, err := decconf.EncodeAudioSpecificConfig(2, dc.Audio.SampleRate, dc.Audio.ChannelCount)
		if err != nil {
			return nil, model.NewError(model.DecoderConfigurationError, "%v", err)
		}
		entryBox.Audio = &AudioSampleEntry{
			DataReferenceIndex: 1,
			ChannelCount:       uint16(dc.Audio.ChannelCount),
			SampleSize:         16,
			SampleRate:         uint32(dc.Audio.SampleRate) << 16,
		}
		esdsBox := NewBox(TypeEsds)
		esdsBox.Esds = &Esds{Buffer: buildEsds(raw, 0x40)} // 0x40 = Audio ISO/IEC 14496-3 (AAC)
		entryBox.Audio.Children = []*Box{esdsBox}
	default:
		return nil, model.NewError(model.UnsupportedCodeType, "heif: sample entry fourCC %q unsupported", dc.FourCC)
	}

	stsdBox.Stsd = &Stsd{Entries: []*Box{entryBox}}
	return stsdBox, nil
}

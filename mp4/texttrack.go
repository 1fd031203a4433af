package mp4

import (
	"github.com/relfax/audiomarker/lib"
	"github.com/relfax/audiomarker/model"
)

// builtTrack is a freshly assembled trak atom plus the bookkeeping the
// writer needs to back-patch its stco entries once the final file layout
// is known.
type builtTrack struct {
	trakBytes  []byte
	stcoOffset int // byte offset, within trakBytes, of the first stco entry
	sampleData [][]byte
}

// buildTextTrack assembles a QuickTime chapter text track: tkhd, mdia
// (mdhd/hdlr "text"/minf/stbl with a tx3g sample description), one sample
// per chapter. stco entries are written as zero placeholders;
// their position is returned so the writer can patch in absolute offsets
// once the new sample data's final location in the file is known.
func buildTextTrack(trackID uint32, chapters model.ChapterList, timescale uint32) builtTrack {
	withEnds := chapters.WithDerivedEnds()
	samples := make([][]byte, 0, len(withEnds))
	deltas := make([]uint32, 0, len(withEnds))
	for _, c := range withEnds {
		samples = append(samples, buildTx3gSample(c))
		durMs := c.End.Milliseconds() - c.Start.Milliseconds()
		deltas = append(deltas, uint32(durMs)*timescale/1000)
	}

	stsd := buildContainer("stsd", withEntryCount(tx3gSampleEntry()))
	return buildTrackFromStsd(trackID, "text", timescale, 0, stsd, samples, deltas)
}

// buildVideoTrack assembles an artwork video track referenced by the audio
// track's tref.chap: one JPEG/PNG sample per chapter
// with artwork, positionally aligned to the chapter list.
func buildVideoTrack(trackID uint32, chapters model.ChapterList, timescale uint32) builtTrack {
	withEnds := chapters.WithDerivedEnds()
	var samples [][]byte
	var deltas []uint32
	format := model.ArtworkJPEG
	for _, c := range withEnds {
		if c.Artwork == nil {
			continue
		}
		samples = append(samples, c.Artwork.Data)
		durMs := c.End.Milliseconds() - c.Start.Milliseconds()
		deltas = append(deltas, uint32(durMs)*timescale/1000)
		format = c.Artwork.Format
	}

	width, height := 300, 300
	for _, c := range withEnds {
		if c.Artwork != nil {
			width, height = c.Artwork.Dimensions()
			break
		}
	}

	stsd := buildContainer("stsd", withEntryCount(videoSampleEntry(format, width, height)))
	return buildTrackFromStsd(trackID, "vide", timescale, uint32(width)<<16, stsd, samples, deltas)
}

// buildTrackFromStsd assembles trak(tkhd, mdia(mdhd, hdlr, minf(mediaHeader,
// dinf, stbl(stsd, stts, stsc, stsz, stco)))), tracking the stco entry
// array's absolute offset within the returned trak bytes by summing the
// exact length of every atom emitted before it — no byte-pattern search
// is needed since every atom's length is known as it's built.
func buildTrackFromStsd(trackID uint32, handlerType string, timescale, tkhdWidth uint32, stsd []byte, samples [][]byte, deltas []uint32) builtTrack {
	stts := buildSttsAtom(deltas)
	stsc := buildAtom("stsc", concatBytes(
		make([]byte, 4),
		lib.WriteU32(1),
		lib.WriteU32(1), lib.WriteU32(1), lib.WriteU32(1),
	))
	stsz := buildStszAtom(samples)

	stcoEntriesOffsetInStco := atomHeaderSize + 4 + 4 // header + version/flags + entry count
	stcoPayload := concatBytes(make([]byte, 4), lib.WriteU32(uint32(len(samples))))
	stcoPayload = append(stcoPayload, make([]byte, 4*len(samples))...)
	stco := buildAtom("stco", stcoPayload)

	stbl := buildContainer("stbl", stsd, stts, stsc, stsz, stco)
	stblHeaderAndChildrenBeforeStco := atomHeaderSize + len(stsd) + len(stts) + len(stsc) + len(stsz)

	mediaHeader := buildAtom("nmhd", make([]byte, 4))
	dinf := buildContainer("dinf", buildDref())
	minf := buildContainer("minf", mediaHeader, dinf, stbl)
	stblOffsetInMinf := atomHeaderSize + len(mediaHeader) + len(dinf)

	mdhd := buildMdhd(timescale)
	hdlr := buildHdlr(handlerType)
	mdia := buildContainer("mdia", mdhd, hdlr, minf)
	minfOffsetInMdia := atomHeaderSize + len(mdhd) + len(hdlr)

	tkhd := buildTkhd(trackID, tkhdWidth)
	trak := buildContainer("trak", tkhd, mdia)
	mdiaOffsetInTrak := atomHeaderSize + len(tkhd)

	stcoOffset := mdiaOffsetInTrak + minfOffsetInMdia + stblOffsetInMinf + stblHeaderAndChildrenBeforeStco + stcoEntriesOffsetInStco
	return builtTrack{trakBytes: trak, stcoOffset: stcoOffset, sampleData: samples}
}

// buildTx3gSample encodes a chapter's title as a 2-byte length-prefixed
// UTF-8 string, optionally followed by an href atom carrying the
// chapter's URL.
func buildTx3gSample(c model.Chapter) []byte {
	text := []byte(c.Title)
	out := make([]byte, 0, 2+len(text))
	out = append(out, lib.WriteU16(uint16(len(text)))...)
	out = append(out, text...)
	if c.URL != nil {
		out = append(out, buildHrefAtom(c.URL.String())...)
	}
	return out
}

// buildHrefAtom encodes the tx3g URL sample modifier: 2-byte flags,
// 2-byte char count, 1-byte URL length, UTF-8 URL.
func buildHrefAtom(u string) []byte {
	payload := make([]byte, 0, 5+len(u))
	payload = append(payload, 0, 0) // flags
	payload = append(payload, lib.WriteU16(uint16(len(u)))...)
	payload = append(payload, byte(len(u)))
	payload = append(payload, []byte(u)...)
	return buildAtom("href", payload)
}

// tx3gSampleEntry is a minimal, style-free tx3g sample description entry:
// SampleEntry base (reserved[6]+data-reference-index) + display flags +
// justification + background color + BoxRecord + StyleRecord.
func tx3gSampleEntry() []byte {
	payload := make([]byte, 38)
	payload[7] = 1 // data-reference-index
	return buildAtom("tx3g", payload)
}

// videoSampleEntry builds a minimal jpeg/png-coded visual sample entry
//: SampleEntry base + VisualSampleEntry fields sized for
// the artwork's detected pixel dimensions.
func videoSampleEntry(format model.ArtworkFormat, width, height int) []byte {
	codec := "jpeg"
	if format == model.ArtworkPNG {
		codec = "png "
	}
	payload := make([]byte, 70)
	payload[7] = 1 // data-reference-index
	copy(payload[24:26], lib.WriteU16(uint16(width)))
	copy(payload[26:28], lib.WriteU16(uint16(height)))
	copy(payload[66:70], lib.WriteU32(0x00480000)) // 72dpi horizontal resolution (16.16 fixed)
	return buildAtom(codec, payload)
}

func withEntryCount(entry []byte) []byte {
	out := make([]byte, 4, 4+len(entry))
	copy(out, lib.WriteU32(1))
	return append(out, entry...)
}

func buildSttsAtom(deltas []uint32) []byte {
	payload := concatBytes(make([]byte, 4), lib.WriteU32(uint32(len(deltas))))
	for _, d := range deltas {
		payload = append(payload, lib.WriteU32(1)...)
		payload = append(payload, lib.WriteU32(d)...)
	}
	return buildAtom("stts", payload)
}

func buildStszAtom(samples [][]byte) []byte {
	payload := concatBytes(make([]byte, 4), lib.WriteU32(0), lib.WriteU32(uint32(len(samples))))
	for _, s := range samples {
		payload = append(payload, lib.WriteU32(uint32(len(s)))...)
	}
	return buildAtom("stsz", payload)
}

func buildMdhd(timescale uint32) []byte {
	payload := make([]byte, 20)
	copy(payload[12:16], lib.WriteU32(timescale))
	return buildAtom("mdhd", payload)
}

func buildHdlr(handlerType string) []byte {
	payload := make([]byte, 24)
	copy(payload[8:12], []byte(handlerType))
	return buildAtom("hdlr", payload)
}

func buildDref() []byte {
	urlEntry := buildAtom("url ", []byte{0, 0, 0, 1})
	payload := concatBytes(make([]byte, 4), lib.WriteU32(1), urlEntry)
	return buildAtom("dref", payload)
}

func buildTkhd(trackID uint32, width uint32) []byte {
	payload := make([]byte, 80)
	payload[0] = 0 // version 0
	payload[3] = 0x07
	copy(payload[12:16], lib.WriteU32(trackID))
	if width > 0 {
		copy(payload[76:80], lib.WriteU32(width))
	}
	return buildAtom("tkhd", payload)
}

func concatBytes(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

package mp4

import (
	"github.com/relfax/audiomarker/lib"
	"github.com/relfax/audiomarker/model"
)

// buildAtom assembles a generic leaf atom: [u32 size][FourCC type][payload].
// Extended (64-bit) sizes are never emitted by this system.
func buildAtom(atomType string, payload []byte) []byte {
	out := make([]byte, 0, atomHeaderSize+len(payload))
	out = append(out, lib.WriteU32(uint32(atomHeaderSize+len(payload)))...)
	out = append(out, []byte(atomType)...)
	out = append(out, payload...)
	return out
}

// buildContainer assembles a container atom: header + concatenated
// children.
func buildContainer(atomType string, children ...[]byte) []byte {
	var payload []byte
	for _, c := range children {
		payload = append(payload, c...)
	}
	return buildAtom(atomType, payload)
}

// buildMeta assembles "meta": header + 4-byte version+flags + children.
func buildMeta(children ...[]byte) []byte {
	payload := make([]byte, 4)
	for _, c := range children {
		payload = append(payload, c...)
	}
	return buildAtom("meta", payload)
}

// dataAtomTypeText is the iTunes `data` atom's type indicator for UTF-8
// text values; other indicators used here:
// dataAtomTypeUint8 for integer values, dataAtomTypeJPEG/PNG for artwork.
const (
	dataAtomTypeText  = 1
	dataAtomTypeUint8 = 21
	dataAtomTypeJPEG  = 13
	dataAtomTypePNG   = 14
)

// buildDataAtom assembles a `data` atom: 4-byte type indicator + 4-byte
// locale (always zero) + value.
func buildDataAtom(typeIndicator uint32, value []byte) []byte {
	payload := make([]byte, 8, 8+len(value))
	copy(payload[0:4], lib.WriteU32(typeIndicator))
	payload = append(payload, value...)
	return buildAtom("data", payload)
}

// buildTextItem assembles an iTunes metadata item holding one text `data`
// child, e.g. `©nam`(`data`(text)).
func buildTextItem(itemType, value string) []byte {
	return buildContainer(itemType, buildDataAtom(dataAtomTypeText, []byte(value)))
}

// buildUint8Item assembles an item holding one uint8-class `data` child
// (e.g. a single-byte flag atom), padded to the width `data` callers use
// for byte-width integer fields.
func buildUint8Item(itemType string, value []byte) []byte {
	return buildContainer(itemType, buildDataAtom(dataAtomTypeUint8, value))
}

// buildTrackDiskItem assembles `trkn`/`disk`: data prefix + 2 bytes pad +
// 2-byte value + 2-byte total + 2 bytes pad.
func buildTrackDiskItem(itemType string, number, total int) []byte {
	v := make([]byte, 8)
	copy(v[2:4], lib.WriteU16(uint16(number)))
	copy(v[4:6], lib.WriteU16(uint16(total)))
	return buildContainer(itemType, buildDataAtom(dataAtomTypeText, v))
}

// buildCoverItem assembles `covr` with the artwork's detected format as
// its type indicator.
func buildCoverItem(typeIndicator uint32, data []byte) []byte {
	return buildContainer("covr", buildDataAtom(typeIndicator, data))
}

// buildReverseDNSItem assembles a `----` item: `mean`(4-byte flags +
// UTF-8 domain), `name`(4-byte flags + UTF-8 key), `data`(UTF-8 value).
func buildReverseDNSItem(domain, name, value string) []byte {
	mean := buildAtom("mean", append(make([]byte, 4), []byte(domain)...))
	nameAtom := buildAtom("name", append(make([]byte, 4), []byte(name)...))
	data := buildDataAtom(dataAtomTypeText, []byte(value))
	return buildContainer("----", mean, nameAtom, data)
}

// maxNeroChapters and maxNeroTitleBytes clamp the Nero chpl atom's count
// byte and per-chapter title-length byte, both one byte wide.
const (
	maxNeroChapters   = 255
	maxNeroTitleBytes = 255
)

// buildChpl assembles a Nero-style udta.chpl atom: 4-byte version+flags,
// 4-byte reserved, 1-byte count, then per-chapter [u64 100ns timestamp]
// [u8 title length][UTF-8 title], clamped to maxNeroChapters chapters and
// maxNeroTitleBytes per title.
func buildChpl(chapters model.ChapterList) []byte {
	sorted := chapters.Sorted()
	if len(sorted) > maxNeroChapters {
		sorted = sorted[:maxNeroChapters]
	}

	payload := make([]byte, 9)
	payload[8] = byte(len(sorted))
	for i, c := range sorted {
		title := clampUTF8Bytes(c.TitleOrSynthesized(i+1), maxNeroTitleBytes)
		hundredNs := uint64(c.Start.Milliseconds()) * 10000
		payload = append(payload, lib.WriteU64(hundredNs)...)
		payload = append(payload, byte(len(title)))
		payload = append(payload, []byte(title)...)
	}
	return buildAtom("chpl", payload)
}

// clampUTF8Bytes truncates s to at most n bytes without splitting a UTF-8
// code point.
func clampUTF8Bytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && s[n]&0xC0 == 0x80 {
		n--
	}
	return s[:n]
}

package id3

import (
	"github.com/relfax/audiomarker/model"
)

// DefaultPadding is the trailing zero-padding a freshly built tag carries
//, leaving room for small future in-place edits.
const DefaultPadding = 2048

// BuildOptions configures tag serialization.
type BuildOptions struct {
	Version int // 3 or 4
	Padding int // trailing zero bytes; 0 is valid
}

// BuildTag serializes info (plus any frames callers want preserved
// verbatim, passed as extraFrames) into a complete ID3v2 tag: header +
// frames + padding. The overall tag size in the header is syncsafe.
// Frame ordering within the tag is not observable
// externally, so this always emits metadata frames, then
// chapter frames, then preserved-unknown frames.
func BuildTag(info model.AudioFileInfo, opts BuildOptions) []byte {
	version := opts.Version
	if version != 3 && version != 4 {
		version = 4
	}

	var body []byte
	for _, f := range metadataToFrames(version, info.Metadata) {
		body = append(body, serializeFrame(version, f)...)
	}
	for _, f := range chaptersToFrames(info.Chapters) {
		body = append(body, serializeFrame(version, f)...)
	}
	for _, uf := range info.UnknownFrames {
		body = append(body, wrapFrame(version, uf.ID, uf.Data)...)
	}

	padding := opts.Padding
	if padding < 0 {
		padding = 0
	}
	body = append(body, make([]byte, padding)...)

	h := Header{Version: version}
	header := h.Build(uint32(len(body)))
	return append(header, body...)
}

func serializeFrame(version int, f Frame) []byte {
	id, payload, err := buildFrame(version, f)
	if err != nil {
		return nil
	}
	return wrapFrame(version, id, payload)
}

package id3

import (
	"github.com/relfax/audiomarker/lib"
)

// chooseEncoding centralizes the writer's text-encoding decision table
//: v2.4
// always emits UTF-8; v2.3 emits ISO-8859-1 when every code point fits,
// otherwise UTF-16 with BOM.
func chooseEncoding(version int, s string) lib.TextEncoding {
	if version == 4 {
		return lib.EncodingUTF8
	}
	if lib.CanRepresentLatin1(s) {
		return lib.EncodingISO88591
	}
	return lib.EncodingUTF16BOM
}

func terminator(enc lib.TextEncoding) []byte {
	return make([]byte, enc.NullTerminatorWidth())
}

// buildFrame serializes one Frame's payload (without the 10-byte frame
// header) for the given tag version.
func buildFrame(version int, f Frame) (id string, payload []byte, err error) {
	switch v := f.(type) {
	case TextFrame:
		return v.ID, buildTextPayload(version, v.Text), nil
	case UserDefinedTextFrame:
		return v.ID, buildUserDefinedTextPayload(version, v.Description, v.Value), nil
	case URLFrame:
		return v.ID, []byte(v.URL), nil
	case UserDefinedURLFrame:
		return v.ID, buildUserDefinedURLPayload(version, v.Description, v.URL), nil
	case CommentFrame:
		return v.ID, buildCommentPayload(version, v.Language, v.Description, v.Text), nil
	case UnsyncLyricsFrame:
		return v.ID, buildCommentPayload(version, v.Language, v.Descriptor, v.Text), nil
	case SyncLyricsFrame:
		return v.ID, buildSyncLyricsPayload(version, v), nil
	case AttachedPictureFrame:
		return v.ID, buildAttachedPicturePayload(version, v), nil
	case ChapterFrame:
		return v.ID, buildChapterPayload(v), nil
	case TableOfContentsFrame:
		return v.ID, buildTableOfContentsPayload(v), nil
	case PrivateDataFrame:
		return v.ID, append([]byte(v.Owner), append([]byte{0}, v.Data...)...), nil
	case UniqueFileIDFrame:
		return v.ID, append([]byte(v.Owner), append([]byte{0}, v.Data...)...), nil
	case PlayCountFrame:
		return v.ID, lib.WriteU32(uint32(v.Count)), nil
	case PopularimeterFrame:
		return v.ID, buildPopularimeterPayload(v), nil
	case UnknownFrame:
		return v.ID, v.Data, nil
	default:
		return "", nil, newFrameError(InvalidFrame, "", "unrecognized frame variant during build")
	}
}

func buildTextPayload(version int, text string) []byte {
	enc := chooseEncoding(version, text)
	body, _ := lib.EncodeText(text, enc)
	return append([]byte{byte(enc)}, body...)
}

func buildUserDefinedTextPayload(version int, desc, value string) []byte {
	enc := chooseEncoding(version, desc+value)
	descBytes, _ := lib.EncodeText(desc, enc)
	valueBytes, _ := lib.EncodeText(value, enc)
	out := []byte{byte(enc)}
	out = append(out, descBytes...)
	out = append(out, terminator(enc)...)
	out = append(out, valueBytes...)
	return out
}

func buildUserDefinedURLPayload(version int, desc, rawURL string) []byte {
	enc := chooseEncoding(version, desc)
	descBytes, _ := lib.EncodeText(desc, enc)
	out := []byte{byte(enc)}
	out = append(out, descBytes...)
	out = append(out, terminator(enc)...)
	out = append(out, []byte(rawURL)...)
	return out
}

func buildCommentPayload(version int, lang, desc, text string) []byte {
	enc := chooseEncoding(version, desc+text)
	descBytes, _ := lib.EncodeText(desc, enc)
	textBytes, _ := lib.EncodeText(text, enc)
	out := []byte{byte(enc)}
	out = append(out, paddedLanguage(lang)...)
	out = append(out, descBytes...)
	out = append(out, terminator(enc)...)
	out = append(out, textBytes...)
	return out
}

func paddedLanguage(lang string) []byte {
	b := []byte(lang)
	for len(b) < 3 {
		b = append(b, ' ')
	}
	return b[:3]
}

func buildSyncLyricsPayload(version int, f SyncLyricsFrame) []byte {
	enc := chooseEncoding(version, f.Descriptor)
	descBytes, _ := lib.EncodeText(f.Descriptor, enc)
	out := []byte{byte(enc)}
	out = append(out, paddedLanguage(f.Language)...)
	out = append(out, f.TimestampFormat, f.ContentType)
	out = append(out, descBytes...)
	out = append(out, terminator(enc)...)
	for _, ev := range f.Events {
		textBytes, _ := lib.EncodeText(ev.Text, enc)
		out = append(out, textBytes...)
		out = append(out, terminator(enc)...)
		out = append(out, lib.WriteU32(ev.Ms)...)
	}
	return out
}

func buildAttachedPicturePayload(version int, f AttachedPictureFrame) []byte {
	enc := chooseEncoding(version, f.Description)
	descBytes, _ := lib.EncodeText(f.Description, enc)
	out := []byte{byte(enc)}
	out = append(out, []byte(f.MIME)...)
	out = append(out, 0)
	out = append(out, f.PictureType)
	out = append(out, descBytes...)
	out = append(out, terminator(enc)...)
	out = append(out, f.Data...)
	return out
}

func buildChapterPayload(f ChapterFrame) []byte {
	out := append([]byte(f.ElementID), 0)
	out = append(out, lib.WriteU32(f.StartMs)...)
	out = append(out, lib.WriteU32(f.EndMs)...)
	out = append(out, lib.WriteU32(f.StartOffset)...)
	out = append(out, lib.WriteU32(f.EndOffset)...)
	for _, sub := range f.Subframes {
		out = append(out, wrapSubframe(sub)...)
	}
	return out
}

func buildTableOfContentsPayload(f TableOfContentsFrame) []byte {
	out := append([]byte(f.ElementID), 0)
	var flags byte
	if f.IsTopLevel {
		flags |= 0x01
	}
	if f.IsOrdered {
		flags |= 0x02
	}
	out = append(out, flags, byte(len(f.ChildElementIDs)))
	for _, child := range f.ChildElementIDs {
		out = append(out, []byte(child)...)
		out = append(out, 0)
	}
	for _, sub := range f.Subframes {
		out = append(out, wrapSubframe(sub)...)
	}
	return out
}

// wrapSubframe builds a nested CHAP/CTOC subframe using v2.4 framing
// (syncsafe size, no flags of interest), matching the frame header layout's
// "Subframes are a nested frame list".
func wrapSubframe(f Frame) []byte {
	id, payload, err := buildFrame(4, f)
	if err != nil {
		return nil
	}
	header := make([]byte, FrameHeaderSize)
	copy(header[0:4], id)
	copy(header[4:8], lib.EncodeSyncsafe(uint32(len(payload))))
	return append(header, payload...)
}

func buildPopularimeterPayload(f PopularimeterFrame) []byte {
	out := append([]byte(f.Email), 0, f.Rating)
	out = append(out, lib.WriteU32(uint32(f.PlayCount))...)
	return out
}

// wrapFrame builds the full 10-byte-header-plus-payload for a top-level
// frame at the given version.
func wrapFrame(version int, id string, payload []byte) []byte {
	header := make([]byte, FrameHeaderSize)
	copy(header[0:4], id)
	if version == 4 {
		copy(header[4:8], lib.EncodeSyncsafe(uint32(len(payload))))
	} else {
		copy(header[4:8], lib.WriteU32(uint32(len(payload))))
	}
	// flags left zero: no frame-level unsynchronization or compression is
	// ever written by this codec.
	return append(header, payload...)
}

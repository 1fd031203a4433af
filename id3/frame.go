package id3

import (
	"github.com/relfax/audiomarker/lib"
)

// FrameHeaderSize is the fixed 10-byte frame header.
const FrameHeaderSize = 10

const (
	frameFlagUnsynchronized = 0x0002
)

// Frame is the tagged union of every recognized ID3v2 frame shape.
// Every variant below implements it;
// callers type-switch on the concrete type.
type Frame interface {
	frameID() string
}

type frameBase struct {
	ID string
}

func (f frameBase) frameID() string { return f.ID }

// TextFrame is any "T???" frame except TXXX.
type TextFrame struct {
	frameBase
	Text string
}

// UserDefinedTextFrame is TXXX.
type UserDefinedTextFrame struct {
	frameBase
	Description string
	Value       string
}

// URLFrame is any "W???" frame except WXXX.
type URLFrame struct {
	frameBase
	URL string
}

// UserDefinedURLFrame is WXXX.
type UserDefinedURLFrame struct {
	frameBase
	Description string
	URL         string
}

// CommentFrame is the shared shape of COMM (and materialized separately
// for USLT).
type CommentFrame struct {
	frameBase
	Language    string
	Description string
	Text        string
}

// AttachedPictureFrame is APIC. PictureType 3 is front cover.
type AttachedPictureFrame struct {
	frameBase
	PictureType byte
	MIME        string
	Description string
	Data        []byte
}

// ChapterFrame is CHAP.
type ChapterFrame struct {
	frameBase
	ElementID    string
	StartMs      uint32
	EndMs        uint32
	StartOffset  uint32
	EndOffset    uint32
	Subframes    []Frame
}

// TableOfContentsFrame is CTOC.
type TableOfContentsFrame struct {
	frameBase
	ElementID        string
	IsTopLevel       bool
	IsOrdered        bool
	ChildElementIDs  []string
	Subframes        []Frame
}

// UnsyncLyricsFrame is USLT.
type UnsyncLyricsFrame struct {
	frameBase
	Language   string
	Descriptor string
	Text       string
}

// SyncLyricsEvent is one (text, timestamp-ms) pair inside a SYLT frame.
type SyncLyricsEvent struct {
	Text string
	Ms   uint32
}

// SyncLyricsFrame is SYLT.
type SyncLyricsFrame struct {
	frameBase
	Language        string
	TimestampFormat byte // 2 = milliseconds
	ContentType     byte
	Descriptor      string
	Events          []SyncLyricsEvent
}

// PrivateDataFrame is PRIV.
type PrivateDataFrame struct {
	frameBase
	Owner string
	Data  []byte
}

// UniqueFileIDFrame is UFID.
type UniqueFileIDFrame struct {
	frameBase
	Owner string
	Data  []byte
}

// PlayCountFrame is PCNT. The spec notes the reader is variable-width and
// the writer always emits 4 bytes.
type PlayCountFrame struct {
	frameBase
	Count uint64
}

// PopularimeterFrame is POPM.
type PopularimeterFrame struct {
	frameBase
	Email     string
	Rating    byte
	PlayCount uint64
}

// UnknownFrame preserves any other frame ID verbatim.
type UnknownFrame struct {
	frameBase
	Data []byte
}

// parsedFrame bundles a decoded Frame with its two raw flag bytes as read
// from the tag. The writer does not use them: it never emits frame-level
// unsynchronization.
type parsedFrame struct {
	Frame Frame
	Flags [2]byte
}

// parseFrames walks frame-region bytes until fewer than 10 bytes remain or
// padding (all-zero header) is reached.
func parseFrames(version int, data []byte) ([]parsedFrame, error) {
	var out []parsedFrame
	offset := 0
	for offset+FrameHeaderSize <= len(data) {
		header := data[offset : offset+FrameHeaderSize]
		if isAllZero(header) {
			break
		}
		id := string(header[0:4])
		if !isValidFrameID(id) {
			break
		}

		var size int
		if version == 4 {
			n, err := lib.DecodeSyncsafe(header[4:8])
			if err != nil {
				return nil, &TagError{Kind: InvalidSyncsafe, FrameID: id, Err: err}
			}
			size = int(n)
		} else {
			size = int(lib.ReadU32(header[4:8]))
		}

		bodyStart := offset + FrameHeaderSize
		bodyEnd := bodyStart + size
		if bodyEnd > len(data) {
			return nil, &TagError{Kind: TruncatedData, FrameID: id, Reason: "declared frame size exceeds remaining tag bytes"}
		}
		body := data[bodyStart:bodyEnd]

		flags := [2]byte{header[8], header[9]}
		if version == 4 && flags[1]&frameFlagUnsynchronized != 0 {
			body = deapplyUnsynchronization(body)
		}

		frame, err := parseFrameBody(id, body)
		if err != nil {
			return nil, err
		}
		out = append(out, parsedFrame{Frame: frame, Flags: flags})

		offset = bodyEnd
	}
	return out, nil
}

func isAllZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

func isValidFrameID(id string) bool {
	if len(id) != 4 {
		return false
	}
	for _, c := range []byte(id) {
		if !((c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			return false
		}
	}
	return true
}

// parseFrameBody dispatches to a shape-specific parser by ID, falling back
// to UnknownFrame.
func parseFrameBody(id string, body []byte) (Frame, error) {
	switch {
	case id == "TXXX":
		return parseUserDefinedText(id, body)
	case id == "WXXX":
		return parseUserDefinedURL(id, body)
	case id == "COMM":
		return parseComment(id, body)
	case id == "USLT":
		return parseUnsyncLyrics(id, body)
	case id == "SYLT":
		return parseSyncLyrics(id, body)
	case id == "APIC":
		return parseAttachedPicture(id, body)
	case id == "CHAP":
		return parseChapterFrame(id, body)
	case id == "CTOC":
		return parseTableOfContents(id, body)
	case id == "PRIV":
		return parsePrivateData(id, body)
	case id == "UFID":
		return parseUniqueFileID(id, body)
	case id == "PCNT":
		return parsePlayCount(id, body)
	case id == "POPM":
		return parsePopularimeter(id, body)
	case id[0] == 'T':
		return parseTextFrame(id, body)
	case id[0] == 'W':
		return parseURLFrame(id, body)
	default:
		data := make([]byte, len(body))
		copy(data, body)
		return UnknownFrame{frameBase: frameBase{ID: id}, Data: data}, nil
	}
}

func parseTextFrame(id string, body []byte) (Frame, error) {
	if len(body) == 0 {
		return TextFrame{frameBase: frameBase{ID: id}, Text: ""}, nil
	}
	enc, err := lib.ParseTextEncoding(body[0])
	if err != nil {
		return nil, &TagError{Kind: InvalidEncoding, FrameID: id, Err: err}
	}
	text, err := lib.DecodeText(body[1:], enc)
	if err != nil {
		return nil, newFrameError(InvalidFrame, id, err.Error())
	}
	return TextFrame{frameBase: frameBase{ID: id}, Text: text}, nil
}

func parseUserDefinedText(id string, body []byte) (Frame, error) {
	if len(body) == 0 {
		return nil, newFrameError(InvalidFrame, id, "empty TXXX payload")
	}
	enc, err := lib.ParseTextEncoding(body[0])
	if err != nil {
		return nil, &TagError{Kind: InvalidEncoding, FrameID: id, Err: err}
	}
	desc, rest, err := readTextField(body[1:], enc)
	if err != nil {
		return nil, newFrameError(InvalidFrame, id, err.Error())
	}
	value, err := lib.DecodeText(rest, enc)
	if err != nil {
		return nil, newFrameError(InvalidFrame, id, err.Error())
	}
	return UserDefinedTextFrame{frameBase: frameBase{ID: id}, Description: desc, Value: value}, nil
}

func parseURLFrame(id string, body []byte) (Frame, error) {
	return URLFrame{frameBase: frameBase{ID: id}, URL: string(trimNulBytes(body))}, nil
}

func parseUserDefinedURL(id string, body []byte) (Frame, error) {
	if len(body) == 0 {
		return nil, newFrameError(InvalidFrame, id, "empty WXXX payload")
	}
	enc, err := lib.ParseTextEncoding(body[0])
	if err != nil {
		return nil, &TagError{Kind: InvalidEncoding, FrameID: id, Err: err}
	}
	desc, rest, err := readTextField(body[1:], enc)
	if err != nil {
		return nil, newFrameError(InvalidFrame, id, err.Error())
	}
	return UserDefinedURLFrame{frameBase: frameBase{ID: id}, Description: desc, URL: string(trimNulBytes(rest))}, nil
}

func parseComment(id string, body []byte) (Frame, error) {
	if len(body) == 0 {
		return nil, newFrameError(InvalidFrame, id, "empty COMM payload")
	}
	f, err := parseCommentShape(id, body)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func parseUnsyncLyrics(id string, body []byte) (Frame, error) {
	c, err := parseCommentShape(id, body)
	if err != nil {
		return nil, err
	}
	return UnsyncLyricsFrame{frameBase: frameBase{ID: id}, Language: c.Language, Descriptor: c.Description, Text: c.Text}, nil
}

// parseCommentShape parses the shared COMM/USLT layout: encoding byte,
// 3-byte language, (short description, text) under the encoding's
// terminator.
func parseCommentShape(id string, body []byte) (CommentFrame, error) {
	if len(body) < 4 {
		return CommentFrame{}, newFrameError(InvalidFrame, id, "shorter than fixed prefix")
	}
	enc, err := lib.ParseTextEncoding(body[0])
	if err != nil {
		return CommentFrame{}, &TagError{Kind: InvalidEncoding, FrameID: id, Err: err}
	}
	lang := string(body[1:4])
	desc, rest, err := readTextField(body[4:], enc)
	if err != nil {
		return CommentFrame{}, newFrameError(InvalidFrame, id, err.Error())
	}
	text, err := lib.DecodeText(rest, enc)
	if err != nil {
		return CommentFrame{}, newFrameError(InvalidFrame, id, err.Error())
	}
	return CommentFrame{frameBase: frameBase{ID: id}, Language: lang, Description: desc, Text: text}, nil
}

func parseSyncLyrics(id string, body []byte) (Frame, error) {
	if len(body) < 6 {
		return nil, newFrameError(InvalidFrame, id, "shorter than fixed prefix")
	}
	enc, err := lib.ParseTextEncoding(body[0])
	if err != nil {
		return nil, &TagError{Kind: InvalidEncoding, FrameID: id, Err: err}
	}
	lang := string(body[1:4])
	timestampFormat := body[4]
	contentType := body[5]
	desc, rest, err := readTextField(body[6:], enc)
	if err != nil {
		return nil, newFrameError(InvalidFrame, id, err.Error())
	}

	var events []SyncLyricsEvent
	width := lib.TextEncoding(enc).NullTerminatorWidth()
	for len(rest) > 0 {
		idx := indexTerminator(rest, width)
		if idx < 0 {
			break
		}
		text, err := lib.DecodeText(rest[:idx], enc)
		if err != nil {
			return nil, newFrameError(InvalidFrame, id, err.Error())
		}
		rest = rest[idx+width:]
		if len(rest) < 4 {
			break
		}
		ms := lib.ReadU32(rest[:4])
		rest = rest[4:]
		events = append(events, SyncLyricsEvent{Text: text, Ms: ms})
	}

	return SyncLyricsFrame{
		frameBase:       frameBase{ID: id},
		Language:        lang,
		TimestampFormat: timestampFormat,
		ContentType:     contentType,
		Descriptor:      desc,
		Events:          events,
	}, nil
}

func parseAttachedPicture(id string, body []byte) (Frame, error) {
	if len(body) == 0 {
		return nil, newFrameError(InvalidFrame, id, "empty APIC payload")
	}
	enc, err := lib.ParseTextEncoding(body[0])
	if err != nil {
		return nil, &TagError{Kind: InvalidEncoding, FrameID: id, Err: err}
	}
	rest := body[1:]
	mime, rest, err := readLatin1Field(rest)
	if err != nil {
		return nil, newFrameError(InvalidFrame, id, err.Error())
	}
	if len(rest) < 1 {
		return nil, newFrameError(InvalidFrame, id, "missing picture type")
	}
	pictureType := rest[0]
	rest = rest[1:]
	desc, rest, err := readTextField(rest, enc)
	if err != nil {
		return nil, newFrameError(InvalidFrame, id, err.Error())
	}
	data := make([]byte, len(rest))
	copy(data, rest)
	return AttachedPictureFrame{
		frameBase:   frameBase{ID: id},
		PictureType: pictureType,
		MIME:        mime,
		Description: desc,
		Data:        data,
	}, nil
}

func parseChapterFrame(id string, body []byte) (Frame, error) {
	elementID, rest, err := readLatin1NulField(body)
	if err != nil {
		return nil, newFrameError(InvalidFrame, id, err.Error())
	}
	if len(rest) < 16 {
		return nil, newFrameError(InvalidFrame, id, "shorter than fixed prefix")
	}
	startMs := lib.ReadU32(rest[0:4])
	endMs := lib.ReadU32(rest[4:8])
	startOffset := lib.ReadU32(rest[8:12])
	endOffset := lib.ReadU32(rest[12:16])
	sub, err := parseFrames(4, rest[16:])
	if err != nil {
		return nil, err
	}
	return ChapterFrame{
		frameBase:   frameBase{ID: id},
		ElementID:   elementID,
		StartMs:     startMs,
		EndMs:       endMs,
		StartOffset: startOffset,
		EndOffset:   endOffset,
		Subframes:   toFrameSlice(sub),
	}, nil
}

func parseTableOfContents(id string, body []byte) (Frame, error) {
	elementID, rest, err := readLatin1NulField(body)
	if err != nil {
		return nil, newFrameError(InvalidFrame, id, err.Error())
	}
	if len(rest) < 2 {
		return nil, newFrameError(InvalidFrame, id, "shorter than fixed prefix")
	}
	flags := rest[0]
	childCount := int(rest[1])
	rest = rest[2:]

	children := make([]string, 0, childCount)
	for i := 0; i < childCount; i++ {
		var child string
		child, rest, err = readLatin1NulField(rest)
		if err != nil {
			return nil, newFrameError(InvalidFrame, id, err.Error())
		}
		children = append(children, child)
	}

	sub, err := parseFrames(4, rest)
	if err != nil {
		return nil, err
	}

	return TableOfContentsFrame{
		frameBase:       frameBase{ID: id},
		ElementID:       elementID,
		IsTopLevel:      flags&0x01 != 0,
		IsOrdered:       flags&0x02 != 0,
		ChildElementIDs: children,
		Subframes:       toFrameSlice(sub),
	}, nil
}

func parsePrivateData(id string, body []byte) (Frame, error) {
	owner, rest, err := readLatin1NulField(body)
	if err != nil {
		return nil, newFrameError(InvalidFrame, id, err.Error())
	}
	data := make([]byte, len(rest))
	copy(data, rest)
	return PrivateDataFrame{frameBase: frameBase{ID: id}, Owner: owner, Data: data}, nil
}

func parseUniqueFileID(id string, body []byte) (Frame, error) {
	owner, rest, err := readLatin1NulField(body)
	if err != nil {
		return nil, newFrameError(InvalidFrame, id, err.Error())
	}
	data := make([]byte, len(rest))
	copy(data, rest)
	return UniqueFileIDFrame{frameBase: frameBase{ID: id}, Owner: owner, Data: data}, nil
}

// parsePlayCount accepts whatever width remains in the frame.
func parsePlayCount(id string, body []byte) (Frame, error) {
	var v uint64
	for _, b := range body {
		v = v<<8 | uint64(b)
	}
	return PlayCountFrame{frameBase: frameBase{ID: id}, Count: v}, nil
}

func parsePopularimeter(id string, body []byte) (Frame, error) {
	email, rest, err := readLatin1NulField(body)
	if err != nil {
		return nil, newFrameError(InvalidFrame, id, err.Error())
	}
	if len(rest) < 1 {
		return nil, newFrameError(InvalidFrame, id, "missing rating byte")
	}
	rating := rest[0]
	rest = rest[1:]
	var count uint64
	for _, b := range rest {
		count = count<<8 | uint64(b)
	}
	return PopularimeterFrame{frameBase: frameBase{ID: id}, Email: email, Rating: rating, PlayCount: count}, nil
}

func toFrameSlice(pf []parsedFrame) []Frame {
	out := make([]Frame, len(pf))
	for i, p := range pf {
		out[i] = p.Frame
	}
	return out
}

// --- small shared byte-field helpers -------------------------------------

// readTextField reads one encoded string up to the encoding's terminator,
// returning the decoded string and the remaining bytes.
func readTextField(data []byte, enc lib.TextEncoding) (string, []byte, error) {
	width := enc.NullTerminatorWidth()
	idx := indexTerminator(data, width)
	if idx < 0 {
		s, err := lib.DecodeText(data, enc)
		return s, nil, err
	}
	s, err := lib.DecodeText(data[:idx], enc)
	return s, data[idx+width:], err
}

// readLatin1Field reads a NUL-terminated ISO-8859-1 string (used for
// fields, like APIC's MIME type, that are always Latin-1 regardless of the
// frame's selected text encoding).
func readLatin1Field(data []byte) (string, []byte, error) {
	idx := indexTerminator(data, 1)
	if idx < 0 {
		return string(data), nil, nil
	}
	return string(data[:idx]), data[idx+1:], nil
}

// readLatin1NulField is an alias kept distinct from readLatin1Field for
// call-site clarity at element-ID / owner-identifier fields.
func readLatin1NulField(data []byte) (string, []byte, error) {
	return readLatin1Field(data)
}

func indexTerminator(data []byte, width int) int {
	for i := 0; i+width <= len(data); i += width {
		zero := true
		for _, b := range data[i : i+width] {
			if b != 0 {
				zero = false
				break
			}
		}
		if zero {
			return i
		}
	}
	return -1
}

func trimNulBytes(data []byte) []byte {
	for len(data) > 0 && data[len(data)-1] == 0 {
		data = data[:len(data)-1]
	}
	return data
}

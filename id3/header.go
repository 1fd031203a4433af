package id3

import (
	"github.com/relfax/audiomarker/lib"
)

// HeaderSize is the fixed 10-byte ID3v2 header.
const HeaderSize = 10

const (
	flagUnsynchronization = 0x80
	flagExtendedHeader    = 0x40
	flagExperimental      = 0x20
	flagFooter            = 0x10
)

// Header is the parsed fixed 10-byte ID3v2 header.
type Header struct {
	Version              int // 3 or 4
	Revision              byte
	Unsynchronized        bool
	HasExtendedHeader     bool
	Experimental          bool
	HasFooter             bool
	TagSize               uint32 // excludes the 10-byte header itself
}

// ParseHeader reads and validates the 10-byte ID3v2 header from data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, &TagError{Kind: TruncatedData, Reason: "file shorter than 10 bytes"}
	}
	if string(data[0:3]) != "ID3" {
		return Header{}, &TagError{Kind: NoTag, Reason: "missing \"ID3\" magic"}
	}

	major := data[3]
	revision := data[4]
	if major != 3 && major != 4 {
		return Header{}, &TagError{Kind: UnsupportedVersion, Reason: versionReason(major)}
	}

	flags := data[5]
	size, err := lib.DecodeSyncsafe(data[6:10])
	if err != nil {
		return Header{}, &TagError{Kind: InvalidSyncsafe, Err: err}
	}

	h := Header{
		Version:           int(major),
		Revision:          revision,
		Unsynchronized:    flags&flagUnsynchronization != 0,
		HasExtendedHeader: flags&flagExtendedHeader != 0,
		Experimental:      flags&flagExperimental != 0,
		TagSize:           size,
	}
	if major == 4 {
		h.HasFooter = flags&flagFooter != 0
	}
	return h, nil
}

func versionReason(major byte) string {
	switch {
	case major < 3:
		return "ID3v2.2 and earlier are not supported"
	default:
		return "ID3v2.5 and later are not supported"
	}
}

// Build serializes the header for tagSize (excluding the header itself).
func (h Header) Build(tagSize uint32) []byte {
	out := make([]byte, HeaderSize)
	copy(out[0:3], "ID3")
	out[3] = byte(h.Version)
	out[4] = h.Revision
	var flags byte
	if h.Unsynchronized {
		flags |= flagUnsynchronization
	}
	if h.HasExtendedHeader {
		flags |= flagExtendedHeader
	}
	if h.Experimental {
		flags |= flagExperimental
	}
	if h.Version == 4 && h.HasFooter {
		flags |= flagFooter
	}
	out[5] = flags
	copy(out[6:10], lib.EncodeSyncsafe(tagSize))
	return out
}

// SkipExtendedHeader returns the number of bytes the extended header
// occupies at the start of the frame region, so callers can skip past it
// before frame parsing.
func SkipExtendedHeader(version int, data []byte) (int, error) {
	if len(data) < 4 {
		return 0, &TagError{Kind: TruncatedData, Reason: "extended header truncated"}
	}
	switch version {
	case 3:
		size := int(lib.ReadU32(data[0:4]))
		return 4 + size, nil
	case 4:
		size, err := lib.DecodeSyncsafe(data[0:4])
		if err != nil {
			return 0, &TagError{Kind: InvalidSyncsafe, Err: err}
		}
		return int(size), nil // v2.4 extended header size includes itself
	default:
		return 0, &TagError{Kind: UnsupportedVersion}
	}
}

// deapplyUnsynchronization removes every 0x00 byte that follows a 0xFF
// byte. Used both at the tag level (header flag) and
// the frame level (v2.4 frame flag 0x0002).
func deapplyUnsynchronization(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		out = append(out, data[i])
		if data[i] == 0xFF && i+1 < len(data) && data[i+1] == 0x00 {
			i++
		}
	}
	return out
}

// applyUnsynchronization inserts a 0x00 byte after every 0xFF byte that is
// followed by 0x00, by a byte >= 0xE0, or is the last byte, per the ID3v2
// unsynchronization scheme (the generalized inverse of deapply, written so
// that a decoder re-applying deapply recovers the original bytes exactly).
func applyUnsynchronization(data []byte) []byte {
	out := make([]byte, 0, len(data)+len(data)/32+1)
	for i := 0; i < len(data); i++ {
		out = append(out, data[i])
		if data[i] == 0xFF {
			if i+1 >= len(data) || data[i+1] == 0x00 || data[i+1]&0xE0 == 0xE0 {
				out = append(out, 0x00)
			}
		}
	}
	return out
}

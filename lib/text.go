package lib

import (
	"fmt"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// TextEncoding identifies the text codec selected by an ID3v2 frame's
// leading encoding byte.
type TextEncoding byte

const (
	EncodingISO88591 TextEncoding = 0x00
	EncodingUTF16BOM TextEncoding = 0x01
	EncodingUTF16BE  TextEncoding = 0x02
	EncodingUTF8     TextEncoding = 0x03
)

// InvalidEncodingError is raised for any encoding byte outside the four
// recognized values.
type InvalidEncodingError struct {
	Byte byte
}

func (e *InvalidEncodingError) Error() string {
	return fmt.Sprintf("invalid text encoding byte 0x%02x", e.Byte)
}

// ParseTextEncoding validates a raw encoding byte.
func ParseTextEncoding(b byte) (TextEncoding, error) {
	switch TextEncoding(b) {
	case EncodingISO88591, EncodingUTF16BOM, EncodingUTF16BE, EncodingUTF8:
		return TextEncoding(b), nil
	default:
		return 0, &InvalidEncodingError{Byte: b}
	}
}

// NullTerminatorWidth is 1 byte for single-byte encodings and 2 for UTF-16
// variants.
func (e TextEncoding) NullTerminatorWidth() int {
	if e == EncodingUTF16BOM || e == EncodingUTF16BE {
		return 2
	}
	return 1
}

var iso88591Decoder = charmap.ISO8859_1.NewDecoder()
var iso88591Encoder = charmap.ISO8859_1.NewEncoder()

// DecodeText converts raw frame payload bytes into a UTF-8 Go string per
// the selected encoding. Trailing NUL terminators are stripped.
func DecodeText(data []byte, enc TextEncoding) (string, error) {
	data = trimTrailingNulls(data, enc.NullTerminatorWidth())

	switch enc {
	case EncodingISO88591:
		out, err := iso88591Decoder.Bytes(data)
		if err != nil {
			return "", fmt.Errorf("iso-8859-1 decode: %w", err)
		}
		return string(out), nil
	case EncodingUTF8:
		return string(data), nil
	case EncodingUTF16BOM:
		return decodeUTF16WithBOM(data)
	case EncodingUTF16BE:
		return decodeUTF16BE(data)
	default:
		return "", &InvalidEncodingError{Byte: byte(enc)}
	}
}

func decodeUTF16WithBOM(data []byte) (string, error) {
	bomEncoding := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)
	if len(data) >= 2 && data[0] == 0xFF && data[1] == 0xFE {
		bomEncoding = unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)
	}
	out, err := bomEncoding.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("utf-16 (bom) decode: %w", err)
	}
	return string(out), nil
}

func decodeUTF16BE(data []byte) (string, error) {
	out, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("utf-16be decode: %w", err)
	}
	return string(out), nil
}

func trimTrailingNulls(data []byte, width int) []byte {
	for len(data) >= width {
		tail := data[len(data)-width:]
		allZero := true
		for _, b := range tail {
			if b != 0 {
				allZero = false
				break
			}
		}
		if !allZero {
			break
		}
		data = data[:len(data)-width]
	}
	return data
}

// EncodeText converts a Go string into raw frame payload bytes for the
// given encoding, without a trailing terminator (callers append one where
// the frame shape calls for it).
func EncodeText(s string, enc TextEncoding) ([]byte, error) {
	switch enc {
	case EncodingISO88591:
		out, err := iso88591Encoder.Bytes([]byte(s))
		if err != nil {
			return nil, fmt.Errorf("iso-8859-1 encode: %w", err)
		}
		return out, nil
	case EncodingUTF8:
		return []byte(s), nil
	case EncodingUTF16BOM:
		enc16 := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
		return enc16.NewEncoder().Bytes([]byte(s))
	case EncodingUTF16BE:
		enc16 := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
		return enc16.NewEncoder().Bytes([]byte(s))
	default:
		return nil, &InvalidEncodingError{Byte: byte(enc)}
	}
}

// CanRepresentLatin1 reports whether every rune in s is representable in
// ISO-8859-1, centralizing the writer's encoding-selection table per
// keeping the decision table in one place.
func CanRepresentLatin1(s string) bool {
	for _, r := range s {
		if r > 0xFF {
			return false
		}
	}
	return true
}

// ReadNullTerminated reads a string from data starting at offset up to (but
// not including) the next terminator for enc, returning the string and the
// offset just past the terminator.
func ReadNullTerminated(data []byte, offset int, enc TextEncoding) (string, int, error) {
	width := enc.NullTerminatorWidth()
	i := offset
	for {
		if i+width > len(data) {
			s, err := DecodeText(data[offset:], enc)
			return s, len(data), err
		}
		if isZero(data[i : i+width]) {
			s, err := DecodeText(data[offset:i], enc)
			return s, i + width, err
		}
		i += width
	}
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}


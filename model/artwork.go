package model

import "bytes"

// ArtworkFormat identifies the image container of an Artwork payload.
type ArtworkFormat int

const (
	ArtworkUnknown ArtworkFormat = iota
	ArtworkJPEG
	ArtworkPNG
)

func (f ArtworkFormat) String() string {
	switch f {
	case ArtworkJPEG:
		return "JPEG"
	case ArtworkPNG:
		return "PNG"
	default:
		return "Unknown"
	}
}

var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
)

// Artwork is an embedded image plus its detected format.
type Artwork struct {
	Data   []byte
	Format ArtworkFormat
}

// NewArtwork detects format from the leading bytes.
func NewArtwork(data []byte) Artwork {
	return Artwork{Data: data, Format: DetectArtworkFormat(data)}
}

// DetectArtworkFormat inspects magic bytes to classify image data.
func DetectArtworkFormat(data []byte) ArtworkFormat {
	if bytes.HasPrefix(data, jpegMagic) {
		return ArtworkJPEG
	}
	if bytes.HasPrefix(data, pngMagic) {
		return ArtworkPNG
	}
	return ArtworkUnknown
}

// Dimensions probes image width/height from embedded markers, falling back
// to 300x300 when detection fails.
func (a Artwork) Dimensions() (width, height int) {
	switch a.Format {
	case ArtworkJPEG:
		if w, h, ok := jpegDimensions(a.Data); ok {
			return w, h
		}
	case ArtworkPNG:
		if w, h, ok := pngDimensions(a.Data); ok {
			return w, h
		}
	}
	return 300, 300
}

// pngDimensions reads width/height from the IHDR chunk, which always
// immediately follows the 8-byte PNG signature.
func pngDimensions(data []byte) (width, height int, ok bool) {
	const ihdrOffset = 8 + 8 // signature + chunk length/type
	if len(data) < ihdrOffset+8 {
		return 0, 0, false
	}
	if string(data[12:16]) != "IHDR" {
		return 0, 0, false
	}
	w := int(data[ihdrOffset])<<24 | int(data[ihdrOffset+1])<<16 | int(data[ihdrOffset+2])<<8 | int(data[ihdrOffset+3])
	h := int(data[ihdrOffset+4])<<24 | int(data[ihdrOffset+5])<<16 | int(data[ihdrOffset+6])<<8 | int(data[ihdrOffset+7])
	return w, h, true
}

// jpegDimensions scans markers for the first start-of-frame segment
// (0xC0-0xCF other than 0xC4, 0xC8 and 0xCC) and reads its height/width
// fields.
func jpegDimensions(data []byte) (width, height int, ok bool) {
	i := 2 // skip SOI
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			i++
			continue
		}
		marker := data[i+1]
		if marker == 0xD8 || marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			i += 2
			continue
		}
		if marker == 0xD9 { // EOI
			break
		}
		if i+4 > len(data) {
			break
		}
		segLen := int(data[i+2])<<8 | int(data[i+3])
		isSOF := marker >= 0xC0 && marker <= 0xCF && marker != 0xC4 && marker != 0xC8 && marker != 0xCC
		if isSOF {
			if i+9 > len(data) {
				return 0, 0, false
			}
			h := int(data[i+5])<<8 | int(data[i+6])
			w := int(data[i+7])<<8 | int(data[i+8])
			return w, h, true
		}
		i += 2 + segLen
	}
	return 0, 0, false
}

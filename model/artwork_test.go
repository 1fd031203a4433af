package model

import "testing"

func buildPNG(width, height uint32) []byte {
	out := append([]byte{}, pngMagic...)
	out = append(out, 0, 0, 0, 13) // IHDR chunk length
	out = append(out, 'I', 'H', 'D', 'R')
	out = append(out, byte(width>>24), byte(width>>16), byte(width>>8), byte(width))
	out = append(out, byte(height>>24), byte(height>>16), byte(height>>8), byte(height))
	return out
}

func TestDetectArtworkFormat(t *testing.T) {
	if got := DetectArtworkFormat(buildPNG(10, 10)); got != ArtworkPNG {
		t.Errorf("expected PNG, got %s", got)
	}
	if got := DetectArtworkFormat([]byte{0xFF, 0xD8, 0xFF, 0xE0}); got != ArtworkJPEG {
		t.Errorf("expected JPEG, got %s", got)
	}
	if got := DetectArtworkFormat([]byte{0, 0, 0, 0}); got != ArtworkUnknown {
		t.Errorf("expected Unknown, got %s", got)
	}
}

func TestArtworkDimensionsPNG(t *testing.T) {
	art := NewArtwork(buildPNG(640, 480))
	w, h := art.Dimensions()
	if w != 640 || h != 480 {
		t.Errorf("expected 640x480, got %dx%d", w, h)
	}
}

func TestArtworkDimensionsFallback(t *testing.T) {
	art := NewArtwork([]byte{1, 2, 3})
	w, h := art.Dimensions()
	if w != 300 || h != 300 {
		t.Errorf("expected fallback 300x300, got %dx%d", w, h)
	}
}

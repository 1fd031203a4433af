package id3

import "testing"

func TestParseHeaderRejectsMissingMagic(t *testing.T) {
	data := make([]byte, HeaderSize)
	copy(data, "XYZ")
	_, err := ParseHeader(data)
	te, ok := err.(*TagError)
	if !ok || te.Kind != NoTag {
		t.Errorf("expected NoTag error, got %v", err)
	}
}

func TestParseHeaderRejectsTruncated(t *testing.T) {
	_, err := ParseHeader([]byte("ID3"))
	te, ok := err.(*TagError)
	if !ok || te.Kind != TruncatedData {
		t.Errorf("expected TruncatedData error, got %v", err)
	}
}

func TestParseHeaderRejectsUnsupportedVersion(t *testing.T) {
	data := make([]byte, HeaderSize)
	copy(data, "ID3")
	data[3] = 2 // v2.2, unsupported
	_, err := ParseHeader(data)
	te, ok := err.(*TagError)
	if !ok || te.Kind != UnsupportedVersion {
		t.Errorf("expected UnsupportedVersion error, got %v", err)
	}
}

func TestHeaderBuildParseRoundTrip(t *testing.T) {
	h := Header{Version: 4, Revision: 0, Unsynchronized: true, HasFooter: true}
	built := h.Build(1234)
	parsed, err := ParseHeader(built)
	if err != nil {
		t.Fatalf("ParseHeader returned error: %v", err)
	}
	if parsed.Version != 4 || !parsed.Unsynchronized || !parsed.HasFooter || parsed.TagSize != 1234 {
		t.Errorf("expected round trip of header fields, got %+v", parsed)
	}
}

func TestUnsynchronizationRoundTrip(t *testing.T) {
	original := []byte{0x01, 0xFF, 0x00, 0x02, 0xFF, 0xE0, 0x03}
	applied := applyUnsynchronization(original)
	restored := deapplyUnsynchronization(applied)
	if string(restored) != string(original) {
		t.Errorf("expected unsynchronization round trip, got %v from %v via %v", restored, original, applied)
	}
}

func TestDeapplyUnsynchronizationStripsInsertedZero(t *testing.T) {
	// 0xFF 0x00 is the escaped form of a lone 0xFF byte.
	got := deapplyUnsynchronization([]byte{0xFF, 0x00, 0x01})
	want := []byte{0xFF, 0x01}
	if string(got) != string(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

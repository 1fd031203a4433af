package lib

import "testing"

func TestReadWriteU16(t *testing.T) {
	v := uint16(0xBEEF)
	if got := ReadU16(WriteU16(v)); got != v {
		t.Errorf("expected round trip 0x%04X, got 0x%04X", v, got)
	}
}

func TestReadWriteU32(t *testing.T) {
	v := uint32(0xDEADBEEF)
	if got := ReadU32(WriteU32(v)); got != v {
		t.Errorf("expected round trip 0x%08X, got 0x%08X", v, got)
	}
}

func TestReadWriteU64(t *testing.T) {
	v := uint64(0x0102030405060708)
	if got := ReadU64(WriteU64(v)); got != v {
		t.Errorf("expected round trip 0x%016X, got 0x%016X", v, got)
	}
}

func TestSyncsafeRoundTrip(t *testing.T) {
	cases := []uint32{0, 1, 0x7F, 0x3FFF, 0x0FFFFFFF}
	for _, n := range cases {
		encoded := EncodeSyncsafe(n)
		decoded, err := DecodeSyncsafe(encoded)
		if err != nil {
			t.Fatalf("DecodeSyncsafe(%d) returned error: %v", n, err)
		}
		if decoded != n {
			t.Errorf("expected round trip %d, got %d", n, decoded)
		}
	}
}

func TestDecodeSyncsafeRejectsHighBit(t *testing.T) {
	_, err := DecodeSyncsafe([]byte{0x80, 0, 0, 0})
	if err == nil {
		t.Error("expected error for byte with high bit set")
	}
}

func TestDecodeSyncsafeRejectsWrongLength(t *testing.T) {
	_, err := DecodeSyncsafe([]byte{0, 0, 0})
	if err == nil {
		t.Error("expected error for wrong-length input")
	}
}

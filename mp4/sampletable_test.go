package mp4

import (
	"reflect"
	"testing"

	"github.com/relfax/audiomarker/lib"
)

func TestParseSttsExpandsRunLength(t *testing.T) {
	payload := append(make([]byte, 4), lib.WriteU32(2)...) // version+flags, entry count
	payload = append(payload, lib.WriteU32(3)...)          // sample count
	payload = append(payload, lib.WriteU32(1000)...)       // delta
	payload = append(payload, lib.WriteU32(1)...)
	payload = append(payload, lib.WriteU32(500)...)

	got := parseStts(payload)
	want := []uint32{1000, 1000, 1000, 500}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestParseStszConstantSize(t *testing.T) {
	payload := append(make([]byte, 4), lib.WriteU32(64)...) // sample size
	payload = append(payload, lib.WriteU32(3)...)           // count
	got := parseStsz(payload)
	want := []uint32{64, 64, 64}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestParseStszVariableSize(t *testing.T) {
	payload := append(make([]byte, 4), lib.WriteU32(0)...) // sample size 0 => variable
	payload = append(payload, lib.WriteU32(2)...)          // count
	payload = append(payload, lib.WriteU32(10)...)
	payload = append(payload, lib.WriteU32(20)...)
	got := parseStsz(payload)
	want := []uint32{10, 20}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestParseStcoAndCo64(t *testing.T) {
	stco := append(make([]byte, 4), lib.WriteU32(2)...)
	stco = append(stco, lib.WriteU32(100)...)
	stco = append(stco, lib.WriteU32(200)...)
	if got := parseStco(stco); !reflect.DeepEqual(got, []uint64{100, 200}) {
		t.Errorf("expected [100 200], got %v", got)
	}

	co64 := append(make([]byte, 4), lib.WriteU32(1)...)
	co64 = append(co64, lib.WriteU64(1<<40)...)
	if got := parseCo64(co64); !reflect.DeepEqual(got, []uint64{1 << 40}) {
		t.Errorf("expected [%d], got %v", uint64(1)<<40, got)
	}
}

func TestSampleOffsetsOnePerChunk(t *testing.T) {
	table := &sampleTable{
		sizes:        []uint32{10, 20, 30},
		chunkOffsets: []uint64{1000, 1040, 1080},
		chunkMap:     []stscEntry{{firstChunk: 1, samplesPerChunk: 1}},
	}
	got := table.sampleOffsets()
	want := []uint64{1000, 1040, 1080}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSampleOffsetsMultiplePerChunk(t *testing.T) {
	table := &sampleTable{
		sizes:        []uint32{10, 10, 10, 10},
		chunkOffsets: []uint64{0, 100},
		chunkMap:     []stscEntry{{firstChunk: 1, samplesPerChunk: 2}},
	}
	got := table.sampleOffsets()
	want := []uint64{0, 10, 100, 110}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

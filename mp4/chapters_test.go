package mp4

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/relfax/audiomarker/lib"
)

func TestParseTkhdTrackID(t *testing.T) {
	payload := make([]byte, 16)
	copy(payload[12:16], lib.WriteU32(7))
	if got := parseTkhdTrackID(payload); got != 7 {
		t.Errorf("expected track ID 7, got %d", got)
	}
}

func TestParseHdlrType(t *testing.T) {
	payload := make([]byte, 12)
	copy(payload[8:12], []byte("soun"))
	if got := parseHdlrType(payload); got != "soun" {
		t.Errorf("expected soun, got %q", got)
	}
}

func TestParseMdhdTimescaleVersion0(t *testing.T) {
	payload := make([]byte, 16)
	copy(payload[12:16], lib.WriteU32(44100))
	if got := parseMdhdTimescale(payload); got != 44100 {
		t.Errorf("expected 44100, got %d", got)
	}
}

func TestIsSpacerSample(t *testing.T) {
	if !isSpacerSample(chapterSample{startMs: 0, endMs: 0, text: "   "}) {
		t.Error("expected whitespace-only zero-duration sample to be a spacer")
	}
	if isSpacerSample(chapterSample{startMs: 0, endMs: 5000, text: ""}) {
		t.Error("expected long-duration empty sample to not be a spacer")
	}
	if isSpacerSample(chapterSample{startMs: 0, endMs: 0, text: "Intro"}) {
		t.Error("expected non-blank text to not be a spacer")
	}
}

func TestNearestByTime(t *testing.T) {
	candidates := []chapterSample{
		{startMs: 1000, url: "a"},
		{startMs: 5000, url: "b"},
		{startMs: 9000, url: "c"},
	}
	match := nearestByTime(candidates, 5500)
	if match == nil || match.url != "b" {
		t.Errorf("expected match b, got %+v", match)
	}
	if got := nearestByTime(candidates, 100000); got != nil {
		t.Errorf("expected no match outside window, got %+v", got)
	}
}

func TestParseTx3gSampleWithHref(t *testing.T) {
	text := "Chapter One"
	raw := append(lib.WriteU16(uint16(len(text))), []byte(text)...)
	href := buildHrefAtom("https://example.com")
	raw = append(raw, href...)

	gotText, gotURL := parseTx3gSample(raw)
	if gotText != text {
		t.Errorf("expected text %q, got %q", text, gotText)
	}
	if gotURL != "https://example.com" {
		t.Errorf("expected url preserved, got %q", gotURL)
	}
}

func TestParseTx3gSamplePlainText(t *testing.T) {
	text := "No URL"
	raw := append(lib.WriteU16(uint16(len(text))), []byte(text)...)
	gotText, gotURL := parseTx3gSample(raw)
	if gotText != text || gotURL != "" {
		t.Errorf("expected (%q, \"\"), got (%q, %q)", text, gotText, gotURL)
	}
}

func TestReadNeroChapters(t *testing.T) {
	chpl := buildChplAtomForTest([]neroChapterForTest{
		{hundredNs: 0, title: "Intro"},
		{hundredNs: 300_000_000, title: "Part Two"}, // 30s
	})
	udta := buildContainer("udta", chpl)
	moovBytes := buildContainer("moov", udta)

	path := writeTempAtomFile(t, moovBytes)
	r, err := lib.OpenReader(path)
	if err != nil {
		t.Fatalf("OpenReader returned error: %v", err)
	}
	defer r.Close()
	root, err := ParseTree(r)
	if err != nil {
		t.Fatalf("ParseTree returned error: %v", err)
	}
	moov := root.child("moov")
	list, err := readNeroChapters(moov)
	if err != nil {
		t.Fatalf("readNeroChapters returned error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 chapters, got %d", len(list))
	}
	if list[0].Title != "Intro" || list[0].Start.Milliseconds() != 0 {
		t.Errorf("expected chapter 0 {Intro, 0ms}, got %+v", list[0])
	}
	if list[1].Title != "Part Two" || list[1].Start.Milliseconds() != 30000 {
		t.Errorf("expected chapter 1 {Part Two, 30000ms}, got %+v", list[1])
	}
}

type neroChapterForTest struct {
	hundredNs uint64
	title     string
}

func buildChplAtomForTest(chs []neroChapterForTest) []byte {
	payload := make([]byte, 9)
	payload[8] = byte(len(chs))
	for _, c := range chs {
		payload = append(payload, lib.WriteU64(c.hundredNs)...)
		payload = append(payload, byte(len(c.title)))
		payload = append(payload, []byte(c.title)...)
	}
	return buildAtom("chpl", payload)
}

func writeTempAtomFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.mp4")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

package mp4

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/relfax/audiomarker/lib"
	"github.com/relfax/audiomarker/model"
)

// buildMinimalFixture assembles a moov-before-mdat file with one audio
// track whose stco entry points at the single mdat sample, so a writer
// round trip exercises the back-patching of pre-existing stco entries.
func buildMinimalFixture(t *testing.T, title string, audio []byte) string {
	t.Helper()

	ftyp := buildAtom("ftyp", append([]byte("M4A "), make([]byte, 8)...))

	mvhd := buildAtom("mvhd", make([]byte, 100))

	tkhd := make([]byte, 84)
	copy(tkhd[12:16], lib.WriteU32(1))
	tkhdAtom := buildAtom("tkhd", tkhd)

	mdhd := buildAtom("mdhd", make([]byte, 24))
	hdlr := make([]byte, 24)
	copy(hdlr[8:12], []byte("soun"))
	hdlrAtom := buildAtom("hdlr", hdlr)

	// placeholder stco, patched below once the absolute mdat offset is known.
	stcoPayload := append(make([]byte, 4), lib.WriteU32(1)...)
	stcoPayload = append(stcoPayload, lib.WriteU32(0)...)
	stco := buildAtom("stco", stcoPayload)
	stbl := buildContainer("stbl", stco)
	minf := buildContainer("minf", stbl)
	mdia := buildContainer("mdia", mdhd, hdlrAtom, minf)
	trak := buildContainer("trak", tkhdAtom, mdia)

	ilst := buildContainer("ilst", buildTextItem("©nam", title))
	udta := buildContainer("udta", buildMeta(ilst))

	moov := buildContainer("moov", mvhd, trak, udta)

	mdatOffset := int64(len(ftyp)) + int64(len(moov)) + atomHeaderSize

	// Patch the stco entry directly within moov's byte buffer: the entry
	// is the last 4 bytes of the stco atom, which is the last atom of stbl,
	// which is the only child of minf, the last child of mdia appended
	// after mdhd+hdlr, inside trak appended after tkhd, the second trak
	// child of moov appended after mvhd.
	patchPos := len(moov) - len(udta) - 4
	copy(moov[patchPos:patchPos+4], lib.WriteU32(uint32(mdatOffset)))

	mdat := buildAtom("mdat", audio)

	data := append([]byte{}, ftyp...)
	data = append(data, moov...)
	data = append(data, mdat...)

	path := filepath.Join(t.TempDir(), "fixture.m4a")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestWriteRoundTripPreservesAudioAndUpdatesTitle(t *testing.T) {
	audio := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01, 0x02, 0x03, 0x04}
	path := buildMinimalFixture(t, "Old Title", audio)

	before, err := Read(path)
	if err != nil {
		t.Fatalf("Read before write returned error: %v", err)
	}
	if before.Metadata.Title != "Old Title" {
		t.Fatalf("expected fixture title 'Old Title', got %q", before.Metadata.Title)
	}

	info := model.NewAudioFileInfo()
	info.Metadata.Title = "New Title"
	info.Metadata.Artist = "New Artist"

	if err := Write(info, path); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	after, err := Read(path)
	if err != nil {
		t.Fatalf("Read after write returned error: %v", err)
	}
	if after.Metadata.Title != "New Title" {
		t.Errorf("expected title 'New Title', got %q", after.Metadata.Title)
	}
	if after.Metadata.Artist != "New Artist" {
		t.Errorf("expected artist 'New Artist', got %q", after.Metadata.Artist)
	}

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
	stco := moov.Find("trak.mdia.minf.stbl.stco")
	if stco == nil {
		t.Fatal("expected stco atom to survive the rewrite")
	}
	payload, err := stco.Payload()
	if err != nil {
		t.Fatalf("stco.Payload() returned error: %v", err)
	}
	patchedOffset := int64(lib.ReadU32(payload[8:12]))

	mdat := root.child("mdat")
	if mdat == nil {
		t.Fatal("expected mdat atom to survive the rewrite")
	}
	got, err := r.Read(patchedOffset, int64(len(audio)))
	if err != nil {
		t.Fatalf("reading patched offset returned error: %v", err)
	}
	if string(got) != string(audio) {
		t.Errorf("expected stco to still point at the original audio bytes, got %v want %v", got, audio)
	}
}

func TestWriteChaptersBuildsNeroChplAndAvoidsDuplicateTracksOnRewrite(t *testing.T) {
	audio := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	path := buildMinimalFixture(t, "Title", audio)

	chapters := model.ChapterList{
		{Start: model.MustFromMilliseconds(0), Title: "Intro"},
		{Start: model.MustFromMilliseconds(30000), Title: "Part Two"},
	}

	info := model.NewAudioFileInfo()
	info.Metadata.Title = "Title"
	info.Chapters = chapters

	if err := Write(info, path); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	readMoov := func() *Atom {
		r, err := lib.OpenReader(path)
		if err != nil {
			t.Fatalf("OpenReader returned error: %v", err)
		}
		defer r.Close()
		root, err := ParseTree(r)
		if err != nil {
			t.Fatalf("ParseTree returned error: %v", err)
		}
		return root.child("moov")
	}

	moov := readMoov()
	neroChapters, err := readNeroChapters(moov)
	if err != nil {
		t.Fatalf("readNeroChapters returned error: %v", err)
	}
	if len(neroChapters) != 2 {
		t.Fatalf("expected 2 chpl chapters, got %d", len(neroChapters))
	}
	if neroChapters[0].Title != "Intro" || neroChapters[1].Title != "Part Two" {
		t.Errorf("expected {Intro, Part Two}, got %+v", neroChapters)
	}
	if got := len(moov.FindAll("trak")); got != 2 {
		t.Fatalf("expected 2 traks (audio + chapter text) after first write, got %d", got)
	}

	// Modify preserves the existing chapters by reading them back first;
	// a second write must not leave the stale text track in place
	// alongside a freshly built one.
	info2 := model.NewAudioFileInfo()
	info2.Metadata.Title = "Title"
	if err := Modify(info2, path); err != nil {
		t.Fatalf("Modify returned error: %v", err)
	}
	moov = readMoov()
	if got := len(moov.FindAll("trak")); got != 2 {
		t.Errorf("expected 2 traks after rewrite (no duplicate chapter track), got %d", got)
	}
}

func TestStripTagRemovesMetadata(t *testing.T) {
	audio := []byte{1, 2, 3, 4}
	path := buildMinimalFixture(t, "Has Title", audio)

	if err := StripTag(path); err != nil {
		t.Fatalf("StripTag returned error: %v", err)
	}

	after, err := Read(path)
	if err != nil {
		t.Fatalf("Read after strip returned error: %v", err)
	}
	if after.Metadata.Title != "" {
		t.Errorf("expected title cleared, got %q", after.Metadata.Title)
	}
}

package lyrics

import (
	"testing"

	"github.com/relfax/audiomarker/model"
)

func sampleLyrics() model.SynchronizedLyrics {
	return model.SynchronizedLyrics{
		Language: "eng",
		Lines: []model.LyricLine{
			{Time: model.MustFromMilliseconds(0), Text: "first line"},
			{Time: model.MustFromMilliseconds(5250), Text: "second line"},
		},
	}
}

func TestLRCRoundTrip(t *testing.T) {
	sl := sampleLyrics()
	rendered := ExportLRC(sl)
	got, err := ParseLRC(rendered)
	if err != nil {
		t.Fatalf("ParseLRC returned error: %v", err)
	}
	if got.Language != sl.Language {
		t.Errorf("expected language %q preserved, got %q", sl.Language, got.Language)
	}
	if len(got.Lines) != len(sl.Lines) {
		t.Fatalf("expected %d lines, got %d", len(sl.Lines), len(got.Lines))
	}
	for i := range sl.Lines {
		if got.Lines[i].Text != sl.Lines[i].Text {
			t.Errorf("line %d: expected text %q, got %q", i, sl.Lines[i].Text, got.Lines[i].Text)
		}
		if got.Lines[i].Time.Milliseconds() != sl.Lines[i].Time.Milliseconds() {
			t.Errorf("line %d: expected time %d, got %d", i, sl.Lines[i].Time.Milliseconds(), got.Lines[i].Time.Milliseconds())
		}
	}
}

func TestSRTRoundTrip(t *testing.T) {
	sl := sampleLyrics()
	rendered := ExportSRT(sl)
	got, err := ParseSRT(rendered)
	if err != nil {
		t.Fatalf("ParseSRT returned error: %v", err)
	}
	if len(got.Lines) != len(sl.Lines) {
		t.Fatalf("expected %d lines, got %d", len(sl.Lines), len(got.Lines))
	}
	for i := range sl.Lines {
		if got.Lines[i].Text != sl.Lines[i].Text {
			t.Errorf("line %d: expected text %q, got %q", i, sl.Lines[i].Text, got.Lines[i].Text)
		}
	}
}

func TestWebVTTRoundTrip(t *testing.T) {
	sl := sampleLyrics()
	rendered := ExportWebVTT(sl)
	got, err := ParseWebVTT(rendered)
	if err != nil {
		t.Fatalf("ParseWebVTT returned error: %v", err)
	}
	if len(got.Lines) != len(sl.Lines) {
		t.Fatalf("expected %d lines, got %d", len(sl.Lines), len(got.Lines))
	}
	for i := range sl.Lines {
		if got.Lines[i].Text != sl.Lines[i].Text {
			t.Errorf("line %d: expected text %q, got %q", i, sl.Lines[i].Text, got.Lines[i].Text)
		}
	}
}

func TestLRCSkipsUnrecognizedMetadataTag(t *testing.T) {
	sl, err := ParseLRC("[ar:Some Artist]\n[00:01.00]hello\n")
	if err != nil {
		t.Fatalf("ParseLRC returned error: %v", err)
	}
	if len(sl.Lines) != 1 || sl.Lines[0].Text != "hello" {
		t.Errorf("expected one line 'hello', got %+v", sl.Lines)
	}
}

func TestFacadeExportRejectsUnknownFormat(t *testing.T) {
	_, err := Export(sampleLyrics(), model.ExportFormat(999))
	if err == nil {
		t.Error("expected error for unrecognized format")
	}
}

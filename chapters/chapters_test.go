package chapters

import (
	"testing"

	"github.com/relfax/audiomarker/model"
)

func sampleChapterList() model.ChapterList {
	return model.ChapterList{
		{Start: model.MustFromMilliseconds(0), Title: "Intro"},
		{Start: model.MustFromMilliseconds(90_000), Title: "Chapter Two"},
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	formats := []model.ExportFormat{
		model.FormatPodloveJSON,
		model.FormatPodloveXML,
		model.FormatMP4Chaps,
		model.FormatFFMetadata,
		model.FormatPodcastNamespace,
		model.FormatCueSheet,
	}
	for _, format := range formats {
		list := sampleChapterList()
		rendered, err := Export(list, format)
		if err != nil {
			t.Fatalf("Export(%s) returned error: %v", format, err)
		}
		got, err := Import(rendered, format)
		if err != nil {
			t.Fatalf("Import(%s) returned error: %v", format, err)
		}
		if len(got) != len(list) {
			t.Fatalf("%s: expected %d chapters, got %d", format, len(list), len(got))
		}
		for i := range list {
			if got[i].Title != list[i].Title {
				t.Errorf("%s: chapter %d: expected title %q, got %q", format, i, list[i].Title, got[i].Title)
			}
			if got[i].Start.Milliseconds() != list[i].Start.Milliseconds() {
				t.Errorf("%s: chapter %d: expected start %d, got %d", format, i, list[i].Start.Milliseconds(), got[i].Start.Milliseconds())
			}
		}
	}
}

func TestExportRejectsLyricFormat(t *testing.T) {
	_, err := Export(sampleChapterList(), model.FormatLRC)
	ee, ok := err.(*ExportError)
	if !ok || ee.Kind != UnsupportedFormat {
		t.Errorf("expected UnsupportedFormat error, got %v", err)
	}
}

func TestMarkdownExportIsNonEmpty(t *testing.T) {
	out := ExportMarkdown(sampleChapterList())
	if out == "" {
		t.Error("expected non-empty markdown export")
	}
}

func TestCueSheetEscapesQuotes(t *testing.T) {
	list := model.ChapterList{{Start: model.Zero, Title: `Say "Hi"`}}
	out := ExportCueSheet(list)
	if got := cueEscape(`Say "Hi"`); got != "Say 'Hi'" {
		t.Errorf("expected quote escaped to apostrophe, got %q", got)
	}
	if out == "" {
		t.Error("expected non-empty cue sheet")
	}
}

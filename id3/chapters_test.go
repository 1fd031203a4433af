package id3

import (
	"net/url"
	"testing"

	"github.com/relfax/audiomarker/model"
)

func TestChapterModelFrameRoundTrip(t *testing.T) {
	list := model.ChapterList{
		{Start: model.MustFromMilliseconds(0), Title: "Intro"},
		{Start: model.MustFromMilliseconds(60_000), Title: "Chapter One"},
	}

	frames := chaptersToFrames(list)
	got := framesToChapters(frames)

	if len(got) != len(list) {
		t.Fatalf("expected %d chapters, got %d", len(list), len(got))
	}
	for i, c := range got {
		if c.Title != list[i].Title {
			t.Errorf("chapter %d: expected title %q, got %q", i, list[i].Title, c.Title)
		}
		if c.Start.Milliseconds() != list[i].Start.Milliseconds() {
			t.Errorf("chapter %d: expected start %d, got %d", i, list[i].Start.Milliseconds(), c.Start.Milliseconds())
		}
	}
	// first chapter's derived end should be the second chapter's start
	if got[0].End == nil || got[0].End.Milliseconds() != 60_000 {
		t.Errorf("expected derived end of 60000ms, got %+v", got[0].End)
	}
	// last chapter's derived end should be start+1ms
	if got[1].End == nil || got[1].End.Milliseconds() != 60_001 {
		t.Errorf("expected derived end of 60001ms, got %+v", got[1].End)
	}
}

func TestChaptersToFramesEmptyList(t *testing.T) {
	if frames := chaptersToFrames(nil); frames != nil {
		t.Errorf("expected nil frames for empty chapter list, got %v", frames)
	}
}

func TestChapterModelToFramePreservesURL(t *testing.T) {
	list := model.ChapterList{
		{Start: model.Zero, Title: "one"},
	}
	u, _ := url.Parse("https://example.com/one")
	list[0].URL = u

	got := framesToChapters(chaptersToFrames(list))
	if got[0].URL == nil || got[0].URL.String() != "https://example.com/one" {
		t.Errorf("expected URL preserved, got %v", got[0].URL)
	}
}

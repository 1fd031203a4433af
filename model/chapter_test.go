package model

import "testing"

func TestChapterListSortIsStableAndAscending(t *testing.T) {
	list := ChapterList{
		{Start: MustFromMilliseconds(5000), Title: "b"},
		{Start: MustFromMilliseconds(1000), Title: "a"},
		{Start: MustFromMilliseconds(1000), Title: "a2"},
	}
	sorted := list.Sorted()
	if sorted[0].Title != "a" || sorted[1].Title != "a2" || sorted[2].Title != "b" {
		t.Errorf("expected stable ascending sort, got %+v", sorted)
	}
	if list[0].Title != "b" {
		t.Error("Sorted must not mutate the receiver")
	}
}

func TestWithDerivedEndsFillsFromNextStart(t *testing.T) {
	list := ChapterList{
		{Start: MustFromMilliseconds(0), Title: "one"},
		{Start: MustFromMilliseconds(5000), Title: "two"},
	}
	withEnds := list.WithDerivedEnds()
	if withEnds[0].End == nil || withEnds[0].End.Milliseconds() != 5000 {
		t.Errorf("expected first chapter's end to be 5000ms, got %+v", withEnds[0].End)
	}
	if withEnds[1].End == nil || withEnds[1].End.Milliseconds() != 5001 {
		t.Errorf("expected last chapter's end to be start+1ms, got %+v", withEnds[1].End)
	}
}

func TestWithDerivedEndsPreservesExplicitEnd(t *testing.T) {
	end := MustFromMilliseconds(2000)
	list := ChapterList{{Start: MustFromMilliseconds(0), End: &end}}
	withEnds := list.WithDerivedEnds()
	if withEnds[0].End.Milliseconds() != 2000 {
		t.Errorf("expected explicit end preserved, got %d", withEnds[0].End.Milliseconds())
	}
}

func TestHasArtwork(t *testing.T) {
	list := ChapterList{{Start: Zero}}
	if list.HasArtwork() {
		t.Error("expected no artwork")
	}
	art := NewArtwork([]byte{0x89, 'P', 'N', 'G'})
	list[0].Artwork = &art
	if !list.HasArtwork() {
		t.Error("expected artwork to be detected")
	}
}

func TestChapterValidateRejectsEndBeforeStart(t *testing.T) {
	end := MustFromMilliseconds(0)
	c := Chapter{Start: MustFromMilliseconds(1000), End: &end}
	if err := c.Validate(); err == nil {
		t.Error("expected validation error for end before start")
	}
}

func TestTitleOrSynthesized(t *testing.T) {
	c := Chapter{Title: ""}
	if got := c.TitleOrSynthesized(3); got != "Chapter 3" {
		t.Errorf("expected synthesized title, got %q", got)
	}
	c.Title = "Intro"
	if got := c.TitleOrSynthesized(3); got != "Intro" {
		t.Errorf("expected explicit title preserved, got %q", got)
	}
}

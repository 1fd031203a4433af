package model

import (
	"fmt"
	"net/url"
	"sort"
)

// Chapter is a single navigational marker.
type Chapter struct {
	Start   AudioTimestamp
	Title   string
	End     *AudioTimestamp
	URL     *url.URL
	Artwork *Artwork
}

// Validate enforces the End >= Start invariant.
func (c Chapter) Validate() error {
	if c.End != nil && c.End.Less(c.Start) {
		return fmt.Errorf("chapter %q: end %s is before start %s", c.Title, c.End, c.Start)
	}
	return nil
}

// TitleOrSynthesized returns Title, or a synthesized "Chapter N" label
// (1-based) when Title is empty and a label is structurally required.
// Readers must never call this — an empty title read from a
// file must survive round-trip unchanged.
func (c Chapter) TitleOrSynthesized(oneBasedIndex int) string {
	if c.Title != "" {
		return c.Title
	}
	return fmt.Sprintf("Chapter %d", oneBasedIndex)
}

// ChapterList is an ordered sequence of Chapter, semantically sorted by
// Start ascending. The zero value is an empty list.
type ChapterList []Chapter

// Sort orders the list by Start ascending, stably preserving relative
// order among equal-start chapters. Writers assume this invariant holds.
func (cl ChapterList) Sort() {
	sort.SliceStable(cl, func(i, j int) bool {
		return cl[i].Start.Less(cl[j].Start)
	})
}

// Sorted returns a sorted copy, leaving cl untouched.
func (cl ChapterList) Sorted() ChapterList {
	out := make(ChapterList, len(cl))
	copy(out, cl)
	out.Sort()
	return out
}

// WithDerivedEnds returns a copy where every chapter missing an explicit
// End has one filled in: the next chapter's start, or start+1ms for the
// last chapter.
func (cl ChapterList) WithDerivedEnds() ChapterList {
	sorted := cl.Sorted()
	out := make(ChapterList, len(sorted))
	for i, c := range sorted {
		out[i] = c
		if c.End != nil {
			continue
		}
		var end AudioTimestamp
		if i+1 < len(sorted) {
			end = sorted[i+1].Start
		} else {
			end, _ = c.Start.AddMilliseconds(1)
		}
		out[i].End = &end
	}
	return out
}

// HasArtwork reports whether any chapter in the list carries artwork.
func (cl ChapterList) HasArtwork() bool {
	for _, c := range cl {
		if c.Artwork != nil {
			return true
		}
	}
	return false
}

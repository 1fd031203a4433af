package id3

import (
	"fmt"
	"net/url"

	"github.com/relfax/audiomarker/model"
)

// unknownOffset is ID3's "unknown offset" sentinel for CHAP start/end byte
// offsets: this codec never tracks byte offsets into the
// audio stream, so it always writes this value.
const unknownOffset uint32 = 0xFFFFFFFF

// framesToChapters collects every CHAP frame (in order of appearance) into
// a ChapterList, extracting title from TIT2, URL from WOAR/WXXX, and
// artwork from APIC subframes. CTOC frames are not consulted: the list
// follows the order in which CHAP frames appear in the tag.
func framesToChapters(frames []Frame) model.ChapterList {
	var chapters model.ChapterList
	for _, f := range frames {
		chap, ok := f.(ChapterFrame)
		if !ok {
			continue
		}
		chapters = append(chapters, chapterFrameToModel(chap))
	}
	return chapters
}

func chapterFrameToModel(f ChapterFrame) model.Chapter {
	start := model.MustFromMilliseconds(int64(f.StartMs))
	c := model.Chapter{Start: start}

	for _, sub := range f.Subframes {
		switch sv := sub.(type) {
		case TextFrame:
			if sv.ID == idTitle {
				c.Title = sv.Text
			}
		case URLFrame:
			if sv.ID == "WOAR" {
				if u, err := url.Parse(sv.URL); err == nil {
					c.URL = u
				}
			}
		case UserDefinedURLFrame:
			if c.URL == nil {
				if u, err := url.Parse(sv.URL); err == nil {
					c.URL = u
				}
			}
		case AttachedPictureFrame:
			art := model.NewArtwork(sv.Data)
			c.Artwork = &art
		}
	}

	// CHAP's end time is a mandatory field in the binary layout, so a parsed CHAP frame always carries a concrete end; the
	// in-memory model still treats it as optional for other formats, but
	// ID3 round-trips it unconditionally. A malformed end < start is
	// dropped rather than surfaced, leaving End unset.
	end := model.MustFromMilliseconds(int64(f.EndMs))
	if !end.Less(start) {
		c.End = &end
	}
	return c
}

// chaptersToFrames builds one CTOC ("toc", top-level + ordered, children
// chp0, chp1, ...) followed by one CHAP per chapter. The
// CHAP endTime rule: explicit End if present, else next chapter's start,
// else start+1.
func chaptersToFrames(chapters model.ChapterList) []Frame {
	if len(chapters) == 0 {
		return nil
	}
	sorted := chapters.Sorted()
	derived := sorted.WithDerivedEnds()

	var frames []Frame
	children := make([]string, len(derived))
	for i := range derived {
		children[i] = fmt.Sprintf("chp%d", i)
	}
	frames = append(frames, TableOfContentsFrame{
		frameBase:       frameBase{ID: "CTOC"},
		ElementID:       "toc",
		IsTopLevel:      true,
		IsOrdered:       true,
		ChildElementIDs: children,
	})

	for i, c := range derived {
		frames = append(frames, chapterModelToFrame(children[i], c))
	}
	return frames
}

func chapterModelToFrame(elementID string, c model.Chapter) ChapterFrame {
	var sub []Frame
	sub = append(sub, TextFrame{frameBase: frameBase{ID: idTitle}, Text: c.Title})
	if c.URL != nil {
		sub = append(sub, URLFrame{frameBase: frameBase{ID: "WOAR"}, URL: c.URL.String()})
	}
	if c.Artwork != nil {
		sub = append(sub, AttachedPictureFrame{
			frameBase:   frameBase{ID: "APIC"},
			PictureType: 3,
			MIME:        mimeForArtwork(*c.Artwork),
			Data:        c.Artwork.Data,
		})
	}

	endMs := uint32(0)
	if c.End != nil {
		endMs = uint32(c.End.Milliseconds())
	}

	return ChapterFrame{
		frameBase:   frameBase{ID: "CHAP"},
		ElementID:   elementID,
		StartMs:     uint32(c.Start.Milliseconds()),
		EndMs:       endMs,
		StartOffset: unknownOffset,
		EndOffset:   unknownOffset,
		Subframes:   sub,
	}
}

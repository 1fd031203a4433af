package model

// LyricContentType mirrors ID3v2 SYLT's content-type byte,
// reused as the domain-level enum for SynchronizedLyrics.
type LyricContentType byte

const (
	LyricContentOther LyricContentType = iota
	LyricContentLyrics
	LyricContentTextTranscription
	LyricContentMovement
	LyricContentEvents
	LyricContentChord
	LyricContentTrivia
	LyricContentWebpageURLs
	LyricContentImageURLs
)

// LyricSegment is a word-level karaoke span.
type LyricSegment struct {
	StartTime AudioTimestamp
	EndTime   AudioTimestamp
	Text      string
	StyleID   string
}

// LyricLine is one line of synchronized lyrics, optionally carrying
// word-level karaoke segments and/or a speaker attribution.
type LyricLine struct {
	Time     AudioTimestamp
	Text     string
	Segments []LyricSegment
	Speaker  string
}

// IsKaraoke reports whether the line carries word-level timing.
func (l LyricLine) IsKaraoke() bool {
	return len(l.Segments) > 0
}

// HasSpeaker reports whether a speaker attribution is set.
func (l LyricLine) HasSpeaker() bool {
	return l.Speaker != ""
}

// SynchronizedLyrics is one language/content track of time-aligned lyrics.
// Language defaults to "und" (ISO 639-2 "undetermined").
type SynchronizedLyrics struct {
	Language    string
	ContentType LyricContentType
	Descriptor  string
	Lines       []LyricLine
}

// NormalizedLanguage returns Language, defaulting empty to "und".
func (s SynchronizedLyrics) NormalizedLanguage() string {
	if s.Language == "" {
		return "und"
	}
	return s.Language
}

// SortLines orders Lines by Time ascending; duplicates at identical times
// keep their relative insertion order (stable sort).
func (s *SynchronizedLyrics) SortLines() {
	sortLyricLinesStable(s.Lines)
}

func sortLyricLinesStable(lines []LyricLine) {
	// Insertion sort: stable, and lyric lines per track are small (seconds
	// to low thousands), so O(n^2) worst case is not a concern here.
	for i := 1; i < len(lines); i++ {
		for j := i; j > 0 && lines[j].Time.Less(lines[j-1].Time); j-- {
			lines[j], lines[j-1] = lines[j-1], lines[j]
		}
	}
}

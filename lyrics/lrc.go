package lyrics

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/relfax/audiomarker/model"
)

// lrcTimedLine matches "[MM:SS.ff]text" or "[MM:SS.fff]text";
// ff is 2 digits (centiseconds) or 3 (milliseconds).
var lrcTimedLine = regexp.MustCompile(`^\[(\d{1,3}):(\d{2})[.:](\d{2,3})\](.*)$`)

// lrcMetaTag matches a bracketed tag with no embedded dot, e.g. "[ar:Some
// Artist]" or "[la:fra]".
var lrcMetaTag = regexp.MustCompile(`^\[([a-zA-Z]+):([^.]*)\]$`)

// ParseLRC parses an LRC lyric sheet into a single SynchronizedLyrics
// track, recognizing the "[la:xxx]" language tag and skipping other
// metadata tags.
func ParseLRC(text string) (model.SynchronizedLyrics, error) {
	sl := model.SynchronizedLyrics{ContentType: model.LyricContentLyrics}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, "\r")
		if line == "" {
			continue
		}
		if m := lrcTimedLine.FindStringSubmatch(line); m != nil {
			minutes, _ := strconv.Atoi(m[1])
			seconds, _ := strconv.Atoi(m[2])
			fracStr := m[3]
			frac, _ := strconv.Atoi(fracStr)
			ms := frac
			if len(fracStr) == 2 {
				ms *= 10
			}
			totalMs := int64(minutes)*60_000 + int64(seconds)*1000 + int64(ms)
			ts, err := model.FromMilliseconds(totalMs)
			if err != nil {
				return sl, err
			}
			sl.Lines = append(sl.Lines, model.LyricLine{Time: ts, Text: m[4]})
			continue
		}
		if m := lrcMetaTag.FindStringSubmatch(line); m != nil {
			if strings.EqualFold(m[1], "la") {
				sl.Language = m[2]
			}
			continue
		}
		// Unrecognized line: skip.
	}
	sl.SortLines()
	return sl, nil
}

// ExportLRC serializes a SynchronizedLyrics track to LRC, preserving the
// language tag when set.
func ExportLRC(sl model.SynchronizedLyrics) string {
	var b strings.Builder
	if sl.Language != "" {
		fmt.Fprintf(&b, "[la:%s]\n", sl.Language)
	}
	for _, line := range sl.Lines {
		totalMs := line.Time.Milliseconds()
		minutes := totalMs / 60_000
		seconds := (totalMs % 60_000) / 1000
		centis := (totalMs % 1000) / 10
		fmt.Fprintf(&b, "[%02d:%02d.%02d]%s\n", minutes, seconds, centis, line.Text)
	}
	return b.String()
}

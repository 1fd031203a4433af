package lyrics

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/relfax/audiomarker/model"
)

var srtCueTime = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2}),(\d{3})\s*-->\s*(\d{2}):(\d{2}):(\d{2}),(\d{3})`)

// ParseSRT parses a SubRip file into a SynchronizedLyrics track, stripping
// HTML tags from cue text.
func ParseSRT(text string) (model.SynchronizedLyrics, error) {
	sl := model.SynchronizedLyrics{ContentType: model.LyricContentLyrics}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			i++
			continue
		}
		if _, err := strconv.Atoi(line); err == nil {
			i++
			if i >= len(lines) {
				break
			}
			line = strings.TrimSpace(lines[i])
		}
		m := srtCueTime.FindStringSubmatch(line)
		if m == nil {
			i++
			continue
		}
		start := vttTimeToMs(m[1], m[2], m[3], m[4])
		i++
		var textLines []string
		for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
			textLines = append(textLines, htmlTag.ReplaceAllString(lines[i], ""))
			i++
		}
		ts, err := model.FromMilliseconds(start)
		if err != nil {
			return sl, err
		}
		sl.Lines = append(sl.Lines, model.LyricLine{Time: ts, Text: strings.Join(textLines, "\n")})
	}
	sl.SortLines()
	return sl, nil
}

// ExportSRT serializes a SynchronizedLyrics track to SubRip, numbering
// cues from 1 and deriving each cue's end from the next line's start (or
// start+1s for the last line).
func ExportSRT(sl model.SynchronizedLyrics) string {
	var b strings.Builder
	for i, line := range sl.Lines {
		end := line.Time.Milliseconds() + 1000
		if i+1 < len(sl.Lines) {
			end = sl.Lines[i+1].Time.Milliseconds()
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, msToSRTTime(line.Time.Milliseconds()), msToSRTTime(end), line.Text)
	}
	return b.String()
}

func msToSRTTime(ms int64) string {
	h := ms / 3_600_000
	m := (ms % 3_600_000) / 60_000
	s := (ms % 60_000) / 1000
	frac := ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, frac)
}

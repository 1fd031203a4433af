package lyrics

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/relfax/audiomarker/model"
)

var vttCueTime = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(\d{2}):(\d{2}):(\d{2})\.(\d{3})`)
var htmlTag = regexp.MustCompile(`<[^>]*>`)

// ParseWebVTT parses a WebVTT file into a SynchronizedLyrics track,
// skipping NOTE blocks and stripping HTML/cue-span tags from cue text.
func ParseWebVTT(text string) (model.SynchronizedLyrics, error) {
	sl := model.SynchronizedLyrics{ContentType: model.LyricContentLyrics}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) != "WEBVTT" {
		i++
	}
	i++

	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			i++
			continue
		}
		if strings.HasPrefix(line, "NOTE") {
			for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
				i++
			}
			continue
		}
		m := vttCueTime.FindStringSubmatch(line)
		if m == nil {
			// Could be a cue identifier line preceding the timing line.
			i++
			if i < len(lines) {
				m = vttCueTime.FindStringSubmatch(strings.TrimSpace(lines[i]))
			}
			if m == nil {
				continue
			}
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

func vttTimeToMs(h, m, s, ms string) int64 {
	hh, _ := strconv.ParseInt(h, 10, 64)
	mm, _ := strconv.ParseInt(m, 10, 64)
	ss, _ := strconv.ParseInt(s, 10, 64)
	mmm, _ := strconv.ParseInt(ms, 10, 64)
	return ((hh*60+mm)*60+ss)*1000 + mmm
}

// ExportWebVTT serializes a SynchronizedLyrics track to WebVTT. Each
// cue's end time is the next line's start, or start+1s for the last line
// (WebVTT requires a non-empty interval; this codec has no explicit end
// per line).
func ExportWebVTT(sl model.SynchronizedLyrics) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for i, line := range sl.Lines {
		end := line.Time.Milliseconds() + 1000
		if i+1 < len(sl.Lines) {
			end = sl.Lines[i+1].Time.Milliseconds()
		}
		fmt.Fprintf(&b, "%s --> %s\n%s\n\n", msToVTTTime(line.Time.Milliseconds()), msToVTTTime(end), line.Text)
	}
	return b.String()
}

func msToVTTTime(ms int64) string {
	h := ms / 3_600_000
	m := (ms % 3_600_000) / 60_000
	s := (ms % 60_000) / 1000
	frac := ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, frac)
}

package chapters

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/relfax/audiomarker/model"
)

const cueFramesPerSecond = 75

// ExportCueSheet renders a Cue Sheet with TITLE/PERFORMER/FILE headers
// and one TRACK NN AUDIO / INDEX 01 MM:SS:FF per chapter.
// A `"` in a title is escaped to `'` rather
// than doubled, so a title containing `"` is lossy by design.
func ExportCueSheet(list model.ChapterList) string {
	var b strings.Builder
	b.WriteString("TITLE \"\"\n")
	b.WriteString("PERFORMER \"\"\n")
	b.WriteString("FILE \"audio.wav\" WAVE\n")
	for i, c := range list.Sorted() {
		fmt.Fprintf(&b, "  TRACK %02d AUDIO\n", i+1)
		fmt.Fprintf(&b, "    TITLE %q\n", cueEscape(c.Title))
		fmt.Fprintf(&b, "    INDEX 01 %s\n", cueTimeString(c.Start))
	}
	return b.String()
}

func cueEscape(s string) string {
	return strings.ReplaceAll(s, `"`, `'`)
}

func cueTimeString(t model.AudioTimestamp) string {
	totalMs := t.Milliseconds()
	totalSeconds := totalMs / 1000
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60
	frames := (totalMs % 1000) * cueFramesPerSecond / 1000
	return fmt.Sprintf("%02d:%02d:%02d", minutes, seconds, frames)
}

// ImportCueSheet parses TRACK/INDEX 01 entries into a ChapterList,
// interpreting INDEX 01's MM:SS:FF at CD-frame (75fps) precision.
func ImportCueSheet(data string) (model.ChapterList, error) {
	var list model.ChapterList
	var pendingTitle string

	for _, raw := range strings.Split(data, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch {
		case strings.HasPrefix(line, "TRACK "):
			pendingTitle = ""
		case strings.HasPrefix(line, "TITLE "):
			pendingTitle = strings.Trim(strings.TrimPrefix(line, "TITLE "), `"`)
		case strings.HasPrefix(line, "INDEX 01 ") && len(fields) >= 3:
			ts, err := parseCueTime(fields[2])
			if err != nil {
				return nil, &ExportError{Kind: InvalidData, Format: "CueSheet", Reason: err.Error()}
			}
			list = append(list, model.Chapter{Start: ts, Title: pendingTitle})
			pendingTitle = ""
		}
	}
	return list, nil
}

func parseCueTime(s string) (model.AudioTimestamp, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return model.Zero, fmt.Errorf("malformed cue time %q", s)
	}
	m, err1 := strconv.Atoi(parts[0])
	sec, err2 := strconv.Atoi(parts[1])
	f, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return model.Zero, fmt.Errorf("malformed cue time %q", s)
	}
	ms := int64(m)*60_000 + int64(sec)*1000 + int64(f)*1000/cueFramesPerSecond
	return model.FromMilliseconds(ms)
}

package chapters

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/relfax/audiomarker/model"
)

// ffmetadataEscape backslash-escapes '=', ';', '#', '\\', and embedded
// newlines.
func ffmetadataEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '=', ';', '#', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString("\\\n")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func ffmetadataUnescape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			next := s[i+1]
			if next == '\n' {
				b.WriteByte('\n')
				i++
				continue
			}
			switch next {
			case '=', ';', '#', '\\':
				b.WriteByte(next)
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// ExportFFmetadata renders chapters in FFmpeg's metadata file format,
// using a millisecond timebase.
func ExportFFmetadata(list model.ChapterList) string {
	var b strings.Builder
	b.WriteString(";FFMETADATA1\n")
	derived := list.WithDerivedEnds()
	for _, c := range derived {
		endMs := c.Start.Milliseconds()
		if c.End != nil {
			endMs = c.End.Milliseconds()
		}
		b.WriteString("[CHAPTER]\n")
		b.WriteString("TIMEBASE=1/1000\n")
		fmt.Fprintf(&b, "START=%d\n", c.Start.Milliseconds())
		fmt.Fprintf(&b, "END=%d\n", endMs)
		fmt.Fprintf(&b, "title=%s\n", ffmetadataEscape(c.Title))
	}
	return b.String()
}

// ImportFFmetadata parses an FFmpeg metadata file's [CHAPTER] blocks,
// honoring TIMEBASE=1/1000 (ms) and TIMEBASE=1/1000000 (µs).
func ImportFFmetadata(data string) (model.ChapterList, error) {
	lines := strings.Split(strings.ReplaceAll(data, "\r\n", "\n"), "\n")

	var list model.ChapterList
	var inChapter bool
	var timebaseDen int64 = 1000
	var start, end *int64
	var title string

	flush := func() error {
		if !inChapter {
			return nil
		}
		if start == nil {
			return &ExportError{Kind: InvalidData, Format: "FFmetadata", Reason: "chapter missing START"}
		}
		startMs := scaleToMs(*start, timebaseDen)
		chap := model.Chapter{Title: title}
		ts, err := model.FromMilliseconds(startMs)
		if err != nil {
			return &ExportError{Kind: InvalidData, Format: "FFmetadata", Reason: err.Error()}
		}
		chap.Start = ts
		if end != nil {
			endMs := scaleToMs(*end, timebaseDen)
			endTs, err := model.FromMilliseconds(endMs)
			if err == nil {
				chap.End = &endTs
			}
		}
		list = append(list, chap)
		return nil
	}

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "[CHAPTER]" {
			if err := flush(); err != nil {
				return nil, err
			}
			inChapter, timebaseDen, start, end, title = true, 1000, nil, nil, ""
			continue
		}
		if !inChapter {
			continue
		}
		idx := strings.IndexByte(line, '=')
		if idx < 0 {
			continue
		}
		key, value := line[:idx], ffmetadataUnescape(line[idx+1:])
		switch key {
		case "TIMEBASE":
			parts := strings.SplitN(value, "/", 2)
			if len(parts) == 2 {
				if den, err := strconv.ParseInt(parts[1], 10, 64); err == nil {
					timebaseDen = den
				}
			}
		case "START":
			if v, err := strconv.ParseInt(value, 10, 64); err == nil {
				start = &v
			}
		case "END":
			if v, err := strconv.ParseInt(value, 10, 64); err == nil {
				end = &v
			}
		case "title":
			title = value
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return list, nil
}

// scaleToMs converts a raw timebase-denominated value to milliseconds
// (supports the 1/1000 and 1/1000000 timebases, and
// falls back to a linear scale for anything else).
func scaleToMs(raw, timebaseDen int64) int64 {
	switch timebaseDen {
	case 1000:
		return raw
	case 1_000_000:
		return raw / 1000
	default:
		if timebaseDen <= 0 {
			return raw
		}
		return raw * 1000 / timebaseDen
	}
}

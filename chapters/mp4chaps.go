package chapters

import (
	"fmt"
	"strings"

	"github.com/relfax/audiomarker/model"
)

// ExportMP4Chaps renders one "HH:MM:SS.mmm<space>title" line per chapter.
func ExportMP4Chaps(list model.ChapterList) string {
	var b strings.Builder
	for _, c := range list.Sorted() {
		fmt.Fprintf(&b, "%s %s\n", c.Start.String(), c.Title)
	}
	return b.String()
}

// ImportMP4Chaps parses MP4Chaps text, rejecting empty titles.
func ImportMP4Chaps(data string) (model.ChapterList, error) {
	var list model.ChapterList
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		idx := strings.IndexByte(line, ' ')
		if idx < 0 {
			return nil, &ExportError{Kind: InvalidData, Format: "MP4Chaps", Reason: fmt.Sprintf("malformed line %q", line)}
		}
		ts, err := model.ParseTimestamp(line[:idx])
		if err != nil {
			return nil, &ExportError{Kind: InvalidData, Format: "MP4Chaps", Reason: err.Error()}
		}
		title := strings.TrimSpace(line[idx+1:])
		if title == "" {
			return nil, &ExportError{Kind: InvalidData, Format: "MP4Chaps", Reason: "empty chapter title"}
		}
		list = append(list, model.Chapter{Start: ts, Title: title})
	}
	return list, nil
}

package chapters

import (
	"fmt"
	"strings"

	"github.com/relfax/audiomarker/model"
)

// ExportMarkdown renders "N. **HH:MM:SS** — title" per chapter (em-dash
// U+2014). Export only; ImportNotSupported is raised by the
// facade in chapters.go.
func ExportMarkdown(list model.ChapterList) string {
	var b strings.Builder
	for i, c := range list.Sorted() {
		fmt.Fprintf(&b, "%d. **%s** — %s\n", i+1, c.Start.ShortString(), c.Title)
	}
	return b.String()
}

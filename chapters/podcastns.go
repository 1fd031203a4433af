package chapters

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/relfax/audiomarker/model"
)

// podcastNSChapter mirrors the podcast-namespace chapters JSON subset
// this system supports: startTime (seconds), title, url.
type podcastNSChapter struct {
	StartTime json.Number `json:"startTime"`
	Title     string      `json:"title"`
	URL       string      `json:"url,omitempty"`
}

type podcastNSDoc struct {
	Chapters []podcastNSChapter `json:"chapters"`
	Version  string             `json:"version"`
}

// ExportPodcastNamespace renders chapters in the podcast-namespace JSON
// subset.
func ExportPodcastNamespace(list model.ChapterList) string {
	doc := podcastNSDoc{Version: "1.2.0"}
	for _, c := range list.Sorted() {
		href := ""
		if c.URL != nil {
			href = c.URL.String()
		}
		doc.Chapters = append(doc.Chapters, podcastNSChapter{
			StartTime: json.Number(strconv.FormatFloat(c.Start.Seconds(), 'f', -1, 64)),
			Title:     c.Title,
			URL:       href,
		})
	}
	b, _ := json.MarshalIndent(doc, "", "  ")
	return string(b)
}

// ImportPodcastNamespace parses the podcast-namespace JSON subset.
func ImportPodcastNamespace(data string) (model.ChapterList, error) {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	var doc podcastNSDoc
	if err := dec.Decode(&doc); err != nil {
		return nil, &ExportError{Kind: InvalidData, Format: "PodcastNamespace", Reason: err.Error()}
	}
	var list model.ChapterList
	for _, c := range doc.Chapters {
		seconds, err := c.StartTime.Float64()
		if err != nil {
			return nil, &ExportError{Kind: InvalidData, Format: "PodcastNamespace", Reason: "invalid startTime"}
		}
		ts, err := model.FromSeconds(seconds)
		if err != nil {
			return nil, &ExportError{Kind: InvalidData, Format: "PodcastNamespace", Reason: err.Error()}
		}
		chap := model.Chapter{Start: ts, Title: c.Title}
		if c.URL != "" {
			if u, err := parseChapterURL(c.URL); err == nil {
				chap.URL = u
			}
		}
		list = append(list, chap)
	}
	return list, nil
}

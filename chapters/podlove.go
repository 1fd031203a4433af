package chapters

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/relfax/audiomarker/model"
)

// podloveJSONChapter's fields are declared in alphabetical key order so
// json.MarshalIndent naturally emits "sorted keys"; no
// third-party JSON library appears anywhere in the example pack, so
// encoding/json is this codec's justified stdlib fallback (see
// DESIGN.md).
type podloveJSONChapter struct {
	Href  string `json:"href,omitempty"`
	Start string `json:"start"`
	Title string `json:"title"`
}

type podloveJSONDoc struct {
	Chapters []podloveJSONChapter `json:"chapters"`
	Version  string               `json:"version"`
}

// ExportPodloveJSON renders chapters as Podlove Simple Chapters JSON 1.2.
func ExportPodloveJSON(list model.ChapterList) string {
	doc := podloveJSONDoc{Version: "1.2"}
	for _, c := range list.Sorted() {
		href := ""
		if c.URL != nil {
			href = c.URL.String()
		}
		doc.Chapters = append(doc.Chapters, podloveJSONChapter{
			Start: c.Start.String(),
			Title: c.Title,
			Href:  href,
		})
	}
	b, _ := json.MarshalIndent(doc, "", "  ")
	return string(b)
}

// ImportPodloveJSON parses Podlove Simple Chapters JSON.
func ImportPodloveJSON(data string) (model.ChapterList, error) {
	var doc podloveJSONDoc
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, &ExportError{Kind: InvalidData, Format: "PodloveJSON", Reason: err.Error()}
	}
	var list model.ChapterList
	for _, c := range doc.Chapters {
		chap, err := podloveChapterFromFields(c.Start, c.Title, c.Href)
		if err != nil {
			return nil, err
		}
		list = append(list, chap)
	}
	return list, nil
}

func podloveChapterFromFields(start, title, href string) (model.Chapter, error) {
	ts, err := model.ParseTimestamp(start)
	if err != nil {
		return model.Chapter{}, &ExportError{Kind: InvalidData, Format: "Podlove", Reason: err.Error()}
	}
	c := model.Chapter{Start: ts, Title: title}
	if href != "" {
		if u, err := parseChapterURL(href); err == nil {
			c.URL = u
		}
	}
	return c, nil
}

// pscXML/pscChapterXML mirror the psc:chapters XML schema:
// "<psc:chapters version="1.2" xmlns:psc="..."><psc:chapter start=...
// title=... href=.../></psc:chapters>".
type pscChapterXML struct {
	Start string `xml:"start,attr"`
	Title string `xml:"title,attr"`
	Href  string `xml:"href,attr,omitempty"`
}

type pscXML struct {
	XMLName  xml.Name        `xml:"http://podlove.org/simple-chapters chapters"`
	Version  string          `xml:"version,attr"`
	Chapters []pscChapterXML `xml:"http://podlove.org/simple-chapters chapter"`
}

// ExportPodloveXML renders chapters as Podlove Simple Chapters XML.
func ExportPodloveXML(list model.ChapterList) string {
	var b strings.Builder
	b.WriteString(`<psc:chapters version="1.2" xmlns:psc="http://podlove.org/simple-chapters">` + "\n")
	for _, c := range list.Sorted() {
		fmt.Fprintf(&b, `  <psc:chapter start=%q title=%q`, c.Start.String(), c.Title)
		if c.URL != nil {
			fmt.Fprintf(&b, ` href=%q`, c.URL.String())
		}
		b.WriteString("/>\n")
	}
	b.WriteString("</psc:chapters>\n")
	return b.String()
}

// ImportPodloveXML parses Podlove Simple Chapters XML. The SAX-style
// parser
// walks encoding/xml tokens directly rather than unmarshaling into a
// struct, so a missing required attribute surfaces as InvalidData
// instead of silently zero-valuing it.
func ImportPodloveXML(data string) (model.ChapterList, error) {
	dec := xml.NewDecoder(strings.NewReader(data))
	var list model.ChapterList
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		start, ok := tok.(xml.StartElement)
		if !ok || localXMLName(start.Name.Local) != "chapter" {
			continue
		}
		var startAttr, title, href string
		var hasStart, hasTitle bool
		for _, a := range start.Attr {
			switch a.Name.Local {
			case "start":
				startAttr, hasStart = a.Value, true
			case "title":
				title, hasTitle = a.Value, true
			case "href":
				href = a.Value
			}
		}
		if !hasStart || !hasTitle {
			return nil, &ExportError{Kind: InvalidData, Format: "PodloveXML", Reason: "chapter missing start or title attribute"}
		}
		chap, err := podloveChapterFromFields(startAttr, title, href)
		if err != nil {
			return nil, err
		}
		list = append(list, chap)
	}
	return list, nil
}

func localXMLName(name string) string {
	if idx := strings.IndexByte(name, ':'); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

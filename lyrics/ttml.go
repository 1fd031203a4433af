package lyrics

import (
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/relfax/audiomarker/model"
)

// TTMLDocument is the TTML dialect's document tree. No
// third-party XML library appears anywhere in the retrieved example
// repos, so parsing and exporting both use the standard library's
// encoding/xml — see DESIGN.md.
type TTMLDocument struct {
	Language    string
	TimeBase    string // "media", "smpte", or "clock"
	FrameRate   int
	Title       string
	Description string
	Styles      []Style
	Regions     []Region
	Agents      []Agent
	Divisions   []Division
}

// Style is a <style> element: its id plus whatever presentation
// attributes it carries (serialized in sorted key order).
type Style struct {
	ID    string
	Attrs map[string]string
}

// Region mirrors Style for <region>.
type Region struct {
	ID    string
	Attrs map[string]string
}

// Agent is a <ttm:agent> with a <ttm:name> child.
type Agent struct {
	ID   string
	Name string
}

// Division is a <div>, optionally overriding the document language.
type Division struct {
	Language   string
	Paragraphs []Paragraph
}

// Paragraph is a <p>: begin is mandatory, end optional.
type Paragraph struct {
	Begin    model.AudioTimestamp
	End      *model.AudioTimestamp
	Text     string
	Spans    []Span
	StyleID  string
	RegionID string
	AgentID  string
	Role     string
}

// Span is a <span>: a karaoke word timing nested inside a paragraph.
type Span struct {
	Begin   model.AudioTimestamp
	End     *model.AudioTimestamp
	Text    string
	StyleID string
}

// ParseTTMLDocument parses a TTML document. The parser is a
// SAX-style tree builder over encoding/xml's token stream: it recognizes
// tt, head, metadata, title, desc, styling, style, layout, region, agent,
// name, body, div, p, span, br and ignores everything else (without
// folding the ignored element's text into its parent).
func ParseTTMLDocument(data string) (*TTMLDocument, error) {
	dec := xml.NewDecoder(strings.NewReader(data))
	doc := &TTMLDocument{TimeBase: "media"}

	var sawRoot bool
	var stack []string
	var curDiv *Division
	var curPara *Paragraph
	var curSpan *Span
	var textBuf strings.Builder
	var inIgnored int

	flushParaText := func() {
		if curSpan != nil {
			curSpan.Text = normalizeTTMLText(textBuf.String())
		} else if curPara != nil {
			curPara.Text = normalizeTTMLText(textBuf.String())
		}
		textBuf.Reset()
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, &TtmlParseError{Kind: InvalidXml, Reason: err.Error(), Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			name := localName(t.Name.Local)
			switch name {
			case "tt":
				sawRoot = true
				doc.Language = attrValue(t, "lang")
				if tb := attrValue(t, "timeBase"); tb != "" {
					doc.TimeBase = tb
				}
				if fr := attrValue(t, "frameRate"); fr != "" {
					if v, err := strconv.Atoi(fr); err == nil {
						doc.FrameRate = v
					}
				}
			case "style":
				s := Style{ID: attrValue(t, "id"), Attrs: map[string]string{}}
				for _, a := range t.Attr {
					if a.Name.Local != "id" {
						s.Attrs[a.Name.Local] = a.Value
					}
				}
				doc.Styles = append(doc.Styles, s)
			case "region":
				r := Region{ID: attrValue(t, "id"), Attrs: map[string]string{}}
				for _, a := range t.Attr {
					if a.Name.Local != "id" {
						r.Attrs[a.Name.Local] = a.Value
					}
				}
				doc.Regions = append(doc.Regions, r)
			case "agent":
				doc.Agents = append(doc.Agents, Agent{ID: attrValue(t, "id")})
			case "div":
				d := Division{Language: attrValue(t, "lang")}
				doc.Divisions = append(doc.Divisions, d)
				curDiv = &doc.Divisions[len(doc.Divisions)-1]
			case "p":
				if curDiv == nil {
					doc.Divisions = append(doc.Divisions, Division{})
					curDiv = &doc.Divisions[len(doc.Divisions)-1]
				}
				beginStr := attrValue(t, "begin")
				if beginStr == "" {
					return nil, &TtmlParseError{Kind: MissingTiming, Reason: "<p> missing begin attribute"}
				}
				begin, err := ParseTimeExpression(beginStr, doc.FrameRate)
				if err != nil {
					return nil, err
				}
				p := Paragraph{
					Begin:    begin,
					StyleID:  attrValue(t, "style"),
					RegionID: attrValue(t, "region"),
					AgentID:  attrValue(t, "agent"),
					Role:     attrValue(t, "role"),
				}
				if endStr := attrValue(t, "end"); endStr != "" {
					end, err := ParseTimeExpression(endStr, doc.FrameRate)
					if err != nil {
						return nil, err
					}
					p.End = &end
				}
				curDiv.Paragraphs = append(curDiv.Paragraphs, p)
				curPara = &curDiv.Paragraphs[len(curDiv.Paragraphs)-1]
				textBuf.Reset()
			case "span":
				if curPara == nil {
					break
				}
				beginStr := attrValue(t, "begin")
				var begin model.AudioTimestamp
				if beginStr != "" {
					begin, err = ParseTimeExpression(beginStr, doc.FrameRate)
					if err != nil {
						return nil, err
					}
				}
				sp := Span{Begin: begin, StyleID: attrValue(t, "style")}
				if endStr := attrValue(t, "end"); endStr != "" {
					end, err := ParseTimeExpression(endStr, doc.FrameRate)
					if err != nil {
						return nil, err
					}
					sp.End = &end
				}
				curPara.Spans = append(curPara.Spans, sp)
				curSpan = &curPara.Spans[len(curPara.Spans)-1]
				textBuf.Reset()
			case "br":
				textBuf.WriteByte('\n')
			case "title":
			case "desc":
			case "name":
			case "head", "metadata", "styling", "layout", "body":
				// structural only
			default:
				inIgnored++
				// Ignored elements go on the stack as "" so only their own
				// end tags leave the ignored region.
				name = ""
			}
			stack = append(stack, name)
		case xml.EndElement:
			if len(stack) == 0 {
				break
			}
			name := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			switch name {
			case "p":
				flushParaText()
				curPara = nil
			case "span":
				flushParaText()
				curSpan = nil
			case "div":
				curDiv = nil
			case "title":
				doc.Title = normalizeTTMLText(textBuf.String())
				textBuf.Reset()
			case "desc":
				doc.Description = normalizeTTMLText(textBuf.String())
				textBuf.Reset()
			case "name":
				if len(doc.Agents) > 0 {
					doc.Agents[len(doc.Agents)-1].Name = normalizeTTMLText(textBuf.String())
				}
				textBuf.Reset()
			case "":
				if inIgnored > 0 {
					inIgnored--
				}
			}
		case xml.CharData:
			if inIgnored == 0 {
				textBuf.Write(t)
			}
		}
	}

	if !sawRoot {
		return nil, &TtmlParseError{Kind: NotTTML, Reason: "missing <tt> root element"}
	}
	return doc, nil
}

func localName(name string) string {
	if idx := strings.IndexByte(name, ':'); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

func attrValue(t xml.StartElement, local string) string {
	for _, a := range t.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

var whitespaceRun = regexp.MustCompile(`[ \t\r]+`)

// normalizeTTMLText collapses per-line whitespace to single spaces and
// joins lines with "\n", preserving explicit line breaks
// from <br/>.
func normalizeTTMLText(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(whitespaceRun.ReplaceAllString(line, " "))
	}
	return strings.Join(lines, "\n")
}

var clockWithFrames = regexp.MustCompile(`^(\d+):(\d{2}):(\d{2}):(\d+)$`)
var clockPlain = regexp.MustCompile(`^(\d+):(\d{2}):(\d{2})(?:\.(\d+))?$`)
var offsetExpr = regexp.MustCompile(`(\d+(?:\.\d+)?)(h|ms|m|s|t)`)

// ParseTimeExpression parses a TTML clock or offset time expression.
// Negative values are invalid; ticks require a tick rate,
// which this system does not model, so "t" offsets are rejected.
func ParseTimeExpression(s string, frameRate int) (model.AudioTimestamp, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		return model.Zero, &TtmlParseError{Kind: InvalidTimeExpression, Reason: fmt.Sprintf("negative time expression %q", s)}
	}

	if m := clockWithFrames.FindStringSubmatch(s); m != nil {
		if frameRate <= 0 {
			return model.Zero, &TtmlParseError{Kind: InvalidTimeExpression, Reason: "frame-count clock form requires a document frameRate"}
		}
		h, _ := strconv.Atoi(m[1])
		mi, _ := strconv.Atoi(m[2])
		se, _ := strconv.Atoi(m[3])
		fr, _ := strconv.Atoi(m[4])
		totalMs := int64(((h*60+mi)*60+se)*1000) + int64(fr)*1000/int64(frameRate)
		return model.FromMilliseconds(totalMs)
	}
	if m := clockPlain.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		mi, _ := strconv.Atoi(m[2])
		se, _ := strconv.Atoi(m[3])
		msStr := m[4]
		var ms int64
		if msStr != "" {
			if len(msStr) > 3 {
				msStr = msStr[:3]
			}
			v, _ := strconv.Atoi(msStr)
			ms = int64(v)
			for i := len(msStr); i < 3; i++ {
				ms *= 10
			}
		}
		total := int64(((h*60+mi)*60+se)*1000) + ms
		return model.FromMilliseconds(total)
	}

	matches := offsetExpr.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return model.Zero, &TtmlParseError{Kind: InvalidTimeExpression, Reason: fmt.Sprintf("unrecognized time expression %q", s)}
	}
	var totalMs float64
	consumed := 0
	for _, m := range matches {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return model.Zero, &TtmlParseError{Kind: InvalidTimeExpression, Reason: fmt.Sprintf("unrecognized time expression %q", s)}
		}
		consumed += len(m[0])
		switch m[2] {
		case "h":
			totalMs += v * 3600_000
		case "m":
			totalMs += v * 60_000
		case "s":
			totalMs += v * 1000
		case "ms":
			totalMs += v
		case "t":
			return model.Zero, &TtmlParseError{Kind: InvalidTimeExpression, Reason: "tick offsets require a tickRate, which is not modeled"}
		}
	}
	if consumed != len(s) {
		return model.Zero, &TtmlParseError{Kind: InvalidTimeExpression, Reason: fmt.Sprintf("unrecognized time expression %q", s)}
	}
	return model.FromMilliseconds(int64(totalMs + 0.5))
}

// ToSynchronizedLyrics converts the document to one SynchronizedLyrics per
// division: division language wins over document language;
// two-letter codes are upgraded via the fixed table.
func (doc *TTMLDocument) ToSynchronizedLyrics() []model.SynchronizedLyrics {
	out := make([]model.SynchronizedLyrics, 0, len(doc.Divisions))
	for _, div := range doc.Divisions {
		lang := div.Language
		if lang == "" {
			lang = doc.Language
		}
		sl := model.SynchronizedLyrics{
			Language:    normalizeLanguage(lang),
			ContentType: model.LyricContentLyrics,
			Descriptor:  doc.Title,
		}
		for _, p := range div.Paragraphs {
			line := model.LyricLine{Time: p.Begin, Text: p.Text, Speaker: p.AgentID}
			for _, sp := range p.Spans {
				seg := model.LyricSegment{StartTime: sp.Begin, Text: sp.Text, StyleID: sp.StyleID}
				if sp.End != nil {
					seg.EndTime = *sp.End
				}
				line.Segments = append(line.Segments, seg)
			}
			sl.Lines = append(sl.Lines, line)
		}
		out = append(out, sl)
	}
	return out
}

// TTMLDocumentFromSynchronizedLyrics produces one division per
// SynchronizedLyrics (the inverse of ToSynchronizedLyrics).
func TTMLDocumentFromSynchronizedLyrics(tracks []model.SynchronizedLyrics) *TTMLDocument {
	doc := &TTMLDocument{TimeBase: "media"}
	if len(tracks) > 0 {
		doc.Language = tracks[0].NormalizedLanguage()
	}
	for _, sl := range tracks {
		div := Division{Language: sl.NormalizedLanguage()}
		for _, line := range sl.Lines {
			p := Paragraph{Begin: line.Time, Text: line.Text, AgentID: line.Speaker}
			for _, seg := range line.Segments {
				sp := Span{Begin: seg.StartTime, Text: seg.Text, StyleID: seg.StyleID}
				end := seg.EndTime
				sp.End = &end
				p.Spans = append(p.Spans, sp)
			}
			div.Paragraphs = append(div.Paragraphs, p)
		}
		doc.Divisions = append(doc.Divisions, div)
	}
	return doc
}

// ExportTTMLDocument emits a lossless document with tt/ttm/tts/ttp
// namespaces; head is present only when title/description/styles/
// regions/agents are non-empty.
func ExportTTMLDocument(doc *TTMLDocument) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<tt xmlns="http://www.w3.org/ns/ttml" xmlns:ttm="http://www.w3.org/ns/ttml#metadata" xmlns:tts="http://www.w3.org/ns/ttml#styling" xmlns:ttp="http://www.w3.org/ns/ttml#parameter"`)
	if doc.Language != "" {
		fmt.Fprintf(&b, ` xml:lang=%q`, doc.Language)
	}
	if doc.TimeBase != "" && doc.TimeBase != "media" {
		fmt.Fprintf(&b, ` ttp:timeBase=%q`, doc.TimeBase)
	}
	if doc.FrameRate > 0 {
		fmt.Fprintf(&b, ` ttp:frameRate="%d"`, doc.FrameRate)
	}
	b.WriteString(">\n")

	hasHead := doc.Title != "" || doc.Description != "" || len(doc.Styles) > 0 || len(doc.Regions) > 0 || len(doc.Agents) > 0
	if hasHead {
		b.WriteString("  <head>\n")
		if doc.Title != "" || doc.Description != "" || len(doc.Agents) > 0 {
			b.WriteString("    <metadata>\n")
			if doc.Title != "" {
				fmt.Fprintf(&b, "      <ttm:title>%s</ttm:title>\n", xmlEscape(doc.Title))
			}
			if doc.Description != "" {
				fmt.Fprintf(&b, "      <ttm:desc>%s</ttm:desc>\n", xmlEscape(doc.Description))
			}
			for _, a := range doc.Agents {
				fmt.Fprintf(&b, "      <ttm:agent xml:id=%q>\n", a.ID)
				if a.Name != "" {
					fmt.Fprintf(&b, "        <ttm:name>%s</ttm:name>\n", xmlEscape(a.Name))
				}
				b.WriteString("      </ttm:agent>\n")
			}
			b.WriteString("    </metadata>\n")
		}
		if len(doc.Styles) > 0 {
			b.WriteString("    <styling>\n")
			for _, s := range doc.Styles {
				fmt.Fprintf(&b, "      <style xml:id=%q%s/>\n", s.ID, sortedAttrString(s.Attrs))
			}
			b.WriteString("    </styling>\n")
		}
		if len(doc.Regions) > 0 {
			b.WriteString("    <layout>\n")
			for _, r := range doc.Regions {
				fmt.Fprintf(&b, "      <region xml:id=%q%s/>\n", r.ID, sortedAttrString(r.Attrs))
			}
			b.WriteString("    </layout>\n")
		}
		b.WriteString("  </head>\n")
	}

	b.WriteString("  <body>\n")
	for _, div := range doc.Divisions {
		if div.Language != "" {
			fmt.Fprintf(&b, "    <div xml:lang=%q>\n", div.Language)
		} else {
			b.WriteString("    <div>\n")
		}
		for _, p := range div.Paragraphs {
			writeParagraph(&b, p, "      ")
		}
		b.WriteString("    </div>\n")
	}
	b.WriteString("  </body>\n</tt>\n")
	return b.String()
}

func writeParagraph(b *strings.Builder, p Paragraph, indent string) {
	fmt.Fprintf(b, "%s<p begin=%q", indent, p.Begin.String())
	if p.End != nil {
		fmt.Fprintf(b, " end=%q", p.End.String())
	}
	if p.StyleID != "" {
		fmt.Fprintf(b, " style=%q", p.StyleID)
	}
	if p.RegionID != "" {
		fmt.Fprintf(b, " region=%q", p.RegionID)
	}
	if p.AgentID != "" {
		fmt.Fprintf(b, " ttm:agent=%q", p.AgentID)
	}
	if p.Role != "" {
		fmt.Fprintf(b, " ttm:role=%q", p.Role)
	}
	if len(p.Spans) == 0 {
		fmt.Fprintf(b, ">%s</p>\n", xmlEscape(p.Text))
		return
	}
	b.WriteString(">\n")
	for _, sp := range p.Spans {
		fmt.Fprintf(b, "%s  <span begin=%q", indent, sp.Begin.String())
		if sp.End != nil {
			fmt.Fprintf(b, " end=%q", sp.End.String())
		}
		if sp.StyleID != "" {
			fmt.Fprintf(b, " style=%q", sp.StyleID)
		}
		fmt.Fprintf(b, ">%s</span>\n", xmlEscape(sp.Text))
	}
	fmt.Fprintf(b, "%s</p>\n", indent)
}

func sortedAttrString(attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, " tts:%s=%q", k, attrs[k])
	}
	return b.String()
}

func xmlEscape(s string) string {
	var b strings.Builder
	xml.EscapeText(&b, []byte(s))
	return b.String()
}

// ExportLyrics emits the common-case form: <body><div><p>...</p></div>
// </body> without head sections).
func ExportLyrics(sl model.SynchronizedLyrics) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&b, `<tt xmlns="http://www.w3.org/ns/ttml" xml:lang=%q>`+"\n", sl.NormalizedLanguage())
	b.WriteString("  <body>\n    <div>\n")
	for _, line := range sl.Lines {
		p := Paragraph{Begin: line.Time, Text: line.Text, AgentID: line.Speaker}
		for _, seg := range line.Segments {
			sp := Span{Begin: seg.StartTime, Text: seg.Text}
			end := seg.EndTime
			sp.End = &end
			p.Spans = append(p.Spans, sp)
		}
		writeParagraph(&b, p, "      ")
	}
	b.WriteString("    </div>\n  </body>\n</tt>\n")
	return b.String()
}

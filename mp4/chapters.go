package mp4

import (
	"net/url"
	"strings"

	"github.com/relfax/audiomarker/lib"
	"github.com/relfax/audiomarker/model"
)

func parseChapterURL(s string) (*url.URL, error) {
	if s == "" {
		return nil, nil
	}
	return url.Parse(s)
}

// ReadChapters reads chapters from a parsed atom tree, preferring
// QuickTime chapter tracks (tref.chap + tx3g/text samples) and falling
// back to a Nero "chpl" atom when no chapter track exists.
func ReadChapters(root *Atom) (model.ChapterList, error) {
	moov := root.child("moov")
	if moov == nil {
		return nil, &Error{Kind: AtomNotFound, Type: "moov"}
	}

	list, err := readQuickTimeChapters(moov)
	if err != nil {
		return nil, err
	}
	if len(list) > 0 {
		return list, nil
	}

	return readNeroChapters(moov)
}

type mp4Track struct {
	atom        *Atom
	trackID     uint32
	handlerType string
	timescale   uint32
}

func readTracks(moov *Atom) []mp4Track {
	var tracks []mp4Track
	for _, trak := range moov.FindAll("trak") {
		t := mp4Track{atom: trak}
		if tkhd := trak.child("tkhd"); tkhd != nil {
			if p, err := tkhd.Payload(); err == nil {
				t.trackID = parseTkhdTrackID(p)
			}
		}
		mdia := trak.child("mdia")
		if mdia == nil {
			continue
		}
		if hdlr := mdia.child("hdlr"); hdlr != nil {
			if p, err := hdlr.Payload(); err == nil {
				t.handlerType = parseHdlrType(p)
			}
		}
		if mdhd := mdia.child("mdhd"); mdhd != nil {
			if p, err := mdhd.Payload(); err == nil {
				t.timescale = parseMdhdTimescale(p)
			}
		}
		tracks = append(tracks, t)
	}
	return tracks
}

func parseTkhdTrackID(p []byte) uint32 {
	if len(p) < 4 {
		return 0
	}
	version := p[0]
	if version == 1 {
		if len(p) < 8+8+8+4 {
			return 0
		}
		return lib.ReadU32(p[20:24])
	}
	if len(p) < 4+4+4+4 {
		return 0
	}
	return lib.ReadU32(p[12:16])
}

func parseHdlrType(p []byte) string {
	if len(p) < 12 {
		return ""
	}
	return string(p[8:12])
}

func parseMdhdTimescale(p []byte) uint32 {
	if len(p) < 4 {
		return 0
	}
	if p[0] == 1 {
		if len(p) < 8+8+8+4 {
			return 0
		}
		return lib.ReadU32(p[20:24])
	}
	if len(p) < 4+4+4+4 {
		return 0
	}
	return lib.ReadU32(p[12:16])
}

// trefChapTargets returns the track IDs listed in an audio track's
// tref.chap child, in declared order.
func trefChapTargets(audio *Atom) []uint32 {
	tref := audio.child("tref")
	if tref == nil {
		return nil
	}
	chap := tref.child("chap")
	if chap == nil {
		return nil
	}
	p, err := chap.Payload()
	if err != nil {
		return nil
	}
	var ids []uint32
	for i := 0; i+4 <= len(p); i += 4 {
		ids = append(ids, lib.ReadU32(p[i:i+4]))
	}
	return ids
}

// chapterSample is one decoded tx3g/text sample with its presentation
// time, already expressed in milliseconds.
type chapterSample struct {
	startMs int64
	endMs   int64
	text    string
	url     string
}

func readQuickTimeChapters(moov *Atom) (model.ChapterList, error) {
	tracks := readTracks(moov)
	byID := make(map[uint32]mp4Track, len(tracks))
	for _, t := range tracks {
		byID[t.trackID] = t
	}

	var textTrack, urlTrack, artworkTrack *mp4Track
	for i := range tracks {
		t := &tracks[i]
		if t.handlerType != "soun" {
			continue
		}
		for _, targetID := range trefChapTargets(t.atom) {
			target, ok := byID[targetID]
			if !ok {
				continue
			}
			switch target.handlerType {
			case "text", "sbtl":
				if textTrack == nil {
					textTrack = &target
				} else if urlTrack == nil {
					urlTrack = &target
				}
			case "vide":
				if artworkTrack == nil {
					artworkTrack = &target
				}
			}
		}
	}
	if textTrack == nil {
		return nil, nil
	}

	primary, err := readTextTrackSamples(*textTrack)
	if err != nil {
		return nil, err
	}

	var secondary []chapterSample
	if urlTrack != nil {
		secondary, err = readTextTrackSamples(*urlTrack)
		if err != nil {
			return nil, err
		}
	}

	var artworks []model.Artwork
	if artworkTrack != nil {
		artworks, err = readArtworkTrackSamples(*artworkTrack)
		if err != nil {
			return nil, err
		}
	}

	list := make(model.ChapterList, 0, len(primary))
	for i, s := range primary {
		if isSpacerSample(s) {
			continue
		}
		start, err := model.FromMilliseconds(s.startMs)
		if err != nil {
			return nil, err
		}
		c := model.Chapter{Start: start, Title: s.text}
		if s.url != "" {
			if u, uerr := parseChapterURL(s.url); uerr == nil {
				c.URL = u
			}
		}
		if c.URL == nil && len(secondary) > 0 {
			if match := nearestByTime(secondary, s.startMs); match != nil && match.url != "" {
				if u, uerr := parseChapterURL(match.url); uerr == nil {
					c.URL = u
				}
			}
		}
		if i < len(artworks) {
			art := artworks[i]
			c.Artwork = &art
		}
		list = append(list, c)
	}
	return list, nil
}

// isSpacerSample reports a padding/spacer sample:
// whitespace-only (or empty) text with no meaningful duration.
func isSpacerSample(s chapterSample) bool {
	return strings.TrimSpace(s.text) == "" && s.endMs-s.startMs <= 1
}

// nearestByTime returns the sample in candidates whose startMs is closest
// to targetMs, bounded to within 2 seconds.
func nearestByTime(candidates []chapterSample, targetMs int64) *chapterSample {
	var best *chapterSample
	var bestDelta int64 = -1
	for i := range candidates {
		delta := candidates[i].startMs - targetMs
		if delta < 0 {
			delta = -delta
		}
		if delta > 2000 {
			continue
		}
		if bestDelta < 0 || delta < bestDelta {
			bestDelta = delta
			best = &candidates[i]
		}
	}
	return best
}

func readTextTrackSamples(t mp4Track) ([]chapterSample, error) {
	mdia := t.atom.child("mdia")
	if mdia == nil {
		return nil, nil
	}
	minf := mdia.child("minf")
	if minf == nil {
		return nil, nil
	}
	stbl := minf.child("stbl")
	if stbl == nil {
		return nil, nil
	}
	table, err := parseSampleTable(stbl)
	if err != nil {
		return nil, err
	}
	offsets := table.sampleOffsets()
	timescale := t.timescale
	if timescale == 0 {
		timescale = 1000
	}

	samples := make([]chapterSample, 0, len(offsets))
	var cursor int64
	for i, off := range offsets {
		if i >= len(table.deltas) || i >= len(table.sizes) {
			break
		}
		startMs := cursor * 1000 / int64(timescale)
		cursor += int64(table.deltas[i])
		endMs := cursor * 1000 / int64(timescale)

		raw, err := t.atom.r.Read(int64(off), int64(table.sizes[i]))
		if err != nil {
			return nil, err
		}
		text, url := parseTx3gSample(raw)
		samples = append(samples, chapterSample{startMs: startMs, endMs: endMs, text: text, url: url})
	}
	return samples, nil
}

// parseTx3gSample decodes a tx3g text sample: a 2-byte length-prefixed
// UTF-8 string, optionally followed by style/href atoms. Only the "href"
// atom (a chapter URL) is interpreted; others are ignored.
func parseTx3gSample(raw []byte) (text string, href string) {
	if len(raw) < 2 {
		return "", ""
	}
	textLen := int(lib.ReadU16(raw[0:2]))
	end := 2 + textLen
	if end > len(raw) {
		end = len(raw)
	}
	text = string(raw[2:end])

	pos := end
	for pos+8 <= len(raw) {
		atomSize := int(lib.ReadU32(raw[pos : pos+4]))
		atomType := string(raw[pos+4 : pos+8])
		if atomSize < 8 || pos+atomSize > len(raw) {
			break
		}
		if atomType == "href" {
			href = parseHrefAtom(raw[pos+8 : pos+atomSize])
		}
		pos += atomSize
	}
	return text, href
}

// parseHrefAtom decodes the href sample modifier: 2-byte flags, 2-byte
// char count, 1-byte URL length, UTF-8 URL, trailing reserved bytes.
func parseHrefAtom(p []byte) string {
	if len(p) < 5 {
		return ""
	}
	urlLen := int(p[4])
	if 5+urlLen > len(p) {
		urlLen = len(p) - 5
	}
	return string(p[5 : 5+urlLen])
}

func readArtworkTrackSamples(t mp4Track) ([]model.Artwork, error) {
	mdia := t.atom.child("mdia")
	if mdia == nil {
		return nil, nil
	}
	minf := mdia.child("minf")
	if minf == nil {
		return nil, nil
	}
	stbl := minf.child("stbl")
	if stbl == nil {
		return nil, nil
	}
	table, err := parseSampleTable(stbl)
	if err != nil {
		return nil, err
	}
	offsets := table.sampleOffsets()
	out := make([]model.Artwork, 0, len(offsets))
	for i, off := range offsets {
		if i >= len(table.sizes) {
			break
		}
		raw, err := t.atom.r.Read(int64(off), int64(table.sizes[i]))
		if err != nil {
			return nil, err
		}
		out = append(out, model.NewArtwork(raw))
	}
	return out, nil
}

// readNeroChapters parses a Nero-style udta.chpl atom: 4-byte
// version+flags, 4-byte reserved, 1-byte count, then per-chapter
// [u64 100ns timestamp][u8 title length][UTF-8 title].
func readNeroChapters(moov *Atom) (model.ChapterList, error) {
	udta := moov.child("udta")
	if udta == nil {
		return nil, nil
	}
	chpl := udta.child("chpl")
	if chpl == nil {
		return nil, nil
	}
	p, err := chpl.Payload()
	if err != nil {
		return nil, err
	}
	if len(p) < 9 {
		return nil, nil
	}
	count := int(p[8])
	pos := 9
	list := make(model.ChapterList, 0, count)
	for i := 0; i < count && pos+9 <= len(p); i++ {
		hundredNs := lib.ReadU64(p[pos : pos+8])
		titleLen := int(p[pos+8])
		pos += 9
		if pos+titleLen > len(p) {
			break
		}
		title := string(p[pos : pos+titleLen])
		pos += titleLen

		ms := int64(hundredNs / 10000)
		start, err := model.FromMilliseconds(ms)
		if err != nil {
			continue
		}
		list = append(list, model.Chapter{Start: start, Title: title})
	}
	return list, nil
}

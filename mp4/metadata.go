package mp4

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/relfax/audiomarker/lib"
	"github.com/relfax/audiomarker/lyrics"
	"github.com/relfax/audiomarker/model"
)

// textItemIDs map AudioMetadata scalar text fields onto their iTunes
// item FourCCs.
var textItemIDs = map[string]string{
	"©nam": "Title",
	"©ART": "Artist",
	"©alb": "Album",
	"aART": "AlbumArtist",
	"©wrt": "Composer",
	"©gen": "Genre",
	"©day": "Year",
	"©cmt": "Comment",
	"cprt": "Copyright",
	"©too": "Encoder",
}

// parseMetadata reads moov.udta.meta.ilst into an AudioMetadata.
func parseMetadata(root *Atom) (model.AudioMetadata, error) {
	md := model.NewAudioMetadata()

	ilst := root.Find("moov.udta.meta.ilst")
	if ilst == nil {
		return md, nil
	}

	for _, item := range ilst.Children {
		if err := applyIlstItem(&md, item); err != nil {
			return md, err
		}
	}
	return md, nil
}

func applyIlstItem(md *model.AudioMetadata, item *Atom) error {
	switch item.Type {
	case "trkn":
		num, total, err := parseTrackDisk(item)
		if err != nil {
			return err
		}
		md.TrackNumber = num
		if total != nil {
			// trkn's total belongs alongside the number; stored nowhere
			// else in AudioMetadata, so it folds into CustomTextFields
			// for round-trip fidelity of the raw pair.
			md.CustomTextFields["trkn:total"] = strconv.Itoa(*total)
		}
		return nil
	case "disk":
		num, total, err := parseTrackDisk(item)
		if err != nil {
			return err
		}
		md.DiscNumber = num
		if total != nil {
			md.CustomTextFields["disk:total"] = strconv.Itoa(*total)
		}
		return nil
	case "covr":
		return applyCover(md, item)
	case "tmpo":
		v, err := dataValue(item)
		if err != nil {
			return err
		}
		if len(v) >= 2 {
			bpm := int(lib.ReadU16(v[:2]))
			md.BPM = &bpm
		}
		return nil
	case "gnre":
		v, err := dataValue(item)
		if err != nil {
			return err
		}
		if len(v) >= 2 {
			idx := int(lib.ReadU16(v[:2]))
			md.Genre = lib.GenreName(idx)
		}
		return nil
	case "----":
		return applyReverseDNS(md, item)
	case "©lyr":
		return applyLyrics(md, item)
	}

	if field, ok := textItemIDs[item.Type]; ok {
		text, err := textValue(item)
		if err != nil {
			return err
		}
		applyTextField(md, field, text)
	}
	return nil
}

func applyTextField(md *model.AudioMetadata, field, value string) {
	switch field {
	case "Title":
		md.Title = value
	case "Artist":
		md.Artist = value
	case "Album":
		md.Album = value
	case "AlbumArtist":
		md.AlbumArtist = value
	case "Composer":
		md.Composer = value
	case "Genre":
		md.Genre = value
	case "Year":
		md.Year = parseYearField(value)
	case "Comment":
		md.Comment = value
	case "Copyright":
		md.Copyright = value
	case "Encoder":
		md.Encoder = value
	}
}

func parseYearField(s string) *int {
	s = strings.TrimSpace(s)
	if len(s) >= 4 {
		s = s[:4]
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &y
}

// dataAtomOf returns the "data" child atom of an ilst item.
func dataAtomOf(item *Atom) *Atom {
	for _, c := range item.Children {
		if c.Type == "data" {
			return c
		}
	}
	return nil
}

// dataValue returns a data atom's value, stripped of its 8-byte
// type-indicator+locale prefix.
func dataValue(item *Atom) ([]byte, error) {
	d := dataAtomOf(item)
	if d == nil {
		return nil, &Error{Kind: AtomNotFound, Type: item.Type, Reason: "missing data child"}
	}
	payload, err := d.Payload()
	if err != nil {
		return nil, err
	}
	if len(payload) < 8 {
		return nil, &Error{Kind: InvalidAtom, Type: item.Type, Reason: "data atom shorter than 8 bytes"}
	}
	return payload[8:], nil
}

// textValue decodes a text data atom per its type indicator: 1 (UTF-8) or
// 2 (UTF-16BE).
func textValue(item *Atom) (string, error) {
	d := dataAtomOf(item)
	if d == nil {
		return "", nil
	}
	payload, err := d.Payload()
	if err != nil {
		return "", err
	}
	if len(payload) < 8 {
		return "", nil
	}
	typeIndicator := lib.ReadU32(payload[0:4])
	value := payload[8:]
	if typeIndicator == 2 {
		return lib.DecodeText(value, lib.EncodingUTF16BE)
	}
	return string(value), nil
}

func parseTrackDisk(item *Atom) (num, total *int, err error) {
	v, err := dataValue(item)
	if err != nil {
		return nil, nil, err
	}
	if len(v) < 6 {
		return nil, nil, nil
	}
	n := int(lib.ReadU16(v[2:4]))
	t := int(lib.ReadU16(v[4:6]))
	if n > 0 {
		num = &n
	}
	if t > 0 {
		total = &t
	}
	return num, total, nil
}

func applyCover(md *model.AudioMetadata, item *Atom) error {
	d := dataAtomOf(item)
	if d == nil {
		return nil
	}
	payload, err := d.Payload()
	if err != nil {
		return err
	}
	if len(payload) < 8 {
		return nil
	}
	art := model.NewArtwork(payload[8:])
	md.Artwork = &art
	return nil
}

// applyReverseDNS decodes a "----" item: mean (domain), name (key), data
// (UTF-8 value), stored under "{mean}:{name}".
func applyReverseDNS(md *model.AudioMetadata, item *Atom) error {
	var mean, name, value string
	for _, c := range item.Children {
		payload, err := c.Payload()
		if err != nil {
			return err
		}
		switch c.Type {
		case "mean":
			if len(payload) > 4 {
				mean = string(payload[4:])
			}
		case "name":
			if len(payload) > 4 {
				name = string(payload[4:])
			}
		case "data":
			if len(payload) > 8 {
				value = string(payload[8:])
			}
		}
	}
	if mean == "" && name == "" {
		return nil
	}
	if md.CustomTextFields == nil {
		md.CustomTextFields = map[string]string{}
	}
	md.CustomTextFields[fmt.Sprintf("%s:%s", mean, name)] = value
	return nil
}

// applyLyrics decodes "©lyr" as unsynchronizedLyrics, additionally parsing
// as TTML or LRC when the text looks structured.
func applyLyrics(md *model.AudioMetadata, item *Atom) error {
	text, err := textValue(item)
	if err != nil {
		return err
	}
	md.UnsynchronizedLyrics = text

	trimmed := strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(trimmed, "<?xml") || strings.HasPrefix(trimmed, "<tt"):
		doc, err := lyrics.ParseTTMLDocument(text)
		if err == nil {
			md.SynchronizedLyrics = doc.ToSynchronizedLyrics()
		}
	default:
		if sl, err := lyrics.ParseLRC(text); err == nil && len(sl.Lines) > 0 {
			md.SynchronizedLyrics = []model.SynchronizedLyrics{sl}
		}
	}
	return nil
}

// buildIlst assembles every ilst item from an AudioMetadata.
func buildIlst(md model.AudioMetadata) []byte {
	var items [][]byte
	addText := func(itemType, value string) {
		if value != "" {
			items = append(items, buildTextItem(itemType, value))
		}
	}

	addText("©nam", md.Title)
	addText("©ART", md.Artist)
	addText("©alb", md.Album)
	addText("aART", md.AlbumArtist)
	addText("©wrt", md.Composer)
	addText("©gen", md.Genre)
	if md.Year != nil {
		addText("©day", strconv.Itoa(*md.Year))
	}
	addText("©cmt", md.Comment)
	addText("cprt", md.Copyright)
	addText("©too", md.Encoder)

	if md.TrackNumber != nil {
		total := 0
		if v, ok := md.CustomTextFields["trkn:total"]; ok {
			total, _ = strconv.Atoi(v)
		}
		items = append(items, buildTrackDiskItem("trkn", *md.TrackNumber, total))
	}
	if md.DiscNumber != nil {
		total := 0
		if v, ok := md.CustomTextFields["disk:total"]; ok {
			total, _ = strconv.Atoi(v)
		}
		items = append(items, buildTrackDiskItem("disk", *md.DiscNumber, total))
	}
	if md.BPM != nil {
		items = append(items, buildUint8Item("tmpo", lib.WriteU16(uint16(*md.BPM))))
	}
	if md.Genre != "" {
		if idx := lib.GenreIndex(md.Genre); idx > 0 {
			items = append(items, buildUint8Item("gnre", lib.WriteU16(uint16(idx))))
		}
	}
	if md.Artwork != nil {
		typeIndicator := uint32(dataAtomTypeJPEG)
		if md.Artwork.Format == model.ArtworkPNG {
			typeIndicator = dataAtomTypePNG
		}
		items = append(items, buildCoverItem(typeIndicator, md.Artwork.Data))
	}

	if lyr := buildLyricsText(md); lyr != "" {
		items = append(items, buildTextItem("©lyr", lyr))
	}

	for key, value := range md.CustomTextFields {
		if key == "trkn:total" || key == "disk:total" {
			continue
		}
		domain, name, ok := splitReverseDNSKey(key)
		if !ok {
			continue
		}
		items = append(items, buildReverseDNSItem(domain, name, value))
	}

	return buildContainer("ilst", items...)
}

func splitReverseDNSKey(key string) (domain, name string, ok bool) {
	idx := strings.LastIndex(key, ":")
	if idx < 0 {
		return "", "", false
	}
	return key[:idx], key[idx+1:], true
}

// buildLyricsText serializes the metadata's lyrics for ©lyr embedding
// TTML is chosen when there's more than one
// SynchronizedLyrics track, any karaoke segments, or any speaker
// attributions; otherwise LRC; plain UnsynchronizedLyrics as a last
// resort.
func buildLyricsText(md model.AudioMetadata) string {
	if len(md.SynchronizedLyrics) == 0 {
		return md.UnsynchronizedLyrics
	}
	needsTTML := len(md.SynchronizedLyrics) > 1
	for _, sl := range md.SynchronizedLyrics {
		for _, line := range sl.Lines {
			if line.IsKaraoke() || line.HasSpeaker() {
				needsTTML = true
			}
		}
	}
	if needsTTML {
		doc := lyrics.TTMLDocumentFromSynchronizedLyrics(md.SynchronizedLyrics)
		return lyrics.ExportTTMLDocument(doc)
	}
	return lyrics.ExportLRC(md.SynchronizedLyrics[0])
}

// mimeForArtwork mirrors id3's helper for MP4's own artwork-format choices
// that need a MIME string rather than a type indicator (chapter artwork
// samples in stsd).
func mimeForArtwork(a model.Artwork) string {
	if a.Format == model.ArtworkPNG {
		return "image/png"
	}
	return "image/jpeg"
}

// parseDuration reads mvhd's timescale/duration pair.
func parseDuration(root *Atom) (seconds float64, timescale uint32, err error) {
	mvhd := root.Find("moov.mvhd")
	if mvhd == nil {
		return 0, 0, nil
	}
	payload, err := mvhd.Payload()
	if err != nil {
		return 0, 0, err
	}
	if len(payload) < 1 {
		return 0, 0, nil
	}
	version := payload[0]
	var duration uint64
	if version == 1 {
		if len(payload) < 4+16+8 {
			return 0, 0, nil
		}
		timescale = lib.ReadU32(payload[20:24])
		duration = lib.ReadU64(payload[24:32])
	} else {
		if len(payload) < 4+8+8 {
			return 0, 0, nil
		}
		timescale = lib.ReadU32(payload[12:16])
		duration = uint64(lib.ReadU32(payload[16:20]))
	}
	if timescale == 0 {
		return 0, timescale, nil
	}
	return float64(duration) / float64(timescale), timescale, nil
}

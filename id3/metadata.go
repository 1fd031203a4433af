package id3

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/relfax/audiomarker/model"
)

// Frame IDs used for scalar metadata fields.
const (
	idTitle       = "TIT2"
	idArtist      = "TPE1"
	idAlbum       = "TALB"
	idAlbumArtist = "TPE2"
	idComposer    = "TCOM"
	idGenre       = "TCON"
	idYear23      = "TYER"
	idYear24      = "TDRC"
	idTrack       = "TRCK"
	idDisc        = "TPOS"
	idCopyright   = "TCOP"
	idPublisher   = "TPUB"
	idEncoder     = "TENC"
	idBPM         = "TBPM"
	idKey         = "TKEY"
	idLanguage    = "TLAN"
	idISRC        = "TSRC"

	idArtistURL   = "WOAR"
	idSourceURL   = "WOAS"
	idFileURL     = "WOAF"
	idPublisherURL = "WPUB"
	idCommercialURL = "WCOM"
)

// framesToMetadata maps a flat (non-CHAP/CTOC) frame list onto
// AudioMetadata, collecting anything it doesn't recognize into
// unknownFrames.
func framesToMetadata(version int, frames []Frame) (model.AudioMetadata, []model.OpaqueFrame) {
	md := model.NewAudioMetadata()
	var unknown []model.OpaqueFrame

	var comments []CommentFrame
	for _, f := range frames {
		switch v := f.(type) {
		case TextFrame:
			applyTextFrame(&md, version, v)
		case UserDefinedTextFrame:
			md.CustomTextFields[v.Description] = v.Value
		case URLFrame:
			applyURLFrame(&md, v)
		case UserDefinedURLFrame:
			if u, err := url.Parse(v.URL); err == nil {
				md.CustomURLs[v.Description] = u
			}
		case CommentFrame:
			comments = append(comments, v)
		case UnsyncLyricsFrame:
			md.UnsynchronizedLyrics = v.Text
		case SyncLyricsFrame:
			md.SynchronizedLyrics = append(md.SynchronizedLyrics, syncLyricsFrameToModel(v))
		case AttachedPictureFrame:
			art := model.NewArtwork(v.Data)
			md.Artwork = &art
		case PrivateDataFrame:
			md.PrivateData = append(md.PrivateData, model.PrivateDatum{Owner: v.Owner, Bytes: v.Data})
		case UniqueFileIDFrame:
			md.UniqueFileIdentifiers = append(md.UniqueFileIdentifiers, model.UniqueFileIdentifier{Owner: v.Owner, Bytes: v.Data})
		case PlayCountFrame:
			c := v.Count
			md.PlayCount = &c
		case PopularimeterFrame:
			r := v.Rating
			md.Rating = &r
			if md.PlayCount == nil {
				c := v.PlayCount
				md.PlayCount = &c
			}
		case ChapterFrame, TableOfContentsFrame:
			// handled by the chapters mapping; never an unknown frame.
		case UnknownFrame:
			unknown = append(unknown, model.OpaqueFrame{ID: v.ID, Data: v.Data})
		}
	}

	if len(comments) > 0 {
		md.Comment = comments[0].Text
	}

	return md, unknown
}

func applyTextFrame(md *model.AudioMetadata, version int, f TextFrame) {
	switch f.ID {
	case idTitle:
		md.Title = f.Text
	case idArtist:
		md.Artist = f.Text
	case idAlbum:
		md.Album = f.Text
	case idAlbumArtist:
		md.AlbumArtist = f.Text
	case idComposer:
		md.Composer = f.Text
	case idGenre:
		md.Genre = f.Text
	case idYear23, idYear24:
		if y, ok := parseYear(f.Text); ok {
			md.Year = &y
		}
	case idTrack:
		if n, _, ok := parseNumberOverTotal(f.Text); ok {
			md.TrackNumber = &n
		}
	case idDisc:
		if n, _, ok := parseNumberOverTotal(f.Text); ok {
			md.DiscNumber = &n
		}
	case idCopyright:
		md.Copyright = f.Text
	case idPublisher:
		md.Publisher = f.Text
	case idEncoder:
		md.Encoder = f.Text
	case idBPM:
		if n, err := strconv.Atoi(strings.TrimSpace(f.Text)); err == nil {
			md.BPM = &n
		}
	case idKey:
		md.Key = f.Text
	case idLanguage:
		md.Language = f.Text
	case idISRC:
		md.ISRC = f.Text
	}
}

func applyURLFrame(md *model.AudioMetadata, f URLFrame) {
	u, err := url.Parse(f.URL)
	if err != nil {
		return
	}
	switch f.ID {
	case idArtistURL:
		md.ArtistURL = u
	case idSourceURL:
		md.AudioSourceURL = u
	case idFileURL:
		md.AudioFileURL = u
	case idPublisherURL:
		md.PublisherURL = u
	case idCommercialURL:
		md.CommercialURL = u
	}
}

// parseNumberOverTotal parses "n" or "n/total".
func parseNumberOverTotal(s string) (n, total int, ok bool) {
	s = strings.TrimSpace(s)
	parts := strings.SplitN(s, "/", 2)
	n, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	if len(parts) == 2 {
		total, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
	}
	return n, total, true
}

// parseYear extracts a 4-digit year from TYER ("YYYY") or TDRC (ISO 8601,
// first four digits).
func parseYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 4 {
		return 0, false
	}
	y, err := strconv.Atoi(s[:4])
	if err != nil {
		return 0, false
	}
	return y, true
}

// metadataToFrames builds the flat frame list for a tag version from
// AudioMetadata (the inverse of framesToMetadata).
func metadataToFrames(version int, md model.AudioMetadata) []Frame {
	var frames []Frame

	addText := func(id, text string) {
		if text != "" {
			frames = append(frames, TextFrame{frameBase: frameBase{ID: id}, Text: text})
		}
	}

	addText(idTitle, md.Title)
	addText(idArtist, md.Artist)
	addText(idAlbum, md.Album)
	addText(idAlbumArtist, md.AlbumArtist)
	addText(idComposer, md.Composer)
	addText(idGenre, md.Genre)
	if md.Year != nil {
		yearID := idYear23
		yearText := strconv.Itoa(*md.Year)
		if version == 4 {
			yearID = idYear24
		}
		addText(yearID, yearText)
	}
	if md.TrackNumber != nil {
		addText(idTrack, strconv.Itoa(*md.TrackNumber))
	}
	if md.DiscNumber != nil {
		addText(idDisc, strconv.Itoa(*md.DiscNumber))
	}
	addText(idCopyright, md.Copyright)
	addText(idPublisher, md.Publisher)
	addText(idEncoder, md.Encoder)
	if md.BPM != nil {
		addText(idBPM, strconv.Itoa(*md.BPM))
	}
	addText(idKey, md.Key)
	addText(idLanguage, md.Language)
	addText(idISRC, md.ISRC)

	addURL := func(id string, u *url.URL) {
		if u != nil {
			frames = append(frames, URLFrame{frameBase: frameBase{ID: id}, URL: u.String()})
		}
	}
	addURL(idArtistURL, md.ArtistURL)
	addURL(idSourceURL, md.AudioSourceURL)
	addURL(idFileURL, md.AudioFileURL)
	addURL(idPublisherURL, md.PublisherURL)
	addURL(idCommercialURL, md.CommercialURL)

	if md.Comment != "" {
		frames = append(frames, CommentFrame{frameBase: frameBase{ID: "COMM"}, Language: "eng", Text: md.Comment})
	}
	if md.UnsynchronizedLyrics != "" {
		frames = append(frames, UnsyncLyricsFrame{frameBase: frameBase{ID: "USLT"}, Language: "eng", Text: md.UnsynchronizedLyrics})
	}
	for _, sl := range md.SynchronizedLyrics {
		frames = append(frames, syncLyricsModelToFrame(sl))
	}
	if md.Artwork != nil {
		frames = append(frames, AttachedPictureFrame{
			frameBase:   frameBase{ID: "APIC"},
			PictureType: 3,
			MIME:        mimeForArtwork(*md.Artwork),
			Data:        md.Artwork.Data,
		})
	}
	for desc, value := range md.CustomTextFields {
		frames = append(frames, UserDefinedTextFrame{frameBase: frameBase{ID: "TXXX"}, Description: desc, Value: value})
	}
	for desc, u := range md.CustomURLs {
		frames = append(frames, UserDefinedURLFrame{frameBase: frameBase{ID: "WXXX"}, Description: desc, URL: u.String()})
	}
	for _, p := range md.PrivateData {
		frames = append(frames, PrivateDataFrame{frameBase: frameBase{ID: "PRIV"}, Owner: p.Owner, Data: p.Bytes})
	}
	for _, u := range md.UniqueFileIdentifiers {
		frames = append(frames, UniqueFileIDFrame{frameBase: frameBase{ID: "UFID"}, Owner: u.Owner, Data: u.Bytes})
	}
	if md.PlayCount != nil {
		frames = append(frames, PlayCountFrame{frameBase: frameBase{ID: "PCNT"}, Count: *md.PlayCount})
	}
	if md.Rating != nil {
		pc := uint64(0)
		if md.PlayCount != nil {
			pc = *md.PlayCount
		}
		frames = append(frames, PopularimeterFrame{frameBase: frameBase{ID: "POPM"}, Rating: *md.Rating, PlayCount: pc})
	}

	return frames
}

func mimeForArtwork(a model.Artwork) string {
	switch a.Format {
	case model.ArtworkPNG:
		return "image/png"
	default:
		return "image/jpeg"
	}
}

func syncLyricsFrameToModel(f SyncLyricsFrame) model.SynchronizedLyrics {
	sl := model.SynchronizedLyrics{
		Language:    f.Language,
		ContentType: model.LyricContentType(f.ContentType),
		Descriptor:  f.Descriptor,
	}
	for _, ev := range f.Events {
		t, err := model.FromMilliseconds(int64(ev.Ms))
		if err != nil {
			continue
		}
		sl.Lines = append(sl.Lines, model.LyricLine{Time: t, Text: ev.Text})
	}
	return sl
}

func syncLyricsModelToFrame(sl model.SynchronizedLyrics) SyncLyricsFrame {
	f := SyncLyricsFrame{
		frameBase:       frameBase{ID: "SYLT"},
		Language:        sl.NormalizedLanguage(),
		TimestampFormat: 2, // milliseconds
		ContentType:     byte(sl.ContentType),
		Descriptor:      sl.Descriptor,
	}
	for _, line := range sl.Lines {
		f.Events = append(f.Events, SyncLyricsEvent{Text: line.Text, Ms: uint32(line.Time.Milliseconds())})
	}
	return f
}

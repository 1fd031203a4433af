package lyrics

import "github.com/relfax/audiomarker/model"

// Export renders a single lyrics track to a format's string
// representation.
func Export(sl model.SynchronizedLyrics, format model.ExportFormat) (string, error) {
	switch format {
	case model.FormatLRC:
		return ExportLRC(sl), nil
	case model.FormatTTML:
		return ExportLyrics(sl), nil
	case model.FormatWebVTT:
		return ExportWebVTT(sl), nil
	case model.FormatSRT:
		return ExportSRT(sl), nil
	default:
		return "", &ExportError{Kind: UnsupportedFormat, Format: format.String(), Reason: "not a lyrics interchange format"}
	}
}

// Import parses a format's string representation into a single
// SynchronizedLyrics track.
func Import(data string, format model.ExportFormat) (model.SynchronizedLyrics, error) {
	switch format {
	case model.FormatLRC:
		return ParseLRC(data)
	case model.FormatTTML:
		doc, err := ParseTTMLDocument(data)
		if err != nil {
			return model.SynchronizedLyrics{}, err
		}
		tracks := doc.ToSynchronizedLyrics()
		if len(tracks) == 0 {
			return model.SynchronizedLyrics{}, nil
		}
		return tracks[0], nil
	case model.FormatWebVTT:
		return ParseWebVTT(data)
	case model.FormatSRT:
		return ParseSRT(data)
	default:
		return model.SynchronizedLyrics{}, &ExportError{Kind: UnsupportedFormat, Format: format.String(), Reason: "not a lyrics interchange format"}
	}
}

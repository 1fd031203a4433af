package chapters

import "github.com/relfax/audiomarker/model"

// Export renders chapters to a format's string representation.
func Export(list model.ChapterList, format model.ExportFormat) (string, error) {
	switch format {
	case model.FormatPodloveJSON:
		return ExportPodloveJSON(list), nil
	case model.FormatPodloveXML:
		return ExportPodloveXML(list), nil
	case model.FormatMP4Chaps:
		return ExportMP4Chaps(list), nil
	case model.FormatFFMetadata:
		return ExportFFmetadata(list), nil
	case model.FormatMarkdown:
		return ExportMarkdown(list), nil
	case model.FormatPodcastNamespace:
		return ExportPodcastNamespace(list), nil
	case model.FormatCueSheet:
		return ExportCueSheet(list), nil
	default:
		return "", &ExportError{Kind: UnsupportedFormat, Format: format.String(), Reason: "not a chapter interchange format"}
	}
}

// Import parses a format's string representation into a ChapterList.
func Import(data string, format model.ExportFormat) (model.ChapterList, error) {
	switch format {
	case model.FormatPodloveJSON:
		return ImportPodloveJSON(data)
	case model.FormatPodloveXML:
		return ImportPodloveXML(data)
	case model.FormatMP4Chaps:
		return ImportMP4Chaps(data)
	case model.FormatFFMetadata:
		return ImportFFmetadata(data)
	case model.FormatMarkdown:
		return nil, &ExportError{Kind: ImportNotSupported, Format: "Markdown", Reason: "Markdown chapter export is one-way"}
	case model.FormatPodcastNamespace:
		return ImportPodcastNamespace(data)
	case model.FormatCueSheet:
		return ImportCueSheet(data)
	default:
		return nil, &ExportError{Kind: UnsupportedFormat, Format: format.String(), Reason: "not a chapter interchange format"}
	}
}

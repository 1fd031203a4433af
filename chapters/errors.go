// Package chapters implements the chapter interchange codecs: Podlove
// JSON/XML, MP4Chaps, FFmetadata, Markdown (export only), Podcast
// Namespace, and Cue Sheet — each a pure string <-> model.ChapterList
// transform.
package chapters

import "fmt"

// ExportErrorKind enumerates ExportError's failure modes,
// shared in spirit with the lyrics package's identical taxonomy.
type ExportErrorKind int

const (
	ImportNotSupported ExportErrorKind = iota
	InvalidData
	InvalidFormat
	UnsupportedFormat
	IoError
)

func (k ExportErrorKind) String() string {
	switch k {
	case ImportNotSupported:
		return "ImportNotSupported"
	case InvalidData:
		return "InvalidData"
	case InvalidFormat:
		return "InvalidFormat"
	case UnsupportedFormat:
		return "UnsupportedFormat"
	case IoError:
		return "IoError"
	default:
		return "Unknown"
	}
}

// ExportError is the chapter interchange codecs' error kind.
type ExportError struct {
	Kind   ExportErrorKind
	Format string
	Reason string
}

func (e *ExportError) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("export: %s(%s): %s", e.Kind, e.Format, e.Reason)
	}
	return fmt.Sprintf("export: %s: %s", e.Kind, e.Reason)
}

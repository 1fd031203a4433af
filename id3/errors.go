// Package id3 implements the ID3v2.3/v2.4 codec: header, frame parsing and
// building, tag building, and the reader/writer/modify/strip operations.
// It follows a constructor and error-message idiom generalized into a
// single read+write codec with chapters and unknown-frame preservation.
package id3

import "fmt"

// TagErrorKind enumerates the tag-parsing failure modes.
type TagErrorKind int

const (
	NoTag TagErrorKind = iota
	InvalidHeader
	UnsupportedVersion
	InvalidFrame
	InvalidEncoding
	TruncatedData
	InvalidSyncsafe
	WriteFailed
)

func (k TagErrorKind) String() string {
	switch k {
	case NoTag:
		return "NoTag"
	case InvalidHeader:
		return "InvalidHeader"
	case UnsupportedVersion:
		return "UnsupportedVersion"
	case InvalidFrame:
		return "InvalidFrame"
	case InvalidEncoding:
		return "InvalidEncoding"
	case TruncatedData:
		return "TruncatedData"
	case InvalidSyncsafe:
		return "InvalidSyncsafe"
	case WriteFailed:
		return "WriteFailed"
	default:
		return "Unknown"
	}
}

// TagError is the structured error raised by the ID3 codec.
type TagError struct {
	Kind    TagErrorKind
	FrameID string
	Reason  string
	Err     error
}

func (e *TagError) Error() string {
	switch {
	case e.FrameID != "" && e.Reason != "":
		return fmt.Sprintf("id3: %s frame %s: %s", e.Kind, e.FrameID, e.Reason)
	case e.Reason != "":
		return fmt.Sprintf("id3: %s: %s", e.Kind, e.Reason)
	case e.Err != nil:
		return fmt.Sprintf("id3: %s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("id3: %s", e.Kind)
	}
}

func (e *TagError) Unwrap() error {
	return e.Err
}

func newFrameError(kind TagErrorKind, id, reason string) *TagError {
	return &TagError{Kind: kind, FrameID: id, Reason: reason}
}

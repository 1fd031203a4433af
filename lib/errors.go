// Package lib provides the low-level byte I/O, binary primitives, and text
// codecs shared by the id3 and mp4 packages.
package lib

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// StreamingErrorKind enumerates the failure modes of ByteReader/ByteWriter.
type StreamingErrorKind int

const (
	FileNotFound StreamingErrorKind = iota
	CannotOpen
	ReadFailed
	WriteFailed
	OutOfBounds
	InvalidBufferSize
	FileTooSmall
)

func (k StreamingErrorKind) String() string {
	switch k {
	case FileNotFound:
		return "FileNotFound"
	case CannotOpen:
		return "CannotOpen"
	case ReadFailed:
		return "ReadFailed"
	case WriteFailed:
		return "WriteFailed"
	case OutOfBounds:
		return "OutOfBounds"
	case InvalidBufferSize:
		return "InvalidBufferSize"
	case FileTooSmall:
		return "FileTooSmall"
	default:
		return "Unknown"
	}
}

// StreamingError is the error kind raised by ByteReader/ByteWriter.
type StreamingError struct {
	Kind StreamingErrorKind
	Path string
	// Offset/Count/Size describe the failing access when applicable.
	Offset, Count, Size int64
	Err                 error
}

func (e *StreamingError) Error() string {
	switch e.Kind {
	case OutOfBounds:
		return fmt.Sprintf("%s: out of bounds read at offset %d for %s (file is %s)",
			e.Path, e.Offset, humanize.Bytes(uint64(e.Count)), humanize.Bytes(uint64(e.Size)))
	case FileTooSmall:
		return fmt.Sprintf("%s: file too small (%s)", e.Path, humanize.Bytes(uint64(e.Size)))
	case InvalidBufferSize:
		return fmt.Sprintf("%s: invalid buffer size %d", e.Path, e.Count)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Path, e.Kind, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Path, e.Kind)
	}
}

func (e *StreamingError) Unwrap() error {
	return e.Err
}

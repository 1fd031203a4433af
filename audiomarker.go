// Package audiomarker is the top-level facade over the ID3v2 and ISOBMFF
// (MP4/M4A/M4B) codecs: it detects which container a file uses and
// dispatches read/write/chapter-export operations to the matching codec
// package, mirroring how a format-sniffing constructor picks a version reader but
// generalized across container formats.
package audiomarker

import (
	"github.com/pkg/errors"

	"github.com/relfax/audiomarker/chapters"
	"github.com/relfax/audiomarker/id3"
	"github.com/relfax/audiomarker/lib"
	"github.com/relfax/audiomarker/model"
	"github.com/relfax/audiomarker/mp4"
)

// ContainerFormat identifies which codec a file was detected as.
type ContainerFormat int

const (
	ContainerUnknown ContainerFormat = iota
	ContainerID3
	ContainerMP4
)

func (f ContainerFormat) String() string {
	switch f {
	case ContainerID3:
		return "ID3"
	case ContainerMP4:
		return "MP4"
	default:
		return "Unknown"
	}
}

// EngineErrorKind enumerates the facade's own error conditions, distinct
// from the per-codec error kinds each codec package already defines.
type EngineErrorKind int

const (
	UnrecognizedFormat EngineErrorKind = iota
	UnsupportedOperation
)

func (k EngineErrorKind) String() string {
	switch k {
	case UnrecognizedFormat:
		return "UnrecognizedFormat"
	case UnsupportedOperation:
		return "UnsupportedOperation"
	default:
		return "Unknown"
	}
}

// EngineError is the facade's structured error. Its message is formatted
// with github.com/pkg/errors, and Unwrap exposes the underlying Err.
type EngineError struct {
	Kind EngineErrorKind
	Path string
	Err  error
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return errors.Wrapf(e.Err, "audiomarker: %s: %s", e.Kind, e.Path).Error()
	}
	return errors.Errorf("audiomarker: %s: %s", e.Kind, e.Path).Error()
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// DetectFormat identifies path's container by inspecting its leading
// bytes: an "ID3" magic (id3.HeaderSize bytes) takes precedence, then an
// ISOBMFF "ftyp" box within the first 64 bytes.
func DetectFormat(path string) (ContainerFormat, error) {
	r, err := lib.OpenReader(path)
	if err != nil {
		return ContainerUnknown, errors.Wrap(err, "audiomarker: opening file")
	}
	defer r.Close()

	if r.FileSize() >= id3.HeaderSize {
		head, err := r.Read(0, id3.HeaderSize)
		if err == nil {
			if _, herr := id3.ParseHeader(head); herr == nil {
				return ContainerID3, nil
			}
		}
	}

	if mp4.HasFtyp(r) {
		return ContainerMP4, nil
	}

	return ContainerUnknown, nil
}

// Read parses path's tag/metadata and chapters into an AudioFileInfo,
// dispatching to the ID3 or MP4 codec.
func Read(path string) (model.AudioFileInfo, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return model.AudioFileInfo{}, err
	}
	switch format {
	case ContainerID3:
		return id3.Read(path)
	case ContainerMP4:
		return mp4.Read(path)
	default:
		return model.AudioFileInfo{}, &EngineError{Kind: UnrecognizedFormat, Path: path}
	}
}

// ReadChapters reads only the chapter list, dispatching by container.
func ReadChapters(path string) (model.ChapterList, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	switch format {
	case ContainerID3:
		info, err := id3.Read(path)
		if err != nil {
			return nil, err
		}
		return info.Chapters, nil
	case ContainerMP4:
		return mp4.Chapters(path)
	default:
		return nil, &EngineError{Kind: UnrecognizedFormat, Path: path}
	}
}

// Write replaces metadata and chapters with info, dispatching by
// container.
func Write(info model.AudioFileInfo, path string) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}
	switch format {
	case ContainerID3:
		return id3.Write(info, path)
	case ContainerMP4:
		return mp4.Write(info, path)
	default:
		return &EngineError{Kind: UnrecognizedFormat, Path: path}
	}
}

// Modify replaces metadata while preserving whatever the codec's Modify
// contract preserves (unknown frames for ID3, existing chapters for MP4
// when info carries none), dispatching by container.
func Modify(info model.AudioFileInfo, path string) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}
	switch format {
	case ContainerID3:
		return id3.Modify(info, path)
	case ContainerMP4:
		return mp4.Modify(info, path)
	default:
		return &EngineError{Kind: UnrecognizedFormat, Path: path}
	}
}

// Strip removes all tag/metadata content while keeping chapters,
// dispatching by container.
func Strip(path string) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}
	switch format {
	case ContainerID3:
		return id3.StripTag(path)
	case ContainerMP4:
		return mp4.StripTag(path)
	default:
		return &EngineError{Kind: UnrecognizedFormat, Path: path}
	}
}

// WriteChapters replaces only path's chapter list, leaving other metadata
// untouched, by reading the current info and writing it back through
// Modify with Chapters overwritten.
func WriteChapters(path string, list model.ChapterList) error {
	info, err := Read(path)
	if err != nil {
		return err
	}
	info.Chapters = list
	return Modify(info, path)
}

// ClearChapters removes path's chapter list while leaving other metadata
// untouched.
func ClearChapters(path string) error {
	info, err := Read(path)
	if err != nil {
		return err
	}
	info.Chapters = nil
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}
	if format == ContainerMP4 {
		// mp4.Modify carries existing chapters forward when info has none,
		// so the MP4 path goes through mp4.Write instead.
		return mp4.Write(info, path)
	}
	return Modify(info, path)
}

// ExportChapters renders path's chapters in format. Lyric-only formats
// (LRC/TTML/WebVTT/SRT) are rejected: those describe synchronized text,
// not a chapter list, and belong to the lyrics package instead.
func ExportChapters(path string, format model.ExportFormat) (string, error) {
	if format.IsLyricFormat() {
		return "", &EngineError{Kind: UnsupportedOperation, Path: path,
			Err: errors.Errorf("%s is a lyrics format, not a chapter format", format)}
	}
	list, err := ReadChapters(path)
	if err != nil {
		return "", err
	}
	return chapters.Export(list, format)
}

// ImportChapters parses data as format and writes the resulting chapter
// list to path, leaving other metadata untouched. Lyric-only formats are
// rejected for the same reason as ExportChapters.
func ImportChapters(path string, data string, format model.ExportFormat) error {
	if format.IsLyricFormat() {
		return &EngineError{Kind: UnsupportedOperation, Path: path,
			Err: errors.Errorf("%s is a lyrics format, not a chapter format", format)}
	}
	list, err := chapters.Import(data, format)
	if err != nil {
		return err
	}
	return WriteChapters(path, list)
}

package id3

import (
	"os"

	"github.com/relfax/audiomarker/lib"
	"github.com/relfax/audiomarker/model"
)

// defaultWriteVersion is the version a fresh tag is built as when there is
// no existing tag to inherit a version from.
const defaultWriteVersion = 4

// Write replaces metadata and chapters, building a fresh tag with default
// padding.
func Write(info model.AudioFileInfo, path string) error {
	return writeTag(path, info, defaultWriteVersion)
}

// Modify replaces metadata and chapters while preserving unknown frames
// read from the existing tag; equivalent to Write when there is no
// existing tag. Version defaults to the existing tag's version.
func Modify(info model.AudioFileInfo, path string) error {
	version := defaultWriteVersion
	existing, err := readTag(path)
	if err == nil {
		version = existing.Version
		info.UnknownFrames = existing.Info.UnknownFrames
	} else if !isNoTag(err) {
		return err
	}
	return writeTag(path, info, version)
}

// StripTag removes all metadata. When chapters exist, the tag is rebuilt
// retaining only CTOC/CHAP frames (chapters are structural, not metadata);
// otherwise the tag is removed entirely so the file begins with the first
// audio byte.
func StripTag(path string) error {
	existing, err := readTag(path)
	if err != nil {
		if isNoTag(err) {
			return nil
		}
		return err
	}

	if len(existing.Info.Chapters) == 0 {
		return removeTag(path, existing.Span)
	}

	stripped := model.AudioFileInfo{Chapters: existing.Info.Chapters}
	return writeTag(path, stripped, existing.Version)
}

func isNoTag(err error) bool {
	te, ok := err.(*TagError)
	return ok && te.Kind == NoTag
}

// writeTag is the shared in-place-vs-rewrite engine for Write/Modify/Strip.
func writeTag(path string, info model.AudioFileInfo, version int) error {
	newTag := BuildTag(info, BuildOptions{Version: version, Padding: DefaultPadding})

	existingSpan := int64(0)
	if existing, err := readTag(path); err == nil {
		existingSpan = existing.Span
	} else if !isNoTag(err) {
		return err
	}

	if existingSpan > 0 && int64(len(newTag)) <= existingSpan {
		return writeInPlace(path, newTag, existingSpan)
	}
	return rewriteWithAudio(path, newTag, existingSpan)
}

// writeInPlace overwrites the first existingSpan bytes with newTag, padded
// with extra zero bytes up to existingSpan so the audio stream does not
// move.
func writeInPlace(path string, newTag []byte, existingSpan int64) error {
	padded := make([]byte, existingSpan)
	copy(padded, newTag)

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return &lib.StreamingError{Kind: lib.CannotOpen, Path: path, Err: err}
	}
	defer f.Close()

	if _, err := f.WriteAt(padded, 0); err != nil {
		return &lib.StreamingError{Kind: lib.WriteFailed, Path: path, Err: err}
	}
	return f.Sync()
}

// rewriteWithAudio writes a sibling tempfile (new tag, then the streamed
// audio region starting at existingSpan through EOF), syncs, and
// atomically replaces the source. The tempfile is unlinked on any failure.
func rewriteWithAudio(path string, newTag []byte, existingSpan int64) error {
	tmpPath, cleanup, err := lib.TempSibling(path)
	if err != nil {
		return err
	}

	w, err := lib.CreateWriter(tmpPath)
	if err != nil {
		cleanup()
		return err
	}

	if err := w.Write(newTag); err != nil {
		w.Close()
		cleanup()
		return err
	}

	r, err := lib.OpenReader(path)
	if err != nil {
		w.Close()
		cleanup()
		return err
	}
	audioLen := r.FileSize() - existingSpan
	if audioLen > 0 {
		if err := w.CopyChunked(r, existingSpan, audioLen, 0); err != nil {
			r.Close()
			w.Close()
			cleanup()
			return err
		}
	}
	r.Close()

	if err := w.Sync(); err != nil {
		w.Close()
		cleanup()
		return err
	}
	if err := w.Close(); err != nil {
		cleanup()
		return &lib.StreamingError{Kind: lib.WriteFailed, Path: path, Err: err}
	}

	if err := lib.ReplaceFile(tmpPath, path); err != nil {
		cleanup()
		return err
	}
	return nil
}

// removeTag rewrites the file starting at the first audio byte, dropping
// the tag entirely.
func removeTag(path string, span int64) error {
	tmpPath, cleanup, err := lib.TempSibling(path)
	if err != nil {
		return err
	}
	w, err := lib.CreateWriter(tmpPath)
	if err != nil {
		cleanup()
		return err
	}
	r, err := lib.OpenReader(path)
	if err != nil {
		w.Close()
		cleanup()
		return err
	}
	audioLen := r.FileSize() - span
	if audioLen > 0 {
		if err := w.CopyChunked(r, span, audioLen, 0); err != nil {
			r.Close()
			w.Close()
			cleanup()
			return err
		}
	}
	r.Close()
	if err := w.Sync(); err != nil {
		w.Close()
		cleanup()
		return err
	}
	if err := w.Close(); err != nil {
		cleanup()
		return &lib.StreamingError{Kind: lib.WriteFailed, Path: path, Err: err}
	}
	return lib.ReplaceFile(tmpPath, path)
}

package lib

import (
	"io"
	"os"

	"github.com/google/uuid"
)

// ByteWriter is an append-only writer over a file, with an explicit Sync
// discipline so callers control exactly when data hits stable storage.
type ByteWriter struct {
	path string
	f    *os.File
}

// CreateWriter creates (or truncates) path for appending writes.
func CreateWriter(path string) (*ByteWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, &StreamingError{Kind: CannotOpen, Path: path, Err: err}
	}
	return &ByteWriter{path: path, f: f}, nil
}

// Write appends bytes to the file.
func (w *ByteWriter) Write(data []byte) error {
	if _, err := w.f.Write(data); err != nil {
		return &StreamingError{Kind: WriteFailed, Path: w.path, Err: err}
	}
	return nil
}

// CopyChunked streams count bytes from r starting at offset into the
// writer, bufSize bytes (DefaultChunkSize when <= 0) at a time.
func (w *ByteWriter) CopyChunked(r *ByteReader, offset, count int64, bufSize int) error {
	return r.CopyChunked(offset, count, bufSize, func(chunk []byte) error {
		return w.Write(chunk)
	})
}

// Sync flushes the writer to stable storage.
func (w *ByteWriter) Sync() error {
	if err := w.f.Sync(); err != nil {
		return &StreamingError{Kind: WriteFailed, Path: w.path, Err: err}
	}
	return nil
}

// Close releases the underlying file handle.
func (w *ByteWriter) Close() error {
	return w.f.Close()
}

// TempSibling returns a fresh tempfile path in the same directory as path,
// named with a dotted UUID as spec'd ("Persisted state layout"); it does
// not create the file (CreateWriter does). The
// returned cleanup func unlinks the tempfile; callers must invoke it on
// every failure path and must not invoke it after a successful rename.
func TempSibling(path string) (tmpPath string, cleanup func(), err error) {
	dir, _ := splitDir(path)
	name := "." + uuid.New().String() + ".tmp"
	tmpPath = joinPath(dir, name)

	cleanup = func() { os.Remove(tmpPath) }
	return tmpPath, cleanup, nil
}

// ReplaceFile atomically replaces target with the contents currently at
// tmpPath (both must be on the same filesystem for atomicity).
func ReplaceFile(tmpPath, target string) error {
	if err := os.Rename(tmpPath, target); err != nil {
		return &StreamingError{Kind: WriteFailed, Path: target, Err: err}
	}
	return nil
}

// splitDir/joinPath avoid importing path/filepath twice across the package
// for this one narrow use.
func splitDir(p string) (dir, base string) {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[:i], p[i+1:]
		}
	}
	return ".", p
}

func joinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

var _ io.Writer = (*fileWriterAdapter)(nil)

// fileWriterAdapter lets a ByteWriter satisfy io.Writer where a stdlib API
// (e.g. a streaming XML/JSON encoder) wants to write directly.
type fileWriterAdapter struct {
	w *ByteWriter
}

func (a *fileWriterAdapter) Write(p []byte) (int, error) {
	if err := a.w.Write(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// AsIOWriter adapts w to io.Writer.
func (w *ByteWriter) AsIOWriter() io.Writer {
	return &fileWriterAdapter{w: w}
}

package lib

import (
	"io"
	"os"

	mmap "github.com/edsrzf/mmap-go"
)

// DefaultChunkSize is the buffer size used by CopyChunked when the caller
// does not request a different one.
const DefaultChunkSize = 64 * 1024

// ByteReader gives random-access, offset-addressed reads over a file without
// the caller having to juggle ReadAt bookkeeping. Backed by a read-only
// memory mapping so repeated small reads (frame headers, atom headers) don't
// round-trip through the kernel each time.
type ByteReader struct {
	path string
	f    *os.File
	m    mmap.MMap
	size int64
}

// OpenReader opens path for random-access reading.
func OpenReader(path string) (*ByteReader, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &StreamingError{Kind: FileNotFound, Path: path, Err: err}
		}
		return nil, &StreamingError{Kind: CannotOpen, Path: path, Err: err}
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &StreamingError{Kind: CannotOpen, Path: path, Err: err}
	}

	size := info.Size()
	if size == 0 {
		// mmap.Map rejects zero-length files; an empty-reader is still
		// valid (every read off it will just fail with OutOfBounds).
		return &ByteReader{path: path, f: f, size: 0}, nil
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, &StreamingError{Kind: CannotOpen, Path: path, Err: err}
	}

	return &ByteReader{path: path, f: f, m: m, size: size}, nil
}

// FileSize reports the size observed at acquisition time.
func (r *ByteReader) FileSize() int64 {
	return r.size
}

// Close releases the mapping and the underlying file handle.
func (r *ByteReader) Close() error {
	var err error
	if r.m != nil {
		err = r.m.Unmap()
	}
	if cerr := r.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Read returns count bytes starting at offset.
func (r *ByteReader) Read(offset, count int64) ([]byte, error) {
	if count < 0 {
		return nil, &StreamingError{Kind: InvalidBufferSize, Path: r.path, Count: count}
	}
	if offset < 0 || offset+count > r.size {
		return nil, &StreamingError{Kind: OutOfBounds, Path: r.path, Offset: offset, Count: count, Size: r.size}
	}
	out := make([]byte, count)
	copy(out, r.m[offset:offset+count])
	return out, nil
}

// ReadToEnd returns every byte from offset through end of file.
func (r *ByteReader) ReadToEnd(offset int64) ([]byte, error) {
	if offset < 0 || offset > r.size {
		return nil, &StreamingError{Kind: OutOfBounds, Path: r.path, Offset: offset, Size: r.size}
	}
	return r.Read(offset, r.size-offset)
}

// ChunkHandler receives one chunk of streamed bytes at a time.
type ChunkHandler func(chunk []byte) error

// CopyChunked streams count bytes starting at offset to handler in
// bufSize-sized pieces (DefaultChunkSize when bufSize <= 0), so the payload
// is never materialized as a single buffer the size of count. This is the
// path mdat streaming must use.
func (r *ByteReader) CopyChunked(offset, count int64, bufSize int, handler ChunkHandler) error {
	if bufSize <= 0 {
		bufSize = DefaultChunkSize
	}
	if offset < 0 || offset+count > r.size {
		return &StreamingError{Kind: OutOfBounds, Path: r.path, Offset: offset, Count: count, Size: r.size}
	}

	remaining := count
	pos := offset
	for remaining > 0 {
		n := int64(bufSize)
		if n > remaining {
			n = remaining
		}
		if err := handler(r.m[pos : pos+n]); err != nil {
			return err
		}
		pos += n
		remaining -= n
	}
	return nil
}

// CopyChunkedTo streams count bytes starting at offset directly to w,
// without ever holding more than one chunk in memory.
func (r *ByteReader) CopyChunkedTo(w io.Writer, offset, count int64, bufSize int) error {
	return r.CopyChunked(offset, count, bufSize, func(chunk []byte) error {
		_, err := w.Write(chunk)
		return err
	})
}

package mp4

import (
	"github.com/relfax/audiomarker/lib"
	"github.com/relfax/audiomarker/model"
)

// Read parses an MP4/M4A/M4B file's metadata and chapters into an
// AudioFileInfo.
func Read(path string) (model.AudioFileInfo, error) {
	r, err := lib.OpenReader(path)
	if err != nil {
		return model.AudioFileInfo{}, err
	}
	defer r.Close()

	root, err := ParseTree(r)
	if err != nil {
		return model.AudioFileInfo{}, err
	}

	md, err := parseMetadata(root)
	if err != nil {
		return model.AudioFileInfo{}, err
	}
	chapters, err := ReadChapters(root)
	if err != nil {
		return model.AudioFileInfo{}, err
	}

	return model.AudioFileInfo{
		Metadata: md,
		Chapters: chapters,
	}, nil
}

// Chapters reads only the chapter list, used by callers
// that don't need the rest of the metadata.
func Chapters(path string) (model.ChapterList, error) {
	r, err := lib.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	root, err := ParseTree(r)
	if err != nil {
		return nil, err
	}
	return ReadChapters(root)
}

// IsMP4 reports whether path looks like an ISOBMFF file by checking for
// an "ftyp" box within the first 64 bytes.
func IsMP4(path string) (bool, error) {
	r, err := lib.OpenReader(path)
	if err != nil {
		return false, err
	}
	defer r.Close()
	return HasFtyp(r), nil
}

// HasFtyp inspects the first few atoms for an "ftyp" box.
func HasFtyp(r *lib.ByteReader) bool {
	limit := int64(64)
	if r.FileSize() < limit {
		limit = r.FileSize()
	}
	if limit < atomHeaderSize {
		return false
	}
	hdr, err := r.Read(0, limit)
	if err != nil {
		return false
	}
	for pos := 0; pos+8 <= len(hdr); {
		size := int(lib.ReadU32(hdr[pos : pos+4]))
		atomType := string(hdr[pos+4 : pos+8])
		if atomType == "ftyp" {
			return true
		}
		if size < 8 {
			return false
		}
		pos += size
	}
	return false
}

package id3

import (
	"github.com/relfax/audiomarker/lib"
	"github.com/relfax/audiomarker/model"
)

// tagResult is the internal parse result, carrying enough about the
// existing tag's on-disk layout (version, span) for the writer's
// in-place-vs-rewrite decision and for modify's "preserve unknown frames"
// contract.
type tagResult struct {
	Info    model.AudioFileInfo
	Version int
	// Span is header(10) + declared tag size: the number of leading bytes
	// the existing tag occupies in the file.
	Span int64
}

// Read parses the ID3v2 tag at path into an AudioFileInfo.
func Read(path string) (model.AudioFileInfo, error) {
	res, err := readTag(path)
	if err != nil {
		return model.AudioFileInfo{}, err
	}
	return res.Info, nil
}

// AudioStreamOffset returns the byte offset where the audio payload begins
// (i.e. the end of any ID3v2 tag), or 0 when the file has no tag.
func AudioStreamOffset(path string) (int64, error) {
	res, err := readTag(path)
	if err != nil {
		if te, ok := err.(*TagError); ok && te.Kind == NoTag {
			return 0, nil
		}
		return 0, err
	}
	return res.Span, nil
}

func readTag(path string) (*tagResult, error) {
	r, err := lib.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if r.FileSize() < HeaderSize {
		return nil, &TagError{Kind: NoTag, Reason: "file shorter than 10 bytes"}
	}

	headerBytes, err := r.Read(0, HeaderSize)
	if err != nil {
		return nil, err
	}
	header, err := ParseHeader(headerBytes)
	if err != nil {
		return nil, err
	}

	span := int64(HeaderSize) + int64(header.TagSize)
	if span > r.FileSize() {
		return nil, &TagError{Kind: TruncatedData, Reason: "declared tag size exceeds file size"}
	}

	tagBody, err := r.Read(HeaderSize, int64(header.TagSize))
	if err != nil {
		return nil, err
	}

	if header.Unsynchronized {
		tagBody = deapplyUnsynchronization(tagBody)
	}

	frameRegion := tagBody
	if header.HasExtendedHeader {
		skip, err := SkipExtendedHeader(header.Version, frameRegion)
		if err != nil {
			return nil, err
		}
		if skip > len(frameRegion) {
			return nil, &TagError{Kind: TruncatedData, Reason: "extended header larger than tag body"}
		}
		frameRegion = frameRegion[skip:]
	}

	parsed, err := parseFrames(header.Version, frameRegion)
	if err != nil {
		return nil, err
	}

	flat := make([]Frame, len(parsed))
	for i, p := range parsed {
		flat[i] = p.Frame
	}

	md, unknown := framesToMetadata(header.Version, flat)
	chapters := framesToChapters(flat)

	info := model.AudioFileInfo{
		Metadata:      md,
		Chapters:      chapters,
		UnknownFrames: unknown,
	}

	return &tagResult{Info: info, Version: header.Version, Span: span}, nil
}

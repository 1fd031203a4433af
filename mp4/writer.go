package mp4

import (
	"github.com/relfax/audiomarker/lib"
	"github.com/relfax/audiomarker/model"
)

// Write replaces metadata and, when chapters is non-empty, rebuilds the
// chapter track(s); any existing chapter data not represented in info is
// dropped.
func Write(info model.AudioFileInfo, path string) error {
	return writeFile(path, info, true)
}

// Modify replaces metadata while preserving existing chapters when info
// carries none of its own (mirrors id3's Modify preserving unknown
// frames).
func Modify(info model.AudioFileInfo, path string) error {
	if len(info.Chapters) == 0 {
		if existing, err := readChaptersFromPath(path); err == nil {
			info.Chapters = existing
		}
	}
	return writeFile(path, info, true)
}

// StripTag removes all metadata (ilst) while keeping the file's existing
// chapters, which are rebuilt into fresh chapter tracks exactly as Write
// does; audio samples are left intact.
func StripTag(path string) error {
	info := model.NewAudioFileInfo()
	if existing, err := readChaptersFromPath(path); err == nil {
		info.Chapters = existing
	}
	return writeFile(path, info, true)
}

func readChaptersFromPath(path string) (model.ChapterList, error) {
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

// writeFile rebuilds moov (metadata + optionally chapters) and re-emits
// every other top-level atom, streaming mdat rather than buffering it,
// preserving whichever of moov-first/mdat-first layout the source file
// used.
func writeFile(path string, info model.AudioFileInfo, writeChapters bool) error {
	r, err := lib.OpenReader(path)
	if err != nil {
		return err
	}
	defer r.Close()

	root, err := ParseTree(r)
	if err != nil {
		return err
	}

	rebuilt, err := rebuildMoov(root, r, info, writeChapters)
	if err != nil {
		return err
	}

	moovAtom := root.child("moov")
	if moovAtom == nil {
		return &Error{Kind: AtomNotFound, Type: "moov"}
	}
	oldMoovSize := moovAtom.Size
	newMoovSize := int64(len(rebuilt.bytes))
	sizeDelta := newMoovSize - oldMoovSize

	// shift is the amount every original track's existing sample offsets
	// move by: the moov/mdat size delta only reaches an mdat that sits
	// after moov in the file order. This codec
	// targets non-fragmented files with a single primary mdat.
	var shift int64
	sawMoov := false
	for _, child := range root.Children {
		if child.Type == "moov" {
			sawMoov = true
			continue
		}
		if child.Type == "mdat" && sawMoov {
			shift = sizeDelta
		}
	}

	applyExistingStcoPatches(rebuilt.bytes, rebuilt.existingPatches, shift)

	trailingData, err := fillNewTrackPatches(rebuilt.bytes, rebuilt.newTrackPatches, root, newMoovSize, sizeDelta)
	if err != nil {
		return err
	}

	return assembleFile(path, root, r, rebuilt.bytes, trailingData)
}

// applyExistingStcoPatches shifts every pre-existing track's stco/co64
// entries by delta, clamped at zero.
func applyExistingStcoPatches(moovBytes []byte, patches []existingStcoPatch, delta int64) {
	for _, p := range patches {
		width := 4
		if p.is64 {
			width = 8
		}
		pos := p.offsetInMoov
		for i := 0; i < p.count; i++ {
			if pos+width > len(moovBytes) {
				break
			}
			if p.is64 {
				v := int64(lib.ReadU64(moovBytes[pos : pos+8]))
				v += delta
				if v < 0 {
					v = 0
				}
				copy(moovBytes[pos:pos+8], lib.WriteU64(uint64(v)))
			} else {
				v := int64(lib.ReadU32(moovBytes[pos : pos+4]))
				v += delta
				if v < 0 {
					v = 0
				}
				copy(moovBytes[pos:pos+4], lib.WriteU32(uint32(v)))
			}
			pos += width
		}
	}
}

// fillNewTrackPatches computes the absolute file offset of every new
// track's sample data (placed in one trailing mdat appended after every
// original top-level atom) and patches those offsets into the recorded
// stco placeholder positions.
func fillNewTrackPatches(moovBytes []byte, patches []newTrackPatch, root *Atom, newMoovSize, sizeDelta int64) ([]byte, error) {
	if len(patches) == 0 {
		return nil, nil
	}

	var beforeTrailing int64
	for _, child := range root.Children {
		if child.Type == "moov" {
			beforeTrailing += newMoovSize
			continue
		}
		beforeTrailing += child.Size
	}
	beforeTrailing += atomHeaderSize // the new trailing mdat's own header

	var trailing []byte
	cursor := beforeTrailing
	for _, p := range patches {
		pos := p.offsetInMoov
		for _, sample := range p.sampleData {
			if pos+4 > len(moovBytes) {
				return nil, &Error{Kind: InvalidAtom, Type: "stco", Reason: "placeholder position out of range"}
			}
			copy(moovBytes[pos:pos+4], lib.WriteU32(uint32(cursor)))
			pos += 4
			cursor += int64(len(sample))
			trailing = append(trailing, sample...)
		}
	}
	return trailing, nil
}

// assembleFile streams every original top-level atom (moov replaced,
// mdat streamed rather than buffered) into a tempfile, appends the new
// trailing mdat when present, and atomically replaces path.
func assembleFile(path string, root *Atom, r *lib.ByteReader, moovBytes, trailingData []byte) error {
	tmpPath, cleanup, err := lib.TempSibling(path)
	if err != nil {
		return err
	}
	w, err := lib.CreateWriter(tmpPath)
	if err != nil {
		cleanup()
		return err
	}

	fail := func(err error) error {
		w.Close()
		cleanup()
		return err
	}

	for _, child := range root.Children {
		switch child.Type {
		case "moov":
			if err := w.Write(moovBytes); err != nil {
				return fail(err)
			}
		case "mdat":
			if err := w.CopyChunked(r, child.Offset, child.Size, 0); err != nil {
				return fail(err)
			}
		default:
			raw, err := r.Read(child.Offset, child.Size)
			if err != nil {
				return fail(err)
			}
			if err := w.Write(raw); err != nil {
				return fail(err)
			}
		}
	}

	if len(trailingData) > 0 {
		if err := w.Write(buildAtom("mdat", trailingData)); err != nil {
			return fail(err)
		}
	}

	if err := w.Sync(); err != nil {
		return fail(err)
	}
	if err := w.Close(); err != nil {
		cleanup()
		return &Error{Kind: WriteFailed, Reason: err.Error()}
	}
	return lib.ReplaceFile(tmpPath, path)
}

package mp4

import (
	"github.com/relfax/audiomarker/lib"
	"github.com/relfax/audiomarker/model"
)

// existingStcoPatch marks one sample-table offset array, already present
// in the rebuilt moov bytes, that needs every entry shifted by a constant
// delta once the new mdat's absolute position is known.
type existingStcoPatch struct {
	offsetInMoov int
	is64         bool
	count        int
}

// newTrackPatch is a newly built track's stco placeholder array together
// with its absolute position in the rebuilt moov bytes.
type newTrackPatch struct {
	offsetInMoov int
	sampleData   [][]byte
}

// rebuiltMoov is everything the writer needs to finish assembling a file:
// the new moov atom bytes (with placeholder/stale stco values), the
// existing-track delta patches, and the new tracks' sample data plus
// where their placeholders live.
type rebuiltMoov struct {
	bytes           []byte
	existingPatches []existingStcoPatch
	newTrackPatches []newTrackPatch
}

// rebuildMoov reconstructs moov with fresh udta/meta/ilst metadata and,
// when chapters is non-empty, a new QuickTime chapter text track (plus an
// artwork video track when any chapter carries artwork) referenced from
// the first audio track's tref.chap.
func rebuildMoov(root *Atom, r *lib.ByteReader, info model.AudioFileInfo, writeChapters bool) (*rebuiltMoov, error) {
	moov := root.child("moov")
	if moov == nil {
		return nil, &Error{Kind: AtomNotFound, Type: "moov"}
	}

	_, timescale, err := parseDuration(root)
	if err != nil {
		return nil, err
	}
	if timescale == 0 {
		timescale = 1000
	}

	traks := moov.FindAll("trak")
	var nextTrackID uint32 = 1
	for _, trak := range traks {
		if tkhd := trak.child("tkhd"); tkhd != nil {
			if p, err := tkhd.Payload(); err == nil {
				if id := parseTkhdTrackID(p); id >= nextTrackID {
					nextTrackID = id + 1
				}
			}
		}
	}

	var chapterTrackID, artworkTrackID uint32
	if writeChapters && len(info.Chapters) > 0 {
		chapterTrackID = nextTrackID
		nextTrackID++
		if info.Chapters.HasArtwork() {
			artworkTrackID = nextTrackID
			nextTrackID++
		}
	}

	// Pre-existing chapter text/subtitle tracks — referenced by an audio
	// track's tref.chap, or simply carrying a text/sbtl handler — are
	// dropped from the rebuilt moov; only the freshly built chapter track
	// (below) is ever re-added.
	staleChapterTracks := make(map[uint32]bool)
	for _, trak := range traks {
		if trakHandlerType(trak) == "soun" {
			for _, targetID := range trefChapTargets(trak) {
				staleChapterTracks[targetID] = true
			}
		}
	}
	for _, trak := range traks {
		handlerType := trakHandlerType(trak)
		if handlerType != "text" && handlerType != "sbtl" {
			continue
		}
		staleChapterTracks[trakTrackID(trak)] = true
	}

	var children [][]byte
	var existingPatches []existingStcoPatch
	offsetCursor := atomHeaderSize // moov's own header

	if mvhd := moov.child("mvhd"); mvhd != nil {
		raw, err := r.Read(mvhd.Offset, mvhd.Size)
		if err != nil {
			return nil, err
		}
		children = append(children, raw)
		offsetCursor += len(raw)
	}

	audioAssigned := false
	for _, trak := range traks {
		handlerType := trakHandlerType(trak)
		isAudio := handlerType == "soun"

		if isAudio && !audioAssigned && chapterTrackID != 0 {
			audioAssigned = true
			rebuilt, patch, err := rebuildAudioTrakWithChapterRef(trak, r, chapterTrackID, artworkTrackID)
			if err != nil {
				return nil, err
			}
			children = append(children, rebuilt)
			if patch != nil {
				patch.offsetInMoov += offsetCursor
				existingPatches = append(existingPatches, *patch)
			}
			offsetCursor += len(rebuilt)
			continue
		}

		if trackID := trakTrackID(trak); staleChapterTracks[trackID] {
			continue
		}

		raw, err := r.Read(trak.Offset, trak.Size)
		if err != nil {
			return nil, err
		}
		children = append(children, raw)
		if patch, ok := verbatimTrakStcoPatch(trak); ok {
			patch.offsetInMoov += offsetCursor
			existingPatches = append(existingPatches, patch)
		}
		offsetCursor += len(raw)
	}

	var newTrackPatches []newTrackPatch
	if chapterTrackID != 0 {
		tt := buildTextTrack(chapterTrackID, info.Chapters, timescale)
		newTrackPatches = append(newTrackPatches, newTrackPatch{
			offsetInMoov: offsetCursor + tt.stcoOffset,
			sampleData:   tt.sampleData,
		})
		children = append(children, tt.trakBytes)
		offsetCursor += len(tt.trakBytes)

		if artworkTrackID != 0 {
			vt := buildVideoTrack(artworkTrackID, info.Chapters, timescale)
			newTrackPatches = append(newTrackPatches, newTrackPatch{
				offsetInMoov: offsetCursor + vt.stcoOffset,
				sampleData:   vt.sampleData,
			})
			children = append(children, vt.trakBytes)
			offsetCursor += len(vt.trakBytes)
		}
	}

	var udtaChapters model.ChapterList
	if chapterTrackID != 0 {
		udtaChapters = info.Chapters
	}
	children = append(children, buildUdta(info.Metadata, udtaChapters))

	return &rebuiltMoov{
		bytes:           buildContainer("moov", children...),
		existingPatches: existingPatches,
		newTrackPatches: newTrackPatches,
	}, nil
}

// trakTrackID reads a trak's own tkhd track ID, or 0 if it has none.
func trakTrackID(trak *Atom) uint32 {
	tkhd := trak.child("tkhd")
	if tkhd == nil {
		return 0
	}
	p, err := tkhd.Payload()
	if err != nil {
		return 0
	}
	return parseTkhdTrackID(p)
}

func trakHandlerType(trak *Atom) string {
	mdia := trak.child("mdia")
	if mdia == nil {
		return ""
	}
	hdlr := mdia.child("hdlr")
	if hdlr == nil {
		return ""
	}
	p, err := hdlr.Payload()
	if err != nil {
		return ""
	}
	return parseHdlrType(p)
}

// buildUdta assembles udta(meta(ilst), chpl) fresh from metadata and, when
// chapters is non-empty, a Nero chpl atom carrying the same chapter list
// as the QuickTime text track (so readers that only understand the Nero
// fallback still see chapters). Pre-existing udta children other than
// meta/chpl (e.g. a vendor-specific box) are not preserved.
func buildUdta(md model.AudioMetadata, chapters model.ChapterList) []byte {
	children := [][]byte{buildMeta(buildIlst(md))}
	if len(chapters) > 0 {
		children = append(children, buildChpl(chapters))
	}
	return buildContainer("udta", children...)
}

// verbatimTrakStcoPatch locates an unmodified trak's stco/co64 entry
// array, reporting its offset relative to the start of the verbatim byte
// copy the caller is about to splice into the rebuilt moov.
func verbatimTrakStcoPatch(trak *Atom) (existingStcoPatch, bool) {
	stbl := trak.Find("mdia.minf.stbl")
	if stbl == nil {
		return existingStcoPatch{}, false
	}
	if a := stbl.child("stco"); a != nil {
		count, ok := stcoEntryCount(a, 4)
		if !ok {
			return existingStcoPatch{}, false
		}
		return existingStcoPatch{
			offsetInMoov: int(a.DataOffset+8 - trak.Offset),
			is64:         false,
			count:        count,
		}, true
	}
	if a := stbl.child("co64"); a != nil {
		count, ok := stcoEntryCount(a, 8)
		if !ok {
			return existingStcoPatch{}, false
		}
		return existingStcoPatch{
			offsetInMoov: int(a.DataOffset+8 - trak.Offset),
			is64:         true,
			count:        count,
		}, true
	}
	return existingStcoPatch{}, false
}

func stcoEntryCount(a *Atom, width int64) (int, bool) {
	p, err := a.Payload()
	if err != nil || len(p) < 8 {
		return 0, false
	}
	count := int(lib.ReadU32(p[4:8]))
	if int64(len(p)-8) < int64(count)*width {
		return 0, false
	}
	return count, true
}

// rebuildAudioTrakWithChapterRef copies an audio trak's children verbatim
// except for tref, which is replaced with one pointing at the new
// chapter (and, when present, artwork) track IDs.
func rebuildAudioTrakWithChapterRef(trak *Atom, r *lib.ByteReader, chapterTrackID, artworkTrackID uint32) ([]byte, *existingStcoPatch, error) {
	ids := []byte{}
	ids = append(ids, lib.WriteU32(chapterTrackID)...)
	if artworkTrackID != 0 {
		ids = append(ids, lib.WriteU32(artworkTrackID)...)
	}
	newTref := buildContainer("tref", buildAtom("chap", ids))

	var payload []byte
	var patch *existingStcoPatch
	// Offset of the next byte appended to payload, relative to the start
	// of the rebuilt trak bytes (header + newTref + payload-so-far).
	baseOffset := atomHeaderSize + len(newTref)
	for _, child := range trak.Children {
		if child.Type == "tref" {
			continue // dropped; replaced below
		}
		raw, err := r.Read(child.Offset, child.Size)
		if err != nil {
			return nil, nil, err
		}
		if child.Type == "mdia" {
			if stbl := child.Find("minf.stbl"); stbl != nil {
				if a := stbl.child("stco"); a != nil {
					if count, ok := stcoEntryCount(a, 4); ok {
						patch = &existingStcoPatch{
							offsetInMoov: baseOffset + int(a.DataOffset+8-child.Offset),
							is64:         false,
							count:        count,
						}
					}
				} else if a := stbl.child("co64"); a != nil {
					if count, ok := stcoEntryCount(a, 8); ok {
						patch = &existingStcoPatch{
							offsetInMoov: baseOffset + int(a.DataOffset+8-child.Offset),
							is64:         true,
							count:        count,
						}
					}
				}
			}
		}
		payload = append(payload, raw...)
		baseOffset += len(raw)
	}

	out := buildContainer("trak", newTref, payload)
	return out, patch, nil
}

package mp4

import "github.com/relfax/audiomarker/lib"

// stscEntry is one sample-to-chunk table entry.
type stscEntry struct {
	firstChunk      uint32
	samplesPerChunk uint32
}

// sampleTable holds everything needed to locate and size every sample of
// a track.
type sampleTable struct {
	deltas       []uint32 // one per sample, in track timescale units
	sizes        []uint32 // one per sample
	chunkOffsets []uint64
	chunkMap     []stscEntry
}

func parseStts(payload []byte) []uint32 {
	if len(payload) < 8 {
		return nil
	}
	count := lib.ReadU32(payload[4:8])
	var out []uint32
	pos := 8
	for i := uint32(0); i < count && pos+8 <= len(payload); i++ {
		sampleCount := lib.ReadU32(payload[pos : pos+4])
		delta := lib.ReadU32(payload[pos+4 : pos+8])
		for j := uint32(0); j < sampleCount; j++ {
			out = append(out, delta)
		}
		pos += 8
	}
	return out
}

func parseStsz(payload []byte) []uint32 {
	if len(payload) < 12 {
		return nil
	}
	sampleSize := lib.ReadU32(payload[4:8])
	count := lib.ReadU32(payload[8:12])
	if sampleSize > 0 {
		out := make([]uint32, count)
		for i := range out {
			out[i] = sampleSize
		}
		return out
	}
	var out []uint32
	pos := 12
	for i := uint32(0); i < count && pos+4 <= len(payload); i++ {
		out = append(out, lib.ReadU32(payload[pos:pos+4]))
		pos += 4
	}
	return out
}

func parseStco(payload []byte) []uint64 {
	if len(payload) < 8 {
		return nil
	}
	count := lib.ReadU32(payload[4:8])
	var out []uint64
	pos := 8
	for i := uint32(0); i < count && pos+4 <= len(payload); i++ {
		out = append(out, uint64(lib.ReadU32(payload[pos:pos+4])))
		pos += 4
	}
	return out
}

func parseCo64(payload []byte) []uint64 {
	if len(payload) < 8 {
		return nil
	}
	count := lib.ReadU32(payload[4:8])
	var out []uint64
	pos := 8
	for i := uint32(0); i < count && pos+8 <= len(payload); i++ {
		out = append(out, lib.ReadU64(payload[pos:pos+8]))
		pos += 8
	}
	return out
}

func parseStsc(payload []byte) []stscEntry {
	if len(payload) < 8 {
		return nil
	}
	count := lib.ReadU32(payload[4:8])
	var out []stscEntry
	pos := 8
	for i := uint32(0); i < count && pos+12 <= len(payload); i++ {
		out = append(out, stscEntry{
			firstChunk:      lib.ReadU32(payload[pos : pos+4]),
			samplesPerChunk: lib.ReadU32(payload[pos+4 : pos+8]),
		})
		pos += 12
	}
	return out
}

// sampleOffsets expands the chunk-offset/sample-to-chunk tables into one
// absolute file offset per sample.
func (t *sampleTable) sampleOffsets() []uint64 {
	if len(t.chunkOffsets) == 0 {
		return nil
	}
	offsets := make([]uint64, 0, len(t.sizes))
	sampleIndex := 0
	chunkNum := uint32(0)
	for _, chunkOffset := range t.chunkOffsets {
		chunkNum++
		samplesInChunk := uint32(1)
		for _, e := range t.chunkMap {
			if chunkNum >= e.firstChunk {
				samplesInChunk = e.samplesPerChunk
			}
		}
		cur := chunkOffset
		for s := uint32(0); s < samplesInChunk && sampleIndex < len(t.sizes); s++ {
			offsets = append(offsets, cur)
			cur += uint64(t.sizes[sampleIndex])
			sampleIndex++
		}
	}
	return offsets
}

// parseSampleTable reads stts/stsz/stco|co64/stsc from a stbl atom.
func parseSampleTable(stbl *Atom) (*sampleTable, error) {
	t := &sampleTable{}
	if a := stbl.child("stts"); a != nil {
		p, err := a.Payload()
		if err != nil {
			return nil, err
		}
		t.deltas = parseStts(p)
	}
	if a := stbl.child("stsz"); a != nil {
		p, err := a.Payload()
		if err != nil {
			return nil, err
		}
		t.sizes = parseStsz(p)
	}
	if a := stbl.child("stco"); a != nil {
		p, err := a.Payload()
		if err != nil {
			return nil, err
		}
		t.chunkOffsets = parseStco(p)
	} else if a := stbl.child("co64"); a != nil {
		p, err := a.Payload()
		if err != nil {
			return nil, err
		}
		t.chunkOffsets = parseCo64(p)
	}
	if a := stbl.child("stsc"); a != nil {
		p, err := a.Payload()
		if err != nil {
			return nil, err
		}
		t.chunkMap = parseStsc(p)
	}
	return t, nil
}

package mp4

import (
	"strings"

	"github.com/relfax/audiomarker/lib"
)

// atomHeaderSize is the common 8-byte [size][type] header; extended-size
// atoms carry a further 8 bytes before their payload.
const atomHeaderSize = 8

// containerTypes recurse into their payload as a sequence of child atoms.
// "meta" is handled separately since it carries a 4-byte
// version+flags prefix before its children.
var containerTypes = map[string]bool{
	"moov": true,
	"trak": true,
	"tref": true,
	"mdia": true,
	"minf": true,
	"stbl": true,
	"udta": true,
	"ilst": true,
}

// isIlstChild mirrors containerTypes but only applies to the direct
// children of ilst: every iTunes metadata item (`©nam`, `covr`, `trkn`,
// `----`, and anything not in the enumerated set) recurses into its own
// `data`/`mean`/`name` children.
func isIlstChild(parentType string) bool {
	return parentType == "ilst"
}

// Atom is one node of the parsed ISOBMFF tree. Offset/Size
// describe the atom's full extent (header + payload) within the source
// file; DataOffset is the first byte after the header (or after the
// meta version+flags prefix, for "meta"). mdat's payload is never read
// into Data — only its Offset/Size/DataOffset are populated.
type Atom struct {
	Type       string
	Offset     int64
	Size       int64
	DataOffset int64
	Children   []*Atom
	// Data holds the raw payload for leaf (non-container, non-mdat) atoms,
	// populated lazily by callers that need it via Payload.
	data []byte
	r    *lib.ByteReader
}

// Payload returns the atom's raw payload bytes (DataOffset..Offset+Size),
// reading from the backing file on first use. Never call this on an mdat
// atom; its payload can be arbitrarily large and the codec must stream it
// instead.
func (a *Atom) Payload() ([]byte, error) {
	if a.data != nil {
		return a.data, nil
	}
	if a.r == nil {
		return nil, nil
	}
	count := a.Offset + a.Size - a.DataOffset
	b, err := a.r.Read(a.DataOffset, count)
	if err != nil {
		return nil, err
	}
	a.data = b
	return b, nil
}

// End returns the byte offset one past this atom.
func (a *Atom) End() int64 {
	return a.Offset + a.Size
}

// Find walks a dot-separated path of FourCC types (e.g.
// "moov.udta.meta.ilst") and returns the first matching descendant.
func (a *Atom) Find(path string) *Atom {
	parts := strings.Split(path, ".")
	cur := a
	for _, p := range parts {
		next := cur.child(p)
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

// FindAll returns every direct child of a matching type.
func (a *Atom) FindAll(atomType string) []*Atom {
	var out []*Atom
	for _, c := range a.Children {
		if c.Type == atomType {
			out = append(out, c)
		}
	}
	return out
}

func (a *Atom) child(atomType string) *Atom {
	for _, c := range a.Children {
		if c.Type == atomType {
			return c
		}
	}
	return nil
}

// ParseTree parses every top-level atom in r into a synthetic root Atom
// whose Children are the file's top-level boxes (ftyp, moov, mdat, free,
// ...). Recursion follows containerTypes plus ilst's children, which
// always recurse regardless of FourCC.
func ParseTree(r *lib.ByteReader) (*Atom, error) {
	root := &Atom{Type: "", Offset: 0, Size: r.FileSize(), r: r}
	children, err := parseAtoms(r, 0, r.FileSize(), "")
	if err != nil {
		return nil, err
	}
	root.Children = children
	return root, nil
}

// parseAtoms parses a contiguous run of sibling atoms within [start, end)
// under the given parentType, recursing into containers.
func parseAtoms(r *lib.ByteReader, start, end int64, parentType string) ([]*Atom, error) {
	var out []*Atom
	pos := start
	for pos < end {
		if end-pos < atomHeaderSize {
			return nil, &Error{Kind: TruncatedData, Reason: "atom header truncated"}
		}
		hdr, err := r.Read(pos, atomHeaderSize)
		if err != nil {
			return nil, err
		}
		size64 := int64(lib.ReadU32(hdr[0:4]))
		atomType := string(hdr[4:8])
		dataOffset := pos + atomHeaderSize

		switch size64 {
		case 0:
			size64 = end - pos
		case 1:
			if end-pos < atomHeaderSize+8 {
				return nil, &Error{Kind: TruncatedData, Type: atomType, Reason: "extended size truncated"}
			}
			extHdr, err := r.Read(pos+atomHeaderSize, 8)
			if err != nil {
				return nil, err
			}
			size64 = int64(lib.ReadU64(extHdr))
			dataOffset = pos + atomHeaderSize + 8
		}

		if size64 < atomHeaderSize || pos+size64 > end {
			return nil, &Error{Kind: InvalidAtom, Type: atomType, Reason: "declared size out of range"}
		}

		atom := &Atom{
			Type:       atomType,
			Offset:     pos,
			Size:       size64,
			DataOffset: dataOffset,
			r:          r,
		}

		if atomType == "mdat" {
			// Never read into memory.
			out = append(out, atom)
			pos += size64
			continue
		}

		if atomType == "meta" {
			// 4-byte version+flags prefix precedes meta's children.
			childStart := dataOffset + 4
			children, err := parseAtoms(r, childStart, pos+size64, atomType)
			if err != nil {
				return nil, err
			}
			atom.Children = children
			atom.DataOffset = childStart
		} else if containerTypes[atomType] || isIlstChild(parentType) {
			children, err := parseAtoms(r, dataOffset, pos+size64, atomType)
			if err != nil {
				return nil, err
			}
			atom.Children = children
		}

		out = append(out, atom)
		pos += size64
	}
	return out, nil
}

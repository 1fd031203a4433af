// Package model holds the container-independent data model shared by the
// id3, mp4, chapters, and lyrics codecs: AudioTimestamp, Chapter(List),
// Artwork, lyrics types, and the AudioMetadata/AudioFileInfo round-trip
// unit.
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// AudioTimestamp is a signed, millisecond-precise duration from an implicit
// zero anchor.
type AudioTimestamp struct {
	ms int64
}

// Zero is the zero timestamp.
var Zero = AudioTimestamp{}

// FromMilliseconds constructs a timestamp from a millisecond count.
func FromMilliseconds(ms int64) (AudioTimestamp, error) {
	if ms < 0 {
		return AudioTimestamp{}, fmt.Errorf("negative timestamp: %dms", ms)
	}
	return AudioTimestamp{ms: ms}, nil
}

// MustFromMilliseconds panics on a negative value; for call sites that
// have already validated non-negativity (e.g. derived from another
// timestamp plus a non-negative delta).
func MustFromMilliseconds(ms int64) AudioTimestamp {
	t, err := FromMilliseconds(ms)
	if err != nil {
		panic(err)
	}
	return t
}

// FromSeconds constructs a timestamp from a fractional second count.
func FromSeconds(seconds float64) (AudioTimestamp, error) {
	if seconds < 0 {
		return AudioTimestamp{}, fmt.Errorf("negative timestamp: %fs", seconds)
	}
	return AudioTimestamp{ms: int64(seconds*1000 + 0.5)}, nil
}

// Milliseconds returns the underlying millisecond value.
func (t AudioTimestamp) Milliseconds() int64 {
	return t.ms
}

// Seconds returns the timestamp as fractional seconds.
func (t AudioTimestamp) Seconds() float64 {
	return float64(t.ms) / 1000.0
}

// AddMilliseconds returns t + delta milliseconds (delta may be negative as long as the
// result stays non-negative).
func (t AudioTimestamp) AddMilliseconds(delta int64) (AudioTimestamp, error) {
	return FromMilliseconds(t.ms + delta)
}

// Less reports t < other (ordering is numeric on the millisecond value).
func (t AudioTimestamp) Less(other AudioTimestamp) bool {
	return t.ms < other.ms
}

// Compare returns -1, 0, or 1.
func (t AudioTimestamp) Compare(other AudioTimestamp) int {
	switch {
	case t.ms < other.ms:
		return -1
	case t.ms > other.ms:
		return 1
	default:
		return 0
	}
}

// String formats the canonical HH:MM:SS.mmm form (zero-padded, three
// fractional digits).
func (t AudioTimestamp) String() string {
	h, m, s, ms := t.parts()
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

// ShortString formats HH:MM:SS (no fractional digits), used by formats that
// only need second precision.
func (t AudioTimestamp) ShortString() string {
	h, m, s, _ := t.parts()
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// MinuteSecondString formats MM:SS; minutes are not wrapped at the hour,
// so 90 minutes prints as "90:00".
func (t AudioTimestamp) MinuteSecondString() string {
	totalSeconds := t.ms / 1000
	m := totalSeconds / 60
	s := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d", m, s)
}

func (t AudioTimestamp) parts() (h, m, s, ms int64) {
	total := t.ms
	ms = total % 1000
	total /= 1000
	s = total % 60
	total /= 60
	m = total % 60
	total /= 60
	h = total
	return
}

// ParseTimestamp accepts HH:MM:SS.mmm, HH:MM:SS, or MM:SS and rejects
// negative values.
func ParseTimestamp(s string) (AudioTimestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return AudioTimestamp{}, fmt.Errorf("empty timestamp")
	}
	if strings.HasPrefix(s, "-") {
		return AudioTimestamp{}, fmt.Errorf("negative timestamp: %q", s)
	}

	secPart := s
	msPart := "0"
	if idx := strings.LastIndexByte(s, '.'); idx >= 0 {
		secPart, msPart = s[:idx], s[idx+1:]
	}

	fields := strings.Split(secPart, ":")
	var h, m, sec int64
	var err error
	switch len(fields) {
	case 3:
		h, err = strconv.ParseInt(fields[0], 10, 64)
		if err == nil {
			m, err = strconv.ParseInt(fields[1], 10, 64)
		}
		if err == nil {
			sec, err = strconv.ParseInt(fields[2], 10, 64)
		}
	case 2:
		m, err = strconv.ParseInt(fields[0], 10, 64)
		if err == nil {
			sec, err = strconv.ParseInt(fields[1], 10, 64)
		}
	default:
		return AudioTimestamp{}, fmt.Errorf("unrecognized timestamp %q", s)
	}
	if err != nil {
		return AudioTimestamp{}, fmt.Errorf("unrecognized timestamp %q: %w", s, err)
	}
	if h < 0 || m < 0 || sec < 0 {
		return AudioTimestamp{}, fmt.Errorf("negative timestamp: %q", s)
	}

	msField, err := parseFractional(msPart)
	if err != nil {
		return AudioTimestamp{}, fmt.Errorf("unrecognized timestamp %q: %w", s, err)
	}

	total := ((h*60+m)*60 + sec) * 1000
	return FromMilliseconds(total + msField)
}

// parseFractional normalizes a fractional-seconds suffix of 1-3 digits to
// milliseconds (e.g. "5" -> 500, "45" -> 450, "123" -> 123).
func parseFractional(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	if len(s) > 3 {
		s = s[:3]
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	for len(s) < 3 {
		v *= 10
		s += "0"
	}
	return v, nil
}

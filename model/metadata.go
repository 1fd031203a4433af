package model

import "net/url"

// PrivateDatum is an opaque owner-tagged byte blob (ID3 PRIV / a domain
// concept with no MP4 equivalent).
type PrivateDatum struct {
	Owner string
	Bytes []byte
}

// UniqueFileIdentifier is an owner-tagged opaque identifier (ID3 UFID).
type UniqueFileIdentifier struct {
	Owner string
	Bytes []byte
}

// AudioMetadata enumerates every tag field the system understands.
// All fields are optional except where the zero value is
// itself meaningful (CustomTextFields/CustomURLs default to empty maps,
// SynchronizedLyrics defaults to an empty slice).
type AudioMetadata struct {
	Title        string
	Artist       string
	Album        string
	AlbumArtist  string
	Composer     string
	Genre        string
	Year         *int
	TrackNumber  *int
	DiscNumber   *int
	Comment      string
	Copyright    string
	Publisher    string
	Encoder      string
	BPM          *int
	Key          string
	Language     string
	ISRC         string

	UnsynchronizedLyrics string
	SynchronizedLyrics   []SynchronizedLyrics

	Artwork *Artwork

	ArtistURL     *url.URL
	AudioSourceURL *url.URL
	AudioFileURL  *url.URL
	PublisherURL  *url.URL
	CommercialURL *url.URL

	CustomTextFields map[string]string
	CustomURLs       map[string]*url.URL

	PrivateData           []PrivateDatum
	UniqueFileIdentifiers []UniqueFileIdentifier

	PlayCount *uint64
	Rating    *uint8
}

// NewAudioMetadata returns a metadata record with its maps/slices
// initialized to non-nil empty values, matching the model's defaults.
func NewAudioMetadata() AudioMetadata {
	return AudioMetadata{
		SynchronizedLyrics:    []SynchronizedLyrics{},
		CustomTextFields:      map[string]string{},
		CustomURLs:            map[string]*url.URL{},
		PrivateData:           []PrivateDatum{},
		UniqueFileIdentifiers: []UniqueFileIdentifier{},
	}
}

// OpaqueFrame is an unrecognized container-native record preserved
// verbatim across a modify round trip. ID is the frame/atom identifier (e.g. a 4-character ID3
// frame ID); Data is the raw, already-decoded-of-header payload.
type OpaqueFrame struct {
	ID   string
	Data []byte
}

// AudioFileInfo is the round-trip unit: metadata, chapters, and whatever
// unknown frames a `modify` call must preserve.
type AudioFileInfo struct {
	Metadata      AudioMetadata
	Chapters      ChapterList
	UnknownFrames []OpaqueFrame
}

// NewAudioFileInfo returns a zero-value-safe AudioFileInfo.
func NewAudioFileInfo() AudioFileInfo {
	return AudioFileInfo{
		Metadata:      NewAudioMetadata(),
		Chapters:      ChapterList{},
		UnknownFrames: []OpaqueFrame{},
	}
}

// IntPtr is a small helper for constructing AudioMetadata literals
// (Go has no int-literal-to-*int coercion).
func IntPtr(v int) *int { return &v }

// Uint8Ptr mirrors IntPtr for Rating.
func Uint8Ptr(v uint8) *uint8 { return &v }

// Uint64Ptr mirrors IntPtr for PlayCount.
func Uint64Ptr(v uint64) *uint64 { return &v }

// Package metadata extracts and normalizes audio tag metadata across
// container formats, and applies the distribution policy checks that
// uploaded audio and artwork must pass.
package metadata

import "errors"

// Extraction errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrFileNotFound      = errors.New("audio file not found")
	ErrCorruptAudio      = errors.New("corrupt audio file")
)

// Artwork is an embedded picture extracted from an audio container.
type Artwork struct {
	Data        []byte `json:"-"`
	MimeType    string `json:"mimeType"`
	Description string `json:"description"`
}

// AudioMetadata is the normalized record produced by extraction.
// It is built fresh per call and not mutated afterwards. Empty string
// fields mean the tag was absent; Bitrate 0 means the container does
// not carry a bitrate (e.g. lossless formats without a nominal rate).
type AudioMetadata struct {
	DurationSeconds int `json:"duration"`
	Bitrate         int `json:"bitrate,omitempty"`
	SampleRate      int `json:"sampleRate"`
	Channels        int `json:"channels"`

	Title       string `json:"title,omitempty"`
	Artist      string `json:"artist,omitempty"`
	Album       string `json:"album,omitempty"`
	Genre       string `json:"genre,omitempty"`
	Year        string `json:"year,omitempty"`
	TrackNumber string `json:"trackNumber,omitempty"`
	AlbumArtist string `json:"albumArtist,omitempty"`
	Composer    string `json:"composer,omitempty"`
	Lyrics      string `json:"lyrics,omitempty"`

	Artwork *Artwork `json:"artwork,omitempty"`
}

// Normalized field names shared by the per-family tag mapping tables.
const (
	fieldTitle       = "title"
	fieldArtist      = "artist"
	fieldAlbum       = "album"
	fieldGenre       = "genre"
	fieldYear        = "year"
	fieldTrackNumber = "track_number"
	fieldAlbumArtist = "album_artist"
	fieldComposer    = "composer"
	fieldLyrics      = "lyrics"
)

// setTagField assigns a normalized tag field by name. Unknown field
// names are ignored, which also makes unmapped tags a no-op.
func (m *AudioMetadata) setTagField(field, value string) {
	if value == "" {
		return
	}
	switch field {
	case fieldTitle:
		m.Title = value
	case fieldArtist:
		m.Artist = value
	case fieldAlbum:
		m.Album = value
	case fieldGenre:
		m.Genre = value
	case fieldYear:
		m.Year = value
	case fieldTrackNumber:
		m.TrackNumber = value
	case fieldAlbumArtist:
		m.AlbumArtist = value
	case fieldComposer:
		m.Composer = value
	case fieldLyrics:
		m.Lyrics = value
	}
}

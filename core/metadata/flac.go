package metadata

import (
	"fmt"
	"strings"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	flac "github.com/go-flac/go-flac"
)

// vorbisFieldMapping translates Vorbis comment keys (case-insensitive)
// to normalized field names. Unmapped keys are ignored.
var vorbisFieldMapping = map[string]string{
	"title":       fieldTitle,
	"artist":      fieldArtist,
	"album":       fieldAlbum,
	"genre":       fieldGenre,
	"date":        fieldYear,
	"year":        fieldYear,
	"tracknumber": fieldTrackNumber,
	"albumartist": fieldAlbumArtist,
	"composer":    fieldComposer,
	"lyrics":      fieldLyrics,
}

// applyVorbisComments maps comment values onto the record. Values may be
// repeated per key; the first one wins.
func applyVorbisComments(meta *AudioMetadata, comments map[string][]string) {
	for key, field := range vorbisFieldMapping {
		values, ok := comments[key]
		if !ok || len(values) == 0 {
			continue
		}
		// Two keys map to year; keep the first value seen.
		if field == fieldYear && meta.Year != "" {
			continue
		}
		meta.setTagField(field, values[0])
	}
}

// flacHandler parses FLAC streams: STREAMINFO for audio properties,
// Vorbis comment blocks for tags and PICTURE blocks for artwork.
type flacHandler struct{}

func (h *flacHandler) Extract(path string) (*AudioMetadata, error) {
	f, err := flac.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse FLAC file: %w", err)
	}

	info, err := f.GetStreamInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to read FLAC stream info: %w", err)
	}
	if info.SampleRate == 0 {
		return nil, fmt.Errorf("FLAC stream info has zero sample rate")
	}

	meta := &AudioMetadata{
		DurationSeconds: int(info.SampleCount / int64(info.SampleRate)),
		SampleRate:      info.SampleRate,
		Channels:        info.ChannelCount,
	}

	for _, block := range f.Meta {
		if block.Type != flac.VorbisComment {
			continue
		}
		comment, err := flacvorbis.ParseFromMetaDataBlock(*block)
		if err != nil {
			return nil, fmt.Errorf("failed to parse FLAC vorbis comment: %w", err)
		}
		applyVorbisComments(meta, splitVorbisComments(comment.Comments))
		break
	}

	// Independent artwork pass: the first PICTURE block wins, and a
	// stream without one is fine.
	for _, block := range f.Meta {
		if block.Type != flac.Picture {
			continue
		}
		picture, err := flacpicture.ParseFromMetaDataBlock(*block)
		if err != nil {
			continue
		}
		meta.Artwork = &Artwork{
			Data:        picture.ImageData,
			MimeType:    picture.MIME,
			Description: picture.Description,
		}
		break
	}

	return meta, nil
}

// splitVorbisComments turns raw "KEY=value" comment lines into a map
// keyed by lowercased field name.
func splitVorbisComments(raw []string) map[string][]string {
	comments := make(map[string][]string, len(raw))
	for _, line := range raw {
		idx := strings.Index(line, "=")
		if idx <= 0 {
			continue
		}
		key := strings.ToLower(line[:idx])
		comments[key] = append(comments[key], line[idx+1:])
	}
	return comments
}

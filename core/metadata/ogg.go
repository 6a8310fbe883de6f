package metadata

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/dhowden/tag"
)

// oggHandler parses Ogg Vorbis files: the identification header for
// audio properties, Vorbis comments for tags and a metadata block
// picture for artwork.
type oggHandler struct{}

func (h *oggHandler) Extract(path string) (*AudioMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open OGG file: %w", err)
	}
	defer f.Close()

	props, err := probeVorbis(f)
	if err != nil {
		return nil, err
	}

	meta := &AudioMetadata{
		DurationSeconds: props.durationSeconds,
		Bitrate:         props.bitrate,
		SampleRate:      props.sampleRate,
		Channels:        props.channels,
	}

	if _, err := f.Seek(0, 0); err != nil {
		return nil, fmt.Errorf("failed to rewind OGG file: %w", err)
	}
	tags, err := tag.ReadFrom(f)
	if err != nil {
		// Properties parsed fine; a comment header we cannot read means
		// the record simply carries no tags.
		return meta, nil
	}

	comments := make(map[string][]string)
	for key, value := range tags.Raw() {
		switch v := value.(type) {
		case string:
			comments[key] = append(comments[key], v)
		case []string:
			comments[key] = append(comments[key], v...)
		}
	}
	applyVorbisComments(meta, comments)

	if picture := tags.Picture(); picture != nil && len(picture.Data) > 0 {
		meta.Artwork = &Artwork{
			Data:        picture.Data,
			MimeType:    picture.MIMEType,
			Description: picture.Description,
		}
	}

	return meta, nil
}

type vorbisProperties struct {
	durationSeconds int
	bitrate         int
	sampleRate      int
	channels        int
}

// probeVorbis reads the Vorbis identification header from the first Ogg
// page and derives the duration from the granule position of the last
// page (total PCM samples).
func probeVorbis(f *os.File) (*vorbisProperties, error) {
	head := make([]byte, 512)
	n, _ := f.ReadAt(head, 0)
	head = head[:n]

	if len(head) < 4 || string(head[0:4]) != "OggS" {
		return nil, fmt.Errorf("not an Ogg stream")
	}

	// Identification header packet: "\x01vorbis" then version(4),
	// channels(1), sample rate(4 LE), max/nominal/min bitrate(4 LE each).
	idx := bytes.Index(head, []byte("\x01vorbis"))
	if idx < 0 || idx+28 > len(head) {
		return nil, fmt.Errorf("vorbis identification header not found")
	}

	channels := int(head[idx+11])
	sampleRate := int(binary.LittleEndian.Uint32(head[idx+12 : idx+16]))
	nominalBitrate := int(int32(binary.LittleEndian.Uint32(head[idx+20 : idx+24])))
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("invalid vorbis identification header")
	}

	props := &vorbisProperties{
		sampleRate: sampleRate,
		channels:   channels,
	}
	if nominalBitrate > 0 {
		props.bitrate = nominalBitrate
	}

	granule, err := lastGranulePosition(f)
	if err != nil {
		return nil, err
	}
	props.durationSeconds = int(granule / int64(sampleRate))
	return props, nil
}

// lastGranulePosition scans the file tail for the final Ogg page and
// returns its granule position.
func lastGranulePosition(f *os.File) (int64, error) {
	stat, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat OGG file: %w", err)
	}

	const window = 64 * 1024
	size := stat.Size()
	offset := size - window
	if offset < 0 {
		offset = 0
	}

	buf := make([]byte, size-offset)
	if _, err := f.ReadAt(buf, offset); err != nil {
		return 0, fmt.Errorf("failed to read OGG file tail: %w", err)
	}

	for i := len(buf) - 14; i >= 0; i-- {
		if string(buf[i:i+4]) == "OggS" {
			granule := int64(binary.LittleEndian.Uint64(buf[i+6 : i+14]))
			if granule >= 0 {
				return granule, nil
			}
		}
	}
	return 0, fmt.Errorf("no Ogg page found in file tail")
}

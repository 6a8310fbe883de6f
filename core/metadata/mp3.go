package metadata

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bogem/id3v2/v2"
)

// id3FieldMapping translates ID3v2 frame IDs to normalized field names.
// TYER is the ID3v2.3 year frame, TDRC its ID3v2.4 replacement.
// Unmapped frames are ignored.
var id3FieldMapping = map[string]string{
	"TIT2": fieldTitle,
	"TPE1": fieldArtist,
	"TALB": fieldAlbum,
	"TCON": fieldGenre,
	"TYER": fieldYear,
	"TDRC": fieldYear,
	"TRCK": fieldTrackNumber,
	"TPE2": fieldAlbumArtist,
	"TCOM": fieldComposer,
}

// firstText unwraps a frame value to its first element. ID3v2.4 text
// frames may carry multiple null-separated values.
func firstText(text string) string {
	return strings.TrimRight(strings.SplitN(text, "\x00", 2)[0], "\x00")
}

// mp3Handler parses MP3 files: ID3v2 frames for tags and artwork, MPEG
// frame headers for audio properties.
type mp3Handler struct{}

func (h *mp3Handler) Extract(path string) (*AudioMetadata, error) {
	props, err := probeMPEG(path)
	if err != nil {
		return nil, err
	}

	meta := &AudioMetadata{
		DurationSeconds: props.durationSeconds,
		Bitrate:         props.bitrate,
		SampleRate:      props.sampleRate,
		Channels:        props.channels,
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("failed to parse ID3 tag: %w", err)
	}
	defer tag.Close()

	if tag.HasFrames() {
		for frameID, field := range id3FieldMapping {
			text := firstText(tag.GetTextFrame(frameID).Text)
			if text == "" {
				continue
			}
			if field == fieldYear && meta.Year != "" {
				continue
			}
			meta.setTagField(field, text)
		}

		for _, framer := range tag.GetFrames(tag.CommonID("Unsynchronised lyrics/text transcription")) {
			if lyrics, ok := framer.(id3v2.UnsynchronisedLyricsFrame); ok {
				meta.setTagField(fieldLyrics, lyrics.Lyrics)
				break
			}
		}

		// Independent artwork pass: first APIC frame wins.
		for _, framer := range tag.GetFrames(tag.CommonID("Attached picture")) {
			if picture, ok := framer.(id3v2.PictureFrame); ok {
				meta.Artwork = &Artwork{
					Data:        picture.Picture,
					MimeType:    picture.MimeType,
					Description: picture.Description,
				}
				break
			}
		}
	}

	return meta, nil
}

// mpegProperties are the audio properties read from MPEG frame headers.
type mpegProperties struct {
	durationSeconds int
	bitrate         int // bits per second
	sampleRate      int
	channels        int
}

// Layer III bitrate tables, kbps, indexed by the 4-bit bitrate field.
var (
	mpeg1Layer3Bitrates = [16]int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0}
	mpeg2Layer3Bitrates = [16]int{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0}
)

var mpegSampleRates = map[byte][3]int{
	3: {44100, 48000, 32000}, // MPEG1
	2: {22050, 24000, 16000}, // MPEG2
	0: {11025, 12000, 8000},  // MPEG2.5
}

// probeMPEG locates the first MPEG audio frame past any ID3v2 tag and
// derives duration, bitrate, sample rate and channel count. Duration
// prefers the Xing/Info/VBRI frame count when present and falls back to
// a constant-bitrate estimate over the audio payload.
func probeMPEG(path string) (*mpegProperties, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat MP3 file: %w", err)
	}

	dataOffset := id3v2TagSize(f)
	buf := make([]byte, 16*1024)
	n, err := f.ReadAt(buf, dataOffset)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read MP3 frames: %w", err)
	}
	buf = buf[:n]

	sync := -1
	for i := 0; i+4 <= len(buf); i++ {
		if buf[i] == 0xFF && buf[i+1]&0xE0 == 0xE0 {
			if _, _, _, _, ok := parseFrameHeader(buf[i : i+4]); ok {
				sync = i
				break
			}
		}
	}
	if sync < 0 {
		return nil, fmt.Errorf("no MPEG frame sync found")
	}

	version, bitrate, sampleRate, channels, _ := parseFrameHeader(buf[sync : sync+4])

	samplesPerFrame := 1152
	if version != 3 {
		samplesPerFrame = 576
	}

	props := &mpegProperties{
		bitrate:    bitrate,
		sampleRate: sampleRate,
		channels:   channels,
	}

	if frames := findVBRFrameCount(buf[sync:]); frames > 0 {
		props.durationSeconds = int(float64(frames) * float64(samplesPerFrame) / float64(sampleRate))
		if audioBytes := stat.Size() - dataOffset; props.durationSeconds > 0 && audioBytes > 0 {
			props.bitrate = int(audioBytes * 8 / int64(props.durationSeconds))
		}
		return props, nil
	}

	if bitrate <= 0 {
		return nil, fmt.Errorf("could not determine MP3 bitrate")
	}
	audioBytes := stat.Size() - dataOffset - int64(sync)
	props.durationSeconds = int(audioBytes * 8 / int64(bitrate))
	return props, nil
}

// parseFrameHeader decodes a 4-byte MPEG frame header. The bool result
// is false for reserved version/layer/bitrate/samplerate values.
func parseFrameHeader(header []byte) (version byte, bitrate, sampleRate, channels int, ok bool) {
	version = (header[1] >> 3) & 0x03
	layer := (header[1] >> 1) & 0x03
	if version == 1 || layer != 1 { // reserved version, or not Layer III
		return 0, 0, 0, 0, false
	}

	rates, ok2 := mpegSampleRates[version]
	if !ok2 {
		return 0, 0, 0, 0, false
	}
	srIdx := (header[2] >> 2) & 0x03
	if srIdx == 3 {
		return 0, 0, 0, 0, false
	}
	sampleRate = rates[srIdx]

	brIdx := (header[2] >> 4) & 0x0F
	if version == 3 {
		bitrate = mpeg1Layer3Bitrates[brIdx] * 1000
	} else {
		bitrate = mpeg2Layer3Bitrates[brIdx] * 1000
	}

	channels = 2
	if (header[3]>>6)&0x03 == 3 { // mono channel mode
		channels = 1
	}
	return version, bitrate, sampleRate, channels, true
}

// findVBRFrameCount scans for a Xing/Info or VBRI header and returns the
// encoded frame count, or 0 when none is present.
func findVBRFrameCount(buf []byte) uint32 {
	for i := 0; i+18 <= len(buf); i++ {
		marker := string(buf[i : i+4])
		switch marker {
		case "Xing", "Info":
			flags := binary.BigEndian.Uint32(buf[i+4 : i+8])
			if flags&0x1 != 0 {
				return binary.BigEndian.Uint32(buf[i+8 : i+12])
			}
		case "VBRI":
			return binary.BigEndian.Uint32(buf[i+14 : i+18])
		}
	}
	return 0
}

// id3v2TagSize returns the byte offset of the first audio frame, i.e.
// the total size of a leading ID3v2 tag, or 0 when none is present.
func id3v2TagSize(f *os.File) int64 {
	header := make([]byte, 10)
	if _, err := f.ReadAt(header, 0); err != nil {
		return 0
	}
	if string(header[0:3]) != "ID3" {
		return 0
	}
	// Syncsafe 28-bit size, excluding the 10-byte header.
	size := int64(header[6]&0x7F)<<21 | int64(header[7]&0x7F)<<14 | int64(header[8]&0x7F)<<7 | int64(header[9]&0x7F)
	return size + 10
}

package metadata

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"
)

// Artwork policy bounds.
const (
	MinArtworkDimension = 1400
	MaxArtworkDimension = 1400
	artworkJPEGQuality  = 85
)

// ErrArtworkTooSmall means either dimension is below the distribution minimum.
var ErrArtworkTooSmall = errors.New("artwork must be at least 1400x1400 pixels")

// ErrArtworkTooLarge means the raw payload exceeds the configured byte bound.
var ErrArtworkTooLarge = errors.New("artwork payload too large")

// ProcessedArtwork is the normalized output of ProcessArtwork.
type ProcessedArtwork struct {
	Data      []byte `json:"-"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Format    string `json:"format"`
	SizeBytes int    `json:"size"`
}

// ArtworkProcessor validates and normalizes artwork images.
// MaxBytes guards against pathological inputs before decoding; zero
// disables the guard.
type ArtworkProcessor struct {
	MaxBytes int64
}

// Process validates dimensions and re-encodes the image as JPEG.
// Images above 1400x1400 are downscaled preserving aspect ratio with
// Lanczos resampling; images are never upscaled. Output is always JPEG
// at quality 85 even when no resize was needed, so every stored cover
// has a uniform format.
func (p *ArtworkProcessor) Process(data []byte) (*ProcessedArtwork, error) {
	if p.MaxBytes > 0 && int64(len(data)) > p.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrArtworkTooLarge, len(data))
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode artwork image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < MinArtworkDimension || height < MinArtworkDimension {
		return nil, fmt.Errorf("%w: got %dx%d", ErrArtworkTooSmall, width, height)
	}

	if width > MaxArtworkDimension || height > MaxArtworkDimension {
		// Fit shrinks into the bounding box preserving aspect ratio and
		// never upscales.
		img = imaging.Fit(img, MaxArtworkDimension, MaxArtworkDimension, imaging.Lanczos)
	}

	// Re-encoding goes through NRGBA, which also normalizes paletted and
	// grayscale inputs.
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(artworkJPEGQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode artwork as JPEG: %w", err)
	}

	out := img.Bounds()
	return &ProcessedArtwork{
		Data:      buf.Bytes(),
		Width:     out.Dx(),
		Height:    out.Dy(),
		Format:    "JPEG",
		SizeBytes: buf.Len(),
	}, nil
}

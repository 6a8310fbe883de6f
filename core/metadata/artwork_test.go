package metadata

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x += 100 {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func TestProcessArtworkRejectsSmallImages(t *testing.T) {
	p := &ArtworkProcessor{}
	_, err := p.Process(encodePNG(t, 1000, 1000))
	if !errors.Is(err, ErrArtworkTooSmall) {
		t.Fatalf("expected ErrArtworkTooSmall, got %v", err)
	}
}

func TestProcessArtworkDownscalesLargeImages(t *testing.T) {
	p := &ArtworkProcessor{}
	result, err := p.Process(encodePNG(t, 2000, 2000))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if result.Width > 1400 || result.Height > 1400 {
		t.Fatalf("expected output within 1400x1400, got %dx%d", result.Width, result.Height)
	}
	if result.Format != "JPEG" {
		t.Fatalf("expected JPEG output, got %s", result.Format)
	}
	if result.SizeBytes != len(result.Data) {
		t.Fatalf("SizeBytes %d does not match data length %d", result.SizeBytes, len(result.Data))
	}
	decoded, err := jpeg.Decode(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("output is not decodable JPEG: %v", err)
	}
	if got := decoded.Bounds().Dx(); got != result.Width {
		t.Fatalf("decoded width %d, reported %d", got, result.Width)
	}
}

func TestProcessArtworkPreservesAspectRatio(t *testing.T) {
	p := &ArtworkProcessor{}
	result, err := p.Process(encodePNG(t, 2800, 1400))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if result.Width != 1400 || result.Height != 700 {
		t.Fatalf("expected 1400x700, got %dx%d", result.Width, result.Height)
	}
}

func TestProcessArtworkReencodesExactFit(t *testing.T) {
	// A 1400x1400 PNG needs no resize but must still come back as JPEG.
	p := &ArtworkProcessor{}
	result, err := p.Process(encodePNG(t, 1400, 1400))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if result.Width != 1400 || result.Height != 1400 {
		t.Fatalf("expected dimensions preserved, got %dx%d", result.Width, result.Height)
	}
	if _, err := jpeg.Decode(bytes.NewReader(result.Data)); err != nil {
		t.Fatalf("output is not decodable JPEG: %v", err)
	}
}

func TestProcessArtworkByteGuard(t *testing.T) {
	data := encodePNG(t, 1400, 1400)
	p := &ArtworkProcessor{MaxBytes: int64(len(data)) - 1}
	if _, err := p.Process(data); !errors.Is(err, ErrArtworkTooLarge) {
		t.Fatalf("expected ErrArtworkTooLarge, got %v", err)
	}
}

func TestProcessArtworkRejectsGarbage(t *testing.T) {
	p := &ArtworkProcessor{}
	if _, err := p.Process([]byte("not an image")); err == nil {
		t.Fatal("expected decode error for non-image payload")
	}
}

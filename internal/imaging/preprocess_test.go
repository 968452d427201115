package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/your-org/fieldsight/internal/models"
)

func testPhoto(t *testing.T, w, h int, encode func(*bytes.Buffer, image.Image) error) models.CapturedPhoto {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := encode(&buf, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return models.CapturedPhoto{Data: buf.Bytes(), Filename: "upload.jpg"}
}

func encodeJPEG(buf *bytes.Buffer, img image.Image) error {
	return jpeg.Encode(buf, img, &jpeg.Options{Quality: 90})
}

func encodePNG(buf *bytes.Buffer, img image.Image) error {
	return png.Encode(buf, img)
}

func TestProcessResizesToCanonicalDimensions(t *testing.T) {
	p := NewPreprocessor()
	photo := testPhoto(t, 640, 480, encodeJPEG)

	out, err := p.Process(photo)
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if out.Width != TargetSize || out.Height != TargetSize {
		t.Fatalf("expected %dx%d, got %dx%d", TargetSize, TargetSize, out.Width, out.Height)
	}
	if out.Format != "jpeg" {
		t.Fatalf("expected jpeg format, got %q", out.Format)
	}

	decoded, format, err := image.Decode(bytes.NewReader(out.Data))
	if err != nil {
		t.Fatalf("decode processed image: %v", err)
	}
	if format != "jpeg" {
		t.Fatalf("processed bytes are %q, want jpeg", format)
	}
	b := decoded.Bounds()
	if b.Dx() != TargetSize || b.Dy() != TargetSize {
		t.Fatalf("decoded dimensions %dx%d, want %dx%d", b.Dx(), b.Dy(), TargetSize, TargetSize)
	}
}

func TestProcessAcceptsPNGInput(t *testing.T) {
	p := NewPreprocessor()
	photo := testPhoto(t, 300, 300, encodePNG)

	out, err := p.Process(photo)
	if err != nil {
		t.Fatalf("process png: %v", err)
	}
	if out.Format != "jpeg" {
		t.Fatalf("expected jpeg output for png input, got %q", out.Format)
	}
}

func TestProcessIsDeterministicOnMetadata(t *testing.T) {
	p := NewPreprocessor()
	photo := testPhoto(t, 1024, 768, encodeJPEG)

	first, err := p.Process(photo)
	if err != nil {
		t.Fatalf("first process: %v", err)
	}
	second, err := p.Process(photo)
	if err != nil {
		t.Fatalf("second process: %v", err)
	}

	if first.Width != second.Width || first.Height != second.Height || first.Format != second.Format {
		t.Fatalf("re-processing changed metadata: %dx%d/%s vs %dx%d/%s",
			first.Width, first.Height, first.Format, second.Width, second.Height, second.Format)
	}
}

func TestProcessRejectsUnreadableInput(t *testing.T) {
	p := NewPreprocessor()

	cases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage", []byte("not an image at all")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.Process(models.CapturedPhoto{Data: tc.data})
			if err == nil {
				t.Fatal("expected error for unreadable input")
			}
			var perr *PreprocessError
			if !errors.As(err, &perr) {
				t.Fatalf("expected PreprocessError, got %T: %v", err, err)
			}
		})
	}
}

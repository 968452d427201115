package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // registered for decoding client uploads

	"github.com/your-org/fieldsight/internal/models"
)

const (
	// TargetSize is the canonical edge length of processed images.
	TargetSize = 1000
	// jpegQuality is maximum: storage is not the bottleneck, classification
	// accuracy is.
	jpegQuality = 100
)

// PreprocessError marks a failure to decode or re-encode a captured photo.
// It is fatal: the caller must not proceed to inference or storage.
type PreprocessError struct {
	Err error
}

func (e *PreprocessError) Error() string {
	return fmt.Sprintf("preprocess photo: %v", e.Err)
}

func (e *PreprocessError) Unwrap() error {
	return e.Err
}

// Preprocessor converts captured photos into the canonical upload format.
type Preprocessor struct{}

func NewPreprocessor() *Preprocessor {
	return &Preprocessor{}
}

// Process decodes a captured photo and produces a TargetSize x TargetSize
// JPEG. Deterministic: the same photo always yields the same dimensions and
// format.
func (p *Preprocessor) Process(photo models.CapturedPhoto) (*models.ProcessedImage, error) {
	if len(photo.Data) == 0 {
		return nil, &PreprocessError{Err: fmt.Errorf("empty photo data")}
	}

	img, _, err := image.Decode(bytes.NewReader(photo.Data))
	if err != nil {
		return nil, &PreprocessError{Err: fmt.Errorf("decode image: %w", err)}
	}

	resized := resizeImage(img, TargetSize, TargetSize)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, &PreprocessError{Err: fmt.Errorf("encode jpeg: %w", err)}
	}

	return &models.ProcessedImage{
		Data:   buf.Bytes(),
		Width:  TargetSize,
		Height: TargetSize,
		Format: "jpeg",
	}, nil
}

// resizeImage performs nearest-neighbour resize (fast, good enough for
// classifier input).
func resizeImage(img image.Image, targetW, targetH int) image.Image {
	bounds := img.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()

	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))

	for y := 0; y < targetH; y++ {
		for x := 0; x < targetW; x++ {
			srcX := bounds.Min.X + x*srcW/targetW
			srcY := bounds.Min.Y + y*srcH/targetH
			dst.Set(x, y, img.At(srcX, srcY))
		}
	}

	return dst
}

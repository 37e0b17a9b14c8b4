package storage

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// MaxImagePixels rejects images whose decoded size would be unreasonable
// even when the encoded upload is small.
const MaxImagePixels = 40_000_000

// ImageProcessor builds derived images for uploads.
type ImageProcessor struct {
	quality int
}

func NewImageProcessor() *ImageProcessor {
	return &ImageProcessor{quality: 80}
}

// Thumbnail fits the image into a size x size box, keeping the aspect ratio,
// honouring EXIF orientation, and returns it JPEG encoded.
func (p *ImageProcessor) Thumbnail(content io.Reader, size int) (io.Reader, error) {
	raw, err := io.ReadAll(content)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}
	if cfg.Width*cfg.Height > MaxImagePixels {
		return nil, fmt.Errorf("image too large: %dx%d", cfg.Width, cfg.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	thumb := imaging.Fit(img, size, size, imaging.Lanczos)

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, thumb, imaging.JPEG, imaging.JPEGQuality(p.quality)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf, nil
}

package imageprocessor

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

const defaultQuality = 85

// Processor shrinks oversized uploads before they are stored
type Processor struct {
	quality  int // JPEG quality (1-100)
	maxWidth int // 0 disables downscaling
}

// NewProcessor creates a new image processor
func NewProcessor(quality, maxWidth int) *Processor {
	if quality <= 0 || quality > 100 {
		quality = defaultQuality
	}
	if maxWidth < 0 {
		maxWidth = 0
	}
	return &Processor{
		quality:  quality,
		maxWidth: maxWidth,
	}
}

// Downscale re-encodes JPEG and PNG images wider than maxWidth, keeping the
// aspect ratio. Other formats and images that already fit are returned as is.
// The boolean reports whether the image was changed.
func (p *Processor) Downscale(data []byte, mimeType string) ([]byte, bool, error) {
	if p.maxWidth == 0 || (mimeType != "image/jpeg" && mimeType != "image/png") {
		return data, false, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("failed to read image header: %w", err)
	}
	if cfg.Width <= p.maxWidth {
		return data, false, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode image: %w", err)
	}

	resized := p.resize(img, p.maxWidth)

	var buf bytes.Buffer
	switch mimeType {
	case "image/jpeg":
		if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: p.quality}); err != nil {
			return nil, false, fmt.Errorf("failed to encode JPEG: %w", err)
		}
	case "image/png":
		if err := png.Encode(&buf, resized); err != nil {
			return nil, false, fmt.Errorf("failed to encode PNG: %w", err)
		}
	}

	return buf.Bytes(), true, nil
}

// resize scales the image down to maxWidth maintaining aspect ratio
func (p *Processor) resize(img image.Image, maxWidth int) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	newHeight := int(float64(height) * float64(maxWidth) / float64(width))
	if newHeight < 1 {
		newHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	return dst
}
